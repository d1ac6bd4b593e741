// Command-line client for the community resource assistant
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"crguide/crguide/config"
	"crguide/crguide/controllers"
	"crguide/crguide/conversation"
	"crguide/crguide/services/assistant"
	"crguide/crguide/services/chat"
	"crguide/crguide/sources/psql"
	"crguide/crguide/sources/psql/dao"
	"crguide/crguide/sources/storage"
	"crguide/crguide/utils/color"
	"crguide/crguide/utils/formatter"
	"crguide/crguide/utils/logging"
	"crguide/crguide/utils/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noColor bool
	root := &cobra.Command{
		Use:          "crguide",
		Short:        "Talk to the community resource assistant from a terminal",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.Disable()
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	root.AddCommand(newChatCmd(), newAskCmd(), newUsersCmd(), newFeedbackCmd())
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return cfg, err
	}
	logging.InitLogger(cfg.LogDir)
	return cfg, nil
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()
			client := assistant.NewClient(cfg.AssistantURL, cfg.AssistantTimeout)
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Site, client)
		},
	}
}

var renderer = formatter.NewMarkdown()

func printMessage(out io.Writer, m types.Message) {
	label := "Assistant"
	if m.Role == types.RoleUser {
		label = "You"
	}
	fmt.Fprintf(out, "%s %s\n%s\n\n",
		color.ColorRole(string(m.Role), label+":"),
		color.ColorTime(formatter.FormatTimestamp(m.Timestamp)),
		formatter.Terminal(renderer.Format(m.Content)))
}

func runChat(ctx context.Context, in io.Reader, out io.Writer, site config.Site, asker assistant.Asker) error {
	store := conversation.New(site.Greeting, time.Now)
	sender := chat.NewSendController(store, asker).WithLogger(logging.AppLogger.With(zap.String("client", "cli")))

	fmt.Fprintln(out, color.ColorInfo(site.Title))
	printMessage(out, store.Messages()[0])
	if len(site.SuggestedQuestions) > 0 {
		fmt.Fprintln(out, color.ColorInfo("Try asking:"))
		for i, q := range site.SuggestedQuestions {
			fmt.Fprintf(out, "  %d. %s\n", i+1, q)
		}
		fmt.Fprintln(out, color.ColorInfo("Type a number to use a suggestion, or 'exit' to quit."))
		fmt.Fprintln(out)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, color.ColorPrompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(site.SuggestedQuestions) {
			line = site.SuggestedQuestions[n-1]
			fmt.Fprintln(out, line)
		}
		reply, err := sender.SendSync(ctx, line)
		if err != nil && reply.Content == "" {
			return err
		}
		printMessage(out, reply)
	}
	fmt.Fprintln(out, color.ColorInfo("Goodbye!"))
	return scanner.Err()
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()
			client := assistant.NewClient(cfg.AssistantURL, cfg.AssistantTimeout)
			return runAsk(cmd.Context(), cmd.OutOrStdout(), cfg.Site.Greeting, client, strings.Join(args, " "))
		},
	}
}

func runAsk(ctx context.Context, out io.Writer, greeting string, asker assistant.Asker, question string) error {
	store := conversation.New(greeting, time.Now)
	reply, err := chat.NewSendController(store, asker).SendSync(ctx, question)
	if reply.Content != "" {
		fmt.Fprintln(out, formatter.Terminal(renderer.Format(reply.Content)))
	}
	if err != nil {
		return fmt.Errorf("assistant unavailable: %w", err)
	}
	return nil
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List everyone who has signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.DBEnabled() {
				return fmt.Errorf("DB_HOST is not set")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			db, err := psql.NewDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			users, err := controllers.NewUserController(dao.NewUserDAO(db.DB)).GetAllUsers(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, u := range users {
				name := ""
				if u.FullName != nil {
					name = *u.FullName
				}
				fmt.Fprintf(out, "%-30s %-24s logins=%d last=%s\n", u.Email, name, u.LoginCount, u.LastLoginAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newFeedbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback [key]",
		Short: "Print a stored feedback file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.MinIOEnabled() {
				return fmt.Errorf("MINIO_ENDPOINT is not set")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client, err := storage.NewMinIOClient(ctx, cfg)
			if err != nil {
				return err
			}
			body, err := client.GetFeedback(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), body)
			return nil
		},
	}
}
