// crguide/controllers/chat.go
package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crguide/crguide/config"
	"crguide/crguide/services/auth"
	"crguide/crguide/sessions"
	"crguide/crguide/utils/formatter"
	"crguide/crguide/utils/types"
	"crguide/crguide/views"
)

var (
	ErrEmptyDraft       = errors.New("message is empty")
	ErrRateLimited      = errors.New("too many messages, slow down")
	ErrFeedbackDisabled = errors.New("feedback storage is not configured")
	ErrBadFeedback      = errors.New("feedback must point at an assistant message")
)

// FeedbackSink stores feedback rows; the MinIO client is the production one.
type FeedbackSink interface {
	UploadFeedback(ctx context.Context, records []types.FeedbackRecord) (string, error)
}

type ChatController struct {
	site      config.Site
	formatter formatter.Formatter
	feedback  FeedbackSink
	oauthOn   bool
}

func NewChatController(site config.Site, f formatter.Formatter, feedback FeedbackSink, oauthOn bool) *ChatController {
	return &ChatController{site: site, formatter: f, feedback: feedback, oauthOn: oauthOn}
}

func (c *ChatController) Snapshot(sess *sessions.Session) (types.Snapshot, error) {
	store, _, err := sess.Conversation()
	if err != nil {
		return types.Snapshot{}, err
	}
	return store.Snapshot(), nil
}

// Send applies the send button's blank-draft guard, then hands off to the session's SendController.
func (c *ChatController) Send(ctx context.Context, sess *sessions.Session, content string) (types.Snapshot, error) {
	store, sender, err := sess.Conversation()
	if err != nil {
		return types.Snapshot{}, err
	}
	if strings.TrimSpace(content) == "" {
		return types.Snapshot{}, ErrEmptyDraft
	}
	if !sess.Limiter.Allow() {
		return types.Snapshot{}, ErrRateLimited
	}
	sender.Send(ctx, content)
	return store.Snapshot(), nil
}

// SetDraft fills the input box, e.g. from a suggested question. It never sends.
func (c *ChatController) SetDraft(sess *sessions.Session, content string) (types.Snapshot, error) {
	store, _, err := sess.Conversation()
	if err != nil {
		return types.Snapshot{}, err
	}
	store.SetDraft(content)
	return store.Snapshot(), nil
}

func (c *ChatController) messageViews(msgs []types.Message) []views.MessageView {
	out := make([]views.MessageView, len(msgs))
	for i, m := range msgs {
		out[i] = views.MessageView{
			Index: i,
			Role:  string(m.Role),
			HTML:  c.formatter.Format(m.Content),
			Time:  formatter.FormatTimestamp(m.Timestamp),
		}
	}
	return out
}

func (c *ChatController) ChatPage(sess *sessions.Session) (views.ChatPage, error) {
	snap, err := c.Snapshot(sess)
	if err != nil {
		return views.ChatPage{}, err
	}
	var profile types.ProfileView
	if p := sess.Gate.Profile(); p != nil {
		profile = p.View()
	}
	return views.ChatPage{
		Title:              c.site.Title,
		Profile:            profile,
		SuggestedQuestions: c.site.SuggestedQuestions,
		Messages:           c.messageViews(snap.Messages),
		Typing:             snap.Typing,
		Draft:              snap.Draft,
	}, nil
}

// Fragment renders the message list for a websocket push.
func (c *ChatController) Fragment(snap types.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := views.RenderMessages(&buf, c.messageViews(snap.Messages), snap.Typing); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *ChatController) LoginPage(sess *sessions.Session) views.LoginPage {
	page := views.LoginPage{Title: c.site.Title, Enabled: c.oauthOn}
	if sess != nil {
		page.Error = auth.UserMessage(sess.Gate.LastError())
	}
	return page
}

// Feedback stores a rating of one assistant message together with the question it answered.
func (c *ChatController) Feedback(ctx context.Context, sess *sessions.Session, req types.FeedbackRequest) (string, error) {
	if c.feedback == nil {
		return "", ErrFeedbackDisabled
	}
	store, _, err := sess.Conversation()
	if err != nil {
		return "", err
	}
	msgs := store.Messages()
	if req.MessageIndex < 0 || req.MessageIndex >= len(msgs) || msgs[req.MessageIndex].Role != types.RoleAssistant {
		return "", ErrBadFeedback
	}
	record := types.FeedbackRecord{
		Timestamp:          time.Now(),
		ResponseID:         fmt.Sprintf("%s-%d", sess.ID, req.MessageIndex),
		FeedbackType:       req.FeedbackType,
		BotResponse:        msgs[req.MessageIndex].Content,
		Issue:              req.Issue,
		AdditionalFeedback: req.AdditionalFeedback,
	}
	for i := req.MessageIndex - 1; i >= 0; i-- {
		if msgs[i].Role == types.RoleUser {
			record.UserInput = msgs[i].Content
			break
		}
	}
	return c.feedback.UploadFeedback(ctx, []types.FeedbackRecord{record})
}
