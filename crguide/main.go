package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crguide/crguide/config"
	"crguide/crguide/controllers"
	"crguide/crguide/routes"
	"crguide/crguide/services/assistant"
	"crguide/crguide/services/auth"
	"crguide/crguide/sessions"
	"crguide/crguide/sources/psql"
	"crguide/crguide/sources/psql/dao"
	"crguide/crguide/sources/storage"
	"crguide/crguide/utils/formatter"
	"crguide/crguide/utils/logging"
	"crguide/crguide/utils/telemetry"

	"go.uber.org/zap"
)

const (
	sweepInterval = 10 * time.Minute
	version       = "1.0.0"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.Telemetry {
		shutdownTelemetry, err := telemetry.Init(ctx, cfg.LogDir, version)
		if err != nil {
			logging.ErrorLogger.Error("telemetry init error", zap.Error(err))
			os.Exit(1)
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdownTelemetry(flushCtx); err != nil {
				logging.ErrorLogger.Error("telemetry shutdown error", zap.Error(err))
			}
		}()
	}

	// profiles are only persisted when a database is configured
	var onLogin auth.LoginHook
	if cfg.DBEnabled() {
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("database connection error", zap.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		userCtrl := controllers.NewUserController(dao.NewUserDAO(db.DB))
		onLogin = userCtrl.RecordLogin
	}

	var feedback controllers.FeedbackSink
	if cfg.MinIOEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
		feedback = minioClient
	}

	if !cfg.OAuthEnabled() {
		logging.AppLogger.Warn("GOOGLE_CLIENT_ID is not set; sign-in is disabled")
	}
	google := auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)

	mgr := sessions.NewManager(sessions.Options{
		Greeting:      cfg.Site.Greeting,
		Asker:         assistant.NewClient(cfg.AssistantURL, cfg.AssistantTimeout),
		NewGate:       func() *auth.Gate { return auth.NewGate(google, onLogin) },
		RatePerMinute: cfg.SendRatePerMinute,
		TTL:           cfg.SessionTTL,
	})

	r := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Sessions: mgr,
		Auth:     controllers.NewAuthController(mgr, cfg),
		Chat:     controllers.NewChatController(cfg.Site, formatter.New(cfg.Formatter), feedback, cfg.OAuthEnabled()),
		Health:   controllers.NewHealthController(mgr),
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := mgr.Sweep(); n > 0 {
					logging.AppLogger.Info("expired sessions swept", zap.Int("count", n))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", cfg.Addr), zap.String("assistant", cfg.AssistantURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
