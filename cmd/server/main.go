package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/suportedesk/backend/internal/ai"
	"github.com/suportedesk/backend/internal/collector"
	"github.com/suportedesk/backend/internal/config"
	"github.com/suportedesk/backend/internal/db"
	httpapi "github.com/suportedesk/backend/internal/http"
	"github.com/suportedesk/backend/internal/mail"
	"github.com/suportedesk/backend/internal/pipeline"
	"github.com/suportedesk/backend/internal/report"
	"github.com/suportedesk/backend/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "suportedesk-reports").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var adapter ai.Adapter
	if cfg.OllamaURL == "" {
		adapter = ai.MockAdapter{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock AI adapter")
	} else {
		adapter = &ai.OllamaAdapter{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Client:  &http.Client{Timeout: cfg.OllamaTimeout},
		}
	}

	col := &collector.Collector{Source: store, Cfg: collector.DefaultConfig(), Logger: logger}
	mailer := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, logger)
	renderer, err := report.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build report templates")
	}

	pipe := pipeline.New(col, adapter, renderer, mailer, store, cfg.Recipients(), logger)
	sched := scheduler.New(pipe, logger)
	go func() {
		if err := sched.Start(ctx, cfg.ReportCron); err != nil {
			logger.Fatal().Err(err).Msg("scheduler failed to start")
		}
	}()

	router := httpapi.Router(cfg, store, adapter, sched, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
