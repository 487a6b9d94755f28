package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/config"
	"assessment-service/internal/infra/llm"
	transport "assessment-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := slog.Default()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	banks, err := b.bankRepository(ctx, logger)
	if err != nil {
		return err
	}
	results, err := b.resultStore(ctx, logger)
	if err != nil {
		return err
	}
	settings, err := b.settingsStore(ctx, logger)
	if err != nil {
		return err
	}

	var feedback app.FeedbackProvider
	provider, err := llm.New(ctx, llm.Config{
		Provider: cfg.Feedback.Provider,
		Model:    cfg.Feedback.Model,
		APIKey:   cfg.Feedback.APIKey,
		BaseURL:  cfg.Feedback.BaseURL,
	}, logger)
	if err != nil {
		logger.Warn("feedback generator unavailable, using fallback feedback", "provider", cfg.Feedback.Provider, "error", err)
	} else {
		feedback = provider
	}

	// Background completion work outlives requests but not the process.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	service := app.NewAssessmentService(workCtx, app.ServiceDeps{
		Banks:    banks,
		BankID:   cfg.Quiz.Bank,
		Sessions: b.sessionRepository(),
		Results:  results,
		Settings: settings,
		Sync:     b.syncClient(settings, logger),
		Feedback: feedback,
		Logger:   logger,
	}, app.ControllerOptions{
		TickInterval:    config.TTLDuration(cfg.Quiz.TickInterval, time.Second),
		TimePerQuestion: cfg.Quiz.TimePerQuestion,
		Logger:          logger,
	})

	if _, err := service.Bank(ctx); err != nil {
		return err
	}

	router := transport.NewRouter(
		transport.NewAPIHandler(service, cfg.Admin.AccessCode, logger),
		transport.NewWSHandler(service, cfg.Admin.Contact, logger),
	)
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting assessment service", "port", finalPort, "storage", cfg.Storage.Driver, "bank", cfg.Quiz.Bank)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)

	// Websocket connections are hijacked and not tracked by Shutdown; finished
	// attempts still need their feedback, save and sync before the stores close.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.DrainTimeout, time.Minute))
	defer cancelDrain()
	if err := service.Drain(drainCtx); err != nil {
		logger.Warn("shutdown before pending results were stored", "error", err)
	}
	return shutdownErr
}
