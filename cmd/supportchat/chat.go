package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"SupportChat/internal/chatbot"
	"SupportChat/internal/config"
	"SupportChat/internal/repl"
	"SupportChat/internal/supportapi"
	"SupportChat/internal/telemetry"
	"SupportChat/internal/transcript"
	"SupportChat/internal/tui"

	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel/trace"
)

// app holds what every subcommand needs
type app struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	instruments *telemetry.Instruments
	client      *supportapi.Client
	cleanup     []func()
}

func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	logger, closeLog, err := telemetry.InitLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.cleanup = append(a.cleanup, closeLog)

	tracer, meter, shutdown, err := telemetry.InitTelemetry(ctx, cfg.LogDir, cfg.Telemetry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.tracer = tracer
	a.cleanup = append(a.cleanup, shutdown)

	inst, err := telemetry.NewInstruments(meter)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.instruments = inst

	a.client = supportapi.NewClient(cfg.BaseURL, cfg.RequestTimeout, logger,
		supportapi.WithTracer(tracer),
		supportapi.WithInstruments(inst),
	)

	logger.Info("client configured",
		"base_url", cfg.BaseURL,
		"timeout", cfg.RequestTimeout.String(),
		"telemetry", cfg.Telemetry,
		"transcripts", cfg.TranscriptDB != "",
	)
	return a, nil
}

func runChat(ctx context.Context, cfg config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := chatbot.NewController(a.client,
		chatbot.WithLogger(a.logger),
		chatbot.WithTracer(a.tracer),
		chatbot.WithInstruments(a.instruments),
	)

	// A nil *Store must not end up inside the interface.
	var archiver transcript.Archiver
	if cfg.TranscriptDB != "" {
		store, err := transcript.Open(cfg.TranscriptDB)
		if err != nil {
			return err
		}
		defer store.Close()
		archiver = store
	}

	if useTUI(cfg.UI) {
		a.logger.Info("starting terminal UI")
		return tui.Run(ctx, tui.New(ctx, ctrl, archiver, a.logger))
	}
	a.logger.Info("starting line mode")
	return repl.New(ctrl, archiver, os.Stdin, os.Stdout, a.logger).Run(ctx)
}

func useTUI(mode string) bool {
	switch mode {
	case config.UITUI:
		return true
	case config.UILine:
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
