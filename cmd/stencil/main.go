package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"stencil/internal/bootstrap"
	"stencil/internal/domain"
	"stencil/internal/infra"
	"stencil/internal/playground"
	"stencil/internal/tui"
)

func main() {
	var (
		plainFlag bool
		fileFlag  string
	)
	flag.BoolVar(&plainFlag, "plain", false, "run upload, generate and download once without the terminal UI")
	flag.StringVar(&fileFlag, "file", "", "image to upload (also accepted as the first argument)")
	flag.Parse()
	if fileFlag == "" && flag.NArg() > 0 {
		fileFlag = flag.Arg(0)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if plainFlag {
		if err := runPlain(ctx, cfg, fileFlag); err != nil {
			os.Exit(1)
		}
		return
	}

	logger, closer, err := infra.NewFileLogger(cfg.LogFile, cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup:", err)
		os.Exit(1)
	}
	defer components.Close()

	if err := tui.Run(ctx, components.Controller, fileFlag, tea.WithContext(ctx)); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error().Err(err).Msg("terminal ui failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPlain drives one full pass and logs each state change to stdout.
func runPlain(ctx context.Context, cfg *infra.Config, path string) error {
	logger := infra.NewLogger(cfg.AppEnv)
	if path == "" {
		err := errors.New("an image path is required with -plain")
		logger.Error().Err(err).Msg("stencil")
		return err
	}

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("setup failed")
		return err
	}
	defer components.Close()

	ctrl := components.Controller
	ctrl.Subscribe(func(s playground.Snapshot) {
		if s.View.StatusText != "" {
			logger.Info().Str("stage", string(s.State.Stage)).Msg(s.View.StatusText)
		}
	})

	file, err := domain.LoadLocalFile(path)
	if err != nil {
		logger.Error().Err(err).Msg("read image")
		return err
	}
	if err := ctrl.SelectFile(ctx, file); err != nil {
		logger.Error().Err(err).Msg("upload failed")
		return err
	}
	if err := ctrl.Generate(ctx); err != nil {
		logger.Error().Err(err).Msg("generation failed")
		return err
	}
	logger.Info().Str("result", ctrl.Snapshot().ResultURL).Msg("result ready")

	outcome, err := ctrl.Download(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("download failed")
		return err
	}
	if outcome.Saved() {
		logger.Info().Str("strategy", outcome.Strategy).Str("location", outcome.Location).Msg("saved")
	} else {
		logger.Warn().Err(outcome.Err).Msg(outcome.Hint)
	}
	return nil
}
