package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shelver/internal/daemon"
	"shelver/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the shelver daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), ctx)
		},
	}
}

func runDaemon(cmdCtx context.Context, cctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := cctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewTee(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, "shelver.log")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.Bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	logger.Info("shelver is running, interrupt to stop")

	<-signalCtx.Done()
	d.Stop()
	return nil
}
