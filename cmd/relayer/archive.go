package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bridgewatch/internal/archive"
	"bridgewatch/internal/config"
	"bridgewatch/internal/storage/postgres"
)

func runArchive(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadArchive(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	var stateStore archive.StateStore
	if cfg.StateFile != "" {
		stateStore = &archive.FileStateStore{Path: cfg.StateFile}
	} else {
		stateStore = &archive.DBStateStore{Store: store, Name: cfg.StateName}
	}

	archiver := archive.NewArchiver(archive.Config{
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
	}, store, logger)

	logger.Info("archive start",
		zap.String("in", cfg.In),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("state_file", cfg.StateFile),
		zap.String("state_name", cfg.StateName),
	)

	return archiver.Run(ctx, cfg.In)
}
