package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bridgewatch/internal/chain"
	"bridgewatch/internal/config"
	"bridgewatch/internal/storage"
	"bridgewatch/internal/watcher"
)

func main() {
	root := &cobra.Command{
		Use:          "relayer",
		Short:        "Bridge bank event watcher and decoder",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan bank contract AppEvent logs into raw JSONL",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "source chain RPC URL")
	watchCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	watchCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	watchCmd.Flags().StringSlice("bank", nil, "bank contract addresses (comma-separated)")
	watchCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	watchCmd.Flags().String("out", "./data/logs.jsonl", "output JSONL path")
	watchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	watchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	watchCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(watchCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw bank logs into bridge messages",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/messages.jsonl", "output messages JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive decoded messages into Postgres",
		RunE:  runArchive,
	}

	archiveCmd.Flags().String("in", "", "input messages JSONL")
	archiveCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	archiveCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	archiveCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	archiveCmd.Flags().String("state-name", "archive", "watermark name in relayer_state")
	archiveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(archiveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	bankAddresses, err := watcher.ParseBankAddresses(cfg.BankAddresses)
	if err != nil {
		return err
	}
	if len(bankAddresses) == 0 {
		return fmt.Errorf("bank contract address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	storageSink := storage.NewJsonlStorage(cfg.Out)

	runner := watcher.NewRunner(watcher.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		BankAddresses:     bankAddresses,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, storageSink, logger)

	logger.Info("watch start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("banks", len(bankAddresses)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
