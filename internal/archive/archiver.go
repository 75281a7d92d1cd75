package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"bridgewatch/internal/model"
	"bridgewatch/internal/storage/postgres"
)

// Config controls archiving behavior.
type Config struct {
	BatchSize  int
	StateStore StateStore
}

// Archiver loads decoded bridge messages from JSONL and upserts them into
// Postgres, resuming from a block watermark.
type Archiver struct {
	cfg    Config
	store  *postgres.Store
	logger *zap.Logger

	// highest nonce seen per message kind, for replay visibility
	nonceHigh map[string]uint64
}

func NewArchiver(cfg Config, store *postgres.Store, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		nonceHigh: make(map[string]uint64),
	}
}

// Run archives a decoded messages JSONL file.
func (a *Archiver) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startBlock, err := a.loadStartBlock(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.MessageRecord, 0, a.cfg.BatchSize)
	maxBlock := startBlock
	var total, archived, skipped, failed int

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.MessageRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("parse message record", zap.Error(err))
			continue
		}

		if record.BlockNumber <= startBlock {
			skipped++
			continue
		}

		a.trackNonce(record)

		batch = append(batch, record)
		if record.BlockNumber > maxBlock {
			maxBlock = record.BlockNumber
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flush(ctx, batch, maxBlock); err != nil {
				return err
			}
			archived += len(batch)
			batch = batch[:0]
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if len(batch) > 0 {
		if err := a.flush(ctx, batch, maxBlock); err != nil {
			return err
		}
		archived += len(batch)
	}

	a.logger.Info("archive complete",
		zap.Int("total", total),
		zap.Int("archived", archived),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("watermark", maxBlock),
	)

	return nil
}

func (a *Archiver) loadStartBlock(ctx context.Context) (uint64, error) {
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	block, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load state: %w", err)
	}
	if !ok {
		return 0, nil
	}
	a.logger.Info("resume from watermark", zap.Uint64("block", block))
	return block, nil
}

func (a *Archiver) flush(ctx context.Context, batch []model.MessageRecord, maxBlock uint64) error {
	if err := a.store.UpsertMessages(ctx, batch); err != nil {
		return fmt.Errorf("upsert messages: %w", err)
	}
	if a.cfg.StateStore != nil {
		if err := a.cfg.StateStore.Save(ctx, maxBlock); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	return nil
}

// trackNonce logs non-monotonic nonces per kind. Acceptance is unaffected:
// replay protection belongs to the receiving chain, this is visibility only.
func (a *Archiver) trackNonce(record model.MessageRecord) {
	high, ok := a.nonceHigh[record.Kind]
	if ok && record.Nonce <= high {
		a.logger.Warn("nonce not monotonic",
			zap.String("kind", record.Kind),
			zap.Uint64("nonce", record.Nonce),
			zap.Uint64("high", high),
			zap.String("tx_hash", record.TxHash),
		)
		return
	}
	a.nonceHigh[record.Kind] = record.Nonce
}
