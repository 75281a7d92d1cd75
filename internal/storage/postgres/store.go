package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridgewatch/internal/model"
)

// Store provides Postgres persistence for decoded bridge messages.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertMessages inserts or updates decoded bridge messages. A message is
// identified by (chain_id, tx_hash, log_index); re-archiving the same log is
// idempotent.
func (s *Store) UpsertMessages(ctx context.Context, messages []model.MessageRecord) error {
	if len(messages) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range messages {
		var token interface{}
		if m.Token != "" {
			token = m.Token
		}
		batch.Queue(`
			INSERT INTO bridge_messages (
				chain_id, block_number, block_hash, tx_hash, log_index, bank_address,
				kind, sender, recipient, token, amount, nonce, block_ts, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (chain_id, tx_hash, log_index)
			DO UPDATE SET
				block_number = EXCLUDED.block_number,
				block_hash = EXCLUDED.block_hash,
				bank_address = EXCLUDED.bank_address,
				kind = EXCLUDED.kind,
				sender = EXCLUDED.sender,
				recipient = EXCLUDED.recipient,
				token = EXCLUDED.token,
				amount = EXCLUDED.amount,
				nonce = EXCLUDED.nonce,
				block_ts = EXCLUDED.block_ts,
				updated_at = now()
		`,
			int64(m.ChainID),
			int64(m.BlockNumber),
			m.BlockHash,
			m.TxHash,
			int64(m.LogIndex),
			m.BankAddress,
			m.Kind,
			m.Sender,
			m.Recipient,
			token,
			m.Amount,
			int64(m.Nonce),
			int64(m.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range messages {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM relayer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO relayer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, block)
	return err
}
