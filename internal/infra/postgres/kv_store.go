package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// KeyValueStore keeps whole-value slots in the kv_slots table.
type KeyValueStore struct {
	pool *pgxpool.Pool
}

func NewKeyValueStore(pool *pgxpool.Pool) *KeyValueStore {
	return &KeyValueStore{pool: pool}
}

func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_slots WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, true, nil
}

func (s *KeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO kv_slots (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}
