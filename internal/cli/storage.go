package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/catalog"
	"assessment-service/internal/config"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
	"assessment-service/internal/infra/postgres"
	infraredis "assessment-service/internal/infra/redis"
	"assessment-service/internal/infra/sqlite"
	"assessment-service/internal/infra/webhook"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// backends holds the connections opened for one command invocation.
type backends struct {
	cfg     config.Config
	kv      app.KeyValueStore
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func()
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{cfg: cfg}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, pool.Close)
	}

	switch cfg.Storage.Driver {
	case "", "sqlite":
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.kv = store
		b.closers = append(b.closers, func() { _ = store.Close() })
	case "memory":
		b.kv = memory.NewKeyValueStore()
	case "redis":
		if b.redis == nil {
			b.Close()
			return nil, errors.New("storage driver redis requires redis.addr")
		}
		b.kv = infraredis.NewKeyValueStore(b.redis)
	case "postgres":
		if b.pool == nil {
			b.Close()
			return nil, errors.New("storage driver postgres requires postgres.url")
		}
		b.kv = postgres.NewKeyValueStore(b.pool)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// bankRepository picks the loader (Postgres or embedded catalog) and the
// cache in front of it (Redis or process memory).
func (b *backends) bankRepository(ctx context.Context, logger *slog.Logger) (app.BankRepository, error) {
	var loader memory.BankLoader = memory.NewStaticBankLoader(catalog.MustBanks())
	if b.pool != nil {
		pg := postgres.NewBankLoader(b.pool)
		if err := seedMissingBank(ctx, pg, b.cfg.Quiz.Bank, logger); err != nil {
			return nil, err
		}
		loader = pg
	}

	ttl := config.TTLDuration(b.cfg.Quiz.TTL, 10*time.Minute)
	if b.redis != nil {
		return infraredis.NewBankRepository(b.redis, loader, ttl), nil
	}
	return memory.NewBankRepository(loader, ttl), nil
}

// seedMissingBank stores the embedded bank when the table has no row for it;
// an existing row is left as the operator edited it.
func seedMissingBank(ctx context.Context, pg *postgres.BankLoader, bankID string, logger *slog.Logger) error {
	_, err := pg.LoadBank(ctx, bankID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrBankNotFound) {
		return err
	}
	bank, ok := catalog.MustBanks()[bankID]
	if !ok {
		return fmt.Errorf("bank %q: %w", bankID, domain.ErrBankNotFound)
	}
	if err := pg.SaveBank(ctx, bank); err != nil {
		return err
	}
	logger.Info("seeded question bank", "bank", bankID, "questions", bank.Len())
	return nil
}

func (b *backends) sessionRepository() app.SessionRepository {
	if b.redis != nil {
		return infraredis.NewSessionStore(b.redis, config.TTLDuration(b.cfg.Redis.TTL, 30*time.Minute))
	}
	return memory.NewSessionStore()
}

func (b *backends) resultStore(ctx context.Context, logger *slog.Logger) (*app.ResultStore, error) {
	return app.OpenResultStore(ctx, b.kv, app.WithResultLogger(logger))
}

func (b *backends) settingsStore(ctx context.Context, logger *slog.Logger) (*app.SettingsStore, error) {
	return app.OpenSettingsStore(ctx, b.kv, b.cfg.Webhook.URL, logger)
}

func (b *backends) syncClient(settings *app.SettingsStore, logger *slog.Logger) *app.SyncClient {
	transport := webhook.NewTransport(config.TTLDuration(b.cfg.Webhook.Timeout, 15*time.Second))
	return app.NewSyncClient(transport, settings,
		app.WithPlatform(b.cfg.Webhook.Platform),
		app.WithSyncLogger(logger),
	)
}
