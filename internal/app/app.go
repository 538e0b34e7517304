package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-ledger/internal/admin"
	"github.com/kirinyoku/tix-ledger/internal/clock"
	"github.com/kirinyoku/tix-ledger/internal/config"
	"github.com/kirinyoku/tix-ledger/internal/journal"
	journalpg "github.com/kirinyoku/tix-ledger/internal/journal/postgres"
	"github.com/kirinyoku/tix-ledger/internal/ledger"
	"github.com/kirinyoku/tix-ledger/internal/notify"
	"github.com/kirinyoku/tix-ledger/internal/payout"
	"github.com/redis/go-redis/v9"
)

// App wires config into a ready ledger: journal store, notifier, payout
// sink, registries, and the admin boundary, with the journal replayed.
type App struct {
	Config   *config.Config
	Ledger   *ledger.Ledger
	Admin    *admin.Service
	Journal  journal.Store
	Notifier *notify.PubSub // nil when REDIS_ADDR is unset
	Treasury *payout.Treasury

	logger *slog.Logger
	pool   *pgxpool.Pool
	rdb    *redis.Client
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{
		Config:   cfg,
		Treasury: payout.NewTreasury(),
		logger:   logger,
	}

	a.Journal = journal.NewMemory()
	if cfg.Postgres.Enabled {
		pool, err := journalpg.Connect(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.pool = pool

		store := journalpg.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		a.Journal = store
	}

	if cfg.Redis.Addr != "" {
		rdb, err := notify.Connect(ctx, notify.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.rdb = rdb
		a.Notifier = notify.New(rdb)
	}

	opts := []ledger.Option{ledger.WithJournal(a.Journal), ledger.WithLogger(logger)}
	if a.Notifier != nil {
		opts = append(opts, ledger.WithNotifier(a.Notifier))
	}

	led, err := ledger.New(cfg.Owner, cfg.PayoutWallet, a.Treasury, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := led.Replay(ctx, a.Journal); err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := led.Events.SetMembershipSource(cfg.Owner, led.Membership); err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.Ledger = led
	a.Admin = admin.New(led.Events, clock.NewSystem(), cfg.Admin)

	logger.Info("ledger ready",
		"owner", cfg.Owner,
		"payout_wallet", cfg.PayoutWallet,
		"events", led.Events.EventCount(),
		"durable_journal", cfg.Postgres.Enabled,
	)

	return a, nil
}

func (a *App) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
