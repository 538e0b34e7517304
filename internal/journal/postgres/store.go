// Package postgres persists the settlement journal so ledger state can be
// rebuilt across process restarts.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-ledger/internal/domain"
	"github.com/kirinyoku/tix-ledger/internal/journal"
)

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	const op = "journal.postgres.Connect"

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pool, nil
}

// Amounts are stored as NUMERIC(20,0) text because uint64 exceeds BIGINT.
const schema = `
CREATE TABLE IF NOT EXISTS ledger_journal (
	seq          BIGSERIAL PRIMARY KEY,
	id           UUID NOT NULL UNIQUE,
	kind         TEXT NOT NULL,
	at           TIMESTAMPTZ NOT NULL,
	account      UUID NOT NULL,
	counterparty UUID NOT NULL,
	event_id     BIGINT NOT NULL DEFAULT 0,
	tier         SMALLINT NOT NULL DEFAULT 0,
	amount       NUMERIC(20,0) NOT NULL DEFAULT 0,
	name         TEXT NOT NULL DEFAULT '',
	date         TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	about        TEXT NOT NULL DEFAULT '',
	tickets      BIGINT NOT NULL DEFAULT 0
)`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the journal table if it does not exist. An advisory
// lock keeps concurrent starts from racing the DDL.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const op = "journal.postgres.Store.EnsureSchema"

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Release()

	const lockID int64 = 712845003
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Append(ctx context.Context, e journal.Entry) error {
	const op = "journal.postgres.Store.Append"

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ledger_journal
		   (id, kind, at, account, counterparty, event_id, tier, amount,
		    name, date, location, about, tickets)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID,
		string(e.Kind),
		e.At,
		e.Account,
		e.Counterparty,
		e.EventID,
		int16(e.Tier),
		strconv.FormatUint(e.Amount, 10),
		e.Name,
		e.Date,
		e.Location,
		e.About,
		int64(e.Tickets),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// List returns all entries in append order.
func (s *Store) List(ctx context.Context) ([]journal.Entry, error) {
	const op = "journal.postgres.Store.List"

	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, at, account, counterparty, event_id, tier,
		        amount::TEXT, name, date, location, about, tickets
		   FROM ledger_journal
		  ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []journal.Entry
	for rows.Next() {
		var (
			e       journal.Entry
			kind    string
			tier    int16
			amount  string
			tickets int64
		)
		if err := rows.Scan(
			&e.ID, &kind, &e.At, &e.Account, &e.Counterparty, &e.EventID,
			&tier, &amount, &e.Name, &e.Date, &e.Location, &e.About, &tickets,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		e.Kind = journal.Kind(kind)
		e.Tier = domainTier(tier)
		e.Tickets = uint64(tickets)

		e.Amount, err = strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad amount %q: %w", op, amount, err)
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func domainTier(v int16) domain.Tier {
	return domain.Tier(uint8(v))
}
