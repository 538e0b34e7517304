// Package ledger bundles the event and membership registries behind one
// handle and replays the settlement journal into them.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/clock"
	"github.com/kirinyoku/tix-ledger/internal/journal"
	"github.com/kirinyoku/tix-ledger/internal/ledger/events"
	"github.com/kirinyoku/tix-ledger/internal/ledger/membership"
	"github.com/kirinyoku/tix-ledger/internal/notify"
	"github.com/kirinyoku/tix-ledger/internal/payout"
)

type Option func(*options)

type options struct {
	journal  journal.Appender
	notifier *notify.PubSub
	clk      clock.Clock
	logger   *slog.Logger
}

// WithJournal records every committed mutation of both registries in j.
func WithJournal(j journal.Appender) Option {
	return func(o *options) { o.journal = j }
}

// WithNotifier publishes change notifications for both registries.
func WithNotifier(n *notify.PubSub) Option {
	return func(o *options) { o.notifier = n }
}

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clk = c }
}

// WithLogger sets the logger both registries report journal append
// failures to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Ledger is the authoritative in-process state: events, inventories,
// holders, and tiers. Binding the membership registry to the event registry
// is left to the caller (see events.Registry.SetMembershipSource).
type Ledger struct {
	Events     *events.Registry
	Membership *membership.Registry
}

func New(owner, payoutWallet uuid.UUID, sink payout.Sink, opts ...Option) (*Ledger, error) {
	const op = "ledger.New"

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var evOpts []events.Option
	var memOpts []membership.Option
	if o.journal != nil {
		evOpts = append(evOpts, events.WithJournal(o.journal))
		memOpts = append(memOpts, membership.WithJournal(o.journal))
	}
	if o.notifier != nil {
		evOpts = append(evOpts, events.WithNotifier(o.notifier))
		memOpts = append(memOpts, membership.WithNotifier(o.notifier))
	}
	if o.clk != nil {
		evOpts = append(evOpts, events.WithClock(o.clk))
		memOpts = append(memOpts, membership.WithClock(o.clk))
	}
	if o.logger != nil {
		evOpts = append(evOpts, events.WithLogger(o.logger))
		memOpts = append(memOpts, membership.WithLogger(o.logger))
	}

	ev, err := events.New(owner, payoutWallet, sink, evOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mem, err := membership.New(payoutWallet, sink, memOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Ledger{Events: ev, Membership: mem}, nil
}

// Replay rebuilds registry state from the journal. It must run against
// freshly constructed registries, before any new operations are accepted.
func (l *Ledger) Replay(ctx context.Context, src journal.Source) error {
	const op = "ledger.Ledger.Replay"

	entries, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, e := range entries {
		if err := l.Events.Apply(e); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := l.Membership.Apply(e); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}
