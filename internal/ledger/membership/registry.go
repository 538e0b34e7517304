// Package membership tracks one membership tier per account and settles
// tier purchases against the payout wallet.
package membership

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/clock"
	"github.com/kirinyoku/tix-ledger/internal/domain"
	"github.com/kirinyoku/tix-ledger/internal/journal"
	"github.com/kirinyoku/tix-ledger/internal/notify"
	"github.com/kirinyoku/tix-ledger/internal/payout"
)

// Tier purchase prices in base currency units (1 unit = 10^18 base units).
const (
	BronzePrice uint64 = 100_000_000_000_000_000
	SilverPrice uint64 = 250_000_000_000_000_000
	GoldPrice   uint64 = 500_000_000_000_000_000
)

type Option func(*Registry)

// WithJournal records every committed purchase in j.
func WithJournal(j journal.Appender) Option {
	return func(r *Registry) { r.journal = j }
}

// WithNotifier publishes a change notification after every committed
// purchase. A nil notifier disables publishing.
func WithNotifier(n *notify.PubSub) Option {
	return func(r *Registry) { r.notifier = n }
}

func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clk = c }
}

// WithLogger sets the logger used to report journal append failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry holds the current tier of every account. Tiers only move up:
// a purchase at or below the stored rank is rejected.
type Registry struct {
	payoutWallet uuid.UUID
	sink         payout.Sink
	journal      journal.Appender
	notifier     *notify.PubSub
	clk          clock.Clock
	logger       *slog.Logger

	mu    sync.RWMutex
	tiers map[uuid.UUID]domain.Tier
}

func New(payoutWallet uuid.UUID, sink payout.Sink, opts ...Option) (*Registry, error) {
	const op = "membership.New"

	if payoutWallet == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidPayoutWallet)
	}

	if sink == nil {
		return nil, fmt.Errorf("%s: payout sink required", op)
	}

	r := &Registry{
		payoutWallet: payoutWallet,
		sink:         sink,
		clk:          clock.NewSystem(),
		logger:       slog.Default(),
		tiers:        make(map[uuid.UUID]domain.Tier),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// PayoutWallet returns the account receiving forwarded payments.
func (r *Registry) PayoutWallet() uuid.UUID { return r.payoutWallet }

func priceFor(tier domain.Tier) (uint64, bool) {
	switch tier {
	case domain.TierBronze:
		return BronzePrice, true
	case domain.TierSilver:
		return SilverPrice, true
	case domain.TierGold:
		return GoldPrice, true
	default:
		return 0, false
	}
}

// PriceForTier returns the fixed purchase price of a paid tier.
//
// Returns domain.ErrInvalidTier for TierNone and any out-of-range value.
func (r *Registry) PriceForTier(tier domain.Tier) (uint64, error) {
	const op = "membership.Registry.PriceForTier"

	price, ok := priceFor(tier)
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, domain.ErrInvalidTier)
	}

	return price, nil
}

// BuyMembership upgrades the caller to tier against an exact payment.
//
// Returns:
//   - domain.ErrInvalidTier if tier is not a paid tier.
//   - domain.ErrCannotDowngrade if tier's rank is at or below the caller's
//     current rank.
//   - domain.ErrIncorrectPrice on any payment mismatch.
//   - domain.ErrTransferFailed if the payout forward fails; the stored tier
//     is unchanged in that case.
func (r *Registry) BuyMembership(ctx context.Context, caller uuid.UUID, tier domain.Tier, payment uint64) error {
	const op = "membership.Registry.BuyMembership"

	price, ok := priceFor(tier)
	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidTier)
	}

	r.mu.Lock()

	if tier.Rank() <= r.tiers[caller].Rank() {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrCannotDowngrade)
	}

	if payment != price {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrIncorrectPrice)
	}

	// Forward first, commit after: a failed forward must leave the tier
	// untouched.
	if err := r.sink.Forward(ctx, r.payoutWallet, payment); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w: %v", op, domain.ErrTransferFailed, err)
	}

	r.tiers[caller] = tier
	e := r.recordLocked(ctx, journal.Entry{
		Kind:    journal.KindMembershipPurchased,
		Account: caller,
		Tier:    tier,
		Amount:  payment,
	})
	r.mu.Unlock()

	r.notifyChanged(ctx, e)

	return nil
}

// Tier returns the account's current tier, TierNone if it never purchased
// one.
func (r *Registry) Tier(account uuid.UUID) domain.Tier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tiers[account]
}

// Apply replays a committed journal entry against the registry state. It
// skips payment and runs without the usual access checks: the entry was
// validated when it was first settled. Entries of other kinds are ignored.
func (r *Registry) Apply(e journal.Entry) error {
	const op = "membership.Registry.Apply"

	if e.Kind != journal.KindMembershipPurchased {
		return nil
	}

	if !e.Tier.Paid() {
		return fmt.Errorf("%s: corrupt entry %s: tier %s", op, e.ID, e.Tier)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Tier.Rank() <= r.tiers[e.Account].Rank() {
		return fmt.Errorf("%s: corrupt entry %s: rank does not increase", op, e.ID)
	}

	r.tiers[e.Account] = e.Tier

	return nil
}

// recordLocked journals a committed purchase. It runs with the write lock
// held so entries land in commit order; replay depends on that order. A
// failed append does not un-commit the purchase, it is logged so the
// operator knows the journal is behind the live state.
func (r *Registry) recordLocked(ctx context.Context, e journal.Entry) journal.Entry {
	e.ID = uuid.New()
	e.At = r.clk.Now()

	if r.journal != nil {
		if err := r.journal.Append(ctx, e); err != nil {
			r.logger.Error("journal append failed",
				"kind", string(e.Kind),
				"entry_id", e.ID,
				"tier", e.Tier.String(),
				"error", err)
		}
	}

	return e
}

func (r *Registry) notifyChanged(ctx context.Context, e journal.Entry) {
	if r.notifier == nil {
		return
	}

	_ = r.notifier.PublishLedgerChanged(ctx, notify.Change{
		Kind:    string(e.Kind),
		Account: e.Account.String(),
	})
}
