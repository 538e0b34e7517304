// Package events is the event side of the ledger: event records, ticket
// inventories, per-account ownership, and membership-aware ticket sales.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/clock"
	"github.com/kirinyoku/tix-ledger/internal/domain"
	"github.com/kirinyoku/tix-ledger/internal/journal"
	"github.com/kirinyoku/tix-ledger/internal/ledger/access"
	"github.com/kirinyoku/tix-ledger/internal/ledger/pricing"
	"github.com/kirinyoku/tix-ledger/internal/notify"
	"github.com/kirinyoku/tix-ledger/internal/payout"
)

// TierSource yields the membership tier used for discount pricing. The
// membership registry implements it; an unbound registry prices every buyer
// at TierNone.
type TierSource interface {
	Tier(account uuid.UUID) domain.Tier
}

type Option func(*Registry)

// WithJournal records every committed mutation in j.
func WithJournal(j journal.Appender) Option {
	return func(r *Registry) { r.journal = j }
}

// WithNotifier publishes a change notification after every committed
// mutation. A nil notifier disables publishing.
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

type record struct {
	event   domain.Event
	holders map[uuid.UUID]struct{}
}

// Registry holds the event ledger. All mutating operations are serialized:
// the lock is held through the payout forward and the journal append, so a
// sale either fully commits (inventory down, holder added, payment
// forwarded) or leaves no trace, and journal entries land in commit order.
type Registry struct {
	owner        access.Owner
	payoutWallet uuid.UUID
	sink         payout.Sink
	journal      journal.Appender
	notifier     *notify.PubSub
	clk          clock.Clock
	logger       *slog.Logger

	mu         sync.RWMutex
	membership TierSource
	events     map[int64]*record
	ids        []int64
	eventCount int64
}

func New(owner, payoutWallet uuid.UUID, sink payout.Sink, opts ...Option) (*Registry, error) {
	const op = "events.New"

	own, err := access.NewOwner(owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if payoutWallet == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidPayoutWallet)
	}

	if sink == nil {
		return nil, fmt.Errorf("%s: payout sink required", op)
	}

	r := &Registry{
		owner:        own,
		payoutWallet: payoutWallet,
		sink:         sink,
		clk:          clock.NewSystem(),
		logger:       slog.Default(),
		events:       make(map[int64]*record),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Owner returns the account allowed to perform privileged operations.
func (r *Registry) Owner() uuid.UUID { return r.owner.Account() }

// PayoutWallet returns the account receiving forwarded payments.
func (r *Registry) PayoutWallet() uuid.UUID { return r.payoutWallet }

// SetMembershipSource binds (or rebinds) the tier source consulted for
// discount pricing. Owner only; the source must be non-nil.
func (r *Registry) SetMembershipSource(caller uuid.UUID, src TierSource) error {
	const op = "events.Registry.SetMembershipSource"

	if err := r.owner.Require(caller); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if src == nil {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidMembershipAddress)
	}

	r.mu.Lock()
	r.membership = src
	r.mu.Unlock()

	return nil
}

// CreateEvent stores a new event and returns its id. Owner only. Ids are
// assigned sequentially from 1 and never reused.
func (r *Registry) CreateEvent(ctx context.Context, caller uuid.UUID, name, date, location string, basePrice, tickets uint64, about string) (int64, error) {
	const op = "events.Registry.CreateEvent"

	if err := r.owner.Require(caller); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	r.eventCount++
	id := r.eventCount
	r.events[id] = &record{
		event: domain.Event{
			ID:               id,
			Name:             name,
			Date:             date,
			Location:         location,
			About:            about,
			BasePrice:        basePrice,
			TicketsAvailable: tickets,
		},
		holders: make(map[uuid.UUID]struct{}),
	}
	r.ids = append(r.ids, id)
	e := r.recordLocked(ctx, journal.Entry{
		Kind:     journal.KindEventCreated,
		Account:  caller,
		EventID:  id,
		Amount:   basePrice,
		Name:     name,
		Date:     date,
		Location: location,
		About:    about,
		Tickets:  tickets,
	})
	r.mu.Unlock()

	r.notifyChanged(ctx, e)

	return id, nil
}

// Event returns a snapshot of the event with the given id.
func (r *Registry) Event(id int64) (domain.Event, error) {
	const op = "events.Registry.Event"

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("%s: %w", op, domain.ErrEventNotFound)
	}

	return rec.event, nil
}

// EventCount returns the number of events ever created.
func (r *Registry) EventCount() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.eventCount
}

// EventIDs returns all event ids in creation order.
func (r *Registry) EventIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, len(r.ids))
	copy(out, r.ids)

	return out
}

// TicketPrice quotes the effective price the buyer would pay for one ticket.
func (r *Registry) TicketPrice(eventID int64, buyer uuid.UUID) (uint64, error) {
	const op = "events.Registry.TicketPrice"

	r.mu.RLock()
	defer r.mu.RUnlock()

	price, err := r.ticketPriceLocked(eventID, buyer)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return price, nil
}

func (r *Registry) ticketPriceLocked(eventID int64, buyer uuid.UUID) (uint64, error) {
	rec, ok := r.events[eventID]
	if !ok {
		return 0, domain.ErrEventNotFound
	}

	tier := domain.TierNone
	if r.membership != nil {
		tier = r.membership.Tier(buyer)
	}

	return pricing.Effective(rec.event.BasePrice, tier), nil
}

// BuyTicket sells one ticket to the caller against an exact payment at the
// caller's effective price.
//
// Returns:
//   - domain.ErrEventNotFound if the event does not exist.
//   - domain.ErrSoldOut if no tickets remain.
//   - domain.ErrAlreadyOwned if the caller already holds a ticket.
//   - domain.ErrIncorrectPrice on any payment mismatch.
//   - domain.ErrTransferFailed if the payout forward fails; inventory and
//     ownership are unchanged in that case.
func (r *Registry) BuyTicket(ctx context.Context, caller uuid.UUID, eventID int64, payment uint64) error {
	const op = "events.Registry.BuyTicket"

	entry, err := r.sellTicket(ctx, caller, eventID, payment)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.notifyChanged(ctx, entry)

	return nil
}

func (r *Registry) sellTicket(ctx context.Context, caller uuid.UUID, eventID int64, payment uint64) (journal.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.events[eventID]
	if !ok {
		return journal.Entry{}, domain.ErrEventNotFound
	}

	if rec.event.TicketsAvailable == 0 {
		return journal.Entry{}, domain.ErrSoldOut
	}

	if _, owned := rec.holders[caller]; owned {
		return journal.Entry{}, domain.ErrAlreadyOwned
	}

	expected, err := r.ticketPriceLocked(eventID, caller)
	if err != nil {
		return journal.Entry{}, err
	}

	if payment != expected {
		return journal.Entry{}, domain.ErrIncorrectPrice
	}

	// Forward first, commit after: a failed forward must leave inventory
	// and ownership untouched.
	if err := r.sink.Forward(ctx, r.payoutWallet, payment); err != nil {
		return journal.Entry{}, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	rec.event.TicketsAvailable--
	rec.event.TicketsSold++
	rec.holders[caller] = struct{}{}

	return r.recordLocked(ctx, journal.Entry{
		Kind:    journal.KindTicketSold,
		Account: caller,
		EventID: eventID,
		Amount:  payment,
	}), nil
}

// HasTicket reports whether the account currently holds a ticket for the
// event. A missing event has no holders.
func (r *Registry) HasTicket(eventID int64, account uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.events[eventID]
	if !ok {
		return false
	}

	_, held := rec.holders[account]

	return held
}

// TransferTicket moves the caller's ticket for the event to another
// account. No inventory change, no payment.
//
// Returns:
//   - domain.ErrNotOwner if the caller holds no ticket for the event (a
//     missing event has no holders, so it fails the same way).
//   - domain.ErrCannotTransferToSelf if to equals the caller.
//   - domain.ErrInvalidRecipient if to is the zero account.
func (r *Registry) TransferTicket(ctx context.Context, caller uuid.UUID, eventID int64, to uuid.UUID) error {
	const op = "events.Registry.TransferTicket"

	r.mu.Lock()

	rec, ok := r.events[eventID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrNotOwner)
	}

	if _, held := rec.holders[caller]; !held {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrNotOwner)
	}

	if to == caller {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrCannotTransferToSelf)
	}

	if to == uuid.Nil {
		r.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidRecipient)
	}

	delete(rec.holders, caller)
	rec.holders[to] = struct{}{}
	e := r.recordLocked(ctx, journal.Entry{
		Kind:         journal.KindTicketTransferred,
		Account:      caller,
		Counterparty: to,
		EventID:      eventID,
	})
	r.mu.Unlock()

	r.notifyChanged(ctx, e)

	return nil
}

// Apply replays a committed journal entry against the registry state. It
// skips payment and runs without the usual access checks: the entry was
// validated when it was first settled. Entries of other kinds are ignored.
func (r *Registry) Apply(e journal.Entry) error {
	const op = "events.Registry.Apply"

	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Kind {
	case journal.KindEventCreated:
		if e.EventID != r.eventCount+1 {
			return fmt.Errorf("%s: corrupt entry %s: id %d out of sequence", op, e.ID, e.EventID)
		}
		r.eventCount = e.EventID
		r.events[e.EventID] = &record{
			event: domain.Event{
				ID:               e.EventID,
				Name:             e.Name,
				Date:             e.Date,
				Location:         e.Location,
				About:            e.About,
				BasePrice:        e.Amount,
				TicketsAvailable: e.Tickets,
			},
			holders: make(map[uuid.UUID]struct{}),
		}
		r.ids = append(r.ids, e.EventID)

	case journal.KindTicketSold:
		rec, ok := r.events[e.EventID]
		if !ok {
			return fmt.Errorf("%s: corrupt entry %s: unknown event %d", op, e.ID, e.EventID)
		}
		if rec.event.TicketsAvailable == 0 {
			return fmt.Errorf("%s: corrupt entry %s: inventory underflow", op, e.ID)
		}
		if _, owned := rec.holders[e.Account]; owned {
			return fmt.Errorf("%s: corrupt entry %s: duplicate holder", op, e.ID)
		}
		rec.event.TicketsAvailable--
		rec.event.TicketsSold++
		rec.holders[e.Account] = struct{}{}

	case journal.KindTicketTransferred:
		rec, ok := r.events[e.EventID]
		if !ok {
			return fmt.Errorf("%s: corrupt entry %s: unknown event %d", op, e.ID, e.EventID)
		}
		if _, held := rec.holders[e.Account]; !held {
			return fmt.Errorf("%s: corrupt entry %s: transfer from non-holder", op, e.ID)
		}
		delete(rec.holders, e.Account)
		rec.holders[e.Counterparty] = struct{}{}
	}

	return nil
}

// recordLocked journals a committed mutation. It runs with the write lock
// held so entries land in commit order; replay depends on that order. A
// failed append does not un-commit the mutation, it is logged so the
// operator knows the journal is behind the live state.
func (r *Registry) recordLocked(ctx context.Context, e journal.Entry) journal.Entry {
	e.ID = uuid.New()
	e.At = r.clk.Now()

	if r.journal != nil {
		if err := r.journal.Append(ctx, e); err != nil {
			r.logger.Error("journal append failed",
				"kind", string(e.Kind),
				"entry_id", e.ID,
				"event_id", e.EventID,
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
		EventID: e.EventID,
		Account: e.Account.String(),
	})
}
