// Package journal is the append-only settlement log of the ledger. Every
// committed mutating operation produces one entry; replaying the entries in
// order rebuilds the in-process registry state.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/domain"
)

type Kind string

const (
	KindEventCreated        Kind = "event_created"
	KindTicketSold          Kind = "ticket_sold"
	KindTicketTransferred   Kind = "ticket_transferred"
	KindMembershipPurchased Kind = "membership_purchased"
)

// Entry is one committed ledger operation. The header fields (ID, Kind, At,
// Account) are always set; the rest are populated per kind:
//
//   - event_created: EventID plus the Name/Date/Location/About/Tickets
//     payload, Amount carries the base price.
//   - ticket_sold: EventID, Amount (settled payment).
//   - ticket_transferred: EventID, Counterparty (recipient).
//   - membership_purchased: Tier, Amount (settled payment).
type Entry struct {
	ID           uuid.UUID
	Kind         Kind
	At           time.Time
	Account      uuid.UUID
	Counterparty uuid.UUID
	EventID      int64
	Tier         domain.Tier
	Amount       uint64

	Name     string
	Date     string
	Location string
	About    string
	Tickets  uint64
}

// Appender records committed entries.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}

// Source yields all recorded entries in append order.
type Source interface {
	List(ctx context.Context) ([]Entry, error)
}

// Store is a journal that can be both written and replayed.
type Store interface {
	Appender
	Source
}
