// Package admin is the boundary in front of event creation: it restricts
// the operation to one designated admin account and validates the event
// date before the ledger is called. The ledger's own owner check still
// applies independently.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/clock"
	"github.com/kirinyoku/tix-ledger/internal/ledger/events"
)

var (
	ErrNotAdmin    = errors.New("not admin")
	ErrInvalidDate = errors.New("invalid event date")
	ErrDateInPast  = errors.New("event date in the past")
)

const dateLayout = "2006-01-02"

type Service struct {
	registry *events.Registry
	clk      clock.Clock
	admin    uuid.UUID
}

func New(registry *events.Registry, clk clock.Clock, admin uuid.UUID) *Service {
	return &Service{
		registry: registry,
		clk:      clk,
		admin:    admin,
	}
}

type CreateEventInput struct {
	Name      string
	Date      string // YYYY-MM-DD, today or later
	Location  string
	About     string
	BasePrice uint64
	Tickets   uint64
}

// CreateEvent validates the caller and the event date, then creates the
// event through the ledger.
//
// Returns:
//   - admin.ErrNotAdmin if the caller is not the designated admin.
//   - admin.ErrInvalidDate if the date does not parse as YYYY-MM-DD.
//   - admin.ErrDateInPast if the date is before today.
func (s *Service) CreateEvent(ctx context.Context, caller uuid.UUID, in CreateEventInput) (int64, error) {
	const op = "admin.Service.CreateEvent"

	if caller != s.admin {
		return 0, fmt.Errorf("%s: %w", op, ErrNotAdmin)
	}

	day, err := time.ParseInLocation(dateLayout, in.Date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, ErrInvalidDate, err)
	}

	now := s.clk.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return 0, fmt.Errorf("%s: %w", op, ErrDateInPast)
	}

	id, err := s.registry.CreateEvent(ctx, caller, in.Name, in.Date, in.Location, in.BasePrice, in.Tickets, in.About)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}
