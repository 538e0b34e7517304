// Package payout defines the sink that receives forwarded ticket and
// membership payments. The ledger guarantees the exact amount forwarded;
// anything past a successful Forward call is the sink's concern.
package payout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sink receives funds forwarded by the ledger. A Forward error aborts the
// ledger operation that attempted it, with no state change.
type Sink interface {
	Forward(ctx context.Context, to uuid.UUID, amount uint64) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, to uuid.UUID, amount uint64) error

func (f SinkFunc) Forward(ctx context.Context, to uuid.UUID, amount uint64) error {
	return f(ctx, to, amount)
}

// Treasury is an in-memory Sink that accumulates per-account balances. The
// CLI and tests settle against it; a real deployment would put a payment
// provider behind the Sink interface instead.
type Treasury struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]uint64
}

func NewTreasury() *Treasury {
	return &Treasury{balances: make(map[uuid.UUID]uint64)}
}

func (t *Treasury) Forward(ctx context.Context, to uuid.UUID, amount uint64) error {
	const op = "payout.Treasury.Forward"

	if to == uuid.Nil {
		return fmt.Errorf("%s: zero recipient", op)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.balances[to] += amount

	return nil
}

// Balance returns the total amount forwarded to the account so far.
func (t *Treasury) Balance(account uuid.UUID) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.balances[account]
}
