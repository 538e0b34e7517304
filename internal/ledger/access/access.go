// Package access holds the owner identity check used to gate privileged
// ledger operations. The owner is injected at construction and the caller
// is always an explicit argument; there is no ambient identity.
package access

import (
	"errors"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/domain"
)

// ErrZeroOwner is returned when an Owner is constructed from the zero
// account. This is a wiring mistake, not a caller rejection.
var ErrZeroOwner = errors.New("zero owner account")

// Owner is the fixed identity allowed to perform privileged operations.
type Owner struct {
	account uuid.UUID
}

func NewOwner(account uuid.UUID) (Owner, error) {
	if account == uuid.Nil {
		return Owner{}, ErrZeroOwner
	}

	return Owner{account: account}, nil
}

// Account returns the owning account.
func (o Owner) Account() uuid.UUID { return o.account }

// Require returns domain.ErrNotOwner unless caller is the owner.
func (o Owner) Require(caller uuid.UUID) error {
	if caller != o.account {
		return domain.ErrNotOwner
	}

	return nil
}
