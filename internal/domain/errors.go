package domain

import "errors"

// Rejection kinds surfaced by the ledger. Every failed operation wraps
// exactly one of these; callers match with errors.Is.
var (
	ErrInvalidPayoutWallet      = errors.New("invalid payout wallet")
	ErrNotOwner                 = errors.New("not owner")
	ErrInvalidMembershipAddress = errors.New("invalid membership address")
	ErrEventNotFound            = errors.New("event not found")
	ErrSoldOut                  = errors.New("sold out")
	ErrAlreadyOwned             = errors.New("already owned")
	ErrIncorrectPrice           = errors.New("incorrect price")
	ErrCannotTransferToSelf     = errors.New("cannot transfer to self")
	ErrInvalidRecipient         = errors.New("invalid recipient")
	ErrInvalidTier              = errors.New("invalid tier")
	ErrCannotDowngrade          = errors.New("cannot downgrade")
	ErrTransferFailed           = errors.New("transfer failed")
)
