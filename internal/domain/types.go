package domain

import "fmt"

// Accounts are opaque fixed-width identifiers (uuid.UUID); uuid.Nil is the
// zero account and is never a valid owner, payout wallet, or transfer
// recipient.

// Tier is a membership level. The numeric value is the tier's rank: prices
// strictly increase with rank, and a purchase may never lower an account's
// rank.
type Tier uint8

const (
	TierNone Tier = iota
	TierBronze
	TierSilver
	TierGold
)

// Rank returns the tier's position in the upgrade order.
func (t Tier) Rank() int { return int(t) }

// Paid reports whether t is one of the purchasable tiers.
func (t Tier) Paid() bool { return t >= TierBronze && t <= TierGold }

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// ParseTier converts a tier name to its Tier value.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "none":
		return TierNone, nil
	case "bronze":
		return TierBronze, nil
	case "silver":
		return TierSilver, nil
	case "gold":
		return TierGold, nil
	default:
		return TierNone, fmt.Errorf("unknown tier %q", s)
	}
}

// Event is a snapshot of one ledger event. Registries hand out copies;
// mutating a returned Event has no effect on ledger state.
type Event struct {
	ID               int64
	Name             string
	Date             string // calendar date, YYYY-MM-DD
	Location         string
	About            string
	BasePrice        uint64 // smallest currency unit
	TicketsAvailable uint64
	TicketsSold      uint64
}
