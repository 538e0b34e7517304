package membership

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-ledger/internal/domain"
	"github.com/kirinyoku/tix-ledger/internal/journal"
	"github.com/kirinyoku/tix-ledger/internal/payout"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects zero payout wallet", func(t *testing.T) {
		_, err := New(uuid.Nil, payout.NewTreasury())
		if !errors.Is(err, domain.ErrInvalidPayoutWallet) {
			t.Fatalf("expected ErrInvalidPayoutWallet, got %v", err)
		}
	})

	t.Run("rejects nil sink", func(t *testing.T) {
		if _, err := New(uuid.New(), nil); err == nil {
			t.Fatal("expected error for nil sink")
		}
	})
}

func TestPriceForTier(t *testing.T) {
	t.Parallel()

	reg, err := New(uuid.New(), payout.NewTreasury())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tests := []struct {
		tier domain.Tier
		want uint64
	}{
		{domain.TierBronze, BronzePrice},
		{domain.TierSilver, SilverPrice},
		{domain.TierGold, GoldPrice},
	}
	for _, tt := range tests {
		got, err := reg.PriceForTier(tt.tier)
		if err != nil {
			t.Fatalf("PriceForTier(%s): %v", tt.tier, err)
		}
		if got != tt.want {
			t.Fatalf("PriceForTier(%s) = %d, want %d", tt.tier, got, tt.want)
		}
	}

	// Prices are constants regardless of prior purchases.
	if err := reg.BuyMembership(context.Background(), uuid.New(), domain.TierGold, GoldPrice); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := reg.PriceForTier(domain.TierGold)
	if err != nil || got != GoldPrice {
		t.Fatalf("PriceForTier(gold) after purchase = %d, %v", got, err)
	}

	for _, tier := range []domain.Tier{domain.TierNone, domain.Tier(4), domain.Tier(200)} {
		if _, err := reg.PriceForTier(tier); !errors.Is(err, domain.ErrInvalidTier) {
			t.Fatalf("PriceForTier(%s): expected ErrInvalidTier, got %v", tier, err)
		}
	}
}

func TestBuyMembership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	wallet := uuid.New()

	t.Run("purchase sets tier and forwards exact payment", func(t *testing.T) {
		treasury := payout.NewTreasury()
		reg, _ := New(wallet, treasury)
		buyer := uuid.New()

		if err := reg.BuyMembership(ctx, buyer, domain.TierBronze, BronzePrice); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := reg.Tier(buyer); got != domain.TierBronze {
			t.Fatalf("expected bronze, got %s", got)
		}
		if got := treasury.Balance(wallet); got != BronzePrice {
			t.Fatalf("expected payout balance %d, got %d", BronzePrice, got)
		}
	})

	t.Run("unknown account has tier none", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())
		if got := reg.Tier(uuid.New()); got != domain.TierNone {
			t.Fatalf("expected none, got %s", got)
		}
	})

	t.Run("invalid tier rejected", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())
		for _, tier := range []domain.Tier{domain.TierNone, domain.Tier(4)} {
			err := reg.BuyMembership(ctx, uuid.New(), tier, 0)
			if !errors.Is(err, domain.ErrInvalidTier) {
				t.Fatalf("expected ErrInvalidTier for %s, got %v", tier, err)
			}
		}
	})

	t.Run("same tier repurchase and downgrade rejected", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())
		buyer := uuid.New()

		if err := reg.BuyMembership(ctx, buyer, domain.TierSilver, SilverPrice); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		err := reg.BuyMembership(ctx, buyer, domain.TierSilver, SilverPrice)
		if !errors.Is(err, domain.ErrCannotDowngrade) {
			t.Fatalf("expected ErrCannotDowngrade on repurchase, got %v", err)
		}

		err = reg.BuyMembership(ctx, buyer, domain.TierBronze, BronzePrice)
		if !errors.Is(err, domain.ErrCannotDowngrade) {
			t.Fatalf("expected ErrCannotDowngrade on downgrade, got %v", err)
		}

		if got := reg.Tier(buyer); got != domain.TierSilver {
			t.Fatalf("tier changed on rejected purchase: %s", got)
		}
	})

	t.Run("upgrades are allowed", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())
		buyer := uuid.New()

		for _, tier := range []domain.Tier{domain.TierBronze, domain.TierSilver, domain.TierGold} {
			price, _ := reg.PriceForTier(tier)
			if err := reg.BuyMembership(ctx, buyer, tier, price); err != nil {
				t.Fatalf("upgrade to %s: %v", tier, err)
			}
			if got := reg.Tier(buyer); got != tier {
				t.Fatalf("expected %s, got %s", tier, got)
			}
		}
	})

	t.Run("exact price required", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())
		buyer := uuid.New()

		for _, payment := range []uint64{0, BronzePrice - 1, BronzePrice + 1, SilverPrice} {
			err := reg.BuyMembership(ctx, buyer, domain.TierBronze, payment)
			if !errors.Is(err, domain.ErrIncorrectPrice) {
				t.Fatalf("payment %d: expected ErrIncorrectPrice, got %v", payment, err)
			}
		}

		if got := reg.Tier(buyer); got != domain.TierNone {
			t.Fatalf("tier changed on rejected purchase: %s", got)
		}
	})

	t.Run("failed forward rolls back", func(t *testing.T) {
		sinkErr := errors.New("sink unavailable")
		sink := payout.SinkFunc(func(ctx context.Context, to uuid.UUID, amount uint64) error {
			return sinkErr
		})
		reg, _ := New(wallet, sink)
		buyer := uuid.New()

		err := reg.BuyMembership(ctx, buyer, domain.TierGold, GoldPrice)
		if !errors.Is(err, domain.ErrTransferFailed) {
			t.Fatalf("expected ErrTransferFailed, got %v", err)
		}

		if got := reg.Tier(buyer); got != domain.TierNone {
			t.Fatalf("tier committed despite failed forward: %s", got)
		}
	})

	t.Run("journal records committed purchases only", func(t *testing.T) {
		mem := journal.NewMemory()
		reg, _ := New(wallet, payout.NewTreasury(), WithJournal(mem))
		buyer := uuid.New()

		_ = reg.BuyMembership(ctx, buyer, domain.TierBronze, BronzePrice+1) // rejected
		if err := reg.BuyMembership(ctx, buyer, domain.TierBronze, BronzePrice); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries, err := mem.List(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 journal entry, got %d", len(entries))
		}

		e := entries[0]
		if e.Kind != journal.KindMembershipPurchased || e.Account != buyer ||
			e.Tier != domain.TierBronze || e.Amount != BronzePrice {
			t.Fatalf("unexpected journal entry: %+v", e)
		}
		if e.ID == uuid.Nil || e.At.IsZero() {
			t.Fatalf("journal entry missing id or timestamp: %+v", e)
		}
	})

	t.Run("journal append failure is logged, purchase still commits", func(t *testing.T) {
		appendErr := errors.New("journal unavailable")
		failing := appenderFunc(func(context.Context, journal.Entry) error { return appendErr })

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		reg, _ := New(wallet, payout.NewTreasury(), WithJournal(failing), WithLogger(logger))
		buyer := uuid.New()

		if err := reg.BuyMembership(ctx, buyer, domain.TierBronze, BronzePrice); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := reg.Tier(buyer); got != domain.TierBronze {
			t.Fatalf("expected bronze, got %s", got)
		}
		if got := buf.String(); !strings.Contains(got, "journal append failed") {
			t.Fatalf("append failure not logged: %q", got)
		}
	})
}

type appenderFunc func(context.Context, journal.Entry) error

func (f appenderFunc) Append(ctx context.Context, e journal.Entry) error { return f(ctx, e) }

// stallAppender blocks the first append until released, standing in for a
// slow journal backend.
type stallAppender struct {
	inner   *journal.Memory
	entered chan struct{}
	release chan struct{}
	stalled bool
}

func (s *stallAppender) Append(ctx context.Context, e journal.Entry) error {
	if !s.stalled {
		s.stalled = true
		close(s.entered)
		<-s.release
	}
	return s.inner.Append(ctx, e)
}

func TestJournalCommitOrder(t *testing.T) {
	t.Parallel()

	// An upgrade racing the previous purchase must not journal ahead of
	// it: replay rejects a tier whose rank does not increase.
	ctx := context.Background()
	stall := &stallAppender{
		inner:   journal.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	reg, _ := New(uuid.New(), payout.NewTreasury(), WithJournal(stall))
	buyer := uuid.New()

	bronze := make(chan error, 1)
	go func() {
		bronze <- reg.BuyMembership(ctx, buyer, domain.TierBronze, BronzePrice)
	}()

	<-stall.entered

	silver := make(chan error, 1)
	go func() {
		silver <- reg.BuyMembership(ctx, buyer, domain.TierSilver, SilverPrice)
	}()

	select {
	case err := <-silver:
		t.Fatalf("upgrade settled before the prior purchase was journaled (err=%v)", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(stall.release)

	if err := <-bronze; err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := <-silver; err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	entries, err := stall.inner.List(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 2 || entries[0].Tier != domain.TierBronze || entries[1].Tier != domain.TierSilver {
		t.Fatalf("entries out of commit order: %+v", entries)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	wallet := uuid.New()
	account := uuid.New()

	t.Run("replays purchases in order", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())

		for _, tier := range []domain.Tier{domain.TierBronze, domain.TierGold} {
			e := journal.Entry{ID: uuid.New(), Kind: journal.KindMembershipPurchased, Account: account, Tier: tier}
			if err := reg.Apply(e); err != nil {
				t.Fatalf("Apply(%s): %v", tier, err)
			}
		}

		if got := reg.Tier(account); got != domain.TierGold {
			t.Fatalf("expected gold after replay, got %s", got)
		}
	})

	t.Run("ignores other kinds", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())
		if err := reg.Apply(journal.Entry{Kind: journal.KindTicketSold, Account: account}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("rejects non-increasing rank", func(t *testing.T) {
		reg, _ := New(wallet, payout.NewTreasury())

		e := journal.Entry{ID: uuid.New(), Kind: journal.KindMembershipPurchased, Account: account, Tier: domain.TierSilver}
		if err := reg.Apply(e); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := reg.Apply(e); err == nil {
			t.Fatal("expected error replaying a non-increasing tier")
		}
	})
}
