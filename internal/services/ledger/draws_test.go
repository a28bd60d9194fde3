package ledger

import (
	"testing"

	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
)

func TestPlanDepositBonuses_AllFlags(t *testing.T) {
	t.Parallel()

	referrer := int64(7)

	grants := planDepositBonuses(1, &referrer, 10_000, BonusFlags{Match: true, Special: true, Referral: true})

	if len(grants) != 4 {
		t.Fatalf("want 4 grants, got %d: %+v", len(grants), grants)
	}

	byType := map[bonuses.BonusType][]bonusGrant{}
	for _, g := range grants {
		byType[g.Type] = append(byType[g.Type], g)
	}

	if g := byType[bonuses.TypeMatch][0]; g.AmountCents != 5_000 || g.DrawPoints != 50 || g.PlayerID != 1 {
		t.Errorf("match grant: %+v", g)
	}
	if g := byType[bonuses.TypeSpecial][0]; g.AmountCents != 2_000 || g.DrawPoints != 20 {
		t.Errorf("special grant: %+v", g)
	}

	refs := byType[bonuses.TypeReferral]
	if len(refs) != 2 {
		t.Fatalf("want referral drawn twice, got %d", len(refs))
	}
	if refs[0].PlayerID != 1 || refs[1].PlayerID != 7 {
		t.Errorf("referral beneficiaries: %+v", refs)
	}
	for _, g := range refs {
		if g.AmountCents != 5_000 || g.DrawPoints != 50 {
			t.Errorf("referral grant: %+v", g)
		}
	}

	if got := totalDraw(grants); got != 170 {
		t.Errorf("total draw: want 170 pts, got %d", got)
	}
}

func TestPlanDepositBonuses_ReferralSkippedWithoutReferrer(t *testing.T) {
	t.Parallel()

	grants := planDepositBonuses(1, nil, 10_000, BonusFlags{Referral: true})
	if len(grants) != 0 {
		t.Fatalf("want no grants without a recorded referrer, got %+v", grants)
	}
}

func TestDrawPoints_RoundsUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cents int64
		want  int64
	}{
		{cents: 5_000, want: 50},
		{cents: 5_001, want: 51},
		{cents: 99, want: 1},
		{cents: 100, want: 1},
	}

	for _, tt := range tests {
		if got := drawPoints(tt.cents); got != tt.want {
			t.Errorf("drawPoints(%d) = %d, want %d", tt.cents, got, tt.want)
		}
	}
}

func TestSplitGrants(t *testing.T) {
	t.Parallel()

	referrer := int64(7)
	grants := planDepositBonuses(1, &referrer, 10_000, BonusFlags{Match: true, Referral: true})

	personal, referral := splitGrants(grants, 1)
	if personal != 10_000 { // 5000 match + 5000 referral
		t.Errorf("personal: want 10000, got %d", personal)
	}
	if referral != 5_000 {
		t.Errorf("referral: want 5000, got %d", referral)
	}
}
