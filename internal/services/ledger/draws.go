package ledger

import "github.com/arcadeops/ledgercore/internal/repos/bonuses"

// Bonus rates applied to the deposit amount.
const (
	matchPercent    = 50
	specialPercent  = 20
	referralPercent = 50
)

// One game point backs one dollar of bonus credit.
const centsPerPoint = 100

// bonusGrant is one planned bonus credit: who gets it, what kind, and how
// many points it draws from the game's stock.
type bonusGrant struct {
	PlayerID    int64
	Type        bonuses.BonusType
	AmountCents int64
	DrawPoints  int64
}

// drawPoints converts a bonus amount to the stock points backing it,
// rounding up so fractional dollars never leak out of the reserve.
func drawPoints(amountCents int64) int64 {
	return (amountCents + centsPerPoint - 1) / centsPerPoint
}

// planDepositBonuses expands the requested flags into concrete grants.
// The referral bonus is drawn twice, once per side, and only when the
// player has a recorded referrer.
func planDepositBonuses(playerID int64, referrerID *int64, amountCents int64, flags BonusFlags) []bonusGrant {
	var grants []bonusGrant

	add := func(beneficiary int64, t bonuses.BonusType, cents int64) {
		if cents <= 0 {
			return
		}

		grants = append(grants, bonusGrant{
			PlayerID:    beneficiary,
			Type:        t,
			AmountCents: cents,
			DrawPoints:  drawPoints(cents),
		})
	}

	if flags.Match {
		add(playerID, bonuses.TypeMatch, amountCents*matchPercent/100)
	}
	if flags.Special {
		add(playerID, bonuses.TypeSpecial, amountCents*specialPercent/100)
	}
	if flags.Referral && referrerID != nil {
		referral := amountCents * referralPercent / 100
		add(playerID, bonuses.TypeReferral, referral)
		add(*referrerID, bonuses.TypeReferral, referral)
	}

	return grants
}

func totalDraw(grants []bonusGrant) int64 {
	var sum int64
	for _, g := range grants {
		sum += g.DrawPoints
	}
	return sum
}
