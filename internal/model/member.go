package model

// Tier is the membership rank derived from a member's cumulative spend.
// Ranks are ordered; comparisons like tier >= TierGold are meaningful.
type Tier int

const (
	TierBronze  Tier = 0
	TierSilver  Tier = 1
	TierGold    Tier = 2
	TierDiamond Tier = 3
)

// Cumulative-spend thresholds for each tier, in the smallest currency unit.
// Thresholds are strictly ascending; TierForSpend walks them top-down.
const (
	SilverThreshold  int64 = 1_000_000
	GoldThreshold    int64 = 5_000_000
	DiamondThreshold int64 = 10_000_000
)

// String returns the display name of the tier.
func (t Tier) String() string {
	switch t {
	case TierDiamond:
		return "Diamond"
	case TierGold:
		return "Gold"
	case TierSilver:
		return "Silver"
	}
	return "Bronze"
}

// TierForSpend maps cumulative spend to a membership tier.  The function is
// pure and monotonic: spend never decreases, so a member's tier never
// regresses, and recomputing with unchanged spend is a no-op.
func TierForSpend(totalSpent int64) Tier {
	switch {
	case totalSpent >= DiamondThreshold:
		return TierDiamond
	case totalSpent >= GoldThreshold:
		return TierGold
	case totalSpent >= SilverThreshold:
		return TierSilver
	}
	return TierBronze
}

// Member holds the wallet-relevant view of a club member.  Identity and
// profile data live in an external system; only the fields the reservation
// and wallet flows touch are modelled here.
type Member struct {
	ID            uint64
	FullName      string
	Tier          Tier
	WalletBalance int64
	TotalSpent    int64
}
