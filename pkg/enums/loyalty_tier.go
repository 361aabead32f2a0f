package enums

// LoyaltyTier buckets customers by lifetime loyalty points.
type LoyaltyTier string

const (
	LoyaltyTierBronze   LoyaltyTier = "Bronze"
	LoyaltyTierSilver   LoyaltyTier = "Silver"
	LoyaltyTierGold     LoyaltyTier = "Gold"
	LoyaltyTierPlatinum LoyaltyTier = "Platinum"
)

// String implements fmt.Stringer.
func (l LoyaltyTier) String() string {
	return string(l)
}

// TierForPoints maps a lifetime point balance to its tier.
func TierForPoints(points int) LoyaltyTier {
	switch {
	case points >= 10000:
		return LoyaltyTierPlatinum
	case points >= 5000:
		return LoyaltyTierGold
	case points >= 2000:
		return LoyaltyTierSilver
	default:
		return LoyaltyTierBronze
	}
}
