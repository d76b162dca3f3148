package valueobject

import (
	"errors"
	"fmt"
)

// ErrInvalidTier is returned for an unknown tier identifier.
var ErrInvalidTier = errors.New("invalid tier")

// TierID identifies one of the three upgrade packages.
type TierID struct {
	value string
}

var (
	TierBronze = TierID{value: "bronze"}
	TierSilver = TierID{value: "silver"}
	TierGold   = TierID{value: "gold"}
)

// Tiers lists the packages in ascending order of limit.
var Tiers = []TierID{TierBronze, TierSilver, TierGold}

var tierNames = map[TierID]string{
	TierBronze: "Bronze Boost",
	TierSilver: "Silver Boost",
	TierGold:   "Gold Boost",
}

// NewTierID parses a tier identifier.
func NewTierID(s string) (TierID, error) {
	for _, t := range Tiers {
		if t.value == s {
			return t, nil
		}
	}
	return TierID{}, fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

func (t TierID) String() string { return t.value }
func (t TierID) IsZero() bool   { return t.value == "" }

// DisplayName is the customer-facing package name.
func (t TierID) DisplayName() string { return tierNames[t] }
