package services

import (
	"fmt"

	"github.com/mroshb/jeju_points/internal/models"
)

// DrawFunc returns a uniformly distributed integer in [min, max].
type DrawFunc func(min, max int64) (int64, error)

// EqualShare is the fixed per-claim payout of an equal box. The remainder
// of the division stays in the box and is refunded at expiry.
func EqualShare(totalPoints int64, maxClaims int) int64 {
	if maxClaims <= 0 {
		return 0
	}
	return totalPoints / int64(maxClaims)
}

// RandomBounds returns the draw range for a non-final random claim: at
// least 1% of the pool (and at least 1), at most 70% of it.
func RandomBounds(remaining int64) (lower, upper int64) {
	lower = max(1, remaining/100)
	upper = remaining * 7 / 10
	if upper < lower {
		upper = lower
	}
	return lower, upper
}

// Payout computes the next claimant's share of a box. The final slot of a
// random box takes everything left.
func Payout(box *models.PointBox, draw DrawFunc) (int64, error) {
	switch box.DistributionType {
	case models.DistributionEqual:
		return min(EqualShare(box.TotalPoints, box.MaxClaims), box.RemainingPoints), nil
	case models.DistributionRandom:
		if box.ClaimedCount >= box.MaxClaims-1 {
			return box.RemainingPoints, nil
		}
		lower, upper := RandomBounds(box.RemainingPoints)
		amount, err := draw(lower, upper)
		if err != nil {
			return 0, err
		}
		return min(amount, box.RemainingPoints), nil
	}
	return 0, fmt.Errorf("unknown distribution %q", box.DistributionType)
}
