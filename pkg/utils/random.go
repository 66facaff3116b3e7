package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomInt64Range returns a uniformly distributed integer in [min, max]
// drawn from crypto/rand.
func RandomInt64Range(min, max int64) (int64, error) {
	if max < min {
		return 0, fmt.Errorf("invalid range [%d, %d]", min, max)
	}
	if max == min {
		return min, nil
	}
	num, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, fmt.Errorf("failed to read random source: %w", err)
	}
	return min + num.Int64(), nil
}
