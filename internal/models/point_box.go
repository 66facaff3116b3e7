package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PointBox is a creator-funded pool that distinct users claim from once
// each until it runs out of slots, points or time.
type PointBox struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatorID        string          `gorm:"type:varchar(128);not null;index" json:"creator_id"`
	CreatorName      string          `gorm:"type:varchar(255)" json:"creator_name"`
	TotalPoints      int64           `gorm:"not null" json:"total_points"`
	RemainingPoints  int64           `gorm:"not null" json:"remaining_points"`
	MaxClaims        int             `gorm:"not null" json:"max_claims"`
	ClaimedCount     int             `gorm:"not null;default:0" json:"claimed_count"`
	DistributionType string          `gorm:"type:varchar(10);not null" json:"distribution_type"`
	IsActive         bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	ExpiredAt        time.Time       `gorm:"not null;index" json:"expired_at"`
	Claims           []PointBoxClaim `gorm:"foreignKey:BoxID" json:"claims,omitempty"`
}

// Distribution types
const (
	DistributionEqual  = "equal"
	DistributionRandom = "random"
)

// Box states
const (
	BoxStateActive          = "active"
	BoxStateClaimsExhausted = "claimable-exhausted"
	BoxStatePoolExhausted   = "pool-exhausted"
	BoxStateExpired         = "expired"
)

func ValidDistribution(d string) bool {
	return d == DistributionEqual || d == DistributionRandom
}

// BeforeCreate assigns the box id
func (b *PointBox) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if !ValidDistribution(b.DistributionType) {
		return gorm.ErrInvalidData
	}
	return nil
}

// ClaimedBy lists the claimant ids in claim order. Claims must be preloaded.
func (b *PointBox) ClaimedBy() []string {
	ids := make([]string, 0, len(b.Claims))
	for _, c := range b.Claims {
		ids = append(ids, c.UserID)
	}
	return ids
}

// HasClaimed reports whether userID already appears in the preloaded claims.
func (b *PointBox) HasClaimed(userID string) bool {
	for _, c := range b.Claims {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// PaidOut sums the preloaded claim payouts.
func (b *PointBox) PaidOut() int64 {
	var sum int64
	for _, c := range b.Claims {
		sum += c.Amount
	}
	return sum
}

func (b *PointBox) IsExpired(now time.Time) bool {
	return now.After(b.ExpiredAt)
}

// State derives the lifecycle state. Expiry wins over exhaustion since an
// expired box is only waiting for the sweep.
func (b *PointBox) State(now time.Time) string {
	switch {
	case b.IsExpired(now):
		return BoxStateExpired
	case b.ClaimedCount >= b.MaxClaims:
		return BoxStateClaimsExhausted
	case b.RemainingPoints <= 0:
		return BoxStatePoolExhausted
	}
	return BoxStateActive
}

func (PointBox) TableName() string {
	return "point_boxes"
}

// PointBoxClaim is one successful draw from a box. The unique index makes a
// second claim by the same user impossible even if the in-transaction
// check were bypassed.
type PointBoxClaim struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BoxID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_box_claim" json:"box_id"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_box_claim" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PointBoxClaim) TableName() string {
	return "point_box_claims"
}
