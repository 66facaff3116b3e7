package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is the point balance of one principal. Points only change inside
// a ledger transaction that also appends a PointLog.
type Account struct {
	ID                string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	Email             string    `gorm:"type:varchar(255);index" json:"email"`
	DisplayName       string    `gorm:"type:varchar(255)" json:"display_name"`
	Role              string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Points            int64     `gorm:"not null;default:0" json:"points"`
	TotalEarnedPoints int64     `gorm:"not null;default:0" json:"total_earned_points"`
	TotalSpentPoints  int64     `gorm:"not null;default:0" json:"total_spent_points"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Principal roles
const (
	RoleUser  = "user"
	RoleStore = "store"
	RoleAdmin = "admin"
)

// Principal is the authenticated identity an operation runs for. It is
// supplied by the auth layer and trusted as-is.
type Principal struct {
	UserID string
	Name   string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleStore, RoleAdmin:
		return true
	}
	return false
}

// BeforeCreate defaults the role and rejects malformed accounts
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		return gorm.ErrInvalidData
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	if !ValidRole(a.Role) {
		return gorm.ErrInvalidData
	}
	if a.Points < 0 {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Account) TableName() string {
	return "accounts"
}
