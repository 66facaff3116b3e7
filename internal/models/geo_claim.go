package models

import "time"

// GeoClaim records where a location-tied reward was granted so the same
// spot cannot be rewarded twice.
type GeoClaim struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;index:idx_geo_claims_user_type" json:"user_id"`
	Type      string    `gorm:"type:varchar(10);not null;index:idx_geo_claims_user_type" json:"type"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	FeedID    string    `gorm:"type:varchar(128)" json:"feed_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	GeoTypePhoto = "photo"
	GeoTypeVideo = "video"
)

func (GeoClaim) TableName() string {
	return "geo_claims"
}
