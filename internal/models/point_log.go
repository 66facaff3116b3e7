package models

import (
	"time"
)

// PointLog is one immutable ledger entry. Balance is the account balance
// right after Amount was applied.
type PointLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(128);not null;index" json:"user_id"`
	Type        string    `gorm:"type:varchar(50);not null;index" json:"type"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Balance     int64     `gorm:"not null" json:"balance"`
	Description string    `gorm:"type:text" json:"description"`
	RelatedID   *string   `gorm:"type:varchar(128);index" json:"related_id,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	GrantedBy   *string   `gorm:"type:varchar(128)" json:"granted_by,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Point log type constants
const (
	LogTypeFeedPhoto        = "feed_photo"
	LogTypeFeedVideo        = "feed_video"
	LogTypeFeedFreshBonus   = "feed_24h_bonus"
	LogTypeCCTVCaptureBonus = "cctv_capture_bonus"
	LogTypeChatPointBox     = "chat_pointbox"
	LogTypeChatAward1st     = "chat_award_1st"
	LogTypeChatAward2nd     = "chat_award_2nd"
	LogTypeChatAward3rd     = "chat_award_3rd"
	LogTypePointSpend       = "point_spend"
	LogTypePointBoxRefund   = "point_box_refund"
	LogTypeAdminGrant       = "admin_grant"
	LogTypeAdminDeduct      = "admin_deduct"
)

var validLogTypes = map[string]bool{
	LogTypeFeedPhoto:        true,
	LogTypeFeedVideo:        true,
	LogTypeFeedFreshBonus:   true,
	LogTypeCCTVCaptureBonus: true,
	LogTypeChatPointBox:     true,
	LogTypeChatAward1st:     true,
	LogTypeChatAward2nd:     true,
	LogTypeChatAward3rd:     true,
	LogTypePointSpend:       true,
	LogTypePointBoxRefund:   true,
	LogTypeAdminGrant:       true,
	LogTypeAdminDeduct:      true,
}

func ValidLogType(logType string) bool {
	return validLogTypes[logType]
}

// FeedLogTypes are the upload rewards a feed can earn, each at most once.
var FeedLogTypes = []string{
	LogTypeFeedPhoto,
	LogTypeFeedVideo,
	LogTypeFeedFreshBonus,
	LogTypeCCTVCaptureBonus,
}

func IsFeedLogType(logType string) bool {
	for _, t := range FeedLogTypes {
		if t == logType {
			return true
		}
	}
	return false
}

// GeoTypeForLog maps a location-tied feed grant onto its geo claim type.
func GeoTypeForLog(logType string) (string, bool) {
	switch logType {
	case LogTypeFeedPhoto:
		return GeoTypePhoto, true
	case LogTypeFeedVideo:
		return GeoTypeVideo, true
	}
	return "", false
}

func (PointLog) TableName() string {
	return "point_logs"
}
