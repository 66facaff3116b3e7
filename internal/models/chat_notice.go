package models

import "time"

// ChatNotice is a system message shown in the live chat, e.g. when an
// expired point box is refunded.
type ChatNotice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    string    `gorm:"type:varchar(64);not null;index" json:"room_id"`
	Username  string    `gorm:"type:varchar(64);not null" json:"username"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Kind      string    `gorm:"type:varchar(20);not null" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

const (
	NoticeRoomSystem = "system"
	NoticeUsername   = "system"

	NoticeKindBoxExpired = "pointbox_expired"
)

func (ChatNotice) TableName() string {
	return "chat_notices"
}
