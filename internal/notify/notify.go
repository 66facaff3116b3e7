package notify

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/mroshb/jeju_points/pkg/logger"
	"gorm.io/gorm"
)

// BoxExpired describes a point box the sweep removed after refunding its
// creator.
type BoxExpired struct {
	BoxID        string
	CreatorID    string
	CreatorName  string
	Refunded     int64
	ClaimedCount int
	MaxClaims    int
}

// Message is the system chat text announcing the refund.
func (e BoxExpired) Message() string {
	name := e.CreatorName
	if name == "" {
		name = "Someone"
	}
	return fmt.Sprintf("%s's point box expired. %dP were returned to the creator (%d/%d claimed).",
		name, e.Refunded, e.ClaimedCount, e.MaxClaims)
}

// Notifier publishes expiry notices. Failures never undo the refund.
type Notifier interface {
	BoxExpired(ctx context.Context, event BoxExpired) error
}

// ChatNoticeWriter stores notices as system messages of the live chat.
type ChatNoticeWriter struct {
	db *gorm.DB
}

func NewChatNoticeWriter(db *gorm.DB) *ChatNoticeWriter {
	return &ChatNoticeWriter{db: db}
}

func (w *ChatNoticeWriter) BoxExpired(ctx context.Context, event BoxExpired) error {
	notice := &models.ChatNotice{
		RoomID:   models.NoticeRoomSystem,
		Username: models.NoticeUsername,
		Message:  event.Message(),
		Kind:     models.NoticeKindBoxExpired,
	}
	if err := w.db.WithContext(ctx).Create(notice).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write chat notice")
	}
	return nil
}

// Fanout delivers every notice to all notifiers, even when one fails.
type Fanout []Notifier

func (f Fanout) BoxExpired(ctx context.Context, event BoxExpired) error {
	var errs []error
	for _, n := range f {
		if err := n.BoxExpired(ctx, event); err != nil {
			logger.Warn("Failed to deliver expiry notice", "box_id", event.BoxID, "error", err)
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
