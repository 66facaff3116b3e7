package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutFunc decides how many points the next claimant receives from a
// locked box. It must return a value in [0, box.RemainingPoints].
type PayoutFunc func(box *models.PointBox) (int64, error)

// ClaimOutcome is the committed result of a successful claim.
type ClaimOutcome struct {
	Box    *models.PointBox
	Amount int64
	Log    *models.PointLog
}

// CloseOutcome describes a box removed by its owner or by the expiry sweep.
type CloseOutcome struct {
	Box      *models.PointBox
	Refunded int64
	Log      *models.PointLog
	// Skipped is set when there was nothing to close.
	Skipped bool
}

type PointBoxRepository struct {
	db *gorm.DB
	tx *Transactor
}

func NewPointBoxRepository(db *gorm.DB, tx *Transactor) *PointBoxRepository {
	return &PointBoxRepository{db: db, tx: tx}
}

// Create debits the creator and stores the box in one transaction.
func (r *PointBoxRepository) Create(ctx context.Context, box *models.PointBox) (*models.PointLog, error) {
	if box.ID == "" {
		box.ID = uuid.NewString()
	}

	var log *models.PointLog
	err := r.tx.Run(ctx, "create point box", func(tx *gorm.DB) error {
		log = nil

		creator, err := lockAccount(tx, box.CreatorID)
		if err != nil {
			return err
		}
		if creator.Points < box.TotalPoints {
			return errors.New(errors.ErrCodeInsufficientFunds,
				fmt.Sprintf("insufficient points: have %d, need %d", creator.Points, box.TotalPoints))
		}

		if err := tx.Omit(clause.Associations).Create(box).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create point box")
		}

		log, err = applyEntry(tx, creator, LedgerEntry{
			UserID:      creator.ID,
			Type:        models.LogTypePointSpend,
			Amount:      -box.TotalPoints,
			Description: fmt.Sprintf("Created a point box for %d people", box.MaxClaims),
			RelatedID:   box.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// Claim draws one payout from the box for userID. Every precondition is
// checked against the locked box before anything is written, in the order
// not found, self claim, closed, already claimed, expired, sold out, empty.
// A committed claimant retrying after expiry still sees already claimed.
func (r *PointBoxRepository) Claim(ctx context.Context, boxID, userID string, now time.Time, payout PayoutFunc) (*ClaimOutcome, error) {
	var outcome *ClaimOutcome
	err := r.tx.Run(ctx, "claim point box", func(tx *gorm.DB) error {
		outcome = nil

		box, err := lockBox(tx, boxID)
		if err != nil {
			return err
		}
		if box.CreatorID == userID {
			return errors.New(errors.ErrCodeSelfClaim, "you cannot claim your own point box")
		}
		if !box.IsActive {
			return errors.New(errors.ErrCodeBoxClosed, "this point box is closed")
		}
		var claimed int64
		if err := tx.Model(&models.PointBoxClaim{}).
			Where("box_id = ? AND user_id = ?", boxID, userID).
			Count(&claimed).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to check claims")
		}
		if claimed > 0 {
			return errors.New(errors.ErrCodeAlreadyClaimed, "you already claimed this point box")
		}
		if box.IsExpired(now) {
			return errors.New(errors.ErrCodeBoxExpired, "this point box has expired")
		}
		if box.ClaimedCount >= box.MaxClaims {
			return errors.New(errors.ErrCodeSoldOut, "all slots of this point box are taken")
		}
		if box.RemainingPoints <= 0 {
			return errors.New(errors.ErrCodePoolEmpty, "this point box is empty")
		}

		amount, err := payout(box)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to compute payout")
		}
		if amount < 0 || amount > box.RemainingPoints {
			return errors.New(errors.ErrCodeInternalError,
				fmt.Sprintf("payout %d outside pool of %d", amount, box.RemainingPoints))
		}

		claimant, err := lockAccount(tx, userID)
		if err != nil {
			return err
		}

		if err := tx.Create(&models.PointBoxClaim{BoxID: box.ID, UserID: userID, Amount: amount}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record claim")
		}

		box.RemainingPoints -= amount
		box.ClaimedCount++
		box.IsActive = box.ClaimedCount < box.MaxClaims && box.RemainingPoints > 0
		if err := tx.Model(box).Updates(map[string]interface{}{
			"remaining_points": box.RemainingPoints,
			"claimed_count":    box.ClaimedCount,
			"is_active":        box.IsActive,
		}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update point box")
		}

		log, err := applyEntry(tx, claimant, LedgerEntry{
			UserID:      userID,
			Type:        models.LogTypeChatPointBox,
			Amount:      amount,
			Description: fmt.Sprintf("Claimed from %s's point box", box.CreatorName),
			RelatedID:   box.ID,
		})
		if err != nil {
			return err
		}

		outcome = &ClaimOutcome{Box: box, Amount: amount, Log: log}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// Delete removes the box on behalf of its creator or an admin and refunds
// the unclaimed points to the creator.
func (r *PointBoxRepository) Delete(ctx context.Context, boxID string, requester models.Principal) (*CloseOutcome, error) {
	var outcome *CloseOutcome
	err := r.tx.Run(ctx, "delete point box", func(tx *gorm.DB) error {
		outcome = nil

		box, err := lockBox(tx, boxID)
		if err != nil {
			return err
		}
		if box.CreatorID != requester.UserID && !requester.IsAdmin() {
			return errors.New(errors.ErrCodeForbidden, "only the creator or an admin can delete this point box")
		}

		outcome, err = closeBox(tx, box, "Point box refund")
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// Expire removes one expired box and refunds its remainder. A box that is
// already gone or not yet expired is left alone.
func (r *PointBoxRepository) Expire(ctx context.Context, boxID string, now time.Time) (*CloseOutcome, error) {
	var outcome *CloseOutcome
	err := r.tx.Run(ctx, "expire point box", func(tx *gorm.DB) error {
		outcome = nil

		box, err := lockBox(tx, boxID)
		if err != nil {
			if errors.CodeOf(err) == errors.ErrCodeBoxNotFound {
				outcome = &CloseOutcome{Skipped: true}
				return nil
			}
			return err
		}
		if !box.ExpiredAt.Before(now) {
			outcome = &CloseOutcome{Box: box, Skipped: true}
			return nil
		}

		outcome, err = closeBox(tx, box, "Point box expired refund")
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// ListExpiredIDs returns ids of boxes whose expiry lies before now, oldest first.
func (r *PointBoxRepository) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	result := r.db.WithContext(ctx).
		Model(&models.PointBox{}).
		Where("expired_at < ?", now.UTC()).
		Order("expired_at ASC").
		Limit(limit).
		Pluck("id", &ids)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list expired point boxes")
	}
	return ids, nil
}

// ListActive returns open, unexpired boxes with their claims, newest first.
func (r *PointBoxRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]models.PointBox, error) {
	var boxes []models.PointBox
	result := r.db.WithContext(ctx).
		Preload("Claims", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("is_active = ? AND expired_at > ?", true, now.UTC()).
		Order("created_at DESC").
		Limit(limit).
		Find(&boxes)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list point boxes")
	}
	return boxes, nil
}

// GetByID retrieves a box with its claims
func (r *PointBoxRepository) GetByID(ctx context.Context, boxID string) (*models.PointBox, error) {
	var box models.PointBox
	result := r.db.WithContext(ctx).
		Preload("Claims", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", boxID).
		First(&box)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeBoxNotFound, "point box not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get point box")
	}
	return &box, nil
}

func lockBox(tx *gorm.DB, boxID string) (*models.PointBox, error) {
	var box models.PointBox
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", boxID).First(&box).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrCodeBoxNotFound, "point box not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get point box")
	}
	return &box, nil
}

// closeBox refunds the remainder to the creator when the creator still
// exists, then deletes the box and its claims. The box must be locked.
func closeBox(tx *gorm.DB, box *models.PointBox, description string) (*CloseOutcome, error) {
	var creator *models.Account
	if box.RemainingPoints > 0 {
		var err error
		creator, err = lockAccount(tx, box.CreatorID)
		if err != nil && errors.CodeOf(err) != errors.ErrCodeNotFound {
			return nil, err
		}
	}

	if err := tx.Where("box_id = ?", box.ID).Delete(&models.PointBoxClaim{}).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete point box claims")
	}
	if err := tx.Delete(&models.PointBox{}, "id = ?", box.ID).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete point box")
	}

	outcome := &CloseOutcome{Box: box}
	if creator == nil {
		return outcome, nil
	}

	log, err := applyEntry(tx, creator, LedgerEntry{
		UserID:      creator.ID,
		Type:        models.LogTypePointBoxRefund,
		Amount:      box.RemainingPoints,
		Description: description,
		RelatedID:   box.ID,
	})
	if err != nil {
		return nil, err
	}
	outcome.Refunded = box.RemainingPoints
	outcome.Log = log
	return outcome, nil
}
