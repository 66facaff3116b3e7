package repositories

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Location is the coordinate a feed grant is tied to.
type Location struct {
	Latitude  float64
	Longitude float64
}

// LedgerEntry is one balance change to apply to an account.
type LedgerEntry struct {
	UserID      string
	Type        string
	Amount      int64
	Description string
	RelatedID   string
	Location    *Location
	GrantedBy   string

	// RequireFunds rejects a debit that would take the balance below zero.
	RequireFunds bool

	// Once rejects the entry when the user already holds an entry of the
	// same type for RelatedID.
	Once bool
}

type PointRepository struct {
	db *gorm.DB
	tx *Transactor
}

func NewPointRepository(db *gorm.DB, tx *Transactor) *PointRepository {
	return &PointRepository{db: db, tx: tx}
}

// Apply changes the balance and appends the ledger entry (plus a geo claim
// for located feed grants) in one transaction.
func (r *PointRepository) Apply(ctx context.Context, entry LedgerEntry) (*models.PointLog, error) {
	var log *models.PointLog
	err := r.tx.Run(ctx, "apply ledger entry", func(tx *gorm.DB) error {
		log = nil

		account, err := lockAccount(tx, entry.UserID)
		if err != nil {
			return err
		}
		if entry.Once && entry.RelatedID != "" {
			var existing int64
			if err := tx.Model(&models.PointLog{}).
				Where("user_id = ? AND type = ? AND related_id = ?", entry.UserID, entry.Type, entry.RelatedID).
				Count(&existing).Error; err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, "failed to check ledger")
			}
			if existing > 0 {
				return errors.New(errors.ErrCodeAlreadyExists, "this reward was already granted")
			}
		}
		if entry.RequireFunds && account.Points+entry.Amount < 0 {
			return errors.New(errors.ErrCodeInsufficientFunds,
				fmt.Sprintf("insufficient points: have %d, need %d", account.Points, -entry.Amount))
		}

		log, err = applyEntry(tx, account, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// GetLogs returns the user's most recent ledger entries, newest first.
func (r *PointRepository) GetLogs(ctx context.Context, userID string, limit int) ([]models.PointLog, error) {
	var logs []models.PointLog
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&logs)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get point logs")
	}
	return logs, nil
}

// GetLedger returns every entry of the user in creation order together with
// the account they should add up to, read in one snapshot.
func (r *PointRepository) GetLedger(ctx context.Context, userID string) (*models.Account, []models.PointLog, error) {
	var (
		account models.Account
		logs    []models.PointLog
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", userID).First(&account).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.ErrCodeNotFound, "account not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get account")
		}
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&logs).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get point logs")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &account, logs, nil
}

// HasEntry reports whether userID holds any entry of the given types for
// relatedID.
func (r *PointRepository) HasEntry(ctx context.Context, userID, relatedID string, types []string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PointLog{}).
		Where("user_id = ? AND related_id = ? AND type IN ?", userID, relatedID, types).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check ledger")
	}
	return count > 0, nil
}

// lockAccount reads the account row under a write lock.
func lockAccount(tx *gorm.DB, userID string) (*models.Account, error) {
	var account models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&account).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrCodeNotFound, "account not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get account")
	}
	return &account, nil
}

// applyEntry performs the writes for entry on an account that the caller
// already locked. It issues no reads.
func applyEntry(tx *gorm.DB, account *models.Account, entry LedgerEntry) (*models.PointLog, error) {
	newBalance := account.Points + entry.Amount
	earned := max(entry.Amount, 0)
	spent := max(-entry.Amount, 0)

	err := tx.Model(account).Updates(map[string]interface{}{
		"points":              newBalance,
		"total_earned_points": gorm.Expr("total_earned_points + ?", earned),
		"total_spent_points":  gorm.Expr("total_spent_points + ?", spent),
	}).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update balance")
	}
	account.Points = newBalance
	account.TotalEarnedPoints += earned
	account.TotalSpentPoints += spent

	log := &models.PointLog{
		UserID:      account.ID,
		Type:        entry.Type,
		Amount:      entry.Amount,
		Balance:     newBalance,
		Description: entry.Description,
	}
	if entry.RelatedID != "" {
		relatedID := entry.RelatedID
		log.RelatedID = &relatedID
	}
	if entry.GrantedBy != "" {
		grantedBy := entry.GrantedBy
		log.GrantedBy = &grantedBy
	}
	if entry.Location != nil {
		lat, lon := entry.Location.Latitude, entry.Location.Longitude
		log.Latitude = &lat
		log.Longitude = &lon
	}
	if err := tx.Create(log).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create point log")
	}

	if entry.Location != nil {
		if geoType, ok := models.GeoTypeForLog(entry.Type); ok {
			claim := &models.GeoClaim{
				UserID:    account.ID,
				Type:      geoType,
				Latitude:  entry.Location.Latitude,
				Longitude: entry.Location.Longitude,
				FeedID:    entry.RelatedID,
			}
			if err := tx.Create(claim).Error; err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to record geo claim")
			}
		}
	}

	return log, nil
}
