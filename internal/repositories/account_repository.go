package repositories

import (
	"context"
	stderrors "errors"

	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Ensure inserts the account if it does not exist yet and returns the
// stored row. Existing balances are never touched.
func (r *AccountRepository) Ensure(ctx context.Context, account *models.Account) (*models.Account, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(account)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to create account")
	}
	return r.GetByID(ctx, account.ID)
}

// GetByID retrieves an account by its principal id
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&account)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "account not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get account")
	}

	return &account, nil
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	result := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&account)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "no account with that email")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get account")
	}

	return &account, nil
}
