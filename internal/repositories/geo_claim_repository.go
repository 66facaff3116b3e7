package repositories

import (
	"context"

	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/errors"
	"gorm.io/gorm"
)

type GeoClaimRepository struct {
	db *gorm.DB
}

func NewGeoClaimRepository(db *gorm.DB) *GeoClaimRepository {
	return &GeoClaimRepository{db: db}
}

// ListByUserAndType returns every geo claim the user holds for one media type.
func (r *GeoClaimRepository) ListByUserAndType(ctx context.Context, userID, geoType string) ([]models.GeoClaim, error) {
	var claims []models.GeoClaim
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, geoType).
		Find(&claims)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get geo claims")
	}
	return claims, nil
}
