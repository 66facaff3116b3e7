package repositories

import (
	"testing"

	"github.com/mroshb/jeju_points/internal/database"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, id string, points int64) *models.Account {
	t.Helper()
	account := &models.Account{ID: id, Email: id + "@example.com", DisplayName: id, Points: points, TotalEarnedPoints: points}
	require.NoError(t, db.Create(account).Error)
	return account
}

func reloadAccount(t *testing.T, db *gorm.DB, id string) models.Account {
	t.Helper()
	var account models.Account
	require.NoError(t, db.Where("id = ?", id).First(&account).Error)
	return account
}
