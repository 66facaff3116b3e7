package repositories

import (
	"context"
	"testing"

	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointRepository_ApplyKeepsLedgerConsistent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointRepository(db, NewTransactor(db, 3))
	ctx := context.Background()
	seedAccount(t, db, "u1", 0)

	amounts := []int64{10, 30, -15, 20, -45}
	for _, amount := range amounts {
		logType := models.LogTypeAdminGrant
		if amount < 0 {
			logType = models.LogTypeAdminDeduct
		}
		_, err := repo.Apply(ctx, LedgerEntry{UserID: "u1", Type: logType, Amount: amount})
		require.NoError(t, err)
	}

	account := reloadAccount(t, db, "u1")
	assert.Equal(t, int64(0), account.Points)
	assert.Equal(t, int64(60), account.TotalEarnedPoints)
	assert.Equal(t, int64(60), account.TotalSpentPoints)

	_, logs, err := repo.GetLedger(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, len(amounts))

	var balance int64
	for i, log := range logs {
		balance += log.Amount
		assert.Equal(t, balance, log.Balance, "entry %d", i)
		assert.Equal(t, amounts[i], log.Amount)
	}
}

func TestPointRepository_ApplyMissingAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointRepository(db, NewTransactor(db, 3))

	log, err := repo.Apply(context.Background(), LedgerEntry{UserID: "ghost", Type: models.LogTypeFeedPhoto, Amount: 10})

	assert.Nil(t, log)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))

	var count int64
	require.NoError(t, db.Model(&models.PointLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPointRepository_RequireFunds(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointRepository(db, NewTransactor(db, 3))
	ctx := context.Background()
	seedAccount(t, db, "u1", 50)

	_, err := repo.Apply(ctx, LedgerEntry{UserID: "u1", Type: models.LogTypeAdminDeduct, Amount: -60, RequireFunds: true})
	assert.Equal(t, errors.ErrCodeInsufficientFunds, errors.CodeOf(err))
	assert.Equal(t, int64(50), reloadAccount(t, db, "u1").Points)

	// Without the flag the engine applies the debit as given
	log, err := repo.Apply(ctx, LedgerEntry{UserID: "u1", Type: models.LogTypePointSpend, Amount: -60})
	require.NoError(t, err)
	assert.Equal(t, int64(-10), log.Balance)
}

func TestPointRepository_ApplyRecordsGeoClaim(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointRepository(db, NewTransactor(db, 3))
	geo := NewGeoClaimRepository(db)
	ctx := context.Background()
	seedAccount(t, db, "u1", 0)

	loc := &Location{Latitude: 33.4996, Longitude: 126.5312}
	log, err := repo.Apply(ctx, LedgerEntry{UserID: "u1", Type: models.LogTypeFeedVideo, Amount: 30, RelatedID: "feed-1", Location: loc})
	require.NoError(t, err)
	require.NotNil(t, log.Latitude)
	assert.Equal(t, 33.4996, *log.Latitude)
	assert.Equal(t, "feed-1", *log.RelatedID)

	// Bonus types carry no geo claim even with a location
	_, err = repo.Apply(ctx, LedgerEntry{UserID: "u1", Type: models.LogTypeFeedFreshBonus, Amount: 20, RelatedID: "feed-1", Location: loc})
	require.NoError(t, err)

	videos, err := geo.ListByUserAndType(ctx, "u1", models.GeoTypeVideo)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "feed-1", videos[0].FeedID)

	photos, err := geo.ListByUserAndType(ctx, "u1", models.GeoTypePhoto)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestPointRepository_GetLogsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointRepository(db, NewTransactor(db, 3))
	ctx := context.Background()
	seedAccount(t, db, "u1", 0)

	for i := int64(1); i <= 5; i++ {
		_, err := repo.Apply(ctx, LedgerEntry{UserID: "u1", Type: models.LogTypeFeedPhoto, Amount: i})
		require.NoError(t, err)
	}

	logs, err := repo.GetLogs(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, int64(5), logs[0].Amount)
	assert.Equal(t, int64(3), logs[2].Amount)
}

func TestAccountRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	created, err := repo.Ensure(ctx, &models.Account{ID: "u1", Email: "Jeju@Example.com", DisplayName: "Jeju"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.Zero(t, created.Points)

	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", "u1").Update("points", 40).Error)

	again, err := repo.Ensure(ctx, &models.Account{ID: "u1", Email: "other@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(40), again.Points)
	assert.Equal(t, "Jeju@Example.com", again.Email)

	found, err := repo.GetByEmail(ctx, "jeju@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))

	_, err = repo.GetByID(ctx, "nobody")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestPointRepository_ApplyOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewPointRepository(db, NewTransactor(db, 3))
	ctx := context.Background()
	seedAccount(t, db, "u1", 0)

	entry := LedgerEntry{UserID: "u1", Type: models.LogTypeCCTVCaptureBonus, Amount: 50, RelatedID: "feed-1", Once: true}
	_, err := repo.Apply(ctx, entry)
	require.NoError(t, err)

	_, err = repo.Apply(ctx, entry)
	assert.Equal(t, errors.ErrCodeAlreadyExists, errors.CodeOf(err))
	assert.Equal(t, int64(50), reloadAccount(t, db, "u1").Points)

	found, err := repo.HasEntry(ctx, "u1", "feed-1", models.FeedLogTypes)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.HasEntry(ctx, "u1", "feed-2", models.FeedLogTypes)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = repo.HasEntry(ctx, "u1", "feed-1", []string{models.LogTypeFeedPhoto})
	require.NoError(t, err)
	assert.False(t, found)
}
