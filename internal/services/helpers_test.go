package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/database"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/internal/notify"
	"github.com/mroshb/jeju_points/internal/repositories"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.BoxExpired
}

func (r *recordingNotifier) BoxExpired(_ context.Context, event notify.BoxExpired) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	db       *gorm.DB
	points   *PointService
	boxes    *PointBoxService
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tx := repositories.NewTransactor(db, 5)
	rewards := config.DefaultRewardTable()

	f := &fixture{
		db:       db,
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 7, 1, 3, 0, 0, 0, time.UTC), // 12:00 KST
	}
	clock := func() time.Time { return f.now }

	f.points = NewPointService(
		repositories.NewPointRepository(db, tx),
		repositories.NewAccountRepository(db),
		repositories.NewGeoClaimRepository(db),
		rewards, seoul, nil,
	)
	f.points.now = clock

	f.boxes = NewPointBoxService(repositories.NewPointBoxRepository(db, tx), rewards, f.notifier, nil)
	f.boxes.now = clock

	return f
}

// account creates a principal's account and funds it through the ledger.
func (f *fixture) account(t *testing.T, id string, points int64) models.Principal {
	t.Helper()
	p := models.Principal{UserID: id, Name: id, Role: models.RoleUser}
	_, err := f.points.EnsureAccount(context.Background(), p, id+"@example.com")
	require.NoError(t, err)
	if points > 0 {
		_, err = f.points.Grant(context.Background(), id, models.LogTypeAdminGrant, points, "seed", GrantOptions{})
		require.NoError(t, err)
	}
	return p
}

func (f *fixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	account, err := f.points.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return account.Points
}

func (f *fixture) requireLedgerConsistent(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		report, err := f.points.VerifyLedger(context.Background(), id)
		require.NoError(t, err)
		require.True(t, report.Consistent, "ledger of %s: %s", id, report.Problem)
	}
}

// requireConserved checks total = paid out + remaining for a live box.
func (f *fixture) requireConserved(t *testing.T, boxID string) *models.PointBox {
	t.Helper()
	box, err := f.boxes.GetBox(context.Background(), boxID)
	require.NoError(t, err)
	require.Equal(t, box.TotalPoints, box.PaidOut()+box.RemainingPoints)
	require.Equal(t, len(box.Claims), box.ClaimedCount)
	require.LessOrEqual(t, box.ClaimedCount, box.MaxClaims)
	return box
}
