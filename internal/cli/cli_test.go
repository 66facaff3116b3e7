package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mroshb/jeju_points/internal/app"
	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/database"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileOpener reopens the same SQLite file for every command.
func fileOpener(t *testing.T) Opener {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.db")
	cfg := &config.Config{
		TxMaxRetries:   3,
		RewardTimezone: "UTC",
		Rewards:        config.DefaultRewardTable(),
	}

	return func() (*app.App, error) {
		db, err := database.OpenSQLite("file:" + path + "?_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		return app.New(cfg, db)
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedAccount(t *testing.T, open Opener, id string) {
	t.Helper()
	a, err := open()
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Points.EnsureAccount(context.Background(), models.Principal{UserID: id, Role: models.RoleUser}, "")
	require.NoError(t, err)
}

func TestGrantAndVerify(t *testing.T) {
	open := fileOpener(t)
	seedAccount(t, open, "alice")

	out, err := run(t, open, "grant", "--reason", "festival prize", "alice", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "balance=120")

	_, err = run(t, open, "grant", "alice", "-500")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInsufficientFunds, errors.CodeOf(err))

	out, err = run(t, open, "grant", "--as", "ops", "alice", "-20")
	require.NoError(t, err)
	assert.Contains(t, out, "balance=100")

	out, err = run(t, open, "verify", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "entries=2")
	assert.Contains(t, out, "consistent=true")
}

func TestGrantRejectsBadAmount(t *testing.T) {
	open := fileOpener(t)

	_, err := run(t, open, "grant", "alice", "ten")
	assert.Error(t, err)

	_, err = run(t, open, "grant", "alice")
	assert.Error(t, err)

	// Flags after the arguments are not parsed
	_, err = run(t, open, "grant", "alice", "10", "--reason", "late")
	assert.Error(t, err)
}

func TestVerifyUnknownAccount(t *testing.T) {
	_, err := run(t, fileOpener(t), "verify", "ghost")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	open := fileOpener(t)
	seedAccount(t, open, "alice")
	_, err := run(t, open, "grant", "alice", "30")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "alice.xlsx")
	out, err := run(t, open, "export", "alice", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	missing := filepath.Join(t.TempDir(), "ghost.xlsx")
	_, err = run(t, open, "export", "ghost", "-o", missing)
	assert.Error(t, err)
	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSweep(t *testing.T) {
	out, err := run(t, fileOpener(t), "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "scanned=0")
}
