package repositories

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", stderrors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped in internal error", errors.Wrap(&pgconn.PgError{Code: "40001"}, errors.ErrCodeInternalError, "failed"), true},
		{"precondition", errors.New(errors.ErrCodeAlreadyClaimed, "already claimed"), false},
		{"plain error", stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransactor_RetriesTransientErrors(t *testing.T) {
	db := newTestDB(t)
	tx := NewTransactor(db, 3)

	attempts := 0
	err := tx.Run(context.Background(), "test", func(*gorm.DB) error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestTransactor_PreconditionNotRetried(t *testing.T) {
	db := newTestDB(t)
	tx := NewTransactor(db, 3)

	attempts := 0
	err := tx.Run(context.Background(), "test", func(*gorm.DB) error {
		attempts++
		return errors.New(errors.ErrCodeSoldOut, "sold out")
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, errors.ErrCodeSoldOut, errors.CodeOf(err))
}

func TestTransactor_ExhaustedRetriesAreInternal(t *testing.T) {
	db := newTestDB(t)
	tx := NewTransactor(db, 2)

	attempts := 0
	err := tx.Run(context.Background(), "test", func(*gorm.DB) error {
		attempts++
		return &pgconn.PgError{Code: "40P01"}
	})

	assert.Equal(t, 2, attempts)
	assert.Equal(t, errors.ErrCodeInternalError, errors.CodeOf(err))
	assert.False(t, errors.IsPrecondition(err))
}
