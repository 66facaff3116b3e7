package repositories

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/mroshb/jeju_points/pkg/logger"
	"github.com/mroshb/jeju_points/pkg/retry"
	"gorm.io/gorm"
)

// Postgres codes for conflicts that succeed when the transaction is rerun
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// IsTransient reports whether err came from a store conflict that a fresh
// transaction attempt can resolve. Business rejections are never transient.
func IsTransient(err error) bool {
	if err == nil || errors.IsPrecondition(err) {
		return false
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}

	if stderrors.Is(err, driver.ErrBadConn) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}

// Transactor runs ledger transactions with a bounded retry on transient
// conflicts.
type Transactor struct {
	db    *gorm.DB
	retry retry.Config
}

func NewTransactor(db *gorm.DB, maxRetries int) *Transactor {
	cfg := retry.DefaultConfig()
	if maxRetries > 0 {
		cfg.MaxRetries = maxRetries
	}
	cfg.Retryable = IsTransient
	return &Transactor{db: db, retry: cfg}
}

// Run executes fn inside one transaction. fn may run more than once, so it
// must reset any state it captures. Precondition errors come back as they
// were returned; anything else that survives the retries becomes a
// retryable INTERNAL_ERROR.
func (t *Transactor) Run(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	err := retry.WithBackoff(ctx, t.retry, logger.Zap(), operation, func() error {
		return t.db.WithContext(ctx).Transaction(fn)
	})
	if err == nil {
		return nil
	}
	if errors.IsPrecondition(err) {
		var appErr *errors.AppError
		stderrors.As(err, &appErr)
		return appErr
	}

	logger.Error("Ledger transaction failed", "operation", operation, "error", err)
	return errors.Wrap(err, errors.ErrCodeInternalError, "could not complete the request, please try again")
}
