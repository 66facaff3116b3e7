package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/mroshb/jeju_points/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const ledgerSheet = "Ledger"

// LedgerReport is the result of replaying an account's ledger from zero.
type LedgerReport struct {
	UserID      string `json:"user_id"`
	Entries     int    `json:"entries"`
	Balance     int64  `json:"balance"`
	Replayed    int64  `json:"replayed"`
	TotalEarned int64  `json:"total_earned"`
	TotalSpent  int64  `json:"total_spent"`
	Consistent  bool   `json:"consistent"`
	// MismatchLogID is the first entry whose balance disagrees with the
	// running sum, 0 if none.
	MismatchLogID uint   `json:"mismatch_log_id,omitempty"`
	Problem       string `json:"problem,omitempty"`
}

// Err returns a LEDGER_MISMATCH error for an inconsistent report.
func (r *LedgerReport) Err() error {
	if r.Consistent {
		return nil
	}
	return errors.New(errors.ErrCodeLedgerMismatch, r.Problem)
}

// VerifyLedger checks that every entry's balance equals the running sum of
// amounts and that the account agrees with the final sums.
func (s *PointService) VerifyLedger(ctx context.Context, userID string) (*LedgerReport, error) {
	account, logs, err := s.points.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &LedgerReport{
		UserID:     userID,
		Entries:    len(logs),
		Balance:    account.Points,
		Consistent: true,
	}

	var earned, spent int64
	for _, log := range logs {
		report.Replayed += log.Amount
		if log.Amount > 0 {
			earned += log.Amount
		} else {
			spent -= log.Amount
		}
		if report.Consistent && log.Balance != report.Replayed {
			report.Consistent = false
			report.MismatchLogID = log.ID
			report.Problem = fmt.Sprintf("entry %d records balance %d, running sum is %d", log.ID, log.Balance, report.Replayed)
		}
	}
	report.TotalEarned = earned
	report.TotalSpent = spent

	switch {
	case !report.Consistent:
	case account.Points != report.Replayed:
		report.Consistent = false
		report.Problem = fmt.Sprintf("account balance %d, ledger sums to %d", account.Points, report.Replayed)
	case account.TotalEarnedPoints != earned || account.TotalSpentPoints != spent:
		report.Consistent = false
		report.Problem = fmt.Sprintf("account totals earned=%d spent=%d, ledger has earned=%d spent=%d",
			account.TotalEarnedPoints, account.TotalSpentPoints, earned, spent)
	}

	if !report.Consistent {
		logger.Error("Ledger mismatch", "user_id", userID, "problem", report.Problem)
	}
	return report, nil
}

// ExportLedger writes the full ledger of userID as an XLSX workbook.
func (s *PointService) ExportLedger(ctx context.Context, userID string, w io.Writer) error {
	account, logs, err := s.points.GetLedger(ctx, userID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to prepare sheet")
	}

	header := []interface{}{"ID", "Created At", "Type", "Amount", "Balance", "Description", "Related ID", "Granted By"}
	if err := f.SetSheetRow(ledgerSheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write header")
	}

	for i, log := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to address row")
		}
		row := []interface{}{
			log.ID,
			log.CreatedAt.UTC().Format(time.RFC3339),
			log.Type,
			log.Amount,
			log.Balance,
			log.Description,
			deref(log.RelatedID),
			deref(log.GrantedBy),
		}
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write row")
		}
	}

	footer, err := excelize.CoordinatesToCellName(1, len(logs)+3)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to address row")
	}
	summary := []interface{}{"Account", account.ID, "Balance", account.Points}
	if err := f.SetSheetRow(ledgerSheet, footer, &summary); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write summary")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to write workbook")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
