package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/metrics"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/internal/notify"
	"github.com/mroshb/jeju_points/internal/repositories"
	"github.com/mroshb/jeju_points/internal/security"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/mroshb/jeju_points/pkg/logger"
	"github.com/mroshb/jeju_points/pkg/utils"
)

// Box listing and sweep sizes
const (
	DefaultBoxListLimit = 20
	MaxBoxListLimit     = 100
	sweepBatchSize      = 500
)

// ClaimResult is returned to a successful claimant.
type ClaimResult struct {
	BoxID        string `json:"box_id"`
	Amount       int64  `json:"amount"`
	Balance      int64  `json:"balance"`
	Remaining    int64  `json:"remaining_points"`
	ClaimedCount int    `json:"claimed_count"`
	MaxClaims    int    `json:"max_claims"`
	Closed       bool   `json:"closed"`
}

// DeleteResult reports the refund of a deleted box.
type DeleteResult struct {
	BoxID    string `json:"box_id"`
	Refunded int64  `json:"refunded"`
}

// SweepReport summarizes one expiry sweep.
type SweepReport struct {
	Scanned        int   `json:"scanned"`
	Refunded       int   `json:"refunded"`
	Deleted        int   `json:"deleted"`
	Skipped        int   `json:"skipped"`
	Failed         int   `json:"failed"`
	RefundedPoints int64 `json:"refunded_points"`
}

type PointBoxService struct {
	boxes    *repositories.PointBoxRepository
	rewards  config.RewardTable
	notifier notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
	draw     DrawFunc
}

func NewPointBoxService(
	boxes *repositories.PointBoxRepository,
	rewards config.RewardTable,
	notifier notify.Notifier,
	m *metrics.Metrics,
) *PointBoxService {
	return &PointBoxService{
		boxes:    boxes,
		rewards:  rewards,
		notifier: notifier,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		draw:     utils.RandomInt64Range,
	}
}

// CreateBox debits the creator by totalPoints and opens a box that up to
// maxClaims other users can claim from until it expires.
func (s *PointBoxService) CreateBox(ctx context.Context, creator models.Principal, totalPoints int64, maxClaims int, distribution string) (*models.PointBox, error) {
	if creator.UserID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "creator is required")
	}
	if totalPoints < s.rewards.MinBoxPoints {
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("a point box needs at least %d points", s.rewards.MinBoxPoints))
	}
	if maxClaims < 1 || maxClaims > s.rewards.MaxBoxClaims {
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("claimants must be between 1 and %d", s.rewards.MaxBoxClaims))
	}
	if !models.ValidDistribution(distribution) {
		return nil, errors.New(errors.ErrCodeValidation, "distribution must be equal or random")
	}

	name := security.SanitizeText(creator.Name, security.MaxNameLength)
	if name == "" {
		name = "Anonymous"
	}

	now := s.now()
	box := &models.PointBox{
		CreatorID:        creator.UserID,
		CreatorName:      name,
		TotalPoints:      totalPoints,
		RemainingPoints:  totalPoints,
		MaxClaims:        maxClaims,
		DistributionType: distribution,
		IsActive:         true,
		CreatedAt:        now,
		ExpiredAt:        now.Add(s.rewards.BoxLifetime()),
	}

	log, err := s.boxes.Create(ctx, box)
	s.metrics.ObserveGrant(models.LogTypePointSpend, errors.CodeOf(err), -totalPoints)
	if err != nil {
		logger.Warn("Point box creation failed", "creator_id", creator.UserID, "total_points", totalPoints, "error", err)
		return nil, err
	}
	s.metrics.ObserveBoxCreated()

	logger.Info("Point box created",
		"box_id", box.ID,
		"creator_id", box.CreatorID,
		"total_points", box.TotalPoints,
		"max_claims", box.MaxClaims,
		"distribution", box.DistributionType,
		"balance", log.Balance,
	)
	return box, nil
}

// ClaimBox pays userID one share of the box. Each rejection carries its
// own error code.
func (s *PointBoxService) ClaimBox(ctx context.Context, boxID, userID string) (*ClaimResult, error) {
	if boxID == "" || userID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "box id and user id are required")
	}

	outcome, err := s.boxes.Claim(ctx, boxID, userID, s.now(), func(box *models.PointBox) (int64, error) {
		return Payout(box, s.draw)
	})
	s.metrics.ObserveClaim(errors.CodeOf(err))
	if err != nil {
		if !errors.IsPrecondition(err) {
			logger.Error("Point box claim failed", "box_id", boxID, "user_id", userID, "error", err)
		}
		return nil, err
	}
	s.metrics.ObserveGrant(models.LogTypeChatPointBox, "", outcome.Amount)

	logger.Info("Point box claimed",
		"box_id", boxID,
		"user_id", userID,
		"amount", outcome.Amount,
		"remaining", outcome.Box.RemainingPoints,
		"claimed", outcome.Box.ClaimedCount,
	)

	return &ClaimResult{
		BoxID:        boxID,
		Amount:       outcome.Amount,
		Balance:      outcome.Log.Balance,
		Remaining:    outcome.Box.RemainingPoints,
		ClaimedCount: outcome.Box.ClaimedCount,
		MaxClaims:    outcome.Box.MaxClaims,
		Closed:       !outcome.Box.IsActive,
	}, nil
}

// DeleteBox removes a box early. Only its creator or an admin may do so;
// the unclaimed remainder goes back to the creator.
func (s *PointBoxService) DeleteBox(ctx context.Context, boxID string, requester models.Principal) (*DeleteResult, error) {
	outcome, err := s.boxes.Delete(ctx, boxID, requester)
	if err != nil {
		return nil, err
	}
	if outcome.Log != nil {
		s.metrics.ObserveGrant(models.LogTypePointBoxRefund, "", outcome.Refunded)
	}

	logger.Info("Point box deleted",
		"box_id", boxID,
		"requested_by", requester.UserID,
		"refunded", outcome.Refunded,
	)
	return &DeleteResult{BoxID: boxID, Refunded: outcome.Refunded}, nil
}

// SweepExpiredBoxes refunds and removes every box past its expiry. Each box
// is handled in its own transaction; a failure is counted and the sweep
// moves on.
func (s *PointBoxService) SweepExpiredBoxes(ctx context.Context) (*SweepReport, error) {
	now := s.now()
	ids, err := s.boxes.ListExpiredIDs(ctx, now, sweepBatchSize)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		outcome, err := s.boxes.Expire(ctx, id, now)
		if err != nil {
			report.Failed++
			s.metrics.ObserveSwept("failed")
			logger.Error("Failed to expire point box", "box_id", id, "error", err)
			continue
		}

		switch {
		case outcome.Skipped:
			report.Skipped++
			s.metrics.ObserveSwept("skipped")
		case outcome.Log != nil:
			report.Refunded++
			report.RefundedPoints += outcome.Refunded
			s.metrics.ObserveSwept("refunded")
			s.metrics.ObserveGrant(models.LogTypePointBoxRefund, "", outcome.Refunded)
			s.publishExpiry(ctx, outcome)
		default:
			report.Deleted++
			s.metrics.ObserveSwept("deleted")
		}
	}

	logger.Info("Point box sweep finished",
		"scanned", report.Scanned,
		"refunded", report.Refunded,
		"deleted", report.Deleted,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"refunded_points", report.RefundedPoints,
	)
	return report, nil
}

func (s *PointBoxService) publishExpiry(ctx context.Context, outcome *repositories.CloseOutcome) {
	if s.notifier == nil {
		return
	}
	event := notify.BoxExpired{
		BoxID:        outcome.Box.ID,
		CreatorID:    outcome.Box.CreatorID,
		CreatorName:  outcome.Box.CreatorName,
		Refunded:     outcome.Refunded,
		ClaimedCount: outcome.Box.ClaimedCount,
		MaxClaims:    outcome.Box.MaxClaims,
	}
	if err := s.notifier.BoxExpired(ctx, event); err != nil {
		logger.Warn("Expiry notice not delivered", "box_id", event.BoxID, "error", err)
	}
}

// ListActiveBoxes returns the boxes the chat should render as claimable.
func (s *PointBoxService) ListActiveBoxes(ctx context.Context, limit int) ([]models.PointBox, error) {
	if limit <= 0 {
		limit = DefaultBoxListLimit
	}
	if limit > MaxBoxListLimit {
		limit = MaxBoxListLimit
	}
	return s.boxes.ListActive(ctx, s.now(), limit)
}

// Now is the service clock, in UTC.
func (s *PointBoxService) Now() time.Time {
	return s.now()
}

func (s *PointBoxService) GetBox(ctx context.Context, boxID string) (*models.PointBox, error) {
	return s.boxes.GetByID(ctx, boxID)
}
