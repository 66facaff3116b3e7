package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/metrics"
	"github.com/mroshb/jeju_points/internal/models"
	"github.com/mroshb/jeju_points/internal/repositories"
	"github.com/mroshb/jeju_points/internal/security"
	"github.com/mroshb/jeju_points/pkg/errors"
	"github.com/mroshb/jeju_points/pkg/logger"
	"github.com/mroshb/jeju_points/pkg/utils"
)

// Log history paging
const (
	DefaultLogLimit = 50
	MaxLogLimit     = 200
)

// Feed types that earn upload rewards
const (
	FeedTypeLive = "live"
	FeedTypeCCTV = "cctv"
)

// GrantOptions carries the optional parts of a grant.
type GrantOptions struct {
	RelatedID string
	Location  *repositories.Location
	GrantedBy string
	// RequireFunds makes a debit fail with INSUFFICIENT_FUNDS instead of
	// taking the balance below zero.
	RequireFunds bool
}

// FeedReward describes a freshly published feed for reward purposes.
type FeedReward struct {
	UserID      string
	FeedID      string
	FeedType    string
	HasVideo    bool
	HasImage    bool
	Latitude    *float64
	Longitude   *float64
	CaptureTime string
}

// RewardSummary lists what a feed upload earned.
type RewardSummary struct {
	Grants    []*models.PointLog `json:"grants"`
	Total     int64              `json:"total"`
	Duplicate bool               `json:"duplicate"`
}

type PointService struct {
	points   *repositories.PointRepository
	accounts *repositories.AccountRepository
	geo      *repositories.GeoClaimRepository
	rewards  config.RewardTable
	loc      *time.Location
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewPointService(
	points *repositories.PointRepository,
	accounts *repositories.AccountRepository,
	geo *repositories.GeoClaimRepository,
	rewards config.RewardTable,
	loc *time.Location,
	m *metrics.Metrics,
) *PointService {
	if loc == nil {
		loc = time.UTC
	}
	return &PointService{
		points:   points,
		accounts: accounts,
		geo:      geo,
		rewards:  rewards,
		loc:      loc,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Grant applies a signed point change to userID and appends the ledger
// entry. A nil error means the change committed. Feed rewards with a
// related feed are granted at most once per type and feed.
func (s *PointService) Grant(ctx context.Context, userID, logType string, amount int64, description string, opts GrantOptions) (*models.PointLog, error) {
	if userID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "user id is required")
	}
	if !models.ValidLogType(logType) {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown point log type %q", logType))
	}

	log, err := s.points.Apply(ctx, repositories.LedgerEntry{
		UserID:       userID,
		Type:         logType,
		Amount:       amount,
		Description:  description,
		RelatedID:    opts.RelatedID,
		Location:     opts.Location,
		GrantedBy:    opts.GrantedBy,
		RequireFunds: opts.RequireFunds,
		Once:         models.IsFeedLogType(logType),
	})
	s.metrics.ObserveGrant(logType, errors.CodeOf(err), amount)
	if err != nil {
		logger.Warn("Point grant failed",
			"user_id", userID,
			"type", logType,
			"amount", amount,
			"error", err,
		)
		return nil, err
	}

	logger.Info("Points granted",
		"user_id", userID,
		"type", logType,
		"amount", amount,
		"balance", log.Balance,
	)
	return log, nil
}

// IsDuplicate reports whether the user already earned a geoType reward
// strictly closer than the duplicate radius to (lat, lon). The check does
// not lock anything; two simultaneous uploads may both pass.
func (s *PointService) IsDuplicate(ctx context.Context, userID, geoType string, lat, lon float64) (bool, error) {
	claims, err := s.geo.ListByUserAndType(ctx, userID, geoType)
	if err != nil {
		return false, err
	}

	for _, c := range claims {
		if utils.DistanceMeters(lat, lon, c.Latitude, c.Longitude) < s.rewards.GeoDuplicateRadiusMeters {
			return true, nil
		}
	}
	return false, nil
}

// IsWithinWindow reports whether a raw capture timestamp lies within the
// freshness window before now. Unparseable input is never fresh.
func (s *PointService) IsWithinWindow(raw string) bool {
	captured, err := utils.ParseCaptureTime(raw, s.loc)
	if err != nil {
		logger.Debug("Capture time not recognized", "raw", raw, "error", err)
		return false
	}
	return utils.IsWithinWindow(captured, s.now(), s.rewards.FreshnessWindow())
}

// RewardFeedUpload pays the upload rewards of a newly published feed.
func (s *PointService) RewardFeedUpload(ctx context.Context, feed FeedReward) (*RewardSummary, error) {
	if feed.UserID == "" || feed.FeedID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "user id and feed id are required")
	}

	summary := &RewardSummary{Grants: []*models.PointLog{}}
	if !feed.HasVideo && !feed.HasImage {
		return summary, nil
	}

	rewarded, err := s.points.HasEntry(ctx, feed.UserID, feed.FeedID, models.FeedLogTypes)
	if err != nil {
		return nil, err
	}
	if rewarded {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "this feed was already rewarded")
	}

	grant := func(logType string, amount int64, description string, loc *repositories.Location) error {
		log, err := s.Grant(ctx, feed.UserID, logType, amount, description, GrantOptions{
			RelatedID: feed.FeedID,
			Location:  loc,
		})
		if err != nil {
			return err
		}
		summary.Grants = append(summary.Grants, log)
		summary.Total += amount
		return nil
	}

	switch feed.FeedType {
	case FeedTypeCCTV:
		if err := grant(models.LogTypeCCTVCaptureBonus, s.rewards.CCTVCaptureBonus, "CCTV capture posted", nil); err != nil {
			return nil, err
		}
		return summary, nil
	case FeedTypeLive:
	default:
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown feed type %q", feed.FeedType))
	}

	if feed.Latitude == nil || feed.Longitude == nil {
		return summary, nil
	}
	loc := &repositories.Location{Latitude: *feed.Latitude, Longitude: *feed.Longitude}

	geoType := models.GeoTypePhoto
	if feed.HasVideo {
		geoType = models.GeoTypeVideo
	}

	duplicate, err := s.IsDuplicate(ctx, feed.UserID, geoType, loc.Latitude, loc.Longitude)
	if err != nil {
		// Without the claim history the upload is treated as a repeat
		logger.Error("Geo duplicate check failed, withholding reward",
			"user_id", feed.UserID,
			"feed_id", feed.FeedID,
			"error", err,
		)
		duplicate = true
	}
	if duplicate {
		summary.Duplicate = true
		return summary, nil
	}

	if feed.HasVideo {
		err = grant(models.LogTypeFeedVideo, s.rewards.FeedVideo, "Video feed posted", loc)
	} else {
		err = grant(models.LogTypeFeedPhoto, s.rewards.FeedPhoto, "Photo feed posted", loc)
	}
	if err != nil {
		return nil, err
	}

	if feed.CaptureTime != "" && s.IsWithinWindow(feed.CaptureTime) {
		if err := grant(models.LogTypeFeedFreshBonus, s.rewards.FeedFreshBonus, "Captured within 24 hours", nil); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

// GrantChatAward pays the chat ranking reward for rank 1, 2 or 3.
func (s *PointService) GrantChatAward(ctx context.Context, userID string, rank int, relatedID string) (*models.PointLog, error) {
	amount, ok := s.rewards.ChatAward(rank)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, "rank must be 1, 2 or 3")
	}

	logType := []string{models.LogTypeChatAward1st, models.LogTypeChatAward2nd, models.LogTypeChatAward3rd}[rank-1]
	return s.Grant(ctx, userID, logType, amount, fmt.Sprintf("Chat ranking #%d", rank), GrantOptions{RelatedID: relatedID})
}

// AdminGrant credits or debits another account on behalf of an admin.
// Debits never take the target below zero.
func (s *PointService) AdminGrant(ctx context.Context, admin models.Principal, targetID string, amount int64, reason string) (*models.PointLog, error) {
	if !admin.IsAdmin() {
		return nil, errors.New(errors.ErrCodeForbidden, "admin role required")
	}
	if amount == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "amount must not be zero")
	}

	logType := models.LogTypeAdminGrant
	description := security.SanitizeText(reason, security.MaxReasonLength)
	if amount < 0 {
		logType = models.LogTypeAdminDeduct
		if description == "" {
			description = "Deducted by admin"
		}
	} else if description == "" {
		description = "Granted by admin"
	}

	return s.Grant(ctx, targetID, logType, amount, description, GrantOptions{
		GrantedBy:    admin.UserID,
		RequireFunds: amount < 0,
	})
}

// AdminSelfCharge tops up the admin's own balance, e.g. to fund point boxes.
func (s *PointService) AdminSelfCharge(ctx context.Context, admin models.Principal, amount int64, reason string) (*models.PointLog, error) {
	if !admin.IsAdmin() {
		return nil, errors.New(errors.ErrCodeForbidden, "admin role required")
	}
	if amount < s.rewards.MinAdminCharge {
		return nil, errors.New(errors.ErrCodeValidation,
			fmt.Sprintf("charge must be at least %d points", s.rewards.MinAdminCharge))
	}

	description := security.SanitizeText(reason, security.MaxReasonLength)
	if description == "" {
		description = "Admin self charge"
	}
	return s.Grant(ctx, admin.UserID, models.LogTypeAdminGrant, amount, description, GrantOptions{GrantedBy: admin.UserID})
}

func (s *PointService) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	if email == "" {
		return nil, errors.New(errors.ErrCodeValidation, "email is required")
	}
	return s.accounts.GetByEmail(ctx, email)
}

// GetPointLogs returns the newest ledger entries of userID.
func (s *PointService) GetPointLogs(ctx context.Context, userID string, limit int) ([]models.PointLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	return s.points.GetLogs(ctx, userID, limit)
}

// EnsureAccount creates the zero balance account of an authenticated
// principal on first use.
func (s *PointService) EnsureAccount(ctx context.Context, principal models.Principal, email string) (*models.Account, error) {
	if principal.UserID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "user id is required")
	}
	role := principal.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown role %q", role))
	}

	return s.accounts.Ensure(ctx, &models.Account{
		ID:          principal.UserID,
		Email:       security.SanitizeString(email, 255),
		DisplayName: security.SanitizeText(principal.Name, security.MaxNameLength),
		Role:        role,
	})
}

func (s *PointService) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	return s.accounts.GetByID(ctx, userID)
}
