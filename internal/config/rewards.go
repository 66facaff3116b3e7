package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// RewardTable holds every tunable point value. Defaults mirror the live
// app; REWARDS_FILE may override any subset of keys.
type RewardTable struct {
	FeedPhoto        int64 `toml:"feed_photo"`
	FeedVideo        int64 `toml:"feed_video"`
	FeedFreshBonus   int64 `toml:"feed_24h_bonus"`
	CCTVCaptureBonus int64 `toml:"cctv_capture_bonus"`
	ChatAward1st     int64 `toml:"chat_award_1st"`
	ChatAward2nd     int64 `toml:"chat_award_2nd"`
	ChatAward3rd     int64 `toml:"chat_award_3rd"`

	GeoDuplicateRadiusMeters float64 `toml:"geo_duplicate_radius_meters"`
	FreshnessWindowHours     int     `toml:"freshness_window_hours"`

	MinBoxPoints     int64 `toml:"min_box_points"`
	MaxBoxClaims     int   `toml:"max_box_claims"`
	BoxLifetimeHours int   `toml:"box_lifetime_hours"`

	MinAdminCharge int64 `toml:"min_admin_charge"`
}

func DefaultRewardTable() RewardTable {
	return RewardTable{
		FeedPhoto:        10,
		FeedVideo:        30,
		FeedFreshBonus:   20,
		CCTVCaptureBonus: 50,
		ChatAward1st:     100,
		ChatAward2nd:     50,
		ChatAward3rd:     30,

		GeoDuplicateRadiusMeters: 100,
		FreshnessWindowHours:     24,

		MinBoxPoints:     10,
		MaxBoxClaims:     100,
		BoxLifetimeHours: 24,

		MinAdminCharge: 100,
	}
}

// LoadRewardTable returns the defaults overlaid with the TOML file at path.
// An empty path yields the defaults.
func LoadRewardTable(path string) (RewardTable, error) {
	table := DefaultRewardTable()
	if path == "" {
		return table, nil
	}

	if _, err := toml.DecodeFile(path, &table); err != nil {
		return RewardTable{}, fmt.Errorf("failed to decode rewards file %s: %w", path, err)
	}

	if err := table.Validate(); err != nil {
		return RewardTable{}, err
	}
	return table, nil
}

func (t RewardTable) Validate() error {
	for name, v := range map[string]int64{
		"feed_photo":         t.FeedPhoto,
		"feed_video":         t.FeedVideo,
		"feed_24h_bonus":     t.FeedFreshBonus,
		"cctv_capture_bonus": t.CCTVCaptureBonus,
		"chat_award_1st":     t.ChatAward1st,
		"chat_award_2nd":     t.ChatAward2nd,
		"chat_award_3rd":     t.ChatAward3rd,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if t.GeoDuplicateRadiusMeters <= 0 {
		return fmt.Errorf("geo_duplicate_radius_meters must be positive")
	}
	if t.FreshnessWindowHours <= 0 {
		return fmt.Errorf("freshness_window_hours must be positive")
	}
	if t.MinBoxPoints <= 0 {
		return fmt.Errorf("min_box_points must be positive")
	}
	if t.MaxBoxClaims < 1 {
		return fmt.Errorf("max_box_claims must be at least 1")
	}
	if t.BoxLifetimeHours <= 0 {
		return fmt.Errorf("box_lifetime_hours must be positive")
	}
	return nil
}

// ChatAward returns the points for a chat ranking (1, 2 or 3).
func (t RewardTable) ChatAward(rank int) (int64, bool) {
	switch rank {
	case 1:
		return t.ChatAward1st, true
	case 2:
		return t.ChatAward2nd, true
	case 3:
		return t.ChatAward3rd, true
	}
	return 0, false
}

func (t RewardTable) FreshnessWindow() time.Duration {
	return time.Duration(t.FreshnessWindowHours) * time.Hour
}

func (t RewardTable) BoxLifetime() time.Duration {
	return time.Duration(t.BoxLifetimeHours) * time.Hour
}
