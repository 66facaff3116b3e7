package models

import (
	"testing"
	"time"
)

func TestAccount_BeforeCreate(t *testing.T) {
	tests := []struct {
		name     string
		account  Account
		wantErr  bool
		wantRole string
	}{
		{
			name:     "Defaults role to user",
			account:  Account{ID: "uid-1"},
			wantErr:  false,
			wantRole: RoleUser,
		},
		{
			name:     "Admin role kept",
			account:  Account{ID: "uid-2", Role: RoleAdmin},
			wantErr:  false,
			wantRole: RoleAdmin,
		},
		{
			name:    "Missing id",
			account: Account{},
			wantErr: true,
		},
		{
			name:    "Unknown role",
			account: Account{ID: "uid-3", Role: "superuser"},
			wantErr: true,
		},
		{
			name:    "Negative opening balance",
			account: Account{ID: "uid-4", Points: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := tt.account
			err := account.BeforeCreate(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeCreate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && account.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", account.Role, tt.wantRole)
			}
		})
	}
}

func TestPrincipal_IsAdmin(t *testing.T) {
	if !(Principal{UserID: "a", Role: RoleAdmin}).IsAdmin() {
		t.Error("admin principal should be admin")
	}
	if (Principal{UserID: "s", Role: RoleStore}).IsAdmin() {
		t.Error("store principal should not be admin")
	}
}

func TestGeoTypeForLog(t *testing.T) {
	tests := []struct {
		logType string
		want    string
		wantOK  bool
	}{
		{logType: LogTypeFeedPhoto, want: GeoTypePhoto, wantOK: true},
		{logType: LogTypeFeedVideo, want: GeoTypeVideo, wantOK: true},
		{logType: LogTypeFeedFreshBonus, want: "", wantOK: false},
		{logType: LogTypeCCTVCaptureBonus, want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.logType, func(t *testing.T) {
			got, ok := GeoTypeForLog(tt.logType)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("GeoTypeForLog(%q) = %q, %v; want %q, %v", tt.logType, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValidLogType(t *testing.T) {
	if !ValidLogType(LogTypeChatPointBox) {
		t.Error("chat_pointbox should be valid")
	}
	if ValidLogType("lottery") {
		t.Error("lottery should not be valid")
	}
}

func TestPointBox_BeforeCreate(t *testing.T) {
	box := &PointBox{DistributionType: DistributionEqual}
	if err := box.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate() error = %v", err)
	}
	if len(box.ID) != 36 {
		t.Errorf("ID = %q, want a uuid", box.ID)
	}

	bad := &PointBox{DistributionType: "lottery"}
	if err := bad.BeforeCreate(nil); err == nil {
		t.Error("BeforeCreate() expected error for unknown distribution, got nil")
	}
}

func TestPointBox_State(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		box  PointBox
		want string
	}{
		{
			name: "Active",
			box:  PointBox{MaxClaims: 3, ClaimedCount: 1, RemainingPoints: 200, ExpiredAt: now.Add(time.Hour)},
			want: BoxStateActive,
		},
		{
			name: "All slots taken",
			box:  PointBox{MaxClaims: 3, ClaimedCount: 3, RemainingPoints: 1, ExpiredAt: now.Add(time.Hour)},
			want: BoxStateClaimsExhausted,
		},
		{
			name: "Pool drained",
			box:  PointBox{MaxClaims: 5, ClaimedCount: 2, RemainingPoints: 0, ExpiredAt: now.Add(time.Hour)},
			want: BoxStatePoolExhausted,
		},
		{
			name: "Expired",
			box:  PointBox{MaxClaims: 5, ClaimedCount: 0, RemainingPoints: 100, ExpiredAt: now.Add(-time.Second)},
			want: BoxStateExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.State(now); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPointBox_Claims(t *testing.T) {
	box := &PointBox{
		Claims: []PointBoxClaim{
			{UserID: "b", Amount: 33},
			{UserID: "c", Amount: 33},
		},
	}

	if got := box.ClaimedBy(); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("ClaimedBy() = %v, want [b c]", got)
	}
	if !box.HasClaimed("c") || box.HasClaimed("d") {
		t.Error("HasClaimed() mismatch")
	}
	if got := box.PaidOut(); got != 66 {
		t.Errorf("PaidOut() = %d, want 66", got)
	}
}

func TestTableNames(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{got: Account{}.TableName(), want: "accounts"},
		{got: PointLog{}.TableName(), want: "point_logs"},
		{got: GeoClaim{}.TableName(), want: "geo_claims"},
		{got: PointBox{}.TableName(), want: "point_boxes"},
		{got: PointBoxClaim{}.TableName(), want: "point_box_claims"},
		{got: ChatNotice{}.TableName(), want: "chat_notices"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("TableName() = %q, want %q", tt.got, tt.want)
		}
	}
}
