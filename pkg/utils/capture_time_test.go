package utils

import (
	"testing"
	"time"
)

func TestParseCaptureTime(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	want := time.Date(2024, 1, 15, 14, 30, 0, 0, seoul)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "EXIF format", input: "2024:01:15 14:30:00", want: want},
		{name: "ISO-8601 without offset", input: "2024-01-15T14:30:00", want: want},
		{name: "ISO-8601 with offset", input: "2024-01-15T05:30:00Z", want: want},
		{name: "ISO-8601 with fraction", input: "2024-01-15T05:30:00.000Z", want: want},
		{name: "Space separated", input: "2024-01-15 14:30:00", want: want},
		{name: "en-US locale", input: "1/15/2024, 2:30:00 PM", want: want},
		{name: "ko-KR locale", input: "2024. 1. 15. 오후 2:30:00", want: want},
		{name: "Surrounding whitespace", input: "  2024:01:15   14:30:00 ", want: want},
		{name: "Empty", input: "", wantErr: true},
		{name: "Garbage", input: "yesterday-ish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCaptureTime(tt.input, seoul)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCaptureTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseCaptureTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsWithinWindow(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	tests := []struct {
		name     string
		captured time.Time
		want     bool
	}{
		{name: "Now", captured: now, want: true},
		{name: "One hour ago", captured: now.Add(-time.Hour), want: true},
		{name: "Exactly 24h ago", captured: now.Add(-window), want: true},
		{name: "24h and one second ago", captured: now.Add(-window - time.Second), want: false},
		{name: "One hour in the future", captured: now.Add(time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithinWindow(tt.captured, now, window); got != tt.want {
				t.Errorf("IsWithinWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}
