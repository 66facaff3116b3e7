package utils

import (
	"fmt"
	"strings"
	"time"
)

// meridiemReplacer maps localized AM/PM markers onto the ones time.Parse knows.
var meridiemReplacer = strings.NewReplacer(
	"오전", "AM", "오후", "PM",
	"上午", "AM", "下午", "PM",
	"a.m.", "AM", "p.m.", "PM",
)

// Layouts carrying their own offset.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006:01:02 15:04:05-07:00",
}

// Layouts without an offset, interpreted in the caller's location.
var naiveLayouts = []string{
	"2006:01:02 15:04:05", // EXIF DateTimeOriginal
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"2006. 1. 2. PM 3:04:05",
	"2006. 1. 2. PM 3:04",
	"2006. 1. 2. 15:04:05",
}

// ParseCaptureTime parses a media capture timestamp. It accepts the EXIF
// colon-delimited format, ISO-8601 with or without an offset and the
// en-US / ko-KR locale strings produced by browsers.
func ParseCaptureTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	s := strings.Join(strings.Fields(meridiemReplacer.Replace(raw)), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty capture time")
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized capture time %q", raw)
}

// IsWithinWindow reports whether captured lies in [now-window, now].
// Captures in the future are rejected.
func IsWithinWindow(captured, now time.Time, window time.Duration) bool {
	diff := now.Sub(captured)
	return diff >= 0 && diff <= window
}
