package scheduler

import (
	"testing"
	"time"
)

func TestParseCronRejectsGarbage(t *testing.T) {
	if _, err := ParseCron("not a cron"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCronMatches(t *testing.T) {
	expr, err := ParseCron("0 9 * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 8, 23, 9, 0, 45, 0, time.UTC), true}, // same minute
		{time.Date(2026, 8, 23, 9, 1, 0, 0, time.UTC), false},
		{time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		if got := expr.Matches(tt.at); got != tt.want {
			t.Errorf("Matches(%s) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestCronEveryFiveMinutes(t *testing.T) {
	expr, err := ParseCron("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	if !expr.Matches(time.Date(2026, 8, 23, 12, 10, 0, 0, time.UTC)) {
		t.Error("12:10 must match */5")
	}
	if expr.Matches(time.Date(2026, 8, 23, 12, 11, 0, 0, time.UTC)) {
		t.Error("12:11 must not match */5")
	}
}
