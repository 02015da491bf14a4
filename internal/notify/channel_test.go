package notify_test

import (
	"testing"
	"time"

	"notifier-go/internal/notify"
)

func TestParseFrequency(t *testing.T) {
	for _, f := range notify.Frequencies() {
		got, err := notify.ParseFrequency(string(f))
		if err != nil {
			t.Errorf("ParseFrequency(%s) error = %v", f, err)
		}
		if got != f {
			t.Errorf("ParseFrequency(%s) = %s", f, got)
		}
	}

	if _, err := notify.ParseFrequency("fortnightly"); err == nil {
		t.Error("ParseFrequency(fortnightly) expected error")
	}
}

func TestFrequency_DueAt(t *testing.T) {
	tests := []struct {
		name string
		f    notify.Frequency
		t    time.Time
		want bool
	}{
		{"hourly at top of hour", notify.Hourly, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), true},
		{"hourly mid hour", notify.Hourly, time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC), false},
		{"hourly ignores seconds", notify.Hourly, time.Date(2024, 1, 15, 13, 0, 42, 0, time.UTC), true},
		{"8hourly at midnight", notify.EightHourly, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"8hourly at 08:00", notify.EightHourly, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), true},
		{"8hourly at 13:00", notify.EightHourly, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), false},
		{"daily at midnight", notify.Daily, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"daily at noon", notify.Daily, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), false},
		{"weekly on sunday", notify.Weekly, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), true},
		{"weekly on monday", notify.Weekly, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"monthly on the first", notify.Monthly, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"monthly mid month", notify.Monthly, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), false},
		{"test channel is never due", notify.Test, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.DueAt(tt.t); got != tt.want {
				t.Errorf("DueAt(%s) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestDueChannels(t *testing.T) {
	t.Run("midnight on the first sunday of a month", func(t *testing.T) {
		// 2023-01-01 was a Sunday.
		got := notify.DueChannels(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
		want := []notify.Frequency{notify.Hourly, notify.EightHourly, notify.Daily, notify.Weekly, notify.Monthly}
		if len(got) != len(want) {
			t.Fatalf("DueChannels() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("DueChannels() = %v, want %v", got, want)
			}
		}
	})

	t.Run("mid-hour minute has nothing due", func(t *testing.T) {
		got := notify.DueChannels(time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC))
		if len(got) != 0 {
			t.Errorf("DueChannels() = %v, want empty", got)
		}
	})
}
