package notify

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Frequency is a notification cadence channel. Every user belongs to
// exactly one, which partitions users into independent batch runs.
type Frequency string

const (
	Hourly      Frequency = "hourly"
	EightHourly Frequency = "8hourly"
	Daily       Frequency = "daily"
	Weekly      Frequency = "weekly"
	Monthly     Frequency = "monthly"
	// Test is a channel that is never due; it exists so test users can be
	// excluded from scheduled runs but still forced manually.
	Test Frequency = "test"
)

// crontabs maps each frequency to the crontab of its cadence.
var crontabs = map[Frequency]string{
	Hourly:      "0 * * * *",
	EightHourly: "0 */8 * * *",
	Daily:       "0 0 * * *",
	Weekly:      "0 0 * * 0",
	Monthly:     "0 0 1 * *",
}

// Frequencies returns all frequency channels in cadence order.
func Frequencies() []Frequency {
	return []Frequency{Hourly, EightHourly, Daily, Weekly, Monthly, Test}
}

// ParseFrequency validates a channel name.
func ParseFrequency(name string) (Frequency, error) {
	for _, f := range Frequencies() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown frequency channel: %s", name)
}

// Crontab returns the channel's crontab, or "" for the test channel.
func (f Frequency) Crontab() string { return crontabs[f] }

// DueAt reports whether the channel's crontab fires at the minute
// containing t. The test channel is never due.
func (f Frequency) DueAt(t time.Time) bool {
	tab, ok := crontabs[f]
	if !ok {
		return false
	}
	sched, err := cron.ParseStandard(tab)
	if err != nil {
		// The table is static; a parse failure is a programming error.
		panic(fmt.Sprintf("invalid crontab for %s: %v", f, err))
	}
	minute := t.Truncate(time.Minute)
	return sched.Next(minute.Add(-time.Minute)).Equal(minute)
}

// DueChannels returns the channels whose crontab fires at the minute
// containing t. Expected to be evaluated in the first minute of each hour.
func DueChannels(t time.Time) []Frequency {
	var due []Frequency
	for _, f := range Frequencies() {
		if f.DueAt(t) {
			due = append(due, f)
		}
	}
	return due
}
