package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ScheduleType enumerates how a scheduled post is dispatched.
type ScheduleType string

const (
	ScheduleImmediate ScheduleType = "immediate"
	ScheduleAt        ScheduleType = "scheduled"
	ScheduleRecurring ScheduleType = "recurring"
)

// ScheduleStatus enumerates the delivery lifecycle.
type ScheduleStatus string

const (
	ScheduleStatusPending    ScheduleStatus = "pending"
	ScheduleStatusProcessing ScheduleStatus = "processing"
	ScheduleStatusSent       ScheduleStatus = "sent"
	ScheduleStatusFailed     ScheduleStatus = "failed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

// ScheduledPost hands a finished post to the external social proxy. The core
// only composes the outbound payload and tracks delivery state; per-network
// behavior lives behind the proxy.
type ScheduledPost struct {
	ID             string
	PostID         string
	Platforms      string // JSON array of platform slugs
	PostText       string
	MediaURL       string
	ScheduleType   ScheduleType
	ScheduledAt    *time.Time
	RecurrenceDays string // comma-separated weekday numbers, e.g. "1,3,5"
	RecurrenceTime string // HH:MM
	Status         ScheduleStatus
	ExternalRef    string
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const recurrenceClockLayout = "15:04"

// NextOccurrence computes the next recurring dispatch strictly after the
// given instant, for a weekday set (0=Sunday through 6=Saturday) and a UTC
// wall-clock time formatted HH:MM.
func NextOccurrence(after time.Time, days []int, clock string) (time.Time, error) {
	if len(days) == 0 {
		return time.Time{}, fmt.Errorf("%w: recurrence needs at least one weekday", ErrInvalidInput)
	}
	wanted := map[time.Weekday]bool{}
	for _, d := range days {
		if d < 0 || d > 6 {
			return time.Time{}, fmt.Errorf("%w: weekday %d outside 0..6", ErrInvalidInput, d)
		}
		wanted[time.Weekday(d)] = true
	}
	at, err := time.Parse(recurrenceClockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: recurrence time must be formatted HH:MM", ErrInvalidInput)
	}

	after = after.UTC()
	for offset := 0; offset < 8; offset++ {
		day := after.AddDate(0, 0, offset)
		candidate := time.Date(day.Year(), day.Month(), day.Day(), at.Hour(), at.Minute(), 0, 0, time.UTC)
		if wanted[candidate.Weekday()] && candidate.After(after) {
			return candidate, nil
		}
	}
	// Unreachable: any non-empty weekday set recurs within 7 days.
	return time.Time{}, fmt.Errorf("%w: no upcoming occurrence", ErrInvalidInput)
}

// EncodeRecurrenceDays renders weekday numbers in the stored comma-joined
// form, deduplicated and sorted.
func EncodeRecurrenceDays(days []int) string {
	seen := map[int]bool{}
	keep := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		keep = append(keep, d)
	}
	sort.Ints(keep)
	parts := make([]string, len(keep))
	for i, d := range keep {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// DecodeRecurrenceDays parses the stored form; malformed or out-of-range
// entries are dropped.
func DecodeRecurrenceDays(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 6 {
			continue
		}
		days = append(days, d)
	}
	return days
}
