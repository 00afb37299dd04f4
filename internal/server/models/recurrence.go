package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
)

type RecurrenceType string

const (
	RecurrenceOnce   RecurrenceType = "once"
	RecurrenceDaily  RecurrenceType = "daily"
	RecurrenceCustom RecurrenceType = "custom"
	RecurrenceWeekly RecurrenceType = "weekly"
)

// Recurrence describes how an item repeats.
//
// Interval is meaningful only for custom (every N days), Weekdays only for
// weekly (0 = Sunday). NextReset is nil iff Type is once.
type Recurrence struct {
	Type          RecurrenceType
	Interval      int
	Weekdays      []int
	LastCompleted *time.Time
	NextReset     *time.Time
}

// Recurring reports whether the item resets on a schedule.
func (r Recurrence) Recurring() bool {
	return r.Type != RecurrenceOnce
}

// Clone returns a copy that shares no memory with r.
func (r Recurrence) Clone() Recurrence {
	c := r
	if r.Weekdays != nil {
		c.Weekdays = append([]int(nil), r.Weekdays...)
	}
	if r.LastCompleted != nil {
		t := *r.LastCompleted
		c.LastCompleted = &t
	}
	if r.NextReset != nil {
		t := *r.NextReset
		c.NextReset = &t
	}
	return c
}

// Normalize validates r and returns a canonical copy: an empty type becomes
// once, weekdays are deduplicated and sorted, and fields that do not apply
// to the type are cleared.
func (r Recurrence) Normalize() (Recurrence, error) {
	c := r.Clone()
	if c.Type == "" {
		c.Type = RecurrenceOnce
	}

	switch c.Type {
	case RecurrenceOnce, RecurrenceDaily:
		c.Interval = 0
		c.Weekdays = nil
	case RecurrenceCustom:
		if c.Interval < 1 {
			return Recurrence{}, fmt.Errorf("%w: custom interval must be a positive number of days, got %d", common.ErrorValidation, c.Interval)
		}
		c.Weekdays = nil
	case RecurrenceWeekly:
		if len(c.Weekdays) == 0 {
			return Recurrence{}, fmt.Errorf("%w: weekly recurrence needs at least one weekday", common.ErrorValidation)
		}
		for _, d := range c.Weekdays {
			if d < 0 || d > 6 {
				return Recurrence{}, fmt.Errorf("%w: weekday %d out of range 0-6", common.ErrorValidation, d)
			}
		}
		slices.Sort(c.Weekdays)
		c.Weekdays = slices.Compact(c.Weekdays)
		c.Interval = 0
	default:
		return Recurrence{}, fmt.Errorf("%w: unknown recurrence type %q", common.ErrorValidation, c.Type)
	}

	if c.Type == RecurrenceOnce {
		c.NextReset = nil
	}
	return c, nil
}
