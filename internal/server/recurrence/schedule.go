// Package recurrence computes reset times for repeating items and applies
// the archive-and-clear step of a reset. Everything here is pure: callers
// pass "now" already converted to the space's location.
package recurrence

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
)

// ResetHour is the local hour at which completed recurring items reset.
const ResetHour = 4

// ComputeNextReset returns the next time r should be archived and cleared,
// evaluated in now's location.
//
// Daily items reset at the first ResetHour strictly after now. Custom items
// push that boundary forward so that one full interval is counted from
// LastCompleted (or now). Weekly items reset at ResetHour on the next listed
// weekday after today. A once item has no reset; the baseline is returned.
func ComputeNextReset(r models.Recurrence, now time.Time) time.Time {
	base := baseline(now)

	switch r.Type {
	case models.RecurrenceCustom:
		if r.Interval < 1 {
			return base
		}
		last := now
		if r.LastCompleted != nil {
			last = *r.LastCompleted
		}
		elapsed := int(now.Sub(last) / (24 * time.Hour))
		if elapsed < 0 {
			elapsed = 0
		}
		d := elapsed % r.Interval
		return addDays(base, r.Interval-d-1)

	case models.RecurrenceWeekly:
		today := int(now.Weekday())
		for k := 1; k <= 7; k++ {
			if slices.Contains(r.Weekdays, (today+k)%7) {
				return addDays(atResetHour(now), k)
			}
		}
		return base
	}

	return base
}

// InitialReset returns r with NextReset filled in for recurring types and
// cleared for once. Used whenever an item is created or its recurrence edited.
func InitialReset(r models.Recurrence, now time.Time) models.Recurrence {
	c := r.Clone()
	if !c.Recurring() {
		c.NextReset = nil
		return c
	}
	next := ComputeNextReset(c, now)
	c.NextReset = &next
	return c
}

// Due reports whether item is a completed recurring item whose reset time
// has passed.
func Due(item *models.Item, now time.Time) bool {
	r := item.Recurrence
	return item.Completed() && r.Recurring() && r.NextReset != nil && r.NextReset.Before(now)
}

// ApplyReset archives the item's current completion, clears its votes and
// schedules the next reset. It returns false and leaves item untouched when
// the item is not due, which makes a repeated reset a no-op.
func ApplyReset(item *models.Item, now time.Time) bool {
	if !Due(item, now) {
		return false
	}

	archive(item, now)

	item.CompletedBy = []string{}
	completedAt := now
	item.Recurrence.LastCompleted = &completedAt
	next := ComputeNextReset(item.Recurrence, now)
	item.Recurrence.NextReset = &next

	return true
}

// archive records the live completion under today's date unless the current
// voters are already covered by history written since the previous reset.
// An existing entry for today is never overwritten.
func archive(item *models.Item, now time.Time) {
	today := now.Format(common.DateLayout)
	if _, ok := item.CompletionHistory[today]; ok {
		return
	}

	since := item.CreatedAt
	if item.Recurrence.LastCompleted != nil {
		since = *item.Recurrence.LastCompleted
	}
	from := since.In(now.Location()).Format(common.DateLayout)

	recorded := map[string]struct{}{}
	for day, rec := range item.CompletionHistory {
		if day < from || day > today || !rec.Completed {
			continue
		}
		for _, m := range rec.CompletedBy {
			recorded[m] = struct{}{}
		}
	}

	covered := true
	for _, m := range item.CompletedBy {
		if _, ok := recorded[m]; !ok {
			covered = false
			break
		}
	}
	if covered {
		return
	}

	if item.CompletionHistory == nil {
		item.CompletionHistory = map[string]models.DayRecord{}
	}
	item.CompletionHistory[today] = models.DayRecord{
		Completed:   true,
		CompletedBy: append([]string(nil), item.CompletedBy...),
	}
}

func baseline(now time.Time) time.Time {
	b := atResetHour(now)
	if !b.After(now) {
		b = addDays(b, 1)
	}
	return b
}

func atResetHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, ResetHour, 0, 0, 0, t.Location())
}

// addDays moves t by n calendar days keeping the wall-clock hour, so DST
// changes do not shift the reset hour.
func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
