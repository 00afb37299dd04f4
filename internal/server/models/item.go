// Package models holds the server-side domain types of the shared list.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
)

// Item is one shared to-do entry.
type Item struct {
	ID          string
	Text        string
	SpaceID     string
	CreatedByID string
	CreatedAt   time.Time

	// CompletedBy and DeletedBy are member sets: unique ids, order irrelevant.
	CompletedBy []string
	DeletedBy   []string

	Recurrence Recurrence

	// CompletionHistory maps a space-local YYYY-MM-DD date to that day's outcome.
	CompletionHistory map[string]DayRecord
}

// DayRecord is the archived completion outcome for one calendar date.
type DayRecord struct {
	Completed   bool     `json:"completed"`
	CompletedBy []string `json:"completedBy"`
}

// Completed reports whether at least one member currently votes the item done.
func (i *Item) Completed() bool {
	return len(i.CompletedBy) > 0
}

// StruckThrough reports whether the item shows as soft-deleted.
func (i *Item) StruckThrough() bool {
	return len(i.DeletedBy) > 0
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	c.CompletedBy = cloneMembers(i.CompletedBy)
	c.DeletedBy = cloneMembers(i.DeletedBy)
	c.Recurrence = i.Recurrence.Clone()
	if i.CompletionHistory != nil {
		c.CompletionHistory = make(map[string]DayRecord, len(i.CompletionHistory))
		for day, rec := range i.CompletionHistory {
			c.CompletionHistory[day] = DayRecord{Completed: rec.Completed, CompletedBy: cloneMembers(rec.CompletedBy)}
		}
	}
	return &c
}

// NormalizeText trims the text and rejects it when nothing is left.
func NormalizeText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", fmt.Errorf("%w: text must not be empty", common.ErrorValidation)
	}
	return t, nil
}
