package services

import (
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
)

// applyCompletionVote flips memberID's done vote and mirrors it into the
// history record for today.
func applyCompletionVote(item *models.Item, memberID string, today string) {
	if models.HasMember(item.CompletedBy, memberID) {
		item.CompletedBy = models.RemoveMember(item.CompletedBy, memberID)

		rec, ok := item.CompletionHistory[today]
		if !ok {
			return
		}
		left := models.RemoveMember(rec.CompletedBy, memberID)
		item.CompletionHistory[today] = models.DayRecord{Completed: len(left) > 0, CompletedBy: left}
		return
	}

	item.CompletedBy = models.AddMember(item.CompletedBy, memberID)
	if item.CompletionHistory == nil {
		item.CompletionHistory = map[string]models.DayRecord{}
	}
	item.CompletionHistory[today] = models.DayRecord{
		Completed:   true,
		CompletedBy: append([]string(nil), item.CompletedBy...),
	}
}

// deletionOutcome is what a delete vote leads to.
type deletionOutcome int

const (
	deletionPersist deletionOutcome = iota
	deletionRemove
)

// deletionPolicy holds the consensus rules for removing an item.
type deletionPolicy struct {
	Quorum      int
	GraceWindow time.Duration
}

// apply flips memberID's delete vote on item and reports whether the item
// must now be removed. The creator bypasses voting inside the grace window.
func (p deletionPolicy) apply(item *models.Item, memberID string, now time.Time) deletionOutcome {
	if memberID == item.CreatedByID && now.Sub(item.CreatedAt) <= p.GraceWindow {
		return deletionRemove
	}

	if models.HasMember(item.DeletedBy, memberID) {
		item.DeletedBy = models.RemoveMember(item.DeletedBy, memberID)
		return deletionPersist
	}

	item.DeletedBy = models.AddMember(item.DeletedBy, memberID)
	if len(item.DeletedBy) >= p.Quorum {
		return deletionRemove
	}
	return deletionPersist
}
