package grpc

import (
	"github.com/dmitrijs2005/sharedtodo/internal/api"
	"github.com/dmitrijs2005/sharedtodo/internal/server/history"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
)

func itemToAPI(item *models.Item) *api.Item {
	if item == nil {
		return nil
	}

	hist := make(map[string]api.DayRecord, len(item.CompletionHistory))
	for day, rec := range item.CompletionHistory {
		hist[day] = api.DayRecord{Completed: rec.Completed, CompletedBy: nonNil(rec.CompletedBy)}
	}

	return &api.Item{
		ID:                item.ID,
		Text:              item.Text,
		SpaceID:           item.SpaceID,
		CreatedByID:       item.CreatedByID,
		CreatedAt:         item.CreatedAt,
		CompletedBy:       nonNil(item.CompletedBy),
		DeletedBy:         nonNil(item.DeletedBy),
		Completed:         item.Completed(),
		StruckThrough:     item.StruckThrough(),
		Recurrence:        recurrenceToAPI(item.Recurrence),
		CompletionHistory: hist,
	}
}

func itemsToAPI(items []*models.Item) []*api.Item {
	out := make([]*api.Item, 0, len(items))
	for _, it := range items {
		out = append(out, itemToAPI(it))
	}
	return out
}

func recurrenceToAPI(r models.Recurrence) api.Recurrence {
	return api.Recurrence{
		Type:          string(r.Type),
		Interval:      r.Interval,
		Weekdays:      r.Weekdays,
		LastCompleted: r.LastCompleted,
		NextReset:     r.NextReset,
	}
}

// recurrenceFromAPI copies only what a caller may set; reset bookkeeping
// belongs to the server.
func recurrenceFromAPI(r api.Recurrence) models.Recurrence {
	return models.Recurrence{
		Type:     models.RecurrenceType(r.Type),
		Interval: r.Interval,
		Weekdays: r.Weekdays,
	}
}

func daysToAPI(days []history.DayCell) []api.DayCell {
	out := make([]api.DayCell, 0, len(days))
	for _, d := range days {
		out = append(out, api.DayCell{
			Date:             d.Date,
			Completed:        d.Completed,
			CompletedBy:      nonNil(d.CompletedBy),
			CreatorCompleted: d.CreatorCompleted,
			OthersCompleted:  d.OthersCompleted,
			IsToday:          d.IsToday,
		})
	}
	return out
}

func statisticsToAPI(s history.Statistics) api.Statistics {
	return api.Statistics{
		CompletionRate: s.CompletionRate,
		CompletedDays:  s.CompletedDays,
		CurrentStreak:  s.CurrentStreak,
		MaxStreak:      s.MaxStreak,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
