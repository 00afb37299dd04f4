// Package history projects an item's per-day completion history into
// calendar cells and streak statistics. It never writes.
package history

import (
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
)

// DayCell is one calendar day of a year grid.
type DayCell struct {
	Date             string   `json:"date"`
	Completed        bool     `json:"completed"`
	CompletedBy      []string `json:"completedBy"`
	CreatorCompleted bool     `json:"creatorCompleted"`
	OthersCompleted  bool     `json:"othersCompleted"`
	IsToday          bool     `json:"isToday"`
}

// BuildYearGrid returns one cell per date from January 1 of year up to the
// earlier of December 31 and today. Dates are evaluated in now's location;
// a date after today is never emitted, so a future year yields no cells.
//
// creatorID names the member whose votes are reported separately from
// everybody else's. Today's cell falls back to the live votes when history
// has no entry for today yet.
func BuildYearGrid(item *models.Item, year int, creatorID string, now time.Time) []DayCell {
	loc := now.Location()
	today := now.Format(common.DateLayout)

	var cells []DayCell
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, loc); d.Year() == year; d = d.AddDate(0, 0, 1) {
		date := d.Format(common.DateLayout)
		if date > today {
			break
		}

		rec, ok := item.CompletionHistory[date]
		if !ok && date == today && item.Completed() {
			rec = models.DayRecord{Completed: true, CompletedBy: item.CompletedBy}
		}

		completedBy := append([]string{}, rec.CompletedBy...)
		cell := DayCell{
			Date:        date,
			Completed:   rec.Completed,
			CompletedBy: completedBy,
			IsToday:     date == today,
		}
		for _, m := range completedBy {
			switch {
			case m == "":
			case m == creatorID:
				cell.CreatorCompleted = true
			default:
				cell.OthersCompleted = true
			}
		}
		cells = append(cells, cell)
	}

	return cells
}
