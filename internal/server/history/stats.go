package history

import "math"

// Statistics summarises a sequence of day cells.
type Statistics struct {
	// CompletionRate is the rounded percentage of completed days.
	CompletionRate int `json:"completionRate"`
	CompletedDays  int `json:"completedDays"`
	CurrentStreak  int `json:"currentStreak"`
	MaxStreak      int `json:"maxStreak"`
}

// ComputeStatistics counts completed days and streaks over days, which must
// be in calendar order. The current streak runs backwards from the last day
// and stops at the first incomplete one.
func ComputeStatistics(days []DayCell) Statistics {
	var s Statistics
	if len(days) == 0 {
		return s
	}

	run := 0
	for _, d := range days {
		if !d.Completed {
			run = 0
			continue
		}
		s.CompletedDays++
		run++
		s.MaxStreak = max(s.MaxStreak, run)
	}

	for i := len(days) - 1; i >= 0 && days[i].Completed; i-- {
		s.CurrentStreak++
	}

	s.CompletionRate = int(math.Round(float64(s.CompletedDays) / float64(len(days)) * 100))
	return s
}
