package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
)

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// printer renders command results as JSON or as aligned text.
type printer struct {
	format string
	w      io.Writer
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) items(items []*api.Item) error {
	if p.format == FormatJSON {
		if items == nil {
			items = []*api.Item{}
		}
		return p.json(items)
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTEXT\tDONE BY\tDELETE VOTES\tREPEAT\tNEXT RESET")
	for _, it := range items {
		text := it.Text
		if it.StruckThrough {
			text = "~" + text + "~"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ID, text, members(it.CompletedBy), len(it.DeletedBy),
			describeRecurrence(it.Recurrence), formatTime(it.Recurrence.NextReset))
	}
	return tw.Flush()
}

func (p *printer) item(it *api.Item) error {
	if p.format == FormatJSON {
		return p.json(it)
	}
	return p.items([]*api.Item{it})
}

func (p *printer) deletion(resp *api.ToggleDeletionResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}
	if resp.Removed || resp.Item == nil {
		_, err := fmt.Fprintln(p.w, "item removed")
		return err
	}
	if len(resp.Item.DeletedBy) == 0 {
		fmt.Fprintln(p.w, "delete vote withdrawn")
	} else {
		fmt.Fprintf(p.w, "delete votes: %s\n", members(resp.Item.DeletedBy))
	}
	return p.items([]*api.Item{resp.Item})
}

// grid prints one line per month; '#' marks a day done by the creator and
// somebody else, 'c' the creator only, 'o' others only and '.' a missed day.
func (p *printer) grid(year int, resp *api.YearGridResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}

	var month string
	var line strings.Builder
	flush := func() {
		if month != "" {
			fmt.Fprintf(p.w, "%s  %s\n", month, line.String())
		}
		line.Reset()
	}

	fmt.Fprintf(p.w, "%d\n", year)
	for _, d := range resp.Days {
		if len(d.Date) < 7 {
			continue
		}
		if d.Date[:7] != month {
			flush()
			month = d.Date[:7]
		}
		line.WriteByte(dayMark(d))
	}
	flush()

	s := resp.Statistics
	_, err := fmt.Fprintf(p.w, "completion rate %d%%, %d days done, current streak %d, best streak %d\n",
		s.CompletionRate, s.CompletedDays, s.CurrentStreak, s.MaxStreak)
	return err
}

func (p *printer) resetReport(spaceID string, r *api.ScanAndResetResponse) error {
	if p.format == FormatJSON {
		return p.json(r)
	}
	_, err := fmt.Fprintf(p.w, "space %s: %d due, %d reset, %d skipped, %d failed\n",
		spaceID, r.Candidates, r.Reset, r.Skipped, r.Failed)
	return err
}

func (p *printer) export(r *api.ExportHistoryResponse, savedTo string) error {
	if p.format == FormatJSON {
		return p.json(struct {
			*api.ExportHistoryResponse
			SavedTo string `json:"savedTo,omitempty"`
		}{r, savedTo})
	}
	fmt.Fprintf(p.w, "key:     %s\nurl:     %s\nexpires: %s\n", r.Key, r.URL, r.ExpiresAt.Local().Format(time.RFC3339))
	if savedTo != "" {
		fmt.Fprintf(p.w, "saved:   %s\n", savedTo)
	}
	return nil
}

func (p *printer) snapshot(s *api.Snapshot) error {
	if p.format == FormatJSON {
		enc := json.NewEncoder(p.w)
		return enc.Encode(s)
	}
	fmt.Fprintf(p.w, "-- %s  %s --\n", s.SpaceID, time.Now().Format(time.TimeOnly))
	return p.items(s.Items)
}

func dayMark(d api.DayCell) byte {
	switch {
	case d.CreatorCompleted && d.OthersCompleted:
		return '#'
	case d.CreatorCompleted:
		return 'c'
	case d.OthersCompleted:
		return 'o'
	default:
		return '.'
	}
}

func describeRecurrence(r api.Recurrence) string {
	switch r.Type {
	case "daily":
		return "daily"
	case "custom":
		if r.Interval == 1 {
			return "every day"
		}
		return fmt.Sprintf("every %d days", r.Interval)
	case "weekly":
		names := make([]string, 0, len(r.Weekdays))
		for _, d := range r.Weekdays {
			if d >= 0 && d < len(weekdayNames) {
				names = append(names, weekdayNames[d])
			}
		}
		return "weekly " + strings.Join(names, ",")
	default:
		return "once"
	}
}

func members(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ",")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
