package ranking

import (
	"errors"
	"fmt"
	"strings"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
)

const (
	WholeTournamentLabel = "Gesamt"
	weekLength           = 7
)

var ErrNotStarted = errors.New("tournament has not started")

// Window is a labelled aggregation window. Range is the full week (clipped at the
// tournament end); Elapsed stops at the as-of date so totals never include future days.
type Window struct {
	Label   string         `json:"label"`
	Range   calendar.Range `json:"zeitraum"`
	Elapsed calendar.Range `json:"bisher"`
}

type Windows struct {
	Weeks []Window `json:"wochen"`
	Whole Window   `json:"gesamt"`
}

// Find resolves a label ("W2", "gesamt") case-insensitively.
func (w Windows) Find(label string) (Window, bool) {
	label = strings.TrimSpace(label)
	if label == "" || strings.EqualFold(label, WholeTournamentLabel) {
		return w.Whole, true
	}
	for _, week := range w.Weeks {
		if strings.EqualFold(week.Label, label) {
			return week, true
		}
	}
	return Window{}, false
}

// Current is the week containing the as-of date (the last derived week).
func (w Windows) Current() (Window, bool) {
	if len(w.Weeks) == 0 {
		return Window{}, false
	}
	return w.Weeks[len(w.Weeks)-1], true
}

// DeriveWeekWindows partitions the tournament into 7-day weeks starting at its first day and
// returns the completed-or-current weeks up to asOf plus the whole-tournament window.
func DeriveWeekWindows(tw activity.TournamentWindow, asOf calendar.Date) (Windows, error) {
	if err := tw.Validate(); err != nil {
		return Windows{}, err
	}
	if asOf.IsZero() {
		return Windows{}, fmt.Errorf("%w: missing as-of date", calendar.ErrInvalidDate)
	}
	if asOf.Before(tw.Start) {
		return Windows{}, ErrNotStarted
	}
	last := calendar.Min(tw.End, asOf)

	var out Windows
	for n, start := 1, tw.Start; !start.After(last); n, start = n+1, start.AddDays(weekLength) {
		end := calendar.Min(start.AddDays(weekLength-1), tw.End)
		out.Weeks = append(out.Weeks, Window{
			Label:   fmt.Sprintf("W%d", n),
			Range:   calendar.Range{Start: start, End: end},
			Elapsed: calendar.Range{Start: start, End: calendar.Min(end, last)},
		})
	}
	whole := calendar.Range{Start: tw.Start, End: last}
	out.Whole = Window{Label: WholeTournamentLabel, Range: whole, Elapsed: whole}
	return out, nil
}
