package healthsource

import (
	"context"
	"time"

	"run4recht/internal/calendar"
	"run4recht/internal/stepsync"
)

// SimulatedSource produces deterministic daily totals for demos. Past days are complete,
// today grows with the time of day.
type SimulatedSource struct {
	Daily    int64
	Location *time.Location
	Now      func() time.Time
}

func (s SimulatedSource) IsAvailable(ctx context.Context) bool { return true }

func (s SimulatedSource) RequestAuthorization(ctx context.Context) (bool, error) { return true, nil }

func (s SimulatedSource) QueryStepsByDay(ctx context.Context, start, end time.Time) ([]stepsync.Sample, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if end.After(now) {
		end = now
	}
	first, last := calendar.Today(start, loc), calendar.Today(end, loc)
	today := calendar.Today(now, loc)
	out := []stepsync.Sample{}
	for d := first; !d.After(last); d = d.AddDays(1) {
		steps := s.dayTotal(d)
		if d.Equal(today) {
			local := now.In(loc)
			secs := local.Hour()*3600 + local.Minute()*60 + local.Second()
			steps = steps * int64(secs) / 86400
		}
		out = append(out, stepsync.Sample{Date: d, Steps: steps})
	}
	return out, nil
}

func (s SimulatedSource) dayTotal(d calendar.Date) int64 {
	daily := s.Daily
	if daily <= 0 {
		daily = 8000
	}
	// +-25% pattern keyed by the day of year
	yday := d.Time(time.UTC).YearDay()
	return daily*3/4 + daily*int64((yday*37)%51)/100
}

var _ Source = SimulatedSource{}
