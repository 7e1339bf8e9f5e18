package stepsync

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
)

// Checkpoint is the state of the last successful upload. BaselineDate is the calendar day
// LastCumulativeSteps was observed on.
type Checkpoint struct {
	LastSyncTimestamp   time.Time     `json:"last_sync_timestamp"`
	LastCumulativeSteps int64         `json:"last_cumulative_steps"`
	BaselineDate        calendar.Date `json:"baseline_date"`
}

// Baseline is the day the cumulative value applies to. Older checkpoints without a
// baseline day fall back to the day of the sync timestamp.
func (c Checkpoint) Baseline(loc *time.Location) calendar.Date {
	if !c.BaselineDate.IsZero() {
		return c.BaselineDate
	}
	return calendar.Today(c.LastSyncTimestamp, loc)
}

// Sample is one device observation: the cumulative step count of a day.
type Sample struct {
	Date  calendar.Date `json:"date"`
	Steps int64         `json:"steps"`
}

// ResetPolicy decides what to report when the baseline day's reading is below the checkpoint,
// which happens after a device step-counter reset.
type ResetPolicy int

const (
	// ResetUseRaw reports the raw observed value.
	ResetUseRaw ResetPolicy = iota
	// ResetFloorZero reports zero.
	ResetFloorZero
)

func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return ResetUseRaw, nil
	case "floor", "zero":
		return ResetFloorZero, nil
	default:
		return ResetUseRaw, fmt.Errorf("unknown reset policy %q", s)
	}
}

func (p ResetPolicy) String() string {
	if p == ResetFloorZero {
		return "floor"
	}
	return "raw"
}

// Delta is the outcome of ComputeDeltas.
type Delta struct {
	Records    []activity.StatisticRecord
	Checkpoint *Checkpoint
	// Resets counts days where the reset policy was applied.
	Resets int
}

// Tracker turns device readings into per-day upload records.
type Tracker struct {
	EmployeeID   int64
	StepLengthKm decimal.Decimal
	Policy       ResetPolicy
	Location     *time.Location
}

// ComputeDeltas groups samples per day (the last observation of a day wins), skips days
// before the checkpoint baseline and subtracts the checkpoint's cumulative value from the
// baseline day. It has no side effects; persisting the returned checkpoint is up to the caller.
func (t Tracker) ComputeDeltas(cp *Checkpoint, samples []Sample, now time.Time) Delta {
	if len(samples) == 0 {
		return Delta{Checkpoint: cp}
	}

	var baseline calendar.Date
	if cp != nil {
		baseline = cp.Baseline(t.Location)
	}

	byDay := make(map[calendar.Date]int64, len(samples))
	for _, s := range samples {
		if s.Date.IsZero() {
			continue
		}
		if !baseline.IsZero() && s.Date.Before(baseline) {
			continue
		}
		byDay[s.Date] = s.Steps
	}
	if len(byDay) == 0 {
		return Delta{Checkpoint: cp}
	}

	days := make([]calendar.Date, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := Delta{Records: make([]activity.StatisticRecord, 0, len(days))}
	for _, d := range days {
		observed := byDay[d]
		steps := observed
		if cp != nil && d.Equal(baseline) {
			steps = observed - cp.LastCumulativeSteps
			if steps < 0 {
				out.Resets++
				steps = t.onReset(observed)
			}
		}
		if steps < 0 {
			steps = 0
		}
		out.Records = append(out.Records, activity.StatisticRecord{
			EmployeeID: t.EmployeeID,
			Steps:      steps,
			DistanceKm: activity.Distance(steps, t.StepLengthKm),
			Date:       d,
		})
	}

	final := days[len(days)-1]
	out.Checkpoint = &Checkpoint{
		LastSyncTimestamp:   now,
		LastCumulativeSteps: byDay[final],
		BaselineDate:        final,
	}
	return out
}

func (t Tracker) onReset(observed int64) int64 {
	if t.Policy == ResetFloorZero {
		return 0
	}
	return observed
}

// QueryWindow is the device query span for the next sync: from the start of the checkpoint's
// baseline day (or the tournament start on first run) through now.
func (t Tracker) QueryWindow(cp *Checkpoint, tournamentStart calendar.Date, now time.Time) (time.Time, time.Time) {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	start := tournamentStart
	if cp != nil {
		start = cp.Baseline(loc)
	}
	return start.Time(loc), now.In(loc)
}

// BatchKey identifies the upload batch computed from cp. Re-running a batch from the same
// checkpoint yields the same key, which lets the server apply deltas idempotently.
func BatchKey(employeeID int64, cp *Checkpoint) string {
	if cp == nil {
		return fmt.Sprintf("%d-initial", employeeID)
	}
	return fmt.Sprintf("%d-%d", employeeID, cp.LastSyncTimestamp.UTC().UnixNano())
}
