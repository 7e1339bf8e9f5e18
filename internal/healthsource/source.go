// Package healthsource provides the device step data the agent syncs from.
package healthsource

import (
	"context"
	"time"

	"run4recht/internal/stepsync"
)

// Source reports per-day step totals. Samples are ascending by day and carry the
// cumulative count of each day as currently observed.
type Source interface {
	IsAvailable(ctx context.Context) bool
	RequestAuthorization(ctx context.Context) (bool, error)
	QueryStepsByDay(ctx context.Context, start, end time.Time) ([]stepsync.Sample, error)
}
