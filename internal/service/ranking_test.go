package service

import (
	"context"
	"testing"
	"time"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/models"
	"run4recht/internal/repository"
)

// hookRepo runs afterFirstSum once the first department sum has been read.
type hookRepo struct {
	repository.Repository
	sums          int
	afterFirstSum func()
}

func (h *hookRepo) SumStepsByDepartment(ctx context.Context, from, to time.Time) ([]repository.DepartmentSteps, error) {
	rows, err := h.Repository.SumStepsByDepartment(ctx, from, to)
	h.sums++
	if h.sums == 1 && h.afterFirstSum != nil {
		h.afterFirstSum()
	}
	return rows, err
}

func TestRankingService_TrendAgainstPreviousWindow(t *testing.T) {
	f := newFixture(t, time.Now())
	ctx := context.Background()
	// previous week: Strafabteilung leads
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.carla.ID), Steps: 900, Date: day("2024-01-03")})
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.alice.ID), Steps: 100, Date: day("2024-01-03")})
	// current week: Zivilabteilung leads
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.alice.ID), Steps: 700, Date: day("2024-01-09")})
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.bob.ID), Steps: 200, Date: day("2024-01-10")})
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.carla.ID), Steps: 50, Date: day("2024-01-10")})

	week := calendar.Range{Start: day("2024-01-08"), End: day("2024-01-14")}
	entries, err := f.rank.Departments(ctx, week)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%+v", entries)
	}
	first, second := entries[0], entries[1]
	if first.SubjectID != int64(f.dept.ID) || first.TotalSteps != 900 || first.Rank != 1 || first.Trend != activity.TrendImproved {
		t.Fatalf("first=%+v", first)
	}
	if first.Name != "Zivilabteilung" || first.Date != day("2024-01-14") {
		t.Fatalf("first=%+v", first)
	}
	if second.Rank != 2 || second.Trend != activity.TrendWorsened {
		t.Fatalf("second=%+v", second)
	}
}

func TestRankingService_CacheInvalidatedByWrites(t *testing.T) {
	f := newFixture(t, time.Now())
	ctx := context.Background()
	r := calendar.Day(day("2024-01-02"))
	before, _ := f.rank.Departments(ctx, r)
	if before[0].TotalSteps != 0 {
		t.Fatalf("before=%+v", before)
	}
	_ = f.rank.TakeDirty()
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.carla.ID), Steps: 42, Date: day("2024-01-02")})
	if !f.rank.TakeDirty() {
		t.Fatalf("write did not mark ranking dirty")
	}
	after, _ := f.rank.Departments(ctx, r)
	if after[0].SubjectID != int64(f.other.ID) || after[0].TotalSteps != 42 {
		t.Fatalf("after=%+v (stale cache?)", after)
	}
}

func TestRankingService_WriteDuringComputeIsNotCached(t *testing.T) {
	f := newFixture(t, time.Now())
	ctx := context.Background()
	hook := &hookRepo{Repository: f.store}
	svc, err := NewRankingService(hook, 16, nil)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	hook.afterFirstSum = func() {
		_ = f.store.UpsertStatistic(ctx, &models.Statistic{EmployeeID: f.carla.ID, Date: dbDate(day("2024-01-02")), Steps: 42})
		svc.MarkDirty()
	}
	r := calendar.Day(day("2024-01-02"))
	stale, err := svc.Departments(ctx, r)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if stale[0].TotalSteps != 0 {
		t.Fatalf("stale=%+v", stale)
	}
	fresh, err := svc.Departments(ctx, r)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if fresh[0].SubjectID != int64(f.other.ID) || fresh[0].TotalSteps != 42 {
		t.Fatalf("fresh=%+v want Strafabteilung with 42 (result computed across a write was cached)", fresh)
	}
}
