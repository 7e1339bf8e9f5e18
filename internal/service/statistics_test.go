package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/models"
	"run4recht/internal/ranking"
	"run4recht/internal/repository"
	"run4recht/internal/repository/memory"
)

func day(s string) calendar.Date { return calendar.MustParse(s) }

type fixture struct {
	store *memory.Store
	dept  models.Department
	other models.Department
	alice models.Employee
	bob   models.Employee
	carla models.Employee
	stats *StatisticsService
	rank  *RankingService
	tour  *TournamentService
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	store := memory.New()
	court := store.AddCourt(models.Court{Name: "Amtsgericht Mitte"})
	dept := store.AddDepartment(models.Department{CourtID: court.ID, Name: "Zivilabteilung"})
	other := store.AddDepartment(models.Department{CourtID: court.ID, Name: "Strafabteilung"})
	alice := store.AddEmployee(models.Employee{DepartmentID: dept.ID, FirstName: "Alice", LastName: "Adler", Email: "alice@example.org"})
	bob := store.AddEmployee(models.Employee{DepartmentID: dept.ID, FirstName: "Bob", LastName: "Berg", Email: "bob@example.org", StepLengthCm: 100})
	carla := store.AddEmployee(models.Employee{DepartmentID: other.ID, FirstName: "Carla", LastName: "Christ", Email: "carla@example.org"})

	rank, err := NewRankingService(store, 16, nil)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	clock := func() time.Time { return now }
	tour := &TournamentService{Repo: store, Now: clock}
	stats := &StatisticsService{Repo: store, Ranking: rank, Tournament: tour, Now: clock}
	return fixture{store, dept, other, alice, bob, carla, stats, rank, tour}
}

func TestApplyDelta_IdempotentPerBatch(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec := activity.StatisticRecord{EmployeeID: int64(f.alice.ID), Steps: 1000, Date: day("2024-01-02")}

	got, applied, err := f.stats.ApplyDelta(ctx, rec, "a-1")
	if err != nil || !applied || got.Steps != 1000 {
		t.Fatalf("first got=%+v applied=%v err=%v", got, applied, err)
	}
	got, applied, err = f.stats.ApplyDelta(ctx, rec, "a-1")
	if err != nil || applied || got.Steps != 1000 {
		t.Fatalf("replay got=%+v applied=%v err=%v want unchanged 1000", got, applied, err)
	}
	rec.Steps = 250
	got, applied, err = f.stats.ApplyDelta(ctx, rec, "a-2")
	if err != nil || !applied || got.Steps != 1250 {
		t.Fatalf("second batch got=%+v applied=%v err=%v want 1250", got, applied, err)
	}
	if got.DistanceKm.String() != "1" {
		t.Fatalf("distance=%s want=1 (1250 * 0.0008)", got.DistanceKm)
	}
}

func TestApplyDelta_RequiresBatchKey(t *testing.T) {
	f := newFixture(t, time.Now())
	_, _, err := f.stats.ApplyDelta(context.Background(), activity.StatisticRecord{EmployeeID: int64(f.alice.ID), Steps: 1, Date: day("2024-01-02")}, " ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v want ErrInvalidInput", err)
	}
}

func TestUpsert_OverwritesThenDeltaAddsOnTop(t *testing.T) {
	f := newFixture(t, time.Now())
	ctx := context.Background()
	id := int64(f.bob.ID)
	if _, err := f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: id, Steps: 5000, Date: day("2024-01-02")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, _, err := f.stats.ApplyDelta(ctx, activity.StatisticRecord{EmployeeID: id, Steps: 700, Date: day("2024-01-02")}, "b-1"); err != nil {
		t.Fatalf("delta: %v", err)
	}
	got, err := f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: id, Steps: 3000, Date: day("2024-01-02")})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got.Steps != 3000 || got.DistanceKm.String() != "3" {
		t.Fatalf("got=%+v want 3000 steps, 3 km at 100cm", got)
	}
	list, _ := f.stats.ListByEmployee(ctx, id, calendar.Day(day("2024-01-02")))
	if len(list) != 1 || list[0].Steps != 3000 {
		t.Fatalf("list=%+v", list)
	}
}

func TestApplyDelta_LegacyRowIsBaseline(t *testing.T) {
	f := newFixture(t, time.Now())
	ctx := context.Background()
	_ = f.store.UpsertStatistic(ctx, &models.Statistic{EmployeeID: f.alice.ID, Date: dbDate(day("2024-01-05")), Steps: 400})
	got, _, err := f.stats.ApplyDelta(ctx, activity.StatisticRecord{EmployeeID: int64(f.alice.ID), Steps: 100, Date: day("2024-01-05")}, "x")
	if err != nil || got.Steps != 500 {
		t.Fatalf("got=%+v err=%v want 500", got, err)
	}
}

func TestUpsertPeriod_SpreadsRemainderOnLastDay(t *testing.T) {
	f := newFixture(t, time.Now())
	out, err := f.stats.UpsertPeriod(context.Background(), activity.PeriodStatistic{
		EmployeeID: int64(f.alice.ID), Steps: 10, Start: day("2024-01-01"), End: day("2024-01-03"),
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []int64{3, 3, 4}
	if len(out) != 3 {
		t.Fatalf("out=%+v", out)
	}
	for i, w := range want {
		if out[i].Steps != w || out[i].Date != day("2024-01-01").AddDays(i) {
			t.Fatalf("out[%d]=%+v want %d", i, out[i], w)
		}
	}
	if _, err := f.stats.UpsertPeriod(context.Background(), activity.PeriodStatistic{
		EmployeeID: int64(f.alice.ID), Steps: 10, Start: day("2024-01-03"), End: day("2024-01-01"),
	}); !errors.Is(err, ErrInvalidInput) || !errors.Is(err, calendar.ErrInvalidRange) {
		t.Fatalf("err=%v want ErrInvalidInput wrapping ErrInvalidRange", err)
	}
}

func TestUpsert_UnknownEmployee(t *testing.T) {
	f := newFixture(t, time.Now())
	_, err := f.stats.Upsert(context.Background(), activity.StatisticRecord{EmployeeID: 99999, Steps: 1, Date: day("2024-01-01")})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestDepartmentTotals_IncludesEmployeesWithoutData(t *testing.T) {
	f := newFixture(t, time.Now())
	ctx := context.Background()
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.bob.ID), Steps: 300, Date: day("2024-01-01")})
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.bob.ID), Steps: 200, Date: day("2024-01-02")})
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: int64(f.bob.ID), Steps: 999, Date: day("2024-02-01")})

	out, err := f.stats.DepartmentTotals(ctx, int64(f.dept.ID), calendar.Range{Start: day("2024-01-01"), End: day("2024-01-31")})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 2 {
		t.Fatalf("out=%+v", out)
	}
	if out[0].EmployeeID != int64(f.bob.ID) || out[0].Steps != 500 || out[0].Name != "Bob Berg" {
		t.Fatalf("out[0]=%+v", out[0])
	}
	if out[1].EmployeeID != int64(f.alice.ID) || out[1].Steps != 0 {
		t.Fatalf("out[1]=%+v", out[1])
	}
}

func TestOverview_WeeksAndPosition(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	if _, err := f.tour.Save(ctx, activity.TournamentWindow{Title: "Run4Recht", Start: day("2024-01-01"), End: day("2024-01-28")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	alice, bob := int64(f.alice.ID), int64(f.bob.ID)
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: alice, Steps: 500, Date: day("2024-01-02")})
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: bob, Steps: 800, Date: day("2024-01-03")})
	_, _ = f.stats.Upsert(ctx, activity.StatisticRecord{EmployeeID: alice, Steps: 600, Date: day("2024-01-09")})

	ov, err := f.stats.Overview(ctx, alice)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(ov.Windows) != 3 {
		t.Fatalf("windows=%d want=3 (W1, W2, Gesamt)", len(ov.Windows))
	}
	w1, w2, whole := ov.Windows[0], ov.Windows[1], ov.Windows[2]
	if len(w1.Days) != 7 || w1.Summary.TotalSteps != 500 {
		t.Fatalf("W1 days=%d total=%d", len(w1.Days), w1.Summary.TotalSteps)
	}
	if w1.Position == nil || w1.Position.Rank != 2 || w1.Position.GapAhead != 300 {
		t.Fatalf("W1 position=%+v", w1.Position)
	}
	if len(w2.Days) != 3 || w2.Position == nil || w2.Position.Rank != 1 || w2.Position.GapBehind != 600 {
		t.Fatalf("W2 days=%d position=%+v", len(w2.Days), w2.Position)
	}
	if whole.Window.Label != ranking.WholeTournamentLabel || whole.Summary.TotalSteps != 1100 || whole.Position.Rank != 1 {
		t.Fatalf("Gesamt=%+v", whole)
	}
}

func TestOverview_NotReadyWithoutTournament(t *testing.T) {
	f := newFixture(t, time.Now())
	if _, err := f.stats.Overview(context.Background(), int64(f.alice.ID)); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err=%v want ErrNotReady", err)
	}
}

func TestUpsertPeriod_RejectsOverlongPeriod(t *testing.T) {
	f := newFixture(t, time.Now())
	ctx := context.Background()
	_, err := f.stats.UpsertPeriod(ctx, activity.PeriodStatistic{
		EmployeeID: int64(f.alice.ID), Steps: 10, Start: day("1724-01-01"), End: day("2024-01-01"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v want ErrInvalidInput", err)
	}
	list, _ := f.stats.ListByEmployee(ctx, int64(f.alice.ID), calendar.Range{Start: day("1724-01-01"), End: day("2024-01-01")})
	if len(list) != 0 {
		t.Fatalf("wrote %d days for a rejected period", len(list))
	}
	out, err := f.stats.UpsertPeriod(ctx, activity.PeriodStatistic{
		EmployeeID: int64(f.alice.ID), Steps: 366, Start: day("2024-01-01"), End: day("2024-12-31"),
	})
	if err != nil || len(out) != MaxPeriodDays {
		t.Fatalf("leap year len=%d err=%v want=%d", len(out), err, MaxPeriodDays)
	}
}
