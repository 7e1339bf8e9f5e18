package memory

import (
	"context"
	"testing"
	"time"

	"run4recht/internal/models"
	"run4recht/internal/repository"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestInsertContribution_Idempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := models.StatisticContribution{EmployeeID: 1, Date: date(2024, 1, 1), BatchKey: "b1", Steps: 100}
	first := c
	if ok, err := s.InsertContribution(ctx, &first); !ok || err != nil {
		t.Fatalf("first insert ok=%v err=%v", ok, err)
	}
	again := c
	if ok, err := s.InsertContribution(ctx, &again); ok || err != nil {
		t.Fatalf("second insert ok=%v err=%v want skipped", ok, err)
	}
	other := c
	other.BatchKey = "b2"
	other.Steps = 50
	if ok, _ := s.InsertContribution(ctx, &other); !ok {
		t.Fatalf("different batch skipped")
	}
	total, _ := s.SumContributions(ctx, 1, date(2024, 1, 1))
	if total != 150 {
		t.Fatalf("total=%d want=150", total)
	}
}

func TestUpsertStatistic_LastWriteWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.UpsertStatistic(ctx, &models.Statistic{EmployeeID: 1, Date: date(2024, 1, 1), Steps: 10})
	_ = s.UpsertStatistic(ctx, &models.Statistic{EmployeeID: 1, Date: date(2024, 1, 1), Steps: 30})
	items, _ := s.ListStatistics(ctx, repository.ListStatisticsParams{EmployeeIDs: []uint64{1}})
	if len(items) != 1 || items[0].Steps != 30 {
		t.Fatalf("items=%+v", items)
	}
}

func TestSumStepsByDepartment_IncludesEmptyDepartments(t *testing.T) {
	s := New()
	ctx := context.Background()
	d1 := s.AddDepartment(models.Department{Name: "Zivil"})
	d2 := s.AddDepartment(models.Department{Name: "Straf"})
	e := s.AddEmployee(models.Employee{DepartmentID: d1.ID, LastName: "A"})
	_ = s.UpsertStatistic(ctx, &models.Statistic{EmployeeID: e.ID, Date: date(2024, 1, 2), Steps: 500})
	_ = s.UpsertStatistic(ctx, &models.Statistic{EmployeeID: e.ID, Date: date(2024, 2, 2), Steps: 900})

	rows, err := s.SumStepsByDepartment(ctx, date(2024, 1, 1), date(2024, 1, 31))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	got := map[uint64]int64{}
	for _, r := range rows {
		got[r.DepartmentID] = r.Steps
	}
	if len(got) != 2 || got[d1.ID] != 500 || got[d2.ID] != 0 {
		t.Fatalf("rows=%+v", rows)
	}
}
