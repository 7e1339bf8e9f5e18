package ranking

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
)

func day(s string) calendar.Date { return calendar.MustParse(s) }

func TestFillMissingDays_SevenDays(t *testing.T) {
	in := []activity.StatisticRecord{
		{EmployeeID: 7, Steps: 500, DistanceKm: decimal.NewFromFloat(0.4), Date: day("2024-01-05")},
		{EmployeeID: 7, Steps: 200, DistanceKm: decimal.NewFromFloat(0.16), Date: day("2024-01-02")},
	}
	out, err := FillMissingDays(day("2024-01-01"), day("2024-01-07"), in)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 7 {
		t.Fatalf("len=%d want=7", len(out))
	}
	want := []int64{0, 200, 0, 0, 500, 0, 0}
	for i, rec := range out {
		if rec.Date != day("2024-01-01").AddDays(i) {
			t.Fatalf("out[%d].date=%s not ascending", i, rec.Date)
		}
		if rec.Steps != want[i] {
			t.Fatalf("out[%d].steps=%d want=%d", i, rec.Steps, want[i])
		}
		if rec.EmployeeID != 7 {
			t.Fatalf("out[%d].employee=%d want=7", i, rec.EmployeeID)
		}
	}
	if got := Summarize(out).TotalSteps; got != 700 {
		t.Fatalf("total=%d want=700", got)
	}
}

func TestFillMissingDays_DuplicateLastWins(t *testing.T) {
	in := []activity.StatisticRecord{
		{EmployeeID: 1, Steps: 100, Date: day("2024-01-01")},
		{EmployeeID: 1, Steps: 300, Date: day("2024-01-01")},
		{EmployeeID: 1, Steps: 999, Date: day("2024-02-01")},
	}
	out, err := FillMissingDays(day("2024-01-01"), day("2024-01-02"), in)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 2 || out[0].Steps != 300 || out[1].Steps != 0 {
		t.Fatalf("out=%+v", out)
	}
}

func TestFillMissingDays_InvalidRange(t *testing.T) {
	if _, err := FillMissingDays(day("2024-01-02"), day("2024-01-01"), nil); !errors.Is(err, calendar.ErrInvalidRange) {
		t.Fatalf("err=%v want ErrInvalidRange", err)
	}
}

func TestRankAndGapTo_StableTies(t *testing.T) {
	totals := []Total{{1, 500}, {2, 300}, {3, 300}, {4, 100}}
	pos, err := RankAndGapTo(totals, 3)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if pos.Rank != 3 || pos.GapAhead != 0 || pos.GapBehind != 200 {
		t.Fatalf("pos=%+v want rank=3 ahead=0 behind=200", pos)
	}
	if pos.CohortSize != 4 {
		t.Fatalf("size=%d want=4", pos.CohortSize)
	}
	// input must not be reordered
	if totals[0].SubjectID != 1 || totals[3].SubjectID != 4 {
		t.Fatalf("input mutated: %+v", totals)
	}
}

func TestRankAndGapTo_Edges(t *testing.T) {
	totals := []Total{{1, 100}, {2, 500}}
	first, err := RankAndGapTo(totals, 2)
	if err != nil || first.Rank != 1 || first.GapAhead != 0 || first.GapBehind != 400 {
		t.Fatalf("first=%+v err=%v", first, err)
	}
	last, err := RankAndGapTo(totals, 1)
	if err != nil || last.Rank != 2 || last.GapAhead != 400 || last.GapBehind != 0 {
		t.Fatalf("last=%+v err=%v", last, err)
	}
}

func TestRankAndGapTo_NotFound(t *testing.T) {
	_, err := RankAndGapTo([]Total{{1, 10}}, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	if _, err := RankAndGapTo(nil, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty cohort err=%v want ErrNotFound", err)
	}
}

func TestTotals_FirstSeenOrder(t *testing.T) {
	got := Totals([]activity.StatisticRecord{
		{EmployeeID: 2, Steps: 10},
		{EmployeeID: 1, Steps: 5},
		{EmployeeID: 2, Steps: 15},
	})
	if len(got) != 2 || got[0] != (Total{2, 25}) || got[1] != (Total{1, 5}) {
		t.Fatalf("totals=%+v", got)
	}
}

func TestDeriveWeekWindows(t *testing.T) {
	tw := activity.TournamentWindow{Start: day("2024-01-01"), End: day("2024-01-28")}
	w, err := DeriveWeekWindows(tw, day("2024-01-10"))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(w.Weeks) != 2 {
		t.Fatalf("weeks=%d want=2", len(w.Weeks))
	}
	if w.Weeks[0].Label != "W1" || w.Weeks[0].Range.String() != "2024-01-01..2024-01-07" {
		t.Fatalf("W1=%+v", w.Weeks[0])
	}
	if w.Weeks[1].Label != "W2" || w.Weeks[1].Range.String() != "2024-01-08..2024-01-14" {
		t.Fatalf("W2=%+v", w.Weeks[1])
	}
	if w.Weeks[1].Elapsed.String() != "2024-01-08..2024-01-10" {
		t.Fatalf("W2 elapsed=%s", w.Weeks[1].Elapsed)
	}
	if w.Whole.Label != "Gesamt" || w.Whole.Range.String() != "2024-01-01..2024-01-10" {
		t.Fatalf("Gesamt=%+v", w.Whole)
	}
	if found, ok := w.Find("w2"); !ok || found.Label != "W2" {
		t.Fatalf("find w2=%+v ok=%v", found, ok)
	}
}

func TestDeriveWeekWindows_ClipsAtTournamentEnd(t *testing.T) {
	tw := activity.TournamentWindow{Start: day("2024-01-01"), End: day("2024-01-10")}
	w, err := DeriveWeekWindows(tw, day("2024-03-01"))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(w.Weeks) != 2 || w.Weeks[1].Range.String() != "2024-01-08..2024-01-10" {
		t.Fatalf("weeks=%+v", w.Weeks)
	}
	if w.Whole.Range.End != day("2024-01-10") {
		t.Fatalf("Gesamt end=%s want=2024-01-10", w.Whole.Range.End)
	}
}

func TestDeriveWeekWindows_NotStarted(t *testing.T) {
	tw := activity.TournamentWindow{Start: day("2024-01-01"), End: day("2024-01-28")}
	if _, err := DeriveWeekWindows(tw, day("2023-12-31")); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err=%v want ErrNotStarted", err)
	}
	if _, err := DeriveWeekWindows(activity.TournamentWindow{}, day("2024-01-05")); !errors.Is(err, calendar.ErrInvalidRange) {
		t.Fatalf("err=%v want ErrInvalidRange", err)
	}
}

func TestFillMissingDays_MultiCenturyRange(t *testing.T) {
	out, err := FillMissingDays(day("1700-01-01"), day("2024-01-01"), nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 118339 {
		t.Fatalf("len=%d want=118339", len(out))
	}
	if last := out[len(out)-1].Date; last != day("2024-01-01") {
		t.Fatalf("last=%s want=2024-01-01", last)
	}
}
