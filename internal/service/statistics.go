package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/models"
	"run4recht/internal/ranking"
	"run4recht/internal/repository"
)

// ManualBatchKey marks the contribution written by a manual overwrite.
const ManualBatchKey = "manual"

type StatisticsService struct {
	Repo       repository.Repository
	Ranking    *RankingService
	Tournament *TournamentService
	Logger     *zap.Logger
	Now        func() time.Time
	Location   *time.Location
}

// Upsert overwrites the employee's total for rec.Date (last write wins).
func (s *StatisticsService) Upsert(ctx context.Context, rec activity.StatisticRecord) (activity.StatisticRecord, error) {
	if err := validateRecord(rec); err != nil {
		return activity.StatisticRecord{}, err
	}
	emp, err := s.employee(ctx, rec.EmployeeID)
	if err != nil {
		return activity.StatisticRecord{}, err
	}
	var saved models.Statistic
	err = s.Repo.InTx(ctx, func(repo repository.Repository) error {
		var err error
		saved, err = overwriteDay(ctx, repo, emp, rec.Date, rec.Steps, rec.DistanceKm)
		return err
	})
	if err != nil {
		return activity.StatisticRecord{}, err
	}
	s.changed("upsert", rec.EmployeeID, 1)
	return toRecord(saved, emp.FullName()), nil
}

// MaxPeriodDays bounds a manual period entry.
const MaxPeriodDays = 366

// UpsertPeriod spreads p.Steps evenly over the period and overwrites every day in it.
// The remainder of the division lands on the last day.
func (s *StatisticsService) UpsertPeriod(ctx context.Context, p activity.PeriodStatistic) ([]activity.StatisticRecord, error) {
	r, err := p.Range()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if p.EmployeeID <= 0 || p.Steps < 0 {
		return nil, fmt.Errorf("%w: mitarbeiter_id and schritte >= 0 required", ErrInvalidInput)
	}
	if n := r.Len(); n > MaxPeriodDays {
		return nil, fmt.Errorf("%w: period of %d days exceeds %d", ErrInvalidInput, n, MaxPeriodDays)
	}
	emp, err := s.employee(ctx, p.EmployeeID)
	if err != nil {
		return nil, err
	}
	days := r.Dates()
	per := p.Steps / int64(len(days))
	rest := p.Steps % int64(len(days))

	out := make([]activity.StatisticRecord, 0, len(days))
	err = s.Repo.InTx(ctx, func(repo repository.Repository) error {
		out = out[:0]
		for i, d := range days {
			steps := per
			if i == len(days)-1 {
				steps += rest
			}
			saved, err := overwriteDay(ctx, repo, emp, d, steps, decimal.Zero)
			if err != nil {
				return err
			}
			out = append(out, toRecord(saved, emp.FullName()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed("upsert_period", p.EmployeeID, len(out))
	return out, nil
}

// ApplyDelta adds rec.Steps to the day total once per batch key. Replaying a batch
// returns the current total without changing it; applied reports whether it was new.
func (s *StatisticsService) ApplyDelta(ctx context.Context, rec activity.StatisticRecord, batchKey string) (activity.StatisticRecord, bool, error) {
	if err := validateRecord(rec); err != nil {
		return activity.StatisticRecord{}, false, err
	}
	batchKey = strings.TrimSpace(batchKey)
	if batchKey == "" {
		return activity.StatisticRecord{}, false, fmt.Errorf("%w: batch key required", ErrInvalidInput)
	}
	emp, err := s.employee(ctx, rec.EmployeeID)
	if err != nil {
		return activity.StatisticRecord{}, false, err
	}

	var (
		saved   models.Statistic
		applied bool
	)
	day := dbDate(rec.Date)
	err = s.Repo.InTx(ctx, func(repo repository.Repository) error {
		existing, err := dayStatistic(ctx, repo, emp.ID, day)
		if err != nil {
			return err
		}
		prior, err := repo.SumContributions(ctx, emp.ID, day)
		if err != nil {
			return err
		}
		// rows written before contributions existed become the manual baseline
		if prior == 0 && existing != nil && existing.Steps > 0 {
			if _, err := repo.InsertContribution(ctx, &models.StatisticContribution{
				EmployeeID: emp.ID, Date: day, BatchKey: ManualBatchKey, Steps: existing.Steps,
			}); err != nil {
				return err
			}
		}
		applied, err = repo.InsertContribution(ctx, &models.StatisticContribution{
			EmployeeID: emp.ID, Date: day, BatchKey: batchKey, Steps: rec.Steps,
		})
		if err != nil {
			return err
		}
		if !applied && existing != nil {
			saved = *existing
			return nil
		}
		total, err := repo.SumContributions(ctx, emp.ID, day)
		if err != nil {
			return err
		}
		saved = models.Statistic{
			EmployeeID: emp.ID,
			Date:       day,
			Steps:      total,
			DistanceKm: activity.Distance(total, activity.StepLengthKm(emp.StepLengthCm)),
		}
		return repo.UpsertStatistic(ctx, &saved)
	})
	if err != nil {
		return activity.StatisticRecord{}, false, err
	}
	if applied {
		s.changed("delta", rec.EmployeeID, 1)
	} else if s.Logger != nil {
		s.Logger.Debug("delta replay ignored", zap.Int64("employee", rec.EmployeeID), zap.String("date", rec.Date.String()), zap.String("batch", batchKey))
	}
	return toRecord(saved, emp.FullName()), applied, nil
}

// ListByEmployee returns the stored records of one employee inside r, oldest first.
func (s *StatisticsService) ListByEmployee(ctx context.Context, employeeID int64, r calendar.Range) ([]activity.StatisticRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	emp, err := s.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListStatistics(ctx, repository.ListStatisticsParams{
		EmployeeIDs: []uint64{emp.ID},
		From:        dbDate(r.Start),
		To:          dbDate(r.End),
	})
	if err != nil {
		return nil, err
	}
	out := make([]activity.StatisticRecord, 0, len(items))
	for _, st := range items {
		out = append(out, toRecord(st, ""))
	}
	return out, nil
}

func (s *StatisticsService) CurrentMonth(ctx context.Context, employeeID int64) ([]activity.StatisticRecord, error) {
	return s.ListByEmployee(ctx, employeeID, calendar.Month(s.today()))
}

// DepartmentDaily returns every stored record of the department's employees inside r,
// with the employee name attached.
func (s *StatisticsService) DepartmentDaily(ctx context.Context, departmentID int64, r calendar.Range) ([]activity.StatisticRecord, error) {
	emps, items, err := s.departmentStatistics(ctx, departmentID, r)
	if err != nil {
		return nil, err
	}
	out := make([]activity.StatisticRecord, 0, len(items))
	for _, st := range items {
		out = append(out, toRecord(st, emps[st.EmployeeID].FullName()))
	}
	return out, nil
}

// DepartmentTotals returns one summed record per employee of the department, most steps first.
// Employees without data are listed with zero steps.
func (s *StatisticsService) DepartmentTotals(ctx context.Context, departmentID int64, r calendar.Range) ([]activity.StatisticRecord, error) {
	emps, items, err := s.departmentStatistics(ctx, departmentID, r)
	if err != nil {
		return nil, err
	}
	sums := make(map[uint64]*activity.StatisticRecord, len(emps))
	order := make([]uint64, 0, len(emps))
	for id, e := range emps {
		sums[id] = &activity.StatisticRecord{EmployeeID: int64(id), DistanceKm: decimal.Zero, Date: r.End, Name: e.FullName()}
		order = append(order, id)
	}
	for _, st := range items {
		rec := sums[st.EmployeeID]
		if rec == nil {
			continue
		}
		rec.Steps += st.Steps
		rec.DistanceKm = rec.DistanceKm.Add(st.DistanceKm)
	}
	out := make([]activity.StatisticRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *sums[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Steps != out[j].Steps {
			return out[i].Steps > out[j].Steps
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

// WindowOverview is the statistics screen of one tournament window.
type WindowOverview struct {
	Window   ranking.Window             `json:"fenster"`
	Days     []activity.StatisticRecord `json:"tage"`
	Summary  ranking.Summary            `json:"zusammenfassung"`
	Position *ranking.Position          `json:"position,omitempty"`
}

type Overview struct {
	EmployeeID int64                     `json:"mitarbeiter_id"`
	Tournament activity.TournamentWindow `json:"turnier"`
	Windows    []WindowOverview          `json:"fenster"`
}

// Overview builds the per-week and whole-tournament statistics of an employee, including
// the position among the colleagues of the same department.
func (s *StatisticsService) Overview(ctx context.Context, employeeID int64) (Overview, error) {
	if s.Tournament == nil {
		return Overview{}, ErrNotReady
	}
	emp, err := s.employee(ctx, employeeID)
	if err != nil {
		return Overview{}, err
	}
	tw, windows, err := s.Tournament.Windows(ctx)
	if err != nil {
		return Overview{}, err
	}
	emps, items, err := s.departmentStatistics(ctx, int64(emp.DepartmentID), windows.Whole.Range)
	if err != nil {
		return Overview{}, err
	}
	if _, ok := emps[emp.ID]; !ok {
		emps[emp.ID] = *emp
	}
	cohort := make([]activity.StatisticRecord, 0, len(items))
	var own []activity.StatisticRecord
	for _, st := range items {
		rec := toRecord(st, "")
		cohort = append(cohort, rec)
		if st.EmployeeID == emp.ID {
			own = append(own, rec)
		}
	}

	out := Overview{EmployeeID: employeeID, Tournament: tw}
	all := append(append([]ranking.Window{}, windows.Weeks...), windows.Whole)
	for _, w := range all {
		days, err := ranking.FillMissingDays(w.Elapsed.Start, w.Elapsed.End, inRange(own, w.Elapsed))
		if err != nil {
			return Overview{}, err
		}
		for i := range days {
			days[i].EmployeeID = employeeID
		}
		wo := WindowOverview{Window: w, Days: days, Summary: ranking.Summarize(days)}
		totals := withZeroMembers(ranking.Totals(inRange(cohort, w.Elapsed)), emps)
		pos, err := ranking.RankAndGapTo(totals, employeeID)
		switch {
		case err == nil:
			wo.Position = &pos
		case errors.Is(err, ranking.ErrNotFound):
		default:
			return Overview{}, err
		}
		out.Windows = append(out.Windows, wo)
	}
	return out, nil
}

func (s *StatisticsService) departmentStatistics(ctx context.Context, departmentID int64, r calendar.Range) (map[uint64]models.Employee, []models.Statistic, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if departmentID <= 0 {
		return nil, nil, fmt.Errorf("%w: dienstelle id", ErrInvalidInput)
	}
	deptID := uint64(departmentID)
	dept, err := s.Repo.GetDepartment(ctx, deptID)
	if err != nil {
		return nil, nil, err
	}
	if dept == nil {
		return nil, nil, fmt.Errorf("dienstelle %d: %w", departmentID, repository.ErrNotFound)
	}
	list, err := s.Repo.ListEmployees(ctx, repository.ListEmployeesParams{DepartmentID: &deptID})
	if err != nil {
		return nil, nil, err
	}
	emps := make(map[uint64]models.Employee, len(list))
	ids := make([]uint64, 0, len(list))
	for _, e := range list {
		emps[e.ID] = e
		ids = append(ids, e.ID)
	}
	if len(ids) == 0 {
		return emps, nil, nil
	}
	items, err := s.Repo.ListStatistics(ctx, repository.ListStatisticsParams{
		EmployeeIDs: ids,
		From:        dbDate(r.Start),
		To:          dbDate(r.End),
	})
	if err != nil {
		return nil, nil, err
	}
	return emps, items, nil
}

func (s *StatisticsService) employee(ctx context.Context, id int64) (*models.Employee, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("statistics service unavailable")
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: mitarbeiter_id", ErrInvalidInput)
	}
	emp, err := s.Repo.GetEmployee(ctx, uint64(id))
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("mitarbeiter %d: %w", id, repository.ErrNotFound)
	}
	return emp, nil
}

func (s *StatisticsService) changed(op string, employeeID int64, days int) {
	s.Ranking.MarkDirty()
	if s.Logger != nil {
		s.Logger.Info("statistics written", zap.String("op", op), zap.Int64("employee", employeeID), zap.Int("days", days))
	}
}

func (s *StatisticsService) today() calendar.Date {
	return calendar.Today(clockOrNow(s.Now), s.Location)
}

func overwriteDay(ctx context.Context, repo repository.Repository, emp *models.Employee, d calendar.Date, steps int64, distance decimal.Decimal) (models.Statistic, error) {
	if !distance.IsPositive() {
		distance = activity.Distance(steps, activity.StepLengthKm(emp.StepLengthCm))
	}
	day := dbDate(d)
	st := models.Statistic{EmployeeID: emp.ID, Date: day, Steps: steps, DistanceKm: distance}
	if err := repo.UpsertStatistic(ctx, &st); err != nil {
		return models.Statistic{}, err
	}
	err := repo.ReplaceContributions(ctx, emp.ID, day, []models.StatisticContribution{
		{EmployeeID: emp.ID, Date: day, BatchKey: ManualBatchKey, Steps: steps},
	})
	return st, err
}

func dayStatistic(ctx context.Context, repo repository.Repository, employeeID uint64, day time.Time) (*models.Statistic, error) {
	items, err := repo.ListStatistics(ctx, repository.ListStatisticsParams{
		EmployeeIDs: []uint64{employeeID},
		From:        day,
		To:          day,
	})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[len(items)-1], nil
}

func validateRecord(rec activity.StatisticRecord) error {
	switch {
	case rec.EmployeeID <= 0:
		return fmt.Errorf("%w: mitarbeiter_id required", ErrInvalidInput)
	case rec.Date.IsZero():
		return fmt.Errorf("%w: datum required", ErrInvalidInput)
	case rec.Steps < 0:
		return fmt.Errorf("%w: schritte must not be negative", ErrInvalidInput)
	case rec.DistanceKm.IsNegative():
		return fmt.Errorf("%w: strecke must not be negative", ErrInvalidInput)
	}
	return nil
}

func inRange(records []activity.StatisticRecord, r calendar.Range) []activity.StatisticRecord {
	out := make([]activity.StatisticRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out
}

// withZeroMembers appends zero totals for employees without records, in id order.
func withZeroMembers(totals []ranking.Total, emps map[uint64]models.Employee) []ranking.Total {
	seen := make(map[int64]bool, len(totals))
	for _, t := range totals {
		seen[t.SubjectID] = true
	}
	missing := make([]int64, 0)
	for id := range emps {
		if !seen[int64(id)] {
			missing = append(missing, int64(id))
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	for _, id := range missing {
		totals = append(totals, ranking.Total{SubjectID: id})
	}
	return totals
}
