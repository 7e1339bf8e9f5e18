// Package memory is an in-process Repository used for demos (empty db.dsn) and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"run4recht/internal/models"
	"run4recht/internal/repository"
)

type contributionKey struct {
	employeeID uint64
	day        string
	batchKey   string
}

type statisticKey struct {
	employeeID uint64
	day        string
}

type Store struct {
	mu            sync.RWMutex
	courts        map[uint64]models.Court
	departments   map[uint64]models.Department
	employees     map[uint64]models.Employee
	statistics    map[statisticKey]models.Statistic
	contributions map[contributionKey]models.StatisticContribution
	tournament    *models.TournamentInfo
	nextID        uint64
}

func New() *Store {
	return &Store{
		courts:        map[uint64]models.Court{},
		departments:   map[uint64]models.Department{},
		employees:     map[uint64]models.Employee{},
		statistics:    map[statisticKey]models.Statistic{},
		contributions: map[contributionKey]models.StatisticContribution{},
	}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// InTx runs fn against the store itself; the memory store has no rollback.
func (s *Store) InTx(ctx context.Context, fn func(repo repository.Repository) error) error {
	return fn(s)
}

// Seed helpers.

func (s *Store) AddCourt(c models.Court) models.Court {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.courts[c.ID] = c
	return c
}

func (s *Store) AddDepartment(d models.Department) models.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.id()
	}
	s.departments[d.ID] = d
	return d
}

func (s *Store) AddEmployee(e models.Employee) models.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	}
	if e.Role == "" {
		e.Role = models.RoleUser
	}
	s.employees[e.ID] = e
	return e
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID + 1000
}

func (s *Store) ListCourts(ctx context.Context) ([]models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Court, 0, len(s.courts))
	for _, c := range s.courts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListDepartments(ctx context.Context, params repository.ListDepartmentsParams) ([]models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Department, 0, len(s.departments))
	for _, d := range s.departments {
		if params.CourtID != nil && d.CourtID != *params.CourtID {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetDepartment(ctx context.Context, id uint64) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *Store) GetEmployee(ctx context.Context, id uint64) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if strings.ToLower(e.Email) == email && email != "" {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) ListEmployees(ctx context.Context, params repository.ListEmployeesParams) ([]models.Employee, error) {
	var ids map[uint64]bool
	if len(params.IDs) > 0 {
		ids = make(map[uint64]bool, len(params.IDs))
		for _, id := range params.IDs {
			ids[id] = true
		}
	}
	s.mu.RLock()
	out := make([]models.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		if params.DepartmentID != nil && e.DepartmentID != *params.DepartmentID {
			continue
		}
		if ids != nil && !ids[e.ID] {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	if params.Limit > 0 {
		start := params.Offset
		if start < 0 {
			start = 0
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + params.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (s *Store) UpdateEmployeeProfile(ctx context.Context, item *models.Employee) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[item.ID]
	if !ok {
		return nil
	}
	e.DailyStepGoal = item.DailyStepGoal
	e.HeightCm = item.HeightCm
	e.StepLengthCm = item.StepLengthCm
	e.Settings = item.Settings
	e.UpdatedAt = time.Now().UTC()
	s.employees[e.ID] = e
	return nil
}

func (s *Store) ListStatistics(ctx context.Context, params repository.ListStatisticsParams) ([]models.Statistic, error) {
	var ids map[uint64]bool
	if len(params.EmployeeIDs) > 0 {
		ids = make(map[uint64]bool, len(params.EmployeeIDs))
		for _, id := range params.EmployeeIDs {
			ids[id] = true
		}
	}
	from, to := "", ""
	if !params.From.IsZero() {
		from = dayKey(params.From)
	}
	if !params.To.IsZero() {
		to = dayKey(params.To)
	}
	s.mu.RLock()
	out := make([]models.Statistic, 0)
	for k, st := range s.statistics {
		if ids != nil && !ids[k.employeeID] {
			continue
		}
		if from != "" && k.day < from {
			continue
		}
		if to != "" && k.day > to {
			continue
		}
		out = append(out, st)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (s *Store) UpsertStatistic(ctx context.Context, item *models.Statistic) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := statisticKey{item.EmployeeID, dayKey(item.Date)}
	if existing, ok := s.statistics[k]; ok {
		item.ID = existing.ID
	} else if item.ID == 0 {
		item.ID = s.id()
	}
	item.UpdatedAt = time.Now().UTC()
	s.statistics[k] = *item
	return nil
}

func (s *Store) SumStepsByDepartment(ctx context.Context, from, to time.Time) ([]repository.DepartmentSteps, error) {
	lo, hi := dayKey(from), dayKey(to)
	s.mu.RLock()
	defer s.mu.RUnlock()
	sums := make(map[uint64]int64, len(s.departments))
	for id := range s.departments {
		sums[id] = 0
	}
	for k, st := range s.statistics {
		if k.day < lo || k.day > hi {
			continue
		}
		e, ok := s.employees[k.employeeID]
		if !ok {
			continue
		}
		if _, ok := sums[e.DepartmentID]; !ok {
			continue
		}
		sums[e.DepartmentID] += st.Steps
	}
	out := make([]repository.DepartmentSteps, 0, len(sums))
	for id, steps := range sums {
		out = append(out, repository.DepartmentSteps{DepartmentID: id, Steps: steps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentID < out[j].DepartmentID })
	return out, nil
}

func (s *Store) InsertContribution(ctx context.Context, c *models.StatisticContribution) (bool, error) {
	if c == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := contributionKey{c.EmployeeID, dayKey(c.Date), c.BatchKey}
	if _, ok := s.contributions[k]; ok {
		return false, nil
	}
	c.ID = s.id()
	c.CreatedAt = time.Now().UTC()
	s.contributions[k] = *c
	return true, nil
}

func (s *Store) ReplaceContributions(ctx context.Context, employeeID uint64, date time.Time, items []models.StatisticContribution) error {
	day := dayKey(date)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.contributions {
		if k.employeeID == employeeID && k.day == day {
			delete(s.contributions, k)
		}
	}
	for _, c := range items {
		c.ID = s.id()
		s.contributions[contributionKey{c.EmployeeID, dayKey(c.Date), c.BatchKey}] = c
	}
	return nil
}

func (s *Store) SumContributions(ctx context.Context, employeeID uint64, date time.Time) (int64, error) {
	day := dayKey(date)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for k, c := range s.contributions {
		if k.employeeID == employeeID && k.day == day {
			total += c.Steps
		}
	}
	return total, nil
}

func (s *Store) GetTournamentInfo(ctx context.Context) (*models.TournamentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tournament == nil {
		return nil, nil
	}
	t := *s.tournament
	return &t, nil
}

func (s *Store) SaveTournamentInfo(ctx context.Context, item *models.TournamentInfo) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = models.TournamentInfoID
	item.UpdatedAt = time.Now().UTC()
	t := *item
	s.tournament = &t
	return nil
}

var _ repository.Repository = (*Store)(nil)
