package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"run4recht/internal/models"
	"run4recht/internal/repository"
)

type EmployeeSummary struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	DepartmentID uint64 `json:"dienstelle_id"`
}

// DirectoryService serves courts, departments and employees.
type DirectoryService struct {
	Repo repository.Repository
}

func (s *DirectoryService) Courts(ctx context.Context) ([]models.Court, error) {
	return s.Repo.ListCourts(ctx)
}

func (s *DirectoryService) Departments(ctx context.Context, courtID *uint64) ([]models.Department, error) {
	return s.Repo.ListDepartments(ctx, repository.ListDepartmentsParams{CourtID: courtID})
}

func (s *DirectoryService) Department(ctx context.Context, id uint64) (models.Department, error) {
	d, err := s.Repo.GetDepartment(ctx, id)
	if err != nil {
		return models.Department{}, err
	}
	if d == nil {
		return models.Department{}, fmt.Errorf("dienstelle %d: %w", id, repository.ErrNotFound)
	}
	return *d, nil
}

func (s *DirectoryService) EmployeesOf(ctx context.Context, departmentID uint64) ([]EmployeeSummary, error) {
	items, err := s.Repo.ListEmployees(ctx, repository.ListEmployeesParams{DepartmentID: &departmentID})
	if err != nil {
		return nil, err
	}
	return summaries(items), nil
}

// Search lists employees whose name fuzzily matches query, best match first.
// An empty query lists everyone.
func (s *DirectoryService) Search(ctx context.Context, query string, limit int) ([]EmployeeSummary, error) {
	items, err := s.Repo.ListEmployees(ctx, repository.ListEmployeesParams{})
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	var out []EmployeeSummary
	if query == "" {
		out = summaries(items)
	} else {
		matches := fuzzy.FindFrom(query, employeeNames(items))
		out = make([]EmployeeSummary, 0, len(matches))
		for _, m := range matches {
			out = append(out, summaryOf(items[m.Index]))
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// employeeNames implements fuzzy.Source.
type employeeNames []models.Employee

func (e employeeNames) String(i int) string { return strings.ToLower(e[i].FullName()) }
func (e employeeNames) Len() int            { return len(e) }

func summaries(items []models.Employee) []EmployeeSummary {
	out := make([]EmployeeSummary, 0, len(items))
	for _, e := range items {
		out = append(out, summaryOf(e))
	}
	return out
}

func summaryOf(e models.Employee) EmployeeSummary {
	return EmployeeSummary{ID: e.ID, Name: e.FullName(), DepartmentID: e.DepartmentID}
}
