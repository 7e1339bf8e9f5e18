package repository

import (
	"context"
	"errors"
	"time"

	"run4recht/internal/models"
)

// ErrNotFound is returned by services when a Get yields no row. Stores themselves
// report a missing row as (nil, nil).
var ErrNotFound = errors.New("not found")

type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error

	ListCourts(ctx context.Context) ([]models.Court, error)
	ListDepartments(ctx context.Context, params ListDepartmentsParams) ([]models.Department, error)
	GetDepartment(ctx context.Context, id uint64) (*models.Department, error)

	GetEmployee(ctx context.Context, id uint64) (*models.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	ListEmployees(ctx context.Context, params ListEmployeesParams) ([]models.Employee, error)
	UpdateEmployeeProfile(ctx context.Context, item *models.Employee) error

	ListStatistics(ctx context.Context, params ListStatisticsParams) ([]models.Statistic, error)
	UpsertStatistic(ctx context.Context, item *models.Statistic) error
	SumStepsByDepartment(ctx context.Context, from, to time.Time) ([]DepartmentSteps, error)

	// InsertContribution stores c unless a contribution with the same (employee, date, batch key)
	// exists. It reports whether a row was written.
	InsertContribution(ctx context.Context, c *models.StatisticContribution) (bool, error)
	ReplaceContributions(ctx context.Context, employeeID uint64, date time.Time, items []models.StatisticContribution) error
	SumContributions(ctx context.Context, employeeID uint64, date time.Time) (int64, error)

	GetTournamentInfo(ctx context.Context) (*models.TournamentInfo, error)
	SaveTournamentInfo(ctx context.Context, item *models.TournamentInfo) error
}

type ListDepartmentsParams struct {
	CourtID *uint64
}

type ListEmployeesParams struct {
	DepartmentID *uint64
	IDs          []uint64
	Limit        int
	Offset       int
}

// ListStatisticsParams filters by employee and an inclusive date range. Zero From/To are open bounds.
type ListStatisticsParams struct {
	EmployeeIDs []uint64
	From        time.Time
	To          time.Time
}

type DepartmentSteps struct {
	DepartmentID uint64 `gorm:"column:department_id"`
	Steps        int64  `gorm:"column:steps"`
}
