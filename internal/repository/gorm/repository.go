package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"run4recht/internal/models"
	"run4recht/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(repo repository.Repository) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) ListCourts(ctx context.Context) ([]models.Court, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Court
	if err := s.db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListDepartments(ctx context.Context, params repository.ListDepartmentsParams) ([]models.Department, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Department{})
	if params.CourtID != nil {
		query = query.Where("court_id = ?", *params.CourtID)
	}
	var items []models.Department
	if err := query.Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetDepartment(ctx context.Context, id uint64) (*models.Department, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Department
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetEmployee(ctx context.Context, id uint64) (*models.Employee, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Employee
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var item models.Employee
	err := s.db.WithContext(ctx).Where("lower(email) = ?", email).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListEmployees(ctx context.Context, params repository.ListEmployeesParams) ([]models.Employee, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Employee{})
	if params.DepartmentID != nil {
		query = query.Where("department_id = ?", *params.DepartmentID)
	}
	if len(params.IDs) > 0 {
		query = query.Where("id IN ?", params.IDs)
	}
	if params.Limit > 0 {
		query = query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset))
	}
	var items []models.Employee
	if err := query.Order("last_name asc, first_name asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateEmployeeProfile(ctx context.Context, item *models.Employee) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Employee{ID: item.ID}).Updates(map[string]any{
		"daily_step_goal": item.DailyStepGoal,
		"height_cm":       item.HeightCm,
		"step_length_cm":  item.StepLengthCm,
		"settings":        item.Settings,
		"updated_at":      time.Now().UTC(),
	}).Error
}

func (s *Store) ListStatistics(ctx context.Context, params repository.ListStatisticsParams) ([]models.Statistic, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Statistic{})
	if len(params.EmployeeIDs) > 0 {
		query = query.Where("employee_id IN ?", params.EmployeeIDs)
	}
	if !params.From.IsZero() {
		query = query.Where("date >= ?", params.From)
	}
	if !params.To.IsZero() {
		query = query.Where("date <= ?", params.To)
	}
	var items []models.Statistic
	if err := query.Order("date asc, employee_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertStatistic(ctx context.Context, item *models.Statistic) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"steps",
			"distance_km",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) SumStepsByDepartment(ctx context.Context, from, to time.Time) ([]repository.DepartmentSteps, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.DepartmentSteps
	err := s.db.WithContext(ctx).
		Table(models.Department{}.TableName()+" AS d").
		Select("d.id AS department_id, COALESCE(SUM(st.steps), 0) AS steps").
		Joins("LEFT JOIN "+models.Employee{}.TableName()+" AS e ON e.department_id = d.id").
		Joins("LEFT JOIN "+models.Statistic{}.TableName()+" AS st ON st.employee_id = e.id AND st.date >= ? AND st.date <= ?", from, to).
		Group("d.id").
		Order("d.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) InsertContribution(ctx context.Context, c *models.StatisticContribution) (bool, error) {
	if s == nil || s.db == nil || c == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}, {Name: "batch_key"}},
		DoNothing: true,
	}).Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ReplaceContributions(ctx context.Context, employeeID uint64, date time.Time, items []models.StatisticContribution) error {
	if s == nil || s.db == nil {
		return nil
	}
	db := s.db.WithContext(ctx)
	if err := db.Where("employee_id = ? AND date = ?", employeeID, date).Delete(&models.StatisticContribution{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

func (s *Store) SumContributions(ctx context.Context, employeeID uint64, date time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.StatisticContribution{}).
		Select("COALESCE(SUM(steps), 0)").
		Where("employee_id = ? AND date = ?", employeeID, date).
		Scan(&total).Error
	return total, err
}

func (s *Store) GetTournamentInfo(ctx context.Context) (*models.TournamentInfo, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.TournamentInfo
	err := s.db.WithContext(ctx).First(&item, "id = ?", models.TournamentInfoID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveTournamentInfo(ctx context.Context, item *models.TournamentInfo) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.ID = models.TournamentInfoID
	item.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"description",
			"start_date",
			"end_date",
			"updated_at",
		}),
	}).Create(item).Error
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

var _ repository.Repository = (*Store)(nil)
