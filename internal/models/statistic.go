package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statistic is the step total of one employee on one calendar day.
type Statistic struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	EmployeeID uint64          `gorm:"not null;uniqueIndex:idx_statistic_employee_day;index"`
	Date       time.Time       `gorm:"type:date;not null;uniqueIndex:idx_statistic_employee_day;index"`
	Steps      int64           `gorm:"not null;default:0"`
	DistanceKm decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	UpdatedAt  time.Time       `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Statistic) TableName() string {
	return "statistiken"
}

// StatisticContribution is one uploaded part of a day total. The day total is the sum
// of its contributions; BatchKey makes re-uploads of the same batch idempotent.
type StatisticContribution struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	EmployeeID uint64    `gorm:"not null;uniqueIndex:idx_contribution_batch"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_contribution_batch"`
	BatchKey   string    `gorm:"type:varchar(120);not null;uniqueIndex:idx_contribution_batch"`
	Steps      int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (StatisticContribution) TableName() string {
	return "statistik_beitraege"
}
