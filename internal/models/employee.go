package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Employee struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	DepartmentID uint64 `gorm:"not null;index"`
	FirstName    string `gorm:"type:varchar(120);not null"`
	LastName     string `gorm:"type:varchar(120);not null"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(100);not null"`
	Role         string `gorm:"type:varchar(20);not null;default:USER"`

	DailyStepGoal int `gorm:"not null;default:10000"`
	HeightCm      int `gorm:"not null;default:0"`
	// StepLengthCm overrides the default step length for distance calculation when > 0.
	StepLengthCm int `gorm:"not null;default:0"`

	// Settings holds UI preferences: {"notifications":bool,"night_mode":bool,"manager_view":bool}.
	Settings datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "mitarbeiter"
}

func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	default:
		return e.FirstName + " " + e.LastName
	}
}
