package models

import "time"

type Department struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	CourtID   uint64    `gorm:"not null;index;comment:court of the department"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Department) TableName() string {
	return "dienstellen"
}
