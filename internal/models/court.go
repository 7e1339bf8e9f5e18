package models

import "time"

// Court is a participating court (Gericht); departments belong to one court.
type Court struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Court) TableName() string {
	return "gerichte"
}
