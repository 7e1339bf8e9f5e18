package models

import "time"

// TournamentInfoID is the primary key of the single tournament row.
const TournamentInfoID = 1

type TournamentInfo struct {
	ID          uint64    `gorm:"primaryKey"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (TournamentInfo) TableName() string {
	return "turnierinfo"
}
