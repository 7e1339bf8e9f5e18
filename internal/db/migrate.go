package db

import (
	"run4recht/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Court{},
		&models.Department{},
		&models.Employee{},
		&models.Statistic{},
		&models.StatisticContribution{},
		&models.TournamentInfo{},
	)
}
