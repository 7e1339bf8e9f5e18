package main

import (
	"context"
	"time"

	"run4recht/internal/auth"
	"run4recht/internal/calendar"
	"run4recht/internal/models"
	"run4recht/internal/repository/memory"
)

// seedDemo fills the in-memory store with one court, three departments and a handful of
// employees, plus a four-week tournament that started last Monday.
func seedDemo(store *memory.Store, password string, now time.Time) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	court := store.AddCourt(models.Court{Name: "Amtsgericht Musterstadt"})
	depts := []models.Department{
		store.AddDepartment(models.Department{CourtID: court.ID, Name: "Zivilabteilung"}),
		store.AddDepartment(models.Department{CourtID: court.ID, Name: "Strafabteilung"}),
		store.AddDepartment(models.Department{CourtID: court.ID, Name: "Verwaltung"}),
	}
	people := []struct {
		first, last, email, role string
		dept                     int
	}{
		{"Ada", "Admin", "admin@run4recht.example", models.RoleAdmin, 2},
		{"Alice", "Adler", "alice@run4recht.example", models.RoleUser, 0},
		{"Bruno", "Berg", "bruno@run4recht.example", models.RoleUser, 0},
		{"Carla", "Christ", "carla@run4recht.example", models.RoleUser, 1},
		{"David", "Dorn", "david@run4recht.example", models.RoleUser, 1},
	}
	for _, p := range people {
		store.AddEmployee(models.Employee{
			DepartmentID:  depts[p.dept].ID,
			FirstName:     p.first,
			LastName:      p.last,
			Email:         p.email,
			PasswordHash:  hash,
			Role:          p.role,
			DailyStepGoal: 10000,
		})
	}

	today := calendar.FromTime(now)
	weekday := (int(now.Weekday()) + 6) % 7
	start := today.AddDays(-weekday - 7)
	return store.SaveTournamentInfo(context.Background(), &models.TournamentInfo{
		Title:       "Run4Recht Demo",
		Description: "Vier Wochen Schritte sammeln",
		StartDate:   start.Time(time.UTC),
		EndDate:     start.AddDays(27).Time(time.UTC),
	})
}
