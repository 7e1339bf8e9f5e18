package service

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"run4recht/internal/models"
	"run4recht/internal/repository"
)

type Settings struct {
	Notifications bool `json:"benachrichtigungen"`
	NightMode     bool `json:"nachtmodus"`
	ManagerView   bool `json:"manager_ansicht"`
}

// DefaultSettings applies to employees that never saved preferences.
func DefaultSettings() Settings {
	return Settings{Notifications: true}
}

type Profile struct {
	ID            uint64   `json:"id"`
	FirstName     string   `json:"vorname"`
	LastName      string   `json:"nachname"`
	Email         string   `json:"email"`
	Role          string   `json:"rolle"`
	DepartmentID  uint64   `json:"dienstelle_id"`
	DailyStepGoal int      `json:"tagesziel"`
	HeightCm      int      `json:"groesse_cm"`
	StepLengthCm  int      `json:"schrittlaenge_cm"`
	Settings      Settings `json:"einstellungen"`
}

type ProfileUpdate struct {
	DailyStepGoal *int      `json:"tagesziel"`
	HeightCm      *int      `json:"groesse_cm"`
	StepLengthCm  *int      `json:"schrittlaenge_cm"`
	Settings      *Settings `json:"einstellungen"`
}

type ProfileService struct {
	Repo repository.Repository
}

func (s *ProfileService) Get(ctx context.Context, id uint64) (Profile, error) {
	emp, err := s.Repo.GetEmployee(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if emp == nil {
		return Profile{}, fmt.Errorf("mitarbeiter %d: %w", id, repository.ErrNotFound)
	}
	return profileOf(*emp), nil
}

func (s *ProfileService) Update(ctx context.Context, id uint64, upd ProfileUpdate) (Profile, error) {
	emp, err := s.Repo.GetEmployee(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if emp == nil {
		return Profile{}, fmt.Errorf("mitarbeiter %d: %w", id, repository.ErrNotFound)
	}
	if upd.DailyStepGoal != nil {
		if *upd.DailyStepGoal < 0 {
			return Profile{}, fmt.Errorf("%w: tagesziel must not be negative", ErrInvalidInput)
		}
		emp.DailyStepGoal = *upd.DailyStepGoal
	}
	if upd.HeightCm != nil {
		if *upd.HeightCm < 0 || *upd.HeightCm > 300 {
			return Profile{}, fmt.Errorf("%w: groesse_cm out of range", ErrInvalidInput)
		}
		emp.HeightCm = *upd.HeightCm
	}
	if upd.StepLengthCm != nil {
		if *upd.StepLengthCm < 0 || *upd.StepLengthCm > 250 {
			return Profile{}, fmt.Errorf("%w: schrittlaenge_cm out of range", ErrInvalidInput)
		}
		emp.StepLengthCm = *upd.StepLengthCm
	}
	if upd.Settings != nil {
		raw, err := json.Marshal(upd.Settings)
		if err != nil {
			return Profile{}, err
		}
		emp.Settings = datatypes.JSON(raw)
	}
	if err := s.Repo.UpdateEmployeeProfile(ctx, emp); err != nil {
		return Profile{}, err
	}
	return profileOf(*emp), nil
}

func profileOf(e models.Employee) Profile {
	settings := DefaultSettings()
	if len(e.Settings) > 0 {
		_ = json.Unmarshal(e.Settings, &settings)
	}
	return Profile{
		ID:            e.ID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Email:         e.Email,
		Role:          e.Role,
		DepartmentID:  e.DepartmentID,
		DailyStepGoal: e.DailyStepGoal,
		HeightCm:      e.HeightCm,
		StepLengthCm:  e.StepLengthCm,
		Settings:      settings,
	}
}
