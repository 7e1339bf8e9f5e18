package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/models"
	"run4recht/internal/ranking"
	"run4recht/internal/repository"
)

type TournamentService struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	Now      func() time.Time
	Location *time.Location
}

// Window returns the configured tournament, or ErrNotReady when none is stored.
func (s *TournamentService) Window(ctx context.Context) (activity.TournamentWindow, error) {
	if s == nil || s.Repo == nil {
		return activity.TournamentWindow{}, ErrNotReady
	}
	info, err := s.Repo.GetTournamentInfo(ctx)
	if err != nil {
		return activity.TournamentWindow{}, err
	}
	if info == nil {
		return activity.TournamentWindow{}, ErrNotReady
	}
	return toWindow(*info), nil
}

func (s *TournamentService) Save(ctx context.Context, tw activity.TournamentWindow) (activity.TournamentWindow, error) {
	if s == nil || s.Repo == nil {
		return activity.TournamentWindow{}, ErrNotReady
	}
	tw.Title = strings.TrimSpace(tw.Title)
	if tw.Title == "" {
		return activity.TournamentWindow{}, fmt.Errorf("%w: titel is required", ErrInvalidInput)
	}
	if err := tw.Validate(); err != nil {
		return activity.TournamentWindow{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	item := &models.TournamentInfo{
		Title:       tw.Title,
		Description: strings.TrimSpace(tw.Description),
		StartDate:   dbDate(tw.Start),
		EndDate:     dbDate(tw.End),
	}
	if err := s.Repo.SaveTournamentInfo(ctx, item); err != nil {
		return activity.TournamentWindow{}, err
	}
	if s.Logger != nil {
		s.Logger.Info("tournament saved", zap.String("title", item.Title), zap.String("range", tw.Range().String()))
	}
	return toWindow(*item), nil
}

// Today is the current calendar day in the tournament's time zone.
func (s *TournamentService) Today() calendar.Date {
	return calendar.Today(clockOrNow(s.Now), s.Location)
}

// Windows derives the week windows of the configured tournament as of today.
func (s *TournamentService) Windows(ctx context.Context) (activity.TournamentWindow, ranking.Windows, error) {
	tw, err := s.Window(ctx)
	if err != nil {
		return tw, ranking.Windows{}, err
	}
	w, err := ranking.DeriveWeekWindows(tw, s.Today())
	return tw, w, err
}
