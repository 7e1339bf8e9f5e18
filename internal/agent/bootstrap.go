package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/client"
	"run4recht/internal/session"
)

type Authenticator interface {
	Login(ctx context.Context) (client.Profile, error)
	FetchTournamentWindow(ctx context.Context) (activity.TournamentWindow, error)
}

// Bootstrap logs in and publishes the user and the tournament on the session. The
// user's saved settings decide about reminders unless notificationsOff is set.
func Bootstrap(ctx context.Context, api Authenticator, s *session.Session, notificationsOff bool, logger *zap.Logger) error {
	p, err := api.Login(ctx)
	if err != nil {
		return err
	}
	s.SetUser(session.User{
		EmployeeID:    int64(p.ID),
		DepartmentID:  int64(p.DepartmentID),
		Name:          p.Name(),
		StepLengthCm:  p.StepLengthCm,
		Notifications: p.Settings.Notifications && !notificationsOff,
	})
	tw, err := api.FetchTournamentWindow(ctx)
	if err != nil {
		return fmt.Errorf("tournament: %w", err)
	}
	s.SetTournament(tw)
	if logger != nil {
		logger.Info("agent session ready",
			zap.Uint64("employee", p.ID),
			zap.String("tournament", tw.Title),
			zap.String("range", tw.Range().String()),
		)
	}
	return nil
}

type SessionRefresher interface {
	FetchProfile(ctx context.Context, employeeID int64) (client.Profile, error)
	FetchTournamentWindow(ctx context.Context) (activity.TournamentWindow, error)
}

// RefreshSession re-reads the tournament and the user's notification setting so that
// changes made on the server reach a running agent.
func RefreshSession(ctx context.Context, api SessionRefresher, s *session.Session, notificationsOff bool) error {
	user, ok := s.User()
	if !ok {
		return fmt.Errorf("%w: no user", ErrNotReady)
	}
	tw, err := api.FetchTournamentWindow(ctx)
	if err != nil {
		return fmt.Errorf("tournament: %w", err)
	}
	if cur, ok := s.Tournament(); !ok || cur != tw {
		s.SetTournament(tw)
	}
	p, err := api.FetchProfile(ctx, user.EmployeeID)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if on := p.Settings.Notifications && !notificationsOff; on != user.Notifications {
		s.SetNotifications(on)
	}
	return nil
}
