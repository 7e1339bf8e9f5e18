package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/notify"
	"run4recht/internal/ranking"
	"run4recht/internal/session"
)

type CohortFetcher interface {
	FetchDepartmentTotals(ctx context.Context, departmentID int64, r calendar.Range) ([]activity.StatisticRecord, error)
}

type ReminderService struct {
	Session  *session.Session
	API      CohortFetcher
	Notifier notify.Notifier
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

// RunOnce sends one motivational message about the user's place in the department over
// the whole tournament so far. sent is false when notifications are off.
func (s *ReminderService) RunOnce(ctx context.Context) (msg notify.Message, sent bool, err error) {
	user, ok := s.Session.User()
	if !ok {
		return msg, false, fmt.Errorf("%w: no user", ErrNotReady)
	}
	if !user.Notifications {
		return msg, false, nil
	}
	tw, ok := s.Session.Tournament()
	if !ok {
		return msg, false, fmt.Errorf("%w: no tournament", ErrNotReady)
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	windows, err := ranking.DeriveWeekWindows(tw, calendar.Today(now, s.Location))
	if err != nil {
		return msg, false, err
	}
	records, err := s.API.FetchDepartmentTotals(ctx, user.DepartmentID, windows.Whole.Elapsed)
	if err != nil {
		return msg, false, fmt.Errorf("fetch cohort: %w", err)
	}
	pos, err := ranking.RankAndGapTo(ranking.Totals(records), user.EmployeeID)
	if errors.Is(err, ranking.ErrNotFound) {
		// user is not (yet) listed in the department
		return msg, false, nil
	}
	if err != nil {
		return msg, false, err
	}
	msg = MotivationalMessage(pos)
	if s.Notifier == nil {
		return msg, false, errors.New("notifier not configured")
	}
	if err := s.Notifier.Notify(ctx, msg); err != nil {
		return msg, false, fmt.Errorf("notify: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("reminder sent", zap.Int("rank", pos.Rank), zap.Int("cohort", pos.CohortSize))
	}
	return msg, true, nil
}

func (s *ReminderService) Job(ctx context.Context) error {
	_, _, err := s.RunOnce(ctx)
	if Expected(err) || errors.Is(err, ranking.ErrNotStarted) {
		return nil
	}
	return err
}

// MotivationalMessage picks the message for a ranking position.
func MotivationalMessage(pos ranking.Position) notify.Message {
	place := fmt.Sprintf("Sie befinden sich aktuell auf Platz %d.", pos.Rank)
	behind := fmt.Sprintf("Sie sind nur %d Schritte hinter dem nächsten Platz.", pos.GapAhead)
	ahead := fmt.Sprintf("Sie haben einen Vorsprung von %d Schritten auf den nächsten Platz.", pos.GapBehind)
	m := notify.Message{Event: "reminder"}
	switch {
	case pos.CohortSize <= 1:
		m.Title, m.Message = "Ihre aktuelle Position", place
	case pos.Rank == 1:
		m.Title, m.Message = "Sie haben einen Vorsprung!", place+" "+ahead
	case pos.Rank == pos.CohortSize:
		m.Title, m.Message = "Aufholjagd starten!", place+" "+behind
	default:
		m.Title = "Weiter so!"
		m.Message = fmt.Sprintf("%s Halten Sie Ihren Vorsprung von %d Schritten und versuchen Sie, die %d Schritte aufzuholen, um den nächsten Platz zu erreichen.",
			place, pos.GapBehind, pos.GapAhead)
	}
	return m
}
