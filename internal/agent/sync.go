package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/healthsource"
	"run4recht/internal/session"
	"run4recht/internal/stepsync"
)

type DeltaUploader interface {
	ApplyDelta(ctx context.Context, rec activity.StatisticRecord, batchKey string) (bool, error)
}

type CheckpointStore interface {
	Load(ctx context.Context, employeeID int64) (*stepsync.Checkpoint, error)
	Save(ctx context.Context, employeeID int64, cp stepsync.Checkpoint) error
}

type SyncResult struct {
	RunID      string               `json:"run_id"`
	BatchKey   string               `json:"batch_key,omitempty"`
	Records    int                  `json:"records"`
	Uploaded   int                  `json:"uploaded"`
	Replayed   int                  `json:"replayed"`
	Resets     int                  `json:"resets"`
	Discarded  bool                 `json:"discarded"`
	Checkpoint *stepsync.Checkpoint `json:"checkpoint,omitempty"`
}

type SyncService struct {
	Session     *session.Session
	Source      healthsource.Source
	API         DeltaUploader
	Checkpoints CheckpointStore
	Policy      stepsync.ResetPolicy
	Location    *time.Location
	Logger      *zap.Logger
	Now         func() time.Time
}

// RunOnce uploads the step deltas observed since the last checkpoint. The checkpoint only
// advances when every record was accepted and the user did not change meanwhile.
func (s *SyncService) RunOnce(ctx context.Context) (SyncResult, error) {
	res := SyncResult{RunID: uuid.NewString()}
	ticket := s.Session.Begin()
	user, ok := s.Session.User()
	if !ok {
		return res, fmt.Errorf("%w: no user", ErrNotReady)
	}
	tw, ok := s.Session.Tournament()
	if !ok {
		return res, fmt.Errorf("%w: no tournament", ErrNotReady)
	}
	if s.Source == nil || !s.Source.IsAvailable(ctx) {
		return res, ErrHealthUnavailable
	}
	granted, err := s.Source.RequestAuthorization(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrAuthorizationDenied, err)
	}
	if !granted {
		return res, ErrAuthorizationDenied
	}

	cp, err := s.Checkpoints.Load(ctx, user.EmployeeID)
	if err != nil {
		return res, err
	}
	now := s.now()
	tracker := stepsync.Tracker{
		EmployeeID:   user.EmployeeID,
		StepLengthKm: activity.StepLengthKm(user.StepLengthCm),
		Policy:       s.Policy,
		Location:     s.Location,
	}
	from, to := tracker.QueryWindow(cp, tw.Start, now)
	samples, err := s.Source.QueryStepsByDay(ctx, from, to)
	if err != nil {
		return res, fmt.Errorf("query steps: %w", err)
	}
	delta := tracker.ComputeDeltas(cp, samples, now)
	res.Records = len(delta.Records)
	res.Resets = delta.Resets
	if len(delta.Records) == 0 {
		return res, nil
	}

	res.BatchKey = stepsync.BatchKey(user.EmployeeID, cp)
	n, err := stepsync.UploadSequential(ctx, delta.Records, func(ctx context.Context, rec activity.StatisticRecord) error {
		applied, err := s.API.ApplyDelta(ctx, rec, res.BatchKey)
		if err == nil && !applied {
			res.Replayed++
		}
		return err
	})
	res.Uploaded = n
	if err != nil {
		s.logWarn("sync upload incomplete", zap.String("run", res.RunID), zap.Int("uploaded", n), zap.Int("records", res.Records), zap.Error(err))
		return res, err
	}
	if !ticket.Valid() {
		res.Discarded = true
		s.logInfo("sync result discarded after user change", zap.String("run", res.RunID))
		return res, nil
	}
	if err := s.Checkpoints.Save(ctx, user.EmployeeID, *delta.Checkpoint); err != nil {
		return res, err
	}
	res.Checkpoint = delta.Checkpoint
	if delta.Resets > 0 {
		s.logInfo("step counter reset detected", zap.Int("days", delta.Resets), zap.String("policy", s.Policy.String()))
	}
	s.logInfo("sync done",
		zap.String("run", res.RunID),
		zap.Int("uploaded", res.Uploaded),
		zap.Int("replayed", res.Replayed),
		zap.String("baseline", delta.Checkpoint.BaselineDate.String()),
	)
	return res, nil
}

// Job adapts RunOnce to the cron runner; expected conditions are not failures.
func (s *SyncService) Job(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	if Expected(err) {
		if s.Logger != nil {
			s.Logger.Debug("sync skipped", zap.Error(err))
		}
		return nil
	}
	return err
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SyncService) logInfo(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Info(msg, fields...)
	}
}

func (s *SyncService) logWarn(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields...)
	}
}
