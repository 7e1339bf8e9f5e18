package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"run4recht/internal/ranking"
)

// RankingRefreshJob publishes the whole-tournament ranking to the hub whenever
// statistics changed since the previous run.
type RankingRefreshJob struct {
	Ranking    *RankingService
	Tournament *TournamentService
	Hub        *Hub
	Logger     *zap.Logger
	Now        func() time.Time
}

func (j *RankingRefreshJob) RunOnce(ctx context.Context) error {
	if j == nil || j.Ranking == nil || j.Tournament == nil || j.Hub == nil {
		return nil
	}
	if !j.Ranking.TakeDirty() {
		return nil
	}
	_, windows, err := j.Tournament.Windows(ctx)
	if errors.Is(err, ErrNotReady) || errors.Is(err, ranking.ErrNotStarted) {
		return nil
	}
	if err != nil {
		j.Ranking.MarkDirty()
		return err
	}
	entries, err := j.Ranking.Departments(ctx, windows.Whole.Range)
	if err != nil {
		j.Ranking.MarkDirty()
		return err
	}
	n := j.Hub.Publish(RankingSnapshot{
		Window:  windows.Whole.Range,
		Entries: entries,
		At:      clockOrNow(j.Now).UTC(),
	})
	if j.Logger != nil {
		j.Logger.Debug("ranking published", zap.Int("departments", len(entries)), zap.Int("subscribers", n))
	}
	return nil
}
