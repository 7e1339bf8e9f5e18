package service

import (
	"context"
	"testing"
	"time"

	"run4recht/internal/activity"
)

func TestRankingRefreshJob_PublishesWhenDirty(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	_, _ = f.tour.Save(ctx, activity.TournamentWindow{Title: "T", Start: day("2024-01-01"), End: day("2024-01-31")})
	hub := &Hub{Buffer: 2}
	ch, cancel := hub.Subscribe()
	defer cancel()
	job := &RankingRefreshJob{Ranking: f.rank, Tournament: f.tour, Hub: hub}

	if err := job.RunOnce(ctx); err != nil {
		t.Fatalf("err=%v", err)
	}
	select {
	case snap := <-ch:
		if snap.Window.String() != "2024-01-01..2024-01-05" || len(snap.Entries) != 2 {
			t.Fatalf("snap=%+v", snap)
		}
	default:
		t.Fatalf("no snapshot published")
	}
	if err := job.RunOnce(ctx); err != nil {
		t.Fatalf("err=%v", err)
	}
	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot without changes: %+v", snap)
	default:
	}
}
