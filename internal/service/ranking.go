package service

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/ranking"
	"run4recht/internal/repository"
)

// RankingService ranks departments by their summed steps and caches results per window.
type RankingService struct {
	Repo   repository.Repository
	Logger *zap.Logger

	cache *lru.Cache
	mu    sync.Mutex
	dirty bool
	// version counts writes; results computed across a write are not cached.
	version uint64
}

func NewRankingService(repo repository.Repository, cacheSize int, logger *zap.Logger) (*RankingService, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &RankingService{Repo: repo, Logger: logger, cache: cache, dirty: true}, nil
}

// Departments ranks every department over r. Trend compares each rank with the
// preceding window of the same length.
func (s *RankingService) Departments(ctx context.Context, r calendar.Range) ([]activity.RankingEntry, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("ranking service unavailable")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	key := r.String()
	version := s.currentVersion()
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return cloneEntries(v.([]activity.RankingEntry)), nil
		}
	}

	current, err := s.departmentTotals(ctx, r)
	if err != nil {
		return nil, err
	}
	previous, err := s.departmentTotals(ctx, r.Previous())
	if err != nil {
		return nil, err
	}
	prevRank := map[int64]int{}
	if sumSteps(previous) > 0 {
		for _, rk := range ranking.Rank(previous) {
			prevRank[rk.SubjectID] = rk.Rank
		}
	}

	names, err := s.departmentNames(ctx)
	if err != nil {
		return nil, err
	}
	ranked := ranking.Rank(current)
	out := make([]activity.RankingEntry, 0, len(ranked))
	for _, rk := range ranked {
		out = append(out, activity.RankingEntry{
			SubjectID:  rk.SubjectID,
			Name:       names[rk.SubjectID],
			TotalSteps: rk.Steps,
			Rank:       rk.Rank,
			Date:       r.End,
			Trend:      activity.TrendOf(rk.Rank, prevRank[rk.SubjectID]),
		})
	}
	if s.cache != nil {
		s.mu.Lock()
		if s.version == version {
			s.cache.Add(key, cloneEntries(out))
		}
		s.mu.Unlock()
	}
	return out, nil
}

// MarkDirty drops cached rankings after a statistics write.
func (s *RankingService) MarkDirty() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.dirty = true
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *RankingService) currentVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// TakeDirty reports whether statistics changed since the last call.
func (s *RankingService) TakeDirty() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}

func (s *RankingService) departmentTotals(ctx context.Context, r calendar.Range) ([]ranking.Total, error) {
	rows, err := s.Repo.SumStepsByDepartment(ctx, dbDate(r.Start), dbDate(r.End))
	if err != nil {
		return nil, err
	}
	out := make([]ranking.Total, 0, len(rows))
	for _, row := range rows {
		out = append(out, ranking.Total{SubjectID: int64(row.DepartmentID), Steps: row.Steps})
	}
	return out, nil
}

func (s *RankingService) departmentNames(ctx context.Context) (map[int64]string, error) {
	items, err := s.Repo.ListDepartments(ctx, repository.ListDepartmentsParams{})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(items))
	for _, d := range items {
		out[int64(d.ID)] = d.Name
	}
	return out, nil
}

func sumSteps(totals []ranking.Total) int64 {
	var n int64
	for _, t := range totals {
		n += t.Steps
	}
	return n
}

func cloneEntries(in []activity.RankingEntry) []activity.RankingEntry {
	out := make([]activity.RankingEntry, len(in))
	copy(out, in)
	return out
}
