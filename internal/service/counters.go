package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/online_cinema/internal/counters"
	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
)

// StatsSink receives reconciled counters, e.g. a search index.
type StatsSink interface {
	IndexMovieStats(ctx context.Context, stats []models.MovieStats) error
}

type CounterService struct {
	repo *repo.GormRepo
	sink StatsSink
}

// NewCounterService accepts a nil sink when no projection is configured.
func NewCounterService(r *repo.GormRepo, sink StatsSink) *CounterService {
	return &CounterService{repo: r, sink: sink}
}

func (s *CounterService) IncrementCounter(ctx context.Context, movieID uint, counter counters.Counter, delta int64) error {
	if _, err := counter.Column(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.repo.IncrementCounter(ctx, movieID, counter, delta); err != nil {
		return notFoundOr(err, "movie not found")
	}
	return nil
}

func (s *CounterService) UpdateRatingStats(ctx context.Context, movieID uint, old, next *int) (counters.RatingStats, error) {
	for _, v := range []*int{old, next} {
		if v != nil && (*v < minRating || *v > maxRating) {
			return counters.RatingStats{}, fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, minRating, maxRating)
		}
	}
	stats, err := s.repo.UpdateRatingStats(ctx, movieID, old, next)
	if err != nil {
		return counters.RatingStats{}, notFoundOr(err, "movie not found")
	}
	return stats, nil
}

// BackfillAllCounters recomputes every movie's counters from the source
// tables and returns how many movies were reconciled. The search projection
// is refreshed afterwards; its failure does not undo the backfill.
func (s *CounterService) BackfillAllCounters(ctx context.Context) (int64, error) {
	l := logging.FromContext(ctx)

	n, err := s.repo.BackfillCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("backfill counters: %w", err)
	}
	l.Info("counters_backfilled", "movies", n)

	if s.sink == nil {
		return n, nil
	}
	stats, err := s.repo.MovieStats(ctx)
	if err != nil {
		l.Warn("counters_projection_error", "error", err)
		return n, nil
	}
	if err := s.sink.IndexMovieStats(ctx, stats); err != nil {
		l.Warn("counters_projection_error", "error", err)
	}
	return n, nil
}
