package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Skotchmaster/online_cinema/internal/counters"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
)

const (
	minRating        = 1
	maxRating        = 10
	maxCommentLength = 2000
)

// MovieService applies user engagement actions and keeps the movie
// counters in step with them.
type MovieService struct {
	repo *repo.GormRepo
}

func NewMovieService(r *repo.GormRepo) *MovieService {
	return &MovieService{repo: r}
}

func (s *MovieService) ensureMovie(ctx context.Context, movieID uint) error {
	if _, err := s.repo.GetMovie(ctx, movieID); err != nil {
		return notFoundOr(err, "movie not found")
	}
	return nil
}

func (s *MovieService) stats(ctx context.Context, movieID uint) (*models.MovieStats, error) {
	st, err := s.repo.MovieStats(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if len(st) == 0 {
		return nil, fmt.Errorf("%w: movie not found", ErrNotFound)
	}
	return &st[0], nil
}

func (s *MovieService) react(ctx context.Context, userID, movieID uint, next counters.Reaction) (*models.MovieStats, error) {
	if err := s.ensureMovie(ctx, movieID); err != nil {
		return nil, err
	}
	prev, err := s.repo.SetReaction(ctx, userID, movieID, next)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		return nil, fmt.Errorf("%w: reaction changed concurrently", ErrConflict)
	case err != nil:
		return nil, notFoundOr(err, "movie not found")
	}
	if next == counters.ReactionNone && prev == counters.ReactionNone {
		return nil, fmt.Errorf("%w: no reaction to remove", ErrNotFound)
	}
	return s.stats(ctx, movieID)
}

func (s *MovieService) Like(ctx context.Context, userID, movieID uint) (*models.MovieStats, error) {
	return s.react(ctx, userID, movieID, counters.ReactionLike)
}

func (s *MovieService) Dislike(ctx context.Context, userID, movieID uint) (*models.MovieStats, error) {
	return s.react(ctx, userID, movieID, counters.ReactionDislike)
}

func (s *MovieService) RemoveReaction(ctx context.Context, userID, movieID uint) (*models.MovieStats, error) {
	return s.react(ctx, userID, movieID, counters.ReactionNone)
}

func (s *MovieService) AddFavorite(ctx context.Context, userID, movieID uint) (*models.MovieStats, error) {
	if err := s.ensureMovie(ctx, movieID); err != nil {
		return nil, err
	}
	err := s.repo.AddFavorite(ctx, userID, movieID)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		return nil, fmt.Errorf("%w: movie already in favorites", ErrConflict)
	case err != nil:
		return nil, notFoundOr(err, "movie not found")
	}
	return s.stats(ctx, movieID)
}

func (s *MovieService) RemoveFavorite(ctx context.Context, userID, movieID uint) (*models.MovieStats, error) {
	if err := s.repo.RemoveFavorite(ctx, userID, movieID); err != nil {
		return nil, notFoundOr(err, "movie not in favorites")
	}
	return s.stats(ctx, movieID)
}

func (s *MovieService) RateMovie(ctx context.Context, userID, movieID uint, rating int) (counters.RatingStats, error) {
	if rating < minRating || rating > maxRating {
		return counters.RatingStats{}, fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, minRating, maxRating)
	}
	_, stats, err := s.repo.RateMovie(ctx, userID, movieID, rating)
	if err != nil {
		return counters.RatingStats{}, notFoundOr(err, "movie not found")
	}
	return stats, nil
}

func (s *MovieService) DeleteRating(ctx context.Context, userID, movieID uint) (counters.RatingStats, error) {
	stats, err := s.repo.DeleteRating(ctx, userID, movieID)
	if err != nil {
		return counters.RatingStats{}, notFoundOr(err, "rating not found")
	}
	return stats, nil
}

func (s *MovieService) AddComment(ctx context.Context, userID, movieID uint, content string, parentID *uint) (*models.MovieComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content required", ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, fmt.Errorf("%w: content longer than %d characters", ErrValidation, maxCommentLength)
	}
	if err := s.ensureMovie(ctx, movieID); err != nil {
		return nil, err
	}

	c := &models.MovieComment{MovieID: movieID, UserID: userID, ParentID: parentID, Content: content}
	err := s.repo.AddComment(ctx, c)
	switch {
	case errors.Is(err, repo.ErrInvalidParent):
		return nil, fmt.Errorf("%w: parent comment does not belong to this movie", ErrValidation)
	case err != nil:
		return nil, notFoundOr(err, "movie not found")
	}
	return c, nil
}

func (s *MovieService) DeleteComment(ctx context.Context, userID, movieID, commentID uint) error {
	if err := s.repo.DeleteComment(ctx, userID, movieID, commentID); err != nil {
		return notFoundOr(err, "comment not found")
	}
	return nil
}
