package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/online_cinema/internal/models"
)

func (r *GormRepo) GetMovie(ctx context.Context, id uint) (*models.Movie, error) {
	var m models.Movie
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMovieByName matches names case-insensitively after trimming spaces.
func (r *GormRepo) GetMovieByName(ctx context.Context, name string) (*models.Movie, error) {
	var m models.Movie
	err := r.DB.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("id").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepo) MovieStats(ctx context.Context, ids ...uint) ([]models.MovieStats, error) {
	var stats []models.MovieStats
	q := r.DB.WithContext(ctx).Model(&models.Movie{}).
		Select("id, name, like_count, favorite_count, comment_count, rating_count, rating_average").
		Order("id")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// MoviesByIDs returns the movies that still exist, ordered by id.
func (r *GormRepo) MoviesByIDs(ctx context.Context, ids []uint) ([]models.Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var movies []models.Movie
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&movies).Error
	return movies, err
}
