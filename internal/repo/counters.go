package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/online_cinema/internal/counters"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IncrementCounter applies delta to one counter column in a single UPDATE.
// The result is floored at zero by the database, never in Go.
func (r *GormRepo) IncrementCounter(ctx context.Context, movieID uint, c counters.Counter, delta int64) error {
	return incrementCounter(r.DB.WithContext(ctx), movieID, c, delta)
}

func incrementCounter(tx *gorm.DB, movieID uint, c counters.Counter, delta int64) error {
	col, err := c.Column()
	if err != nil {
		return err
	}
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", col), delta, delta)
	res := tx.Model(&models.Movie{}).Where("id = ?", movieID).UpdateColumn(col, expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// applyRatingChange locks the movie row and folds one rating change into its stats.
func applyRatingChange(tx *gorm.DB, movieID uint, old, next *int) (counters.RatingStats, error) {
	var m models.Movie
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id, rating_count, rating_average").
		First(&m, movieID).Error; err != nil {
		return counters.RatingStats{}, err
	}
	stats := counters.NextRatingStats(counters.RatingStats{Count: m.RatingCount, Average: m.RatingAverage}, old, next)
	if err := tx.Model(&models.Movie{}).Where("id = ?", movieID).UpdateColumns(map[string]any{
		"rating_count":   stats.Count,
		"rating_average": stats.Average,
	}).Error; err != nil {
		return counters.RatingStats{}, err
	}
	return stats, nil
}

// UpdateRatingStats applies the incremental rating algebra to a movie.
func (r *GormRepo) UpdateRatingStats(ctx context.Context, movieID uint, old, next *int) (counters.RatingStats, error) {
	var stats counters.RatingStats
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stats, err = applyRatingChange(tx, movieID, old, next)
		return err
	})
	return stats, err
}

const backfillSQL = `
UPDATE movies SET
	like_count = (SELECT COUNT(*) FROM movie_reactions r WHERE r.movie_id = movies.id AND r.is_like = ?),
	favorite_count = (SELECT COUNT(*) FROM favorite_movies f WHERE f.movie_id = movies.id),
	comment_count = (SELECT COUNT(*) FROM movie_comments c WHERE c.movie_id = movies.id),
	rating_count = (SELECT COUNT(*) FROM movie_ratings mr WHERE mr.movie_id = movies.id),
	rating_average = COALESCE((SELECT ROUND(CAST(AVG(mr.rating) AS NUMERIC), 2) FROM movie_ratings mr WHERE mr.movie_id = movies.id), 0)`

// BackfillCounters recomputes every movie's counters from the source tables.
// Movies without source rows end up at zero. Safe to re-run.
func (r *GormRepo) BackfillCounters(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(backfillSQL, true)
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		return nil
	})
	return n, err
}

// SetReaction moves the user's reaction on a movie to next and adjusts
// like_count by the matching delta in the same transaction.
func (r *GormRepo) SetReaction(ctx context.Context, userID, movieID uint, next counters.Reaction) (counters.Reaction, error) {
	prev := counters.ReactionNone
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.MovieReaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND movie_id = ?", userID, movieID).
			First(&row).Error
		switch {
		case err == nil:
			prev = counters.ReactionFromLike(row.IsLike)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if prev == next {
			return nil
		}

		switch {
		case next == counters.ReactionNone:
			if err := tx.Delete(&models.MovieReaction{}, "user_id = ? AND movie_id = ?", userID, movieID).Error; err != nil {
				return err
			}
		case prev == counters.ReactionNone:
			row = models.MovieReaction{UserID: userID, MovieID: movieID, IsLike: next == counters.ReactionLike}
			if err := tx.Create(&row).Error; err != nil {
				return duplicateOr(err)
			}
		default:
			if err := tx.Model(&models.MovieReaction{}).
				Where("user_id = ? AND movie_id = ?", userID, movieID).
				Update("is_like", next == counters.ReactionLike).Error; err != nil {
				return err
			}
		}

		if d := counters.LikeDelta(prev, next); d != 0 {
			return incrementCounter(tx, movieID, counters.Likes, d)
		}
		return nil
	})
	return prev, err
}

func (r *GormRepo) AddFavorite(ctx context.Context, userID, movieID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.FavoriteMovie{UserID: userID, MovieID: movieID}).Error; err != nil {
			return duplicateOr(err)
		}
		return incrementCounter(tx, movieID, counters.Favorites, 1)
	})
}

func (r *GormRepo) RemoveFavorite(ctx context.Context, userID, movieID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.FavoriteMovie{}, "user_id = ? AND movie_id = ?", userID, movieID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return incrementCounter(tx, movieID, counters.Favorites, -1)
	})
}

// RateMovie inserts or replaces the user's rating and returns the previous
// value (nil on first rating) together with the new movie stats.
func (r *GormRepo) RateMovie(ctx context.Context, userID, movieID uint, rating int) (*int, counters.RatingStats, error) {
	var (
		old   *int
		stats counters.RatingStats
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock the movie first so rating changes on it are serialized
		var m models.Movie
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&m, movieID).Error; err != nil {
			return err
		}

		var row models.MovieRating
		err := tx.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&row).Error
		switch {
		case err == nil:
			prev := row.Rating
			old = &prev
			if err := tx.Model(&models.MovieRating{}).
				Where("user_id = ? AND movie_id = ?", userID, movieID).
				Update("rating", rating).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.MovieRating{UserID: userID, MovieID: movieID, Rating: rating}).Error; err != nil {
				return duplicateOr(err)
			}
		default:
			return err
		}

		next := rating
		stats, err = applyRatingChange(tx, movieID, old, &next)
		return err
	})
	return old, stats, err
}

func (r *GormRepo) DeleteRating(ctx context.Context, userID, movieID uint) (counters.RatingStats, error) {
	var stats counters.RatingStats
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Movie
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&m, movieID).Error; err != nil {
			return err
		}
		var row models.MovieRating
		if err := tx.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&row).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.MovieRating{}, "user_id = ? AND movie_id = ?", userID, movieID).Error; err != nil {
			return err
		}
		old := row.Rating
		var err error
		stats, err = applyRatingChange(tx, movieID, &old, nil)
		return err
	})
	return stats, err
}

func (r *GormRepo) AddComment(ctx context.Context, c *models.MovieComment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.ParentID != nil {
			var parent models.MovieComment
			if err := tx.Select("id, movie_id").First(&parent, *c.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInvalidParent
				}
				return err
			}
			if parent.MovieID != c.MovieID {
				return ErrInvalidParent
			}
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return incrementCounter(tx, c.MovieID, counters.Comments, 1)
	})
}

// DeleteComment removes a comment written by userID. Replies are re-attached
// to the thread root so they stay visible.
func (r *GormRepo) DeleteComment(ctx context.Context, userID, movieID, commentID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.MovieComment
		if err := tx.Where("id = ? AND movie_id = ? AND user_id = ?", commentID, movieID, userID).First(&c).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.MovieComment{}).
			Where("parent_id = ?", c.ID).
			Update("parent_id", c.ParentID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&c).Error; err != nil {
			return err
		}
		return incrementCounter(tx, c.MovieID, counters.Comments, -1)
	})
}
