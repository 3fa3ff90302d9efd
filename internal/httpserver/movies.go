package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/transport"
	"github.com/labstack/echo/v4"
)

type MovieHTTP struct {
	Svc *service.MovieService
}

type statsAction func(c echo.Context, userID, movieID uint) (*models.MovieStats, error)

// statsHandler wraps the reaction and favorite endpoints, which share the
// same shape: authenticated user, movie id in the path, stats in the reply.
func (h *MovieHTTP) statsHandler(op string, code int, act statsAction) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "movie."+op)

		uid, err := userID(c, l, op)
		if err != nil {
			return err
		}
		movieID, err := pathID(c, "id")
		if err != nil {
			return badRequest(l, op, "invalid id", err)
		}

		st, err := act(c, uid, movieID)
		if err != nil {
			return fail(l, op, err)
		}
		l.Info(op+"_success", "movie_id", movieID)
		return c.JSON(code, st)
	}
}

func (h *MovieHTTP) Like() echo.HandlerFunc {
	return h.statsHandler("like", http.StatusOK, func(c echo.Context, uid, mid uint) (*models.MovieStats, error) {
		return h.Svc.Like(c.Request().Context(), uid, mid)
	})
}

func (h *MovieHTTP) Dislike() echo.HandlerFunc {
	return h.statsHandler("dislike", http.StatusOK, func(c echo.Context, uid, mid uint) (*models.MovieStats, error) {
		return h.Svc.Dislike(c.Request().Context(), uid, mid)
	})
}

func (h *MovieHTTP) RemoveReaction() echo.HandlerFunc {
	return h.statsHandler("remove_reaction", http.StatusOK, func(c echo.Context, uid, mid uint) (*models.MovieStats, error) {
		return h.Svc.RemoveReaction(c.Request().Context(), uid, mid)
	})
}

func (h *MovieHTTP) AddFavorite() echo.HandlerFunc {
	return h.statsHandler("add_favorite", http.StatusCreated, func(c echo.Context, uid, mid uint) (*models.MovieStats, error) {
		return h.Svc.AddFavorite(c.Request().Context(), uid, mid)
	})
}

func (h *MovieHTTP) RemoveFavorite() echo.HandlerFunc {
	return h.statsHandler("remove_favorite", http.StatusOK, func(c echo.Context, uid, mid uint) (*models.MovieStats, error) {
		return h.Svc.RemoveFavorite(c.Request().Context(), uid, mid)
	})
}

func (h *MovieHTTP) RateMovie(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movie.rate_movie")

	uid, err := userID(c, l, "rate_movie")
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "rate_movie", "invalid id", err)
	}
	var req transport.RateMovieRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "rate_movie", "invalid body", err)
	}

	st, err := h.Svc.RateMovie(ctx, uid, movieID, req.Rating)
	if err != nil {
		return fail(l, "rate_movie", err)
	}
	l.Info("rate_movie_success", "movie_id", movieID, "rating", req.Rating)
	return c.JSON(http.StatusOK, transport.NewRatingResponse(movieID, st))
}

func (h *MovieHTTP) DeleteRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movie.delete_rating")

	uid, err := userID(c, l, "delete_rating")
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "delete_rating", "invalid id", err)
	}

	st, err := h.Svc.DeleteRating(ctx, uid, movieID)
	if err != nil {
		return fail(l, "delete_rating", err)
	}
	return c.JSON(http.StatusOK, transport.NewRatingResponse(movieID, st))
}

func (h *MovieHTTP) AddComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movie.add_comment")

	uid, err := userID(c, l, "add_comment")
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "add_comment", "invalid id", err)
	}
	var req transport.CommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_comment", "invalid body", err)
	}

	cm, err := h.Svc.AddComment(ctx, uid, movieID, req.Content, req.ParentID)
	if err != nil {
		return fail(l, "add_comment", err)
	}
	l.Info("add_comment_success", "movie_id", movieID, "comment_id", cm.ID)
	return c.JSON(http.StatusCreated, cm)
}

func (h *MovieHTTP) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movie.delete_comment")

	uid, err := userID(c, l, "delete_comment")
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "id")
	if err != nil {
		return badRequest(l, "delete_comment", "invalid id", err)
	}
	commentID, err := pathID(c, "comment_id")
	if err != nil {
		return badRequest(l, "delete_comment", "invalid comment_id", err)
	}

	if err := h.Svc.DeleteComment(ctx, uid, movieID, commentID); err != nil {
		return fail(l, "delete_comment", err)
	}
	return c.NoContent(http.StatusNoContent)
}
