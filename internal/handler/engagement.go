package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
	"github.com/AntonKrinichnyi/CineFlow/internal/queue"
	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
	queue_publisher "github.com/AntonKrinichnyi/CineFlow/internal/service"
)

// EngagementHandler covers per-user interactions with catalog titles:
// like/dislike toggles, comments and replies, ratings and favorites.
type EngagementHandler struct {
	Engage *repository.EngagementRepo
	Movies *repository.MovieRepo
}

func NewEngagementHandler(e *repository.EngagementRepo, m *repository.MovieRepo) *EngagementHandler {
	return &EngagementHandler{Engage: e, Movies: m}
}

// movieExists resolves the movie or writes the 404/500 response itself.
func (h *EngagementHandler) movieExists(ctx context.Context, c echo.Context, id uint64) (model.Movie, bool) {
	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return model.Movie{}, false
	}
	return m, true
}

// React toggles a like or dislike.  Setting one clears the other; sending
// the same reaction twice removes it.  The response carries the resulting
// state and fresh counters.
func (h *EngagementHandler) React(like bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		movieID := pathID(c, "id")
		if movieID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if _, ok := h.movieExists(ctx, c, movieID); !ok {
			return nil
		}

		state, err := h.Engage.SetReaction(ctx, uid, movieID, like)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reaction failed"})
		}
		likes, dislikes, err := h.Engage.ReactionCounts(ctx, movieID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"reaction": state,
			"likes":    likes,
			"dislikes": dislikes,
		})
	}
}

type commentReq struct {
	Text     string  `json:"text"`
	ParentID *uint64 `json:"parent_id"`
}

// AddComment posts a comment, optionally as a reply.  Replying queues a
// notification email to the parent comment's author.
func (h *EngagementHandler) AddComment(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID := pathID(c, "id")
	if movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, ok := h.movieExists(ctx, c, movieID)
	if !ok {
		return nil
	}

	// A reply must point at a comment on the same movie.
	var parentAuthorID uint64
	var parentAuthorEmail string
	if req.ParentID != nil {
		parentAuthorID, parentAuthorEmail, err = h.Engage.CommentAuthor(ctx, *req.ParentID, movieID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent comment not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	id, err := h.Engage.AddComment(ctx, uid, movieID, req.ParentID, strings.TrimSpace(req.Text))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "comment failed"})
	}

	// Replying to yourself is fine but not worth an email.
	if req.ParentID != nil && parentAuthorID != uid {
		_ = queue_publisher.PublishEmailEvent(ctx, queue.EmailEvent{
			Kind:      queue.KindCommentReply,
			To:        parentAuthorEmail,
			MovieName: m.Name,
			CommentID: id,
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// ListComments returns all comments of a movie, oldest first.  Public.
func (h *EngagementHandler) ListComments(c echo.Context) error {
	movieID := pathID(c, "id")
	if movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.movieExists(ctx, c, movieID); !ok {
		return nil
	}
	comments, err := h.Engage.ListComments(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

type ratingReq struct {
	Rating int `json:"rating"`
}

// Rate upserts the caller's 1..10 rating of a movie.
func (h *EngagementHandler) Rate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID := pathID(c, "id")
	if movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req ratingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating < model.RatingMin || req.Rating > model.RatingMax {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 10"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.movieExists(ctx, c, movieID); !ok {
		return nil
	}
	if err := h.Engage.UpsertRating(ctx, uid, movieID, req.Rating); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rating failed"})
	}
	avg, count, err := h.Engage.AverageRating(ctx, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"average": avg, "count": count})
}

// AddFavorite saves a movie to the caller's favorites.
func (h *EngagementHandler) AddFavorite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID := pathID(c, "id")
	if movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.movieExists(ctx, c, movieID); !ok {
		return nil
	}
	if err := h.Engage.AddFavorite(ctx, uid, movieID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already in favorites"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "favorite failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "added to favorites"})
}

// RemoveFavorite drops a movie from the caller's favorites.
func (h *EngagementHandler) RemoveFavorite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID := pathID(c, "id")
	if movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engage.RemoveFavorite(ctx, uid, movieID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not in favorites"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListFavorites pages through the caller's saved movies.
func (h *EngagementHandler) ListFavorites(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, perPage := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Engage.ListFavorites(ctx, uid, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	totalPages := (total + int64(perPage) - 1) / int64(perPage)
	return c.JSON(http.StatusOK, echo.Map{
		"movies":      rows,
		"total":       total,
		"page":        page,
		"per_page":    perPage,
		"total_pages": totalPages,
	})
}
