package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
)

// PublicMovieHandler serves the unauthenticated catalog surface: the
// paginated movie listing with filters, movie details and the four name
// tables (genres, stars, directors, certifications).
type PublicMovieHandler struct {
	Movies  *repository.MovieRepo
	Catalog *repository.CatalogRepo
	Engage  *repository.EngagementRepo
}

func NewPublicMovieHandler(m *repository.MovieRepo, cat *repository.CatalogRepo, e *repository.EngagementRepo) *PublicMovieHandler {
	return &PublicMovieHandler{Movies: m, Catalog: cat, Engage: e}
}

// ListMovies is the catalog search endpoint.  Filters, sorting and
// pagination all come from query parameters; an unknown sort key is a
// client error and a page past the last one is reported as not found.
func (h *PublicMovieHandler) ListMovies(c echo.Context) error {
	page, perPage := pageParams(c)
	q := repository.MovieSearchQuery{
		Search:        strings.TrimSpace(c.QueryParam("search")),
		Genre:         strings.TrimSpace(c.QueryParam("genre")),
		Certification: strings.TrimSpace(c.QueryParam("certification")),
		SortBy:        strings.TrimSpace(c.QueryParam("sort_by")),
		Page:          page,
		PageSize:      perPage,
	}
	if v := c.QueryParam("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		q.Year = n
	}
	if v := c.QueryParam("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_rating"})
		}
		q.MinRating = f
	}
	if v := c.QueryParam("max_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_rating"})
		}
		q.MaxRating = f
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Movies.Search(ctx, q)
	if err != nil {
		if err == repository.ErrBadSort {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sort_by parameter"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	if len(rows) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no movies found"})
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

// GetMovie returns one movie with its relations and engagement summary.
func (h *PublicMovieHandler) GetMovie(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	genres, directors, stars, err := h.Movies.Relations(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	likes, dislikes, err := h.Engage.ReactionCounts(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	avg, votes, err := h.Engage.AverageRating(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var certName string
	if m.CertificationID != 0 {
		rows, err := h.Catalog.List(ctx, repository.TableCertifications)
		if err == nil {
			for _, r := range rows {
				if r.ID == m.CertificationID {
					certName = r.Name
					break
				}
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":            m.ID,
		"uuid":          m.UUID,
		"name":          m.Name,
		"year":          m.Year,
		"time":          m.Time,
		"imdb":          m.IMDB,
		"votes":         m.Votes,
		"meta_score":    m.MetaScore,
		"gross":         m.Gross,
		"description":   m.Description,
		"price":         m.Price,
		"certification": certName,
		"is_available":  m.IsAvailable,
		"genres":        genres,
		"directors":     directors,
		"stars":         stars,
		"likes":         likes,
		"dislikes":      dislikes,
		"user_rating":   echo.Map{"average": avg, "count": votes},
	})
}

// ListNamed serves the four public name-table listings.  The table is
// fixed per route at registration time.
func (h *PublicMovieHandler) ListNamed(table string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		rows, err := h.Catalog.List(ctx, table)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": rows})
	}
}
