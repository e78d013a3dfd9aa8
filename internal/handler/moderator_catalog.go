package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/AntonKrinichnyi/CineFlow/internal/queue"
	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
	queue_publisher "github.com/AntonKrinichnyi/CineFlow/internal/service"
)

// ModeratorCatalogHandler covers the write side of the catalog: movie
// CRUD plus the four name tables.  All routes require MODERATOR or ADMIN.
type ModeratorCatalogHandler struct {
	Movies  *repository.MovieRepo
	Catalog *repository.CatalogRepo
}

func NewModeratorCatalogHandler(m *repository.MovieRepo, cat *repository.CatalogRepo) *ModeratorCatalogHandler {
	return &ModeratorCatalogHandler{Movies: m, Catalog: cat}
}

type movieReq struct {
	Name            string   `json:"name"`
	Year            int      `json:"year"`
	Time            int      `json:"time"`
	IMDB            float64  `json:"imdb"`
	Votes           int      `json:"votes"`
	MetaScore       float64  `json:"meta_score"`
	Gross           float64  `json:"gross"`
	Description     string   `json:"description"`
	Price           string   `json:"price"`
	CertificationID uint64   `json:"certification_id"`
	IsAvailable     *bool    `json:"is_available"`
	GenreIDs        []uint64 `json:"genre_ids"`
	DirectorIDs     []uint64 `json:"director_ids"`
	StarIDs         []uint64 `json:"star_ids"`
}

// toInput validates the request and converts it into a repository input.
func (req *movieReq) toInput() (repository.MovieInput, string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return repository.MovieInput{}, "name required"
	}
	if req.Year < 1888 || req.Year > time.Now().Year()+5 {
		return repository.MovieInput{}, "invalid year"
	}
	if req.Time <= 0 {
		return repository.MovieInput{}, "invalid runtime"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return repository.MovieInput{}, "invalid price"
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return repository.MovieInput{
		Name:            req.Name,
		Year:            req.Year,
		Time:            req.Time,
		IMDB:            req.IMDB,
		Votes:           req.Votes,
		MetaScore:       req.MetaScore,
		Gross:           req.Gross,
		Description:     req.Description,
		Price:           price,
		CertificationID: req.CertificationID,
		IsAvailable:     available,
		GenreIDs:        req.GenreIDs,
		DirectorIDs:     req.DirectorIDs,
		StarIDs:         req.StarIDs,
	}, ""
}

// CreateMovie inserts a movie with its relations.
func (h *ModeratorCatalogHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, msg := req.toInput()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if in.CertificationID != 0 {
		ok, err := h.Catalog.Exists(ctx, repository.TableCertifications, in.CertificationID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown certification_id"})
		}
	}

	id, err := h.Movies.Create(ctx, in)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie with the same name, year and runtime exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateMovie replaces a movie's fields and relation links.
func (h *ModeratorCatalogHandler) UpdateMovie(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, msg := req.toInput()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Movies.Update(ctx, id, in); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie with the same name, year and runtime exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update movie failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMovie removes a movie unless a paid order references it.  Users
// whose carts held the movie get a queued notice and the response warns
// about how many carts were touched.
func (h *ModeratorCatalogHandler) DeleteMovie(c echo.Context) error {
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

	owners, err := h.Movies.Delete(ctx, id)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		case repository.ErrMoviePurchased:
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie has been purchased and cannot be deleted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete movie failed"})
	}

	for _, o := range owners {
		_ = queue_publisher.PublishEmailEvent(ctx, queue.EmailEvent{
			Kind:      queue.KindCartMovieRemoved,
			To:        o.Email,
			MovieName: m.Name,
		})
	}

	resp := echo.Map{"message": "movie deleted"}
	if len(owners) > 0 {
		resp["warning"] = echo.Map{
			"carts_affected": len(owners),
			"detail":         "the movie was removed from user carts and the owners were notified",
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// ----- name tables -----

type nameReq struct {
	Name string `json:"name"`
}

// CreateNamed inserts a row into one of the name tables.
func (h *ModeratorCatalogHandler) CreateNamed(table string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req nameReq
		if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		id, err := h.Catalog.Create(ctx, table, strings.TrimSpace(req.Name))
		if err != nil {
			if err == repository.ErrConflict {
				return c.JSON(http.StatusConflict, echo.Map{"error": "name already exists"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
		}
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
}

// RenameNamed updates the name of a row in one of the name tables.
func (h *ModeratorCatalogHandler) RenameNamed(table string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := pathID(c, "id")
		if id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		var req nameReq
		if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := h.Catalog.Rename(ctx, table, id, strings.TrimSpace(req.Name)); err != nil {
			switch err {
			case sql.ErrNoRows:
				return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
			case repository.ErrConflict:
				return c.JSON(http.StatusConflict, echo.Map{"error": "name already exists"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rename failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// DeleteNamed removes a row from one of the name tables unless a movie
// still links to it.
func (h *ModeratorCatalogHandler) DeleteNamed(table string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := pathID(c, "id")
		if id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := h.Catalog.Delete(ctx, table, id); err != nil {
			switch err {
			case sql.ErrNoRows:
				return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
			case repository.ErrConflict:
				return c.JSON(http.StatusConflict, echo.Map{"error": "still referenced by movies"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
}
