package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MovieSearchQuery defines filters & pagination for browsing the catalog.
type MovieSearchQuery struct {
	Search        string
	Genre         string
	Year          int
	Certification string
	MinRating     float64
	MaxRating     float64
	SortBy        string
	Page          int
	PageSize      int
}

// ErrBadSort is returned when sort_by names an unknown column.
var ErrBadSort = errors.New("invalid sort_by parameter")

// sortColumns maps public sort keys to catalog columns.
var sortColumns = map[string]string{
	"price": "m.price",
	"year":  "m.year",
	"imdb":  "m.imdb",
	"votes": "m.votes",
}

// MovieListRow is one catalog listing entry.
type MovieListRow struct {
	ID          uint64          `json:"id"`
	UUID        string          `json:"uuid"`
	Name        string          `json:"name"`
	Year        int             `json:"year"`
	Time        int             `json:"time"`
	IMDB        float64         `json:"imdb"`
	Votes       int             `json:"votes"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// buildMovieFilters assembles the WHERE condition and ORDER BY clause for
// a catalog query.  Kept separate from the query execution so the
// assembly is testable without a database.
func buildMovieFilters(q MovieSearchQuery) (cond string, orderBy string, args []any, err error) {
	where := []string{}

	if q.MinRating > 0 {
		where = append(where, "m.imdb >= ?")
		args = append(args, q.MinRating)
	}
	if q.MaxRating > 0 {
		where = append(where, "m.imdb <= ?")
		args = append(args, q.MaxRating)
	}
	if q.Year > 0 {
		where = append(where, "m.year = ?")
		args = append(args, q.Year)
	}
	if q.Genre != "" {
		where = append(where,
			"EXISTS (SELECT 1 FROM movie_genres mg JOIN genres g ON g.id=mg.genre_id WHERE mg.movie_id=m.id AND g.name=?)")
		args = append(args, q.Genre)
	}
	if q.Certification != "" {
		where = append(where,
			"EXISTS (SELECT 1 FROM certifications ct WHERE ct.id=m.certification_id AND ct.name=?)")
		args = append(args, q.Certification)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, `(LOWER(m.name) LIKE ? OR LOWER(m.description) LIKE ?
			OR EXISTS (SELECT 1 FROM movie_directors md JOIN directors d ON d.id=md.director_id WHERE md.movie_id=m.id AND LOWER(d.name) LIKE ?)
			OR EXISTS (SELECT 1 FROM movie_stars ms JOIN stars s ON s.id=ms.star_id WHERE ms.movie_id=m.id AND LOWER(s.name) LIKE ?))`)
		args = append(args, like, like, like, like)
	}

	cond = "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	orderBy = "m.year DESC"
	if q.SortBy != "" {
		dir := "ASC"
		key := q.SortBy
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			key = strings.TrimPrefix(key, "-")
		}
		col, ok := sortColumns[key]
		if !ok {
			return "", "", nil, ErrBadSort
		}
		orderBy = col + " " + dir
	}
	return cond, orderBy, args, nil
}

// Search returns one catalog page and the total row count for the filters.
func (r *MovieRepo) Search(ctx context.Context, q MovieSearchQuery) ([]MovieListRow, int64, error) {
	cond, orderBy, args, err := buildMovieFilters(q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countSQL := "SELECT COUNT(DISTINCT m.id) FROM movies m WHERE " + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT m.id, m.uuid, m.name, m.year, m.time, m.imdb, m.votes, m.price, m.is_available
		FROM movies m
		WHERE ` + cond + `
		ORDER BY ` + orderBy + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]MovieListRow, 0, limit)
	for rows.Next() {
		var d MovieListRow
		if err := rows.Scan(&d.ID, &d.UUID, &d.Name, &d.Year, &d.Time, &d.IMDB, &d.Votes, &d.Price, &d.IsAvailable); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
