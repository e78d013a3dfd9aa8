package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
)

// CatalogRepo manages the four name tables the catalog hangs off of:
// genres, stars, directors and certifications.  They share one shape
// (id, unique name), so the repo is parameterized by table name drawn
// from a fixed allow-list.
type CatalogRepo struct{ db *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// Table names accepted by CatalogRepo methods.
const (
	TableGenres         = "genres"
	TableStars          = "stars"
	TableDirectors      = "directors"
	TableCertifications = "certifications"
)

var catalogTables = map[string]bool{
	TableGenres:         true,
	TableStars:          true,
	TableDirectors:      true,
	TableCertifications: true,
}

// NamedRow is a generic (id, name) record.
type NamedRow = model.Genre

func checkTable(table string) error {
	if !catalogTables[table] {
		return ErrForbidden
	}
	return nil
}

// List returns all rows of one name table ordered by name.
func (r *CatalogRepo) List(ctx context.Context, table string) ([]NamedRow, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM "+table+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []NamedRow{}
	for rows.Next() {
		var n NamedRow
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Create inserts a new name.  Duplicates map to ErrConflict.
func (r *CatalogRepo) Create(ctx context.Context, table, name string) (uint64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, "INSERT INTO "+table+" (name) VALUES (?)", name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Rename updates the name of a row.
func (r *CatalogRepo) Rename(ctx context.Context, table string, id uint64, name string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE "+table+" SET name=? WHERE id=?", name, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a row unless a movie still references it.
func (r *CatalogRepo) Delete(ctx context.Context, table string, id uint64) error {
	if err := checkTable(table); err != nil {
		return err
	}
	var inUse bool
	var probe string
	switch table {
	case TableGenres:
		probe = "SELECT EXISTS(SELECT 1 FROM movie_genres WHERE genre_id=?)"
	case TableStars:
		probe = "SELECT EXISTS(SELECT 1 FROM movie_stars WHERE star_id=?)"
	case TableDirectors:
		probe = "SELECT EXISTS(SELECT 1 FROM movie_directors WHERE director_id=?)"
	case TableCertifications:
		probe = "SELECT EXISTS(SELECT 1 FROM movies WHERE certification_id=?)"
	}
	if err := r.db.QueryRowContext(ctx, probe, id).Scan(&inUse); err != nil {
		return err
	}
	if inUse {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Exists reports whether a row with the ID is present.
func (r *CatalogRepo) Exists(ctx context.Context, table string, id uint64) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	var ok bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id=?)", id).Scan(&ok)
	return ok, err
}
