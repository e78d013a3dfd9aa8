package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/AntonKrinichnyi/CineFlow/internal/model"
)

// MovieRepo provides CRUD for movies and their genre/director/star links.
// Relation rewrites happen inside one transaction so a movie is never
// visible with half of its links.
type MovieRepo struct{ db *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// MovieInput carries the writable movie fields plus the IDs of linked
// rows.  Handlers validate the referenced IDs exist before calling.
type MovieInput struct {
    Name            string
    Year            int
    Time            int
    IMDB            float64
    Votes           int
    MetaScore       float64
    Gross           float64
    Description     string
    Price           decimal.Decimal
    CertificationID uint64
    IsAvailable     bool
    GenreIDs        []uint64
    DirectorIDs     []uint64
    StarIDs         []uint64
}

// Create inserts a movie and its relation rows, returning the new ID.
// A duplicate (name, year, time) triple maps to ErrConflict.
func (r *MovieRepo) Create(ctx context.Context, in MovieInput) (uint64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    defer func() { _ = tx.Rollback() }()

    res, err := tx.ExecContext(ctx,
        `INSERT INTO movies (uuid, name, year, time, imdb, votes, meta_score, gross, description, price, certification_id, is_available)
         VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
        uuid.NewString(), in.Name, in.Year, in.Time, in.IMDB, in.Votes, in.MetaScore,
        in.Gross, in.Description, in.Price, in.CertificationID, in.IsAvailable)
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
    movieID := uint64(id)
    if err := replaceLinksTx(ctx, tx, "movie_genres", "genre_id", movieID, in.GenreIDs); err != nil {
        return 0, err
    }
    if err := replaceLinksTx(ctx, tx, "movie_directors", "director_id", movieID, in.DirectorIDs); err != nil {
        return 0, err
    }
    if err := replaceLinksTx(ctx, tx, "movie_stars", "star_id", movieID, in.StarIDs); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    return movieID, nil
}

// Update rewrites the movie columns and all relation rows.
func (r *MovieRepo) Update(ctx context.Context, id uint64, in MovieInput) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    res, err := tx.ExecContext(ctx,
        `UPDATE movies SET name=?, year=?, time=?, imdb=?, votes=?, meta_score=?, gross=?,
                description=?, price=?, certification_id=?, is_available=?
         WHERE id=?`,
        in.Name, in.Year, in.Time, in.IMDB, in.Votes, in.MetaScore, in.Gross,
        in.Description, in.Price, in.CertificationID, in.IsAvailable, id)
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
        // Distinguish "no such movie" from "nothing changed".
        var exists bool
        if err := tx.QueryRowContext(ctx,
            "SELECT EXISTS(SELECT 1 FROM movies WHERE id=?)", id).Scan(&exists); err != nil {
            return err
        }
        if !exists {
            return sql.ErrNoRows
        }
    }
    if err := replaceLinksTx(ctx, tx, "movie_genres", "genre_id", id, in.GenreIDs); err != nil {
        return err
    }
    if err := replaceLinksTx(ctx, tx, "movie_directors", "director_id", id, in.DirectorIDs); err != nil {
        return err
    }
    if err := replaceLinksTx(ctx, tx, "movie_stars", "star_id", id, in.StarIDs); err != nil {
        return err
    }
    return tx.Commit()
}

// replaceLinksTx rewrites the join table rows linking a movie to one of
// the name tables, using a single multi-row insert.
func replaceLinksTx(ctx context.Context, tx *sql.Tx, table, column string, movieID uint64, ids []uint64) error {
    if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE movie_id=?", movieID); err != nil {
        return err
    }
    if len(ids) == 0 {
        return nil
    }
    query := "INSERT INTO " + table + " (movie_id, " + column + ") VALUES "
    args := make([]interface{}, 0, len(ids)*2)
    for i, lid := range ids {
        if i > 0 {
            query += ","
        }
        query += "(?,?)"
        args = append(args, movieID, lid)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID loads a movie row without relations.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
    var m model.Movie
    err := r.db.QueryRowContext(ctx,
        `SELECT id, uuid, name, year, time, imdb, votes, meta_score, gross, description,
                price, certification_id, is_available, created_at, updated_at
         FROM movies WHERE id=? LIMIT 1`, id).
        Scan(&m.ID, &m.UUID, &m.Name, &m.Year, &m.Time, &m.IMDB, &m.Votes, &m.MetaScore,
            &m.Gross, &m.Description, &m.Price, &m.CertificationID, &m.IsAvailable,
            &m.CreatedAt, &m.UpdatedAt)
    return m, err
}

// Relations loads the linked genre, director and star names for a movie.
func (r *MovieRepo) Relations(ctx context.Context, movieID uint64) (genres, directors, stars []string, err error) {
    load := func(query string) ([]string, error) {
        rows, err := r.db.QueryContext(ctx, query, movieID)
        if err != nil {
            return nil, err
        }
        defer rows.Close()
        out := []string{}
        for rows.Next() {
            var name string
            if err := rows.Scan(&name); err != nil {
                return nil, err
            }
            out = append(out, name)
        }
        return out, rows.Err()
    }
    if genres, err = load(
        "SELECT g.name FROM genres g JOIN movie_genres mg ON mg.genre_id=g.id WHERE mg.movie_id=? ORDER BY g.name"); err != nil {
        return nil, nil, nil, err
    }
    if directors, err = load(
        "SELECT d.name FROM directors d JOIN movie_directors md ON md.director_id=d.id WHERE md.movie_id=? ORDER BY d.name"); err != nil {
        return nil, nil, nil, err
    }
    if stars, err = load(
        "SELECT s.name FROM stars s JOIN movie_stars ms ON ms.star_id=s.id WHERE ms.movie_id=? ORDER BY s.name"); err != nil {
        return nil, nil, nil, err
    }
    return genres, directors, stars, nil
}

// CartOwner identifies a user whose cart referenced a deleted movie.
type CartOwner struct {
    UserID uint64
    Email  string
    CartID uint64
}

// Delete removes a movie unless it is referenced by a paid order.  Cart
// rows pointing at the movie are removed in the same transaction and the
// affected cart owners returned so the caller can queue notices.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) ([]CartOwner, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    defer func() { _ = tx.Rollback() }()

    var exists bool
    if err := tx.QueryRowContext(ctx,
        "SELECT EXISTS(SELECT 1 FROM movies WHERE id=?)", id).Scan(&exists); err != nil {
        return nil, err
    }
    if !exists {
        return nil, sql.ErrNoRows
    }

    var purchased bool
    if err := tx.QueryRowContext(ctx,
        `SELECT EXISTS(
            SELECT 1 FROM order_items oi
            JOIN orders o ON o.id = oi.order_id
            WHERE oi.movie_id=? AND o.status=?)`,
        id, model.OrderStatusPaid).Scan(&purchased); err != nil {
        return nil, err
    }
    if purchased {
        return nil, ErrMoviePurchased
    }

    rows, err := tx.QueryContext(ctx,
        `SELECT u.id, u.email, c.id
         FROM cart_items ci
         JOIN carts c ON c.id = ci.cart_id
         JOIN users u ON u.id = c.user_id
         WHERE ci.movie_id=?`, id)
    if err != nil {
        return nil, err
    }
    owners := []CartOwner{}
    for rows.Next() {
        var o CartOwner
        if err := rows.Scan(&o.UserID, &o.Email, &o.CartID); err != nil {
            rows.Close()
            return nil, err
        }
        owners = append(owners, o)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return nil, err
    }
    rows.Close()

    for _, stmt := range []string{
        "DELETE FROM cart_items WHERE movie_id=?",
        "DELETE FROM movie_genres WHERE movie_id=?",
        "DELETE FROM movie_directors WHERE movie_id=?",
        "DELETE FROM movie_stars WHERE movie_id=?",
        "DELETE FROM comments WHERE movie_id=?",
        "DELETE FROM ratings WHERE movie_id=?",
        "DELETE FROM likes WHERE movie_id=?",
        "DELETE FROM dislikes WHERE movie_id=?",
        "DELETE FROM favorites WHERE movie_id=?",
        "DELETE FROM movies WHERE id=?",
    } {
        if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
            return nil, err
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    return owners, nil
}
