package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// EngagementRepo covers the per-user catalog interactions: likes and
// dislikes (mutually exclusive), threaded comments, 1..10 ratings and
// favorites.
type EngagementRepo struct{ db *sql.DB }

func NewEngagementRepo(db *sql.DB) *EngagementRepo { return &EngagementRepo{db: db} }

// SetReaction records a like or dislike.  Liking removes a standing
// dislike and vice versa; repeating the same reaction removes it
// (toggle).  Returns the resulting state: "like", "dislike" or "none".
func (r *EngagementRepo) SetReaction(ctx context.Context, userID, movieID uint64, like bool) (string, error) {
	table, opposite, state := "likes", "dislikes", "like"
	if !like {
		table, opposite, state = "dislikes", "likes", "dislike"
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM "+opposite+" WHERE user_id=? AND movie_id=?", userID, movieID); err != nil {
		return "", err
	}
	res, err := tx.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE user_id=? AND movie_id=?", userID, movieID)
	if err != nil {
		return "", err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if removed > 0 {
		// Second hit on the same reaction clears it.
		if err := tx.Commit(); err != nil {
			return "", err
		}
		return "none", nil
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, movie_id) VALUES (?,?)", userID, movieID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return state, nil
}

// ReactionCounts returns the like and dislike totals of a movie.
func (r *EngagementRepo) ReactionCounts(ctx context.Context, movieID uint64) (likes, dislikes int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM likes WHERE movie_id=?),
		        (SELECT COUNT(*) FROM dislikes WHERE movie_id=?)`,
		movieID, movieID).Scan(&likes, &dislikes)
	return likes, dislikes, err
}

// AddComment inserts a comment or reply and returns its ID.  The caller
// has already verified the movie and, for replies, the parent comment.
func (r *EngagementRepo) AddComment(ctx context.Context, userID, movieID uint64, parentID *uint64, text string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (user_id, movie_id, parent_id, comment) VALUES (?,?,?,?)",
		userID, movieID, parentID, text)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CommentRow is a comment joined with its author's email for display.
type CommentRow struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	AuthorEmail string    `json:"author_email"`
	ParentID    *uint64   `json:"parent_id,omitempty"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListComments returns all comments of a movie, oldest first.
func (r *EngagementRepo) ListComments(ctx context.Context, movieID uint64) ([]CommentRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cm.id, cm.user_id, u.email, cm.parent_id, cm.comment, cm.created_at
		 FROM comments cm JOIN users u ON u.id = cm.user_id
		 WHERE cm.movie_id=? ORDER BY cm.id`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []CommentRow{}
	for rows.Next() {
		var c CommentRow
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.UserID, &c.AuthorEmail, &parent, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := uint64(parent.Int64)
			c.ParentID = &p
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CommentAuthor returns the author's user ID and email of one comment on
// the given movie.  Used to notify on replies.
func (r *EngagementRepo) CommentAuthor(ctx context.Context, commentID, movieID uint64) (uint64, string, error) {
	var userID uint64
	var email string
	err := r.db.QueryRowContext(ctx,
		`SELECT cm.user_id, u.email FROM comments cm
		 JOIN users u ON u.id = cm.user_id
		 WHERE cm.id=? AND cm.movie_id=? LIMIT 1`, commentID, movieID).
		Scan(&userID, &email)
	return userID, email, err
}

// UpsertRating writes the user's rating of a movie, replacing any
// previous value.  Bounds are validated by the handler against
// model.RatingMin/RatingMax.
func (r *EngagementRepo) UpsertRating(ctx context.Context, userID, movieID uint64, rating int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (user_id, movie_id, rating) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE rating=VALUES(rating)`,
		userID, movieID, rating)
	return err
}

// AverageRating returns the mean rating and vote count for a movie.
func (r *EngagementRepo) AverageRating(ctx context.Context, movieID uint64) (float64, int64, error) {
	var avg sql.NullFloat64
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(*) FROM ratings WHERE movie_id=?", movieID).
		Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}

// AddFavorite marks a movie as a favorite; duplicates map to ErrConflict.
func (r *EngagementRepo) AddFavorite(ctx context.Context, userID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO favorites (user_id, movie_id) VALUES (?,?)", userID, movieID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrConflict
	}
	return err
}

// RemoveFavorite deletes a favorite; missing rows map to sql.ErrNoRows.
func (r *EngagementRepo) RemoveFavorite(ctx context.Context, userID, movieID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id=? AND movie_id=?", userID, movieID)
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

// ListFavorites returns one page of the user's favorite movies together
// with the total count, newest first.
func (r *EngagementRepo) ListFavorites(ctx context.Context, userID uint64, page, pageSize int) ([]MovieListRow, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorites WHERE user_id=?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.uuid, m.name, m.year, m.time, m.imdb, m.votes, m.price, m.is_available
		 FROM favorites f JOIN movies m ON m.id = f.movie_id
		 WHERE f.user_id=?
		 ORDER BY f.created_at DESC, f.id DESC
		 LIMIT ? OFFSET ?`,
		userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []MovieListRow{}
	for rows.Next() {
		var d MovieListRow
		if err := rows.Scan(&d.ID, &d.UUID, &d.Name, &d.Year, &d.Time, &d.IMDB, &d.Votes, &d.Price, &d.IsAvailable); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}
