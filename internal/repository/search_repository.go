package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/image-search-api/internal/model"
)

// HistoryQuery defines filters & pagination for reading a user's history.
type HistoryQuery struct {
	UserID uint64
	Filter string // optional case-insensitive substring match on term
	Page   int    // 1-based
	Limit  int    // rows per page
}

// SearchRepo persists per-user search records and computes the global
// top-terms aggregation.
type SearchRepo struct{ DB *sql.DB }

func NewSearchRepo(db *sql.DB) *SearchRepo { return &SearchRepo{DB: db} }

// Insert appends one search record.  No dedup and no rate limiting: every
// submitted term becomes a row.
func (r *SearchRepo) Insert(ctx context.Context, userID uint64, term string) (model.SearchRecord, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO searches (user_id, term, created_at) VALUES (?,?,?)",
		userID, term, now)
	if err != nil {
		return model.SearchRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.SearchRecord{}, err
	}
	return model.SearchRecord{ID: uint64(id), UserID: userID, Term: term, CreatedAt: now}, nil
}

// List returns one page of a user's history, newest first, plus the total
// number of matching rows so clients can render pagination independent of
// the page size.
func (r *SearchRepo) List(ctx context.Context, q HistoryQuery) ([]model.SearchRecord, int64, error) {
	where := "user_id=?"
	args := []any{q.UserID}
	if q.Filter != "" {
		where += " AND LOWER(term) LIKE ?"
		args = append(args, "%"+strings.ToLower(q.Filter)+"%")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM searches WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	// id is a monotonic tiebreak for rows created within the same second
	dataSQL := "SELECT id, user_id, term, created_at FROM searches WHERE " + where +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.Limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.SearchRecord, 0, q.Limit)
	for rows.Next() {
		var rec model.SearchRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Term, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Recent returns the user's latest records without pagination, capped at
// the given limit.
func (r *SearchRepo) Recent(ctx context.Context, userID uint64, limit int) ([]model.SearchRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, term, created_at FROM searches WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.SearchRecord, 0, limit)
	for rows.Next() {
		var rec model.SearchRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Term, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ClearForUser deletes all of one user's records.  Other users' rows are
// untouched.
func (r *SearchRepo) ClearForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM searches WHERE user_id=?", userID)
	return err
}

// TopTerms aggregates across all users: terms are trimmed and lower-cased
// before grouping, counted, and returned by descending count.  Order within
// equal counts is whatever the database yields.
func (r *SearchRepo) TopTerms(ctx context.Context, limit int) ([]model.TermCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT LOWER(TRIM(term)) AS t, COUNT(*) AS c
		 FROM searches
		 GROUP BY t
		 ORDER BY c DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TermCount, 0, limit)
	for rows.Next() {
		var tc model.TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
