package model

import "time"

// SearchRecord is one row in the `searches` table: a term a user searched
// for, with its creation timestamp.  Rows are immutable after insert; the
// only delete path removes all rows for a user at once.
type SearchRecord struct {
	ID        uint64    `json:"id"`        // searches.id
	UserID    uint64    `json:"-"`         // searches.user_id (never exposed to clients)
	Term      string    `json:"term"`      // searches.term
	CreatedAt time.Time `json:"createdAt"` // searches.created_at
}

// TermCount is one entry of the global top-searches aggregation.  Term is
// normalized (trimmed and lower-cased) before grouping, so "Nature" and
// " NATURE" count toward the same entry.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}
