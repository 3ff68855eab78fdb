package queue

import "time"

// SearchRecordedEvent is emitted after a search term has been persisted.
// Consumers use it for analytics; losing an event never affects the
// request that produced it.
type SearchRecordedEvent struct {
	UserID    uint64    `json:"user_id"`
	Term      string    `json:"term"`
	CreatedAt time.Time `json:"created_at"`
}
