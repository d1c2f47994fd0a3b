package models

import "time"

// MmrChange — строка append-only журнала изменений рейтинга.
// Инвариант: After == Before + Change.
type MmrChange struct {
	ID        int       `json:"id"`
	MatchID   int       `json:"match_id"`
	UserID    int       `json:"user_id"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Change    int       `json:"change"`
	CreatedAt time.Time `json:"created_at"`
}
