package models

import "time"

// Типы событий жизненного цикла матча. Гейм-плейные события пишутся
// с произвольным типом через MatchService.RecordEvent.
const (
	EventMatchCreated   = "match_created"
	EventPlayerJoined   = "player_joined"
	EventPlayerLeft     = "player_left"
	EventMatchFull      = "match_full"
	EventMatchStarted   = "match_started"
	EventMatchCompleted = "match_completed"
	EventMatchCancelled = "match_cancelled"
)

type EventLog struct {
	ID        int       `json:"id"`
	MatchID   int       `json:"match_id"`
	UserID    *int      `json:"user_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
