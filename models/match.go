package models

import "time"

type MatchStatus string

const (
	StatusOpen       MatchStatus = "open"
	StatusFull       MatchStatus = "full"
	StatusInProgress MatchStatus = "in_progress"
	StatusCompleted  MatchStatus = "completed"
	StatusCancelled  MatchStatus = "cancelled"
)

// IsTerminal сообщает, является ли статус конечным (из него нет переходов).
func (s MatchStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo проверяет допустимость перехода по графу статусов:
// open -> full -> in_progress -> completed, cancelled достижим из любого
// нетерминального статуса, full -> open разрешён (игрок вышел из полного лобби).
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusOpen:
		return next == StatusFull
	case StatusFull:
		return next == StatusInProgress || next == StatusOpen
	case StatusInProgress:
		return next == StatusCompleted
	}
	return false
}

type Team string

const (
	TeamBlue Team = "blue"
	TeamRed  Team = "red"
)

func (t Team) Valid() bool {
	return t == TeamBlue || t == TeamRed
}

func (t Team) Opposite() Team {
	if t == TeamBlue {
		return TeamRed
	}
	return TeamBlue
}

type BalanceType string

const (
	BalanceBalanced BalanceType = "balanced"
	BalanceRandom   BalanceType = "random"
	BalanceManual   BalanceType = "manual"
)

func (b BalanceType) Valid() bool {
	return b == BalanceBalanced || b == BalanceRandom || b == BalanceManual
}

type Match struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Map          *string     `json:"map,omitempty"`
	Status       MatchStatus `json:"status"`
	MaxPlayers   int         `json:"max_players"`
	BalanceType  BalanceType `json:"balance_type"`
	IsSimulation bool        `json:"is_simulation"`
	CreatedBy    *int        `json:"created_by,omitempty"`
	Winner       *Team       `json:"winner,omitempty"`
	BlueScore    *int        `json:"blue_score,omitempty"`
	RedScore     *int        `json:"red_score,omitempty"`
	// Длительность завершённого матча в секундах.
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	ReplayKey       *string    `json:"replay_key,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}
