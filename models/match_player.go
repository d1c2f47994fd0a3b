package models

import "time"

// MatchPlayer — запись состава: пара (матч, участник), уникальная в пределах
// матча. Team может быть nil до финальной раскладки (матч ещё не заполнен).
type MatchPlayer struct {
	ID        int       `json:"id"`
	MatchID   int       `json:"match_id"`
	UserID    *int      `json:"user_id,omitempty"`
	BattleTag string    `json:"battle_tag"`
	Team      *Team     `json:"team,omitempty"`
	Role      *string   `json:"role,omitempty"`
	Hero      *string   `json:"hero,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (mp *MatchPlayer) Participant() Participant {
	return Participant{UserID: mp.UserID, BattleTag: mp.BattleTag}
}
