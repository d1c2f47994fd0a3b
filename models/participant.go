package models

import "fmt"

// Participant — единая идентичность участника матча. Зарегистрированный игрок
// несёт UserID, гость — только отображаемый battletag. Гость проходит через
// балансировку и статистику наравне с остальными, но никогда не получает
// записей MmrChange и не влияет на рейтинг в users.
type Participant struct {
	UserID    *int   `json:"user_id,omitempty"`
	BattleTag string `json:"battle_tag"`
}

func RegisteredParticipant(userID int, battleTag string) Participant {
	return Participant{UserID: &userID, BattleTag: battleTag}
}

func GuestParticipant(displayName string) Participant {
	return Participant{BattleTag: displayName}
}

func (p Participant) IsGuest() bool {
	return p.UserID == nil
}

// Key возвращает уникальный ключ участника в пределах матча.
// Используется как ключ раскладки команд в балансировщике.
func (p Participant) Key() string {
	if p.UserID != nil {
		return fmt.Sprintf("user:%d", *p.UserID)
	}
	return "guest:" + p.BattleTag
}
