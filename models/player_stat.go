package models

import "time"

// PlayerStat — сырая статистика участника за матч плюс снимок рейтинга.
// Пишется один раз при завершении матча и далее неизменна.
type PlayerStat struct {
	ID          int       `json:"id"`
	MatchID     int       `json:"match_id"`
	UserID      *int      `json:"user_id,omitempty"`
	BattleTag   string    `json:"battle_tag"`
	Team        Team      `json:"team"`
	Hero        *string   `json:"hero,omitempty"`
	Kills       int       `json:"kills"`
	Deaths      int       `json:"deaths"`
	Assists     int       `json:"assists"`
	HeroDamage  int       `json:"hero_damage"`
	SiegeDamage int       `json:"siege_damage"`
	Healing     int       `json:"healing"`
	Experience  int       `json:"experience"`
	MmrBefore   int       `json:"mmr_before"`
	MmrAfter    int       `json:"mmr_after"`
	MmrChange   int       `json:"mmr_change"`
	CreatedAt   time.Time `json:"created_at"`
}
