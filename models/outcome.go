package models

// ParticipantResult — сырые показатели одного участника в исходе матча.
type ParticipantResult struct {
	Participant Participant `json:"participant"`
	Hero        *string     `json:"hero,omitempty"`
	Kills       int         `json:"kills"`
	Deaths      int         `json:"deaths"`
	Assists     int         `json:"assists"`
	HeroDamage  int         `json:"hero_damage"`
	SiegeDamage int         `json:"siege_damage"`
	Healing     int         `json:"healing"`
	Experience  int         `json:"experience"`
}

// MatchOutcome — результат матча, поставляемый вызывающей стороной в Complete.
// При повторе после PersistenceFailure должен передаваться идентичным.
type MatchOutcome struct {
	Winner          Team                `json:"winner"`
	BlueScore       int                 `json:"blue_score"`
	RedScore        int                 `json:"red_score"`
	DurationSeconds int                 `json:"duration_seconds"`
	Stats           []ParticipantResult `json:"stats"`
}

// MatchResult — итог успешно закоммиченного завершения матча.
type MatchResult struct {
	Match   *Match        `json:"match"`
	Stats   []*PlayerStat `json:"stats"`
	Changes []*MmrChange  `json:"changes"`
}
