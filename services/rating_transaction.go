package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/rating"
	"github.com/jominki354/hotstinder/repositories"
)

// RatingTransaction — оркестратор атомарного коммита завершённого матча:
// статистика, журнал MMR, обновление рейтингов и перевод матча в completed
// применяются одной транзакцией БД либо не применяются вовсе.
type RatingTransaction struct {
	txManager  repositories.TxManager
	userRepo   repositories.UserRepository
	statRepo   repositories.PlayerStatRepository
	changeRepo repositories.MmrChangeRepository
	matchRepo  repositories.MatchRepository
	eventRepo  repositories.EventLogRepository
	kFactor    float64
}

func NewRatingTransaction(
	txManager repositories.TxManager,
	userRepo repositories.UserRepository,
	statRepo repositories.PlayerStatRepository,
	changeRepo repositories.MmrChangeRepository,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventLogRepository,
	kFactor float64,
) *RatingTransaction {
	if kFactor <= 0 {
		kFactor = rating.DefaultKFactor
	}
	return &RatingTransaction{
		txManager:  txManager,
		userRepo:   userRepo,
		statRepo:   statRepo,
		changeRepo: changeRepo,
		matchRepo:  matchRepo,
		eventRepo:  eventRepo,
		kFactor:    kFactor,
	}
}

// Commit валидирует исход и применяет его одной транзакцией. Рейтинги
// читаются с блокировкой строк внутри этой же транзакции: повтор после
// сбоя пересчитает дельты от актуальных значений. Для isSimulation
// статистика и завершение пишутся, но журнал MMR и users не трогаются.
func (t *RatingTransaction) Commit(ctx context.Context, match *models.Match, roster []*models.MatchPlayer, outcome models.MatchOutcome) (*models.MatchResult, error) {
	if err := validateOutcome(match, roster, outcome); err != nil {
		return nil, err
	}

	statInputs := make(map[string]models.ParticipantResult, len(outcome.Stats))
	for _, ps := range outcome.Stats {
		statInputs[ps.Participant.Key()] = ps
	}

	// Блокировка строк users в возрастающем порядке id, чтобы два
	// одновременных коммита с пересекающимися игроками не взаимоблокировались.
	lockOrder := make([]*models.MatchPlayer, 0, len(roster))
	for _, mp := range roster {
		if mp.UserID != nil {
			lockOrder = append(lockOrder, mp)
		}
	}
	sort.Slice(lockOrder, func(i, j int) bool { return *lockOrder[i].UserID < *lockOrder[j].UserID })

	result := &models.MatchResult{}
	now := time.Now()

	txErr := t.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		before := make(map[string]int, len(roster))
		for _, mp := range lockOrder {
			r, err := t.userRepo.GetRatingForUpdate(ctx, exec, *mp.UserID)
			if err != nil {
				return err
			}
			before[mp.Participant().Key()] = r
		}
		for _, mp := range roster {
			if mp.UserID == nil {
				// Гость не имеет строки в users: в командном среднем он
				// участвует со стартовым рейтингом.
				before[mp.Participant().Key()] = models.DefaultRating
			}
		}

		var winnerRatings, loserRatings []int
		for _, mp := range roster {
			if *mp.Team == outcome.Winner {
				winnerRatings = append(winnerRatings, before[mp.Participant().Key()])
			} else {
				loserRatings = append(loserRatings, before[mp.Participant().Key()])
			}
		}

		winDelta, loseDelta := rating.ComputeTeamDeltas(winnerRatings, loserRatings, t.kFactor)

		stats := make([]*models.PlayerStat, 0, len(roster))
		changes := make([]*models.MmrChange, 0, len(roster))

		for _, mp := range roster {
			key := mp.Participant().Key()
			won := *mp.Team == outcome.Winner

			delta := loseDelta
			if won {
				delta = winDelta
			}
			if match.IsSimulation {
				// Симуляция: статистика записывается, рейтинг не двигается.
				delta = 0
			}

			stat := &models.PlayerStat{
				MatchID:   match.ID,
				UserID:    mp.UserID,
				BattleTag: mp.BattleTag,
				Team:      *mp.Team,
				Hero:      mp.Hero,
				MmrBefore: before[key],
				MmrAfter:  before[key] + delta,
				MmrChange: delta,
			}
			if input, ok := statInputs[key]; ok {
				if input.Hero != nil {
					stat.Hero = input.Hero
				}
				stat.Kills = input.Kills
				stat.Deaths = input.Deaths
				stat.Assists = input.Assists
				stat.HeroDamage = input.HeroDamage
				stat.SiegeDamage = input.SiegeDamage
				stat.Healing = input.Healing
				stat.Experience = input.Experience
			}
			if err := t.statRepo.Create(ctx, exec, stat); err != nil {
				return err
			}
			stats = append(stats, stat)

			if mp.UserID == nil || match.IsSimulation {
				continue
			}

			change := &models.MmrChange{
				MatchID: match.ID,
				UserID:  *mp.UserID,
				Before:  before[key],
				After:   before[key] + delta,
				Change:  delta,
			}
			if err := t.changeRepo.Create(ctx, exec, change); err != nil {
				return err
			}
			changes = append(changes, change)

			if err := t.userRepo.ApplyMatchResult(ctx, exec, *mp.UserID, change.After, won); err != nil {
				return err
			}
		}

		if err := t.matchRepo.CompleteMatch(ctx, exec, match.ID,
			outcome.Winner, outcome.BlueScore, outcome.RedScore, outcome.DurationSeconds, now); err != nil {
			return err
		}

		event := &models.EventLog{
			MatchID: match.ID,
			Type:    models.EventMatchCompleted,
			Message: fmt.Sprintf("match completed, %s team won %d:%d", outcome.Winner, outcome.BlueScore, outcome.RedScore),
		}
		if err := t.eventRepo.Append(ctx, exec, event); err != nil {
			return err
		}

		result.Stats = stats
		result.Changes = changes
		return nil
	})

	if txErr != nil {
		// Транзакция откатилась целиком: матч остаётся in_progress,
		// вызывающая сторона может повторить Complete с тем же исходом.
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, txErr)
	}

	winner := outcome.Winner
	match.Status = models.StatusCompleted
	match.Winner = &winner
	match.BlueScore = &outcome.BlueScore
	match.RedScore = &outcome.RedScore
	match.DurationSeconds = &outcome.DurationSeconds
	match.CompletedAt = &now
	result.Match = match

	return result, nil
}

func validateOutcome(match *models.Match, roster []*models.MatchPlayer, outcome models.MatchOutcome) error {
	if !outcome.Winner.Valid() {
		return fmt.Errorf("%w: winner must be %s or %s", ErrOutcomeInvalid, models.TeamBlue, models.TeamRed)
	}
	if outcome.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative duration", ErrOutcomeInvalid)
	}
	if len(roster) == 0 {
		return fmt.Errorf("%w: empty roster", ErrOutcomeInvalid)
	}

	sizes := map[models.Team]int{}
	for _, mp := range roster {
		if mp.Team == nil {
			return fmt.Errorf("%w: participant %s has no team", ErrBalancingFailure, mp.BattleTag)
		}
		sizes[*mp.Team]++
	}
	if sizes[models.TeamBlue] == 0 || sizes[models.TeamRed] == 0 {
		return fmt.Errorf("%w: one of the teams is empty", ErrBalancingFailure)
	}

	for _, ps := range outcome.Stats {
		if ps.Kills < 0 || ps.Deaths < 0 || ps.Assists < 0 ||
			ps.HeroDamage < 0 || ps.SiegeDamage < 0 || ps.Healing < 0 || ps.Experience < 0 {
			return fmt.Errorf("%w: negative stat for %s", ErrOutcomeInvalid, ps.Participant.BattleTag)
		}
	}
	return nil
}
