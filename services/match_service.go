package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jominki354/hotstinder/balance"
	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/repositories"
)

// MatchBroadcaster получает уведомления о переходах жизненного цикла.
// Реализуется websocket-хабом лобби; nil допустим (например, в тестах).
type MatchBroadcaster interface {
	BroadcastMatchUpdate(matchID int, eventType string, payload interface{})
}

type CreateMatchInput struct {
	Title        string             `json:"title"`
	Map          *string            `json:"map,omitempty"`
	MaxPlayers   int                `json:"max_players"`
	BalanceType  models.BalanceType `json:"balance_type"`
	IsSimulation bool               `json:"is_simulation"`
	CreatedBy    *int               `json:"-"`
}

type MatchService interface {
	Create(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	Get(ctx context.Context, matchID int) (*models.Match, []*models.MatchPlayer, error)
	List(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error)
	Join(ctx context.Context, matchID int, p models.Participant, preferred *models.Team) (*models.MatchPlayer, error)
	Leave(ctx context.Context, matchID int, p models.Participant) error
	Start(ctx context.Context, matchID int) error
	Complete(ctx context.Context, matchID int, outcome models.MatchOutcome) (*models.MatchResult, error)
	Cancel(ctx context.Context, matchID int, reason string) error
	RecordEvent(ctx context.Context, matchID int, p *models.Participant, eventType, message string) error
	Events(ctx context.Context, matchID int, limit int) ([]*models.EventLog, error)
}

type matchService struct {
	txManager  repositories.TxManager
	matchRepo  repositories.MatchRepository
	playerRepo repositories.MatchPlayerRepository
	userRepo   repositories.UserRepository
	eventRepo  repositories.EventLogRepository
	ratingTx   *RatingTransaction
	registry   *MatchRegistry
	hub        MatchBroadcaster
	logger     *slog.Logger
}

func NewMatchService(
	txManager repositories.TxManager,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.MatchPlayerRepository,
	userRepo repositories.UserRepository,
	eventRepo repositories.EventLogRepository,
	ratingTx *RatingTransaction,
	registry *MatchRegistry,
	hub MatchBroadcaster,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		txManager:  txManager,
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		userRepo:   userRepo,
		eventRepo:  eventRepo,
		ratingTx:   ratingTx,
		registry:   registry,
		hub:        hub,
		logger:     logger,
	}
}

func (s *matchService) Create(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.Title == "" {
		return nil, ErrMatchTitleRequired
	}
	if input.MaxPlayers < 2 || input.MaxPlayers > 10 {
		return nil, ErrMatchCapacityInvalid
	}
	if input.BalanceType == "" {
		input.BalanceType = models.BalanceBalanced
	}
	if !input.BalanceType.Valid() {
		return nil, fmt.Errorf("%w: unknown balance type %q", ErrValidationFailed, input.BalanceType)
	}

	match := &models.Match{
		Title:        input.Title,
		Map:          input.Map,
		Status:       models.StatusOpen,
		MaxPlayers:   input.MaxPlayers,
		BalanceType:  input.BalanceType,
		IsSimulation: input.IsSimulation,
		CreatedBy:    input.CreatedBy,
	}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, exec, &models.EventLog{
			MatchID: match.ID,
			UserID:  input.CreatedBy,
			Type:    models.EventMatchCreated,
			Message: fmt.Sprintf("match %q created for %d players (%s)", match.Title, match.MaxPlayers, match.BalanceType),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.logger.Info("match created",
		slog.Int("match_id", match.ID),
		slog.Int("max_players", match.MaxPlayers),
		slog.String("balance_type", string(match.BalanceType)))
	return match, nil
}

func (s *matchService) Get(ctx context.Context, matchID int) (*models.Match, []*models.MatchPlayer, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, nil, mapMatchRepoError(err)
	}
	roster, err := s.playerRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, nil, err
	}
	return match, roster, nil
}

func (s *matchService) List(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.matchRepo.List(ctx, nil, status, limit, offset)
}

func (s *matchService) Join(ctx context.Context, matchID int, p models.Participant, preferred *models.Team) (*models.MatchPlayer, error) {
	if p.BattleTag == "" {
		return nil, fmt.Errorf("%w: battle tag is required", ErrValidationFailed)
	}
	if preferred != nil && !preferred.Valid() {
		return nil, fmt.Errorf("%w: invalid team %q", ErrValidationFailed, *preferred)
	}

	var joined *models.MatchPlayer
	var becameFull bool

	err := s.registry.WithMatch(ctx, matchID, func() error {
		return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			match, err := s.matchRepo.GetByID(ctx, exec, matchID)
			if err != nil {
				return mapMatchRepoError(err)
			}
			switch match.Status {
			case models.StatusOpen:
			case models.StatusFull:
				return ErrMatchFull
			default:
				return fmt.Errorf("%w: cannot join a match in status %q", ErrInvalidTransition, match.Status)
			}

			roster, err := s.playerRepo.ListByMatch(ctx, exec, matchID)
			if err != nil {
				return err
			}
			for _, mp := range roster {
				if mp.Participant().Key() == p.Key() {
					return ErrAlreadyJoined
				}
			}
			if len(roster) >= match.MaxPlayers {
				return ErrMatchFull
			}

			team, err := s.joinTeam(ctx, exec, match, roster, p, preferred)
			if err != nil {
				return err
			}

			joined = &models.MatchPlayer{
				MatchID:   matchID,
				UserID:    p.UserID,
				BattleTag: p.BattleTag,
				Team:      team,
			}
			if err := s.playerRepo.Create(ctx, exec, joined); err != nil {
				if errors.Is(err, repositories.ErrMatchPlayerConflict) {
					return ErrAlreadyJoined
				}
				return err
			}

			if err := s.eventRepo.Append(ctx, exec, &models.EventLog{
				MatchID: matchID,
				UserID:  p.UserID,
				Type:    models.EventPlayerJoined,
				Message: fmt.Sprintf("%s joined the match", p.BattleTag),
			}); err != nil {
				return err
			}

			if len(roster)+1 == match.MaxPlayers {
				becameFull = true
				return s.fillMatch(ctx, exec, match, append(roster, joined))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(matchID, models.EventPlayerJoined, joined)
	if becameFull {
		s.broadcast(matchID, models.EventMatchFull, nil)
	}
	return joined, nil
}

// joinTeam выбирает команду на момент входа. Для manual уважается явный
// запрос, для balanced считается предварительная метка (окончательная
// раскладка при заполнении может её поменять), для random команда не
// назначается до заполнения.
func (s *matchService) joinTeam(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, roster []*models.MatchPlayer, p models.Participant, preferred *models.Team) (*models.Team, error) {
	switch match.BalanceType {
	case models.BalanceManual:
		return preferred, nil
	case models.BalanceBalanced:
		players, err := s.balancePlayers(ctx, exec, roster, false)
		if err != nil {
			return nil, err
		}
		rating, err := s.participantRating(ctx, exec, p)
		if err != nil {
			return nil, err
		}
		players = append(players, balance.Player{Key: p.Key(), Rating: rating})

		assignment, err := balance.NewGreedyBalancer().Assign(players)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBalancingFailure, err)
		}
		team := assignment[p.Key()]
		return &team, nil
	default:
		return nil, nil
	}
}

// fillMatch переводит матч в full и фиксирует окончательную раскладку команд.
// Именно она авторитетна: балансировщик может переназначить метки, выданные
// на входе.
func (s *matchService) fillMatch(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, roster []*models.MatchPlayer) error {
	if err := s.matchRepo.UpdateStatus(ctx, exec, match.ID, models.StatusOpen, models.StatusFull); err != nil {
		return mapMatchRepoError(err)
	}

	manual := match.BalanceType == models.BalanceManual
	players, err := s.balancePlayers(ctx, exec, roster, manual)
	if err != nil {
		return err
	}

	balancer, err := balance.ForType(match.BalanceType, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBalancingFailure, err)
	}
	assignment, err := balancer.Assign(players)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBalancingFailure, err)
	}

	for _, mp := range roster {
		team := assignment[mp.Participant().Key()]
		mp.Team = &team
	}
	if err := s.playerRepo.UpdateTeams(ctx, exec, roster); err != nil {
		return err
	}

	return s.eventRepo.Append(ctx, exec, &models.EventLog{
		MatchID: match.ID,
		Type:    models.EventMatchFull,
		Message: fmt.Sprintf("match is full (%d players), teams assigned by %s balancer", len(roster), balancer.GetName()),
	})
}

// balancePlayers собирает вход для балансировщика: текущий рейтинг каждого
// участника (гость — со стартовым). При withPreferred команды, выбранные на
// входе, передаются как явные пожелания manual-стратегии.
func (s *matchService) balancePlayers(ctx context.Context, exec repositories.SQLExecutor, roster []*models.MatchPlayer, withPreferred bool) ([]balance.Player, error) {
	players := make([]balance.Player, 0, len(roster))
	for _, mp := range roster {
		rating, err := s.participantRating(ctx, exec, mp.Participant())
		if err != nil {
			return nil, err
		}
		player := balance.Player{Key: mp.Participant().Key(), Rating: rating}
		if withPreferred && mp.Team != nil {
			team := *mp.Team
			player.Preferred = &team
		}
		players = append(players, player)
	}
	return players, nil
}

func (s *matchService) participantRating(ctx context.Context, exec repositories.SQLExecutor, p models.Participant) (int, error) {
	if p.UserID == nil {
		return models.DefaultRating, nil
	}
	user, err := s.userRepo.GetByID(ctx, exec, *p.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, fmt.Errorf("%w: user %d", ErrUserNotFound, *p.UserID)
		}
		return 0, err
	}
	return user.Rating, nil
}

func (s *matchService) Leave(ctx context.Context, matchID int, p models.Participant) error {
	var reopened bool

	err := s.registry.WithMatch(ctx, matchID, func() error {
		return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			match, err := s.matchRepo.GetByID(ctx, exec, matchID)
			if err != nil {
				return mapMatchRepoError(err)
			}
			if match.Status != models.StatusOpen && match.Status != models.StatusFull {
				// Уход из идущей игры — это зафиксированный в журнале форфит,
				// а не мутация состава.
				return fmt.Errorf("%w: cannot leave a match in status %q", ErrInvalidTransition, match.Status)
			}

			if err := s.playerRepo.Remove(ctx, exec, matchID, p); err != nil {
				if errors.Is(err, repositories.ErrMatchPlayerNotFound) {
					return ErrNotAMember
				}
				return err
			}

			if match.Status == models.StatusFull {
				reopened = true
				if err := s.matchRepo.UpdateStatus(ctx, exec, matchID, models.StatusFull, models.StatusOpen); err != nil {
					return mapMatchRepoError(err)
				}
			}

			return s.eventRepo.Append(ctx, exec, &models.EventLog{
				MatchID: matchID,
				UserID:  p.UserID,
				Type:    models.EventPlayerLeft,
				Message: fmt.Sprintf("%s left the match", p.BattleTag),
			})
		})
	})
	if err != nil {
		return err
	}

	s.broadcast(matchID, models.EventPlayerLeft, p)
	if reopened {
		s.broadcast(matchID, "match_reopened", nil)
	}
	return nil
}

func (s *matchService) Start(ctx context.Context, matchID int) error {
	err := s.registry.WithMatch(ctx, matchID, func() error {
		return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			match, err := s.matchRepo.GetByID(ctx, exec, matchID)
			if err != nil {
				return mapMatchRepoError(err)
			}
			if match.Status != models.StatusFull {
				return fmt.Errorf("%w: cannot start a match in status %q", ErrInvalidTransition, match.Status)
			}

			if err := s.matchRepo.SetStarted(ctx, exec, matchID, time.Now()); err != nil {
				return mapMatchRepoError(err)
			}

			return s.eventRepo.Append(ctx, exec, &models.EventLog{
				MatchID: matchID,
				Type:    models.EventMatchStarted,
				Message: "match started",
			})
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("match started", slog.Int("match_id", matchID))
	s.broadcast(matchID, models.EventMatchStarted, nil)
	return nil
}

func (s *matchService) Complete(ctx context.Context, matchID int, outcome models.MatchOutcome) (*models.MatchResult, error) {
	var result *models.MatchResult

	// Коммит рейтингов выполняется под замком матча: второй Complete или
	// любой join/leave не увидят наполовину применённый результат.
	err := s.registry.WithMatch(ctx, matchID, func() error {
		match, err := s.matchRepo.GetByID(ctx, nil, matchID)
		if err != nil {
			return mapMatchRepoError(err)
		}
		if match.Status != models.StatusInProgress {
			return fmt.Errorf("%w: cannot complete a match in status %q", ErrInvalidTransition, match.Status)
		}

		roster, err := s.playerRepo.ListByMatch(ctx, nil, matchID)
		if err != nil {
			return err
		}

		result, err = s.ratingTx.Commit(ctx, match, roster, outcome)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match completed",
		slog.Int("match_id", matchID),
		slog.String("winner", string(outcome.Winner)))
	s.broadcast(matchID, models.EventMatchCompleted, result.Match)
	return result, nil
}

func (s *matchService) Cancel(ctx context.Context, matchID int, reason string) error {
	err := s.registry.WithMatch(ctx, matchID, func() error {
		return s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			match, err := s.matchRepo.GetByID(ctx, exec, matchID)
			if err != nil {
				return mapMatchRepoError(err)
			}
			if match.Status.IsTerminal() {
				return fmt.Errorf("%w: cannot cancel a match in status %q", ErrInvalidTransition, match.Status)
			}

			if err := s.matchRepo.SetCancelled(ctx, exec, matchID, match.Status, time.Now()); err != nil {
				return mapMatchRepoError(err)
			}

			message := "match cancelled"
			if reason != "" {
				message = "match cancelled: " + reason
			}
			return s.eventRepo.Append(ctx, exec, &models.EventLog{
				MatchID: matchID,
				Type:    models.EventMatchCancelled,
				Message: message,
			})
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("match cancelled", slog.Int("match_id", matchID), slog.String("reason", reason))
	s.broadcast(matchID, models.EventMatchCancelled, reason)
	return nil
}

func (s *matchService) RecordEvent(ctx context.Context, matchID int, p *models.Participant, eventType, message string) error {
	if eventType == "" {
		return fmt.Errorf("%w: event type is required", ErrValidationFailed)
	}

	return s.registry.WithMatch(ctx, matchID, func() error {
		match, err := s.matchRepo.GetByID(ctx, nil, matchID)
		if err != nil {
			return mapMatchRepoError(err)
		}
		if match.Status != models.StatusInProgress {
			return fmt.Errorf("%w: gameplay events require an in-progress match", ErrInvalidTransition)
		}

		entry := &models.EventLog{
			MatchID: matchID,
			Type:    eventType,
			Message: message,
		}
		if p != nil {
			entry.UserID = p.UserID
		}
		return s.eventRepo.Append(ctx, nil, entry)
	})
}

func (s *matchService) Events(ctx context.Context, matchID int, limit int) ([]*models.EventLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		return nil, mapMatchRepoError(err)
	}
	return s.eventRepo.ListByMatch(ctx, nil, matchID, limit)
}

func (s *matchService) broadcast(matchID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastMatchUpdate(matchID, eventType, payload)
}

func mapMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchStatusConflict):
		// Под замком реестра CAS не должен проигрывать; если проиграл, матч
		// поменял кто-то в обход ядра.
		return fmt.Errorf("%w: %w", ErrConcurrentModification, err)
	default:
		return err
	}
}
