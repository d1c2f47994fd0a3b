package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jominki354/hotstinder/models"
)

var (
	ErrMatchPlayerNotFound = errors.New("match player not found")
	// ErrMatchPlayerConflict — участник уже состоит в этом матче.
	ErrMatchPlayerConflict    = errors.New("participant already joined this match")
	ErrMatchPlayerMatchClosed = errors.New("match player match conflict or invalid")
)

type MatchPlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.MatchPlayer) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchPlayer, error)
	// Remove удаляет запись участника (зарегистрированного — по user_id,
	// гостя — по battle_tag при user_id IS NULL).
	Remove(ctx context.Context, exec SQLExecutor, matchID int, p models.Participant) error
	// UpdateTeams батчем фиксирует финальную раскладку команд после заполнения.
	UpdateTeams(ctx context.Context, exec SQLExecutor, players []*models.MatchPlayer) error
}

type postgresMatchPlayerRepository struct {
	db *sql.DB
}

func NewPostgresMatchPlayerRepository(db *sql.DB) MatchPlayerRepository {
	return &postgresMatchPlayerRepository{db: db}
}

func (r *postgresMatchPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.MatchPlayer) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_players (match_id, user_id, battle_tag, team, role, hero)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query,
		player.MatchID,
		player.UserID,
		player.BattleTag,
		player.Team,
		player.Role,
		player.Hero,
	).Scan(&player.ID, &player.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			// "23505": unique_violation — (match_id, user_id) либо
			// (match_id, battle_tag) для гостей.
			case "match_players_match_id_user_id_key", "match_players_match_id_battle_tag_key":
				return ErrMatchPlayerConflict
			// "23503": foreign_key_violation
			case "match_players_match_id_fkey":
				return ErrMatchPlayerMatchClosed
			}
		}
		return err
	}
	return nil
}

func (r *postgresMatchPlayerRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchPlayer, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, user_id, battle_tag, team, role, hero, joined_at
		FROM match_players
		WHERE match_id = $1
		ORDER BY joined_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster for match %d: %w", matchID, err)
	}
	defer rows.Close()

	players := make([]*models.MatchPlayer, 0)
	for rows.Next() {
		var mp models.MatchPlayer
		if scanErr := rows.Scan(
			&mp.ID, &mp.MatchID, &mp.UserID, &mp.BattleTag,
			&mp.Team, &mp.Role, &mp.Hero, &mp.JoinedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match player row: %w", scanErr)
		}
		players = append(players, &mp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresMatchPlayerRepository) Remove(ctx context.Context, exec SQLExecutor, matchID int, p models.Participant) error {
	executor := r.getExecutor(exec)

	var result sql.Result
	var err error
	if p.UserID != nil {
		query := `DELETE FROM match_players WHERE match_id = $1 AND user_id = $2`
		result, err = executor.ExecContext(ctx, query, matchID, *p.UserID)
	} else {
		query := `DELETE FROM match_players WHERE match_id = $1 AND user_id IS NULL AND battle_tag = $2`
		result, err = executor.ExecContext(ctx, query, matchID, p.BattleTag)
	}
	if err != nil {
		return fmt.Errorf("failed to remove participant from match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchPlayerNotFound)
}

func (r *postgresMatchPlayerRepository) UpdateTeams(ctx context.Context, exec SQLExecutor, players []*models.MatchPlayer) error {
	if len(players) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	// Батч всегда вызывается внутри транзакции заполнения матча,
	// поэтому отдельного prepared statement на соединении не требуется.
	query := `UPDATE match_players SET team = $1 WHERE id = $2`
	for _, mp := range players {
		result, err := executor.ExecContext(ctx, query, mp.Team, mp.ID)
		if err != nil {
			return fmt.Errorf("failed to update team for match player %d: %w", mp.ID, err)
		}
		if err := checkAffectedRows(result, ErrMatchPlayerNotFound); err != nil {
			return err
		}
	}
	return nil
}
