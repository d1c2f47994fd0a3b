package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jominki354/hotstinder/models"
)

var ErrPlayerStatMatchInvalid = errors.New("player stat match conflict or invalid")

type PlayerStatRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stat *models.PlayerStat) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.PlayerStat, error)
	ListByUser(ctx context.Context, exec SQLExecutor, userID int, limit int) ([]*models.PlayerStat, error)
}

type postgresPlayerStatRepository struct {
	db *sql.DB
}

func NewPostgresPlayerStatRepository(db *sql.DB) PlayerStatRepository {
	return &postgresPlayerStatRepository{db: db}
}

func (r *postgresPlayerStatRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerStatColumns = `id, match_id, user_id, battle_tag, team, hero,
	kills, deaths, assists, hero_damage, siege_damage, healing, experience,
	mmr_before, mmr_after, mmr_change, created_at`

func (r *postgresPlayerStatRepository) scanStat(rowScanner interface{ Scan(...interface{}) error }) (*models.PlayerStat, error) {
	var s models.PlayerStat
	err := rowScanner.Scan(
		&s.ID, &s.MatchID, &s.UserID, &s.BattleTag, &s.Team, &s.Hero,
		&s.Kills, &s.Deaths, &s.Assists, &s.HeroDamage, &s.SiegeDamage, &s.Healing, &s.Experience,
		&s.MmrBefore, &s.MmrAfter, &s.MmrChange, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *postgresPlayerStatRepository) Create(ctx context.Context, exec SQLExecutor, stat *models.PlayerStat) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO player_stats
			(match_id, user_id, battle_tag, team, hero,
			 kills, deaths, assists, hero_damage, siege_damage, healing, experience,
			 mmr_before, mmr_after, mmr_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		stat.MatchID, stat.UserID, stat.BattleTag, stat.Team, stat.Hero,
		stat.Kills, stat.Deaths, stat.Assists, stat.HeroDamage, stat.SiegeDamage, stat.Healing, stat.Experience,
		stat.MmrBefore, stat.MmrAfter, stat.MmrChange,
	).Scan(&stat.ID, &stat.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create player stat for match %d: %w", stat.MatchID, err)
	}
	return nil
}

func (r *postgresPlayerStatRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.PlayerStat, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + playerStatColumns + ` FROM player_stats WHERE match_id = $1 ORDER BY team ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats for match %d: %w", matchID, err)
	}
	defer rows.Close()

	stats := make([]*models.PlayerStat, 0)
	for rows.Next() {
		s, scanErr := r.scanStat(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *postgresPlayerStatRepository) ListByUser(ctx context.Context, exec SQLExecutor, userID int, limit int) ([]*models.PlayerStat, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + playerStatColumns + ` FROM player_stats WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := executor.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats for user %d: %w", userID, err)
	}
	defer rows.Close()

	stats := make([]*models.PlayerStat, 0)
	for rows.Next() {
		s, scanErr := r.scanStat(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
