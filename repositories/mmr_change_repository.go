package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jominki354/hotstinder/models"
)

var ErrMmrChangeInvalid = errors.New("mmr change violates after = before + change")

// MmrChangeRepository — append-only журнал изменений рейтинга.
// Обновлений и удалений у журнала нет.
type MmrChangeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, change *models.MmrChange) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MmrChange, error)
	ListByUser(ctx context.Context, exec SQLExecutor, userID int, limit int) ([]*models.MmrChange, error)
}

type postgresMmrChangeRepository struct {
	db *sql.DB
}

func NewPostgresMmrChangeRepository(db *sql.DB) MmrChangeRepository {
	return &postgresMmrChangeRepository{db: db}
}

func (r *postgresMmrChangeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMmrChangeRepository) Create(ctx context.Context, exec SQLExecutor, change *models.MmrChange) error {
	// Инвариант журнала проверяется до записи, не полагаясь на CHECK в схеме.
	if change.After != change.Before+change.Change {
		return ErrMmrChangeInvalid
	}

	executor := r.getExecutor(exec)
	query := `
		INSERT INTO mmr_changes (match_id, user_id, before_mmr, after_mmr, change)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		change.MatchID, change.UserID, change.Before, change.After, change.Change,
	).Scan(&change.ID, &change.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create mmr change for user %d in match %d: %w", change.UserID, change.MatchID, err)
	}
	return nil
}

func (r *postgresMmrChangeRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MmrChange, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, user_id, before_mmr, after_mmr, change, created_at
		FROM mmr_changes
		WHERE match_id = $1
		ORDER BY id ASC`

	return r.queryChanges(ctx, executor, query, matchID)
}

func (r *postgresMmrChangeRepository) ListByUser(ctx context.Context, exec SQLExecutor, userID int, limit int) ([]*models.MmrChange, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, user_id, before_mmr, after_mmr, change, created_at
		FROM mmr_changes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	return r.queryChanges(ctx, executor, query, userID, limit)
}

func (r *postgresMmrChangeRepository) queryChanges(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.MmrChange, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mmr changes: %w", err)
	}
	defer rows.Close()

	changes := make([]*models.MmrChange, 0)
	for rows.Next() {
		var c models.MmrChange
		if scanErr := rows.Scan(
			&c.ID, &c.MatchID, &c.UserID, &c.Before, &c.After, &c.Change, &c.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan mmr change row: %w", scanErr)
		}
		changes = append(changes, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}
