package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jominki354/hotstinder/models"
)

// EventLogRepository — append-only повествовательный журнал матча.
// С точки зрения ядра журнал write-only; чтение нужно только API.
type EventLogRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.EventLog) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int, limit int) ([]*models.EventLog, error)
}

type postgresEventLogRepository struct {
	db *sql.DB
}

func NewPostgresEventLogRepository(db *sql.DB) EventLogRepository {
	return &postgresEventLogRepository{db: db}
}

func (r *postgresEventLogRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEventLogRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.EventLog) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO event_logs (match_id, user_id, type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		entry.MatchID, entry.UserID, entry.Type, entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append event %q for match %d: %w", entry.Type, entry.MatchID, err)
	}
	return nil
}

func (r *postgresEventLogRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int, limit int) ([]*models.EventLog, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, user_id, type, message, created_at
		FROM event_logs
		WHERE match_id = $1
		ORDER BY id ASC
		LIMIT $2`

	rows, err := executor.QueryContext(ctx, query, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for match %d: %w", matchID, err)
	}
	defer rows.Close()

	entries := make([]*models.EventLog, 0)
	for rows.Next() {
		var e models.EventLog
		if scanErr := rows.Scan(&e.ID, &e.MatchID, &e.UserID, &e.Type, &e.Message, &e.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan event log row: %w", scanErr)
		}
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
