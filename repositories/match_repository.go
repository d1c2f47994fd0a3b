package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jominki354/hotstinder/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchStatusConflict — compare-and-transition не нашёл строку в ожидаемом
	// статусе: матч кто-то перевёл параллельно либо переход нелегален.
	ErrMatchStatusConflict = errors.New("match is not in the expected status")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	List(ctx context.Context, exec SQLExecutor, status *models.MatchStatus, limit, offset int) ([]*models.Match, error)
	// UpdateStatus — один compare-and-transition: UPDATE выполняется только если
	// матч всё ещё в статусе from. Ноль затронутых строк -> ErrMatchStatusConflict.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.MatchStatus) error
	SetStarted(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error
	// CompleteMatch переводит in_progress -> completed и пишет финальные поля.
	CompleteMatch(ctx context.Context, exec SQLExecutor, id int, winner models.Team, blueScore, redScore, durationSeconds int, completedAt time.Time) error
	SetCancelled(ctx context.Context, exec SQLExecutor, id int, from models.MatchStatus, completedAt time.Time) error
	SetReplayKey(ctx context.Context, exec SQLExecutor, id int, key *string) error
	// ListStaleInProgress возвращает id матчей, начатых раньше cutoff и так и не
	// завершённых. Используется супервизором для cancel("timeout").
	ListStaleInProgress(ctx context.Context, exec SQLExecutor, cutoff time.Time) ([]int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, title, map, status, max_players, balance_type, is_simulation,
	created_by, winner, blue_score, red_score, duration_seconds, replay_key,
	created_at, started_at, completed_at`

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.Title, &m.Map, &m.Status, &m.MaxPlayers, &m.BalanceType, &m.IsSimulation,
		&m.CreatedBy, &m.Winner, &m.BlueScore, &m.RedScore, &m.DurationSeconds, &m.ReplayKey,
		&m.CreatedAt, &m.StartedAt, &m.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (title, map, status, max_players, balance_type, is_simulation, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.Title,
		match.Map,
		match.Status,
		match.MaxPlayers,
		match.BalanceType,
		match.IsSimulation,
		match.CreatedBy,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor, statusFilter *models.MatchStatus, limit, offset int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches`)

	args := []interface{}{}
	placeholderIndex := 1

	if statusFilter != nil {
		queryBuilder.WriteString(" WHERE status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(placeholderIndex))
	args = append(args, limit)
	placeholderIndex++
	queryBuilder.WriteString(" OFFSET $" + strconv.Itoa(placeholderIndex))
	args = append(args, offset)

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`

	result, err := executor.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update match %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStatusConflict)
}

func (r *postgresMatchRepository) SetStarted(ctx context.Context, exec SQLExecutor, id int, startedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4`

	result, err := executor.ExecContext(ctx, query, models.StatusInProgress, startedAt, id, models.StatusFull)
	if err != nil {
		return fmt.Errorf("failed to start match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStatusConflict)
}

func (r *postgresMatchRepository) CompleteMatch(ctx context.Context, exec SQLExecutor, id int, winner models.Team, blueScore, redScore, durationSeconds int, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			status = $1, winner = $2, blue_score = $3, red_score = $4,
			duration_seconds = $5, completed_at = $6
		WHERE id = $7 AND status = $8`

	result, err := executor.ExecContext(ctx, query,
		models.StatusCompleted, winner, blueScore, redScore,
		durationSeconds, completedAt, id, models.StatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to complete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStatusConflict)
}

func (r *postgresMatchRepository) SetCancelled(ctx context.Context, exec SQLExecutor, id int, from models.MatchStatus, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4`

	result, err := executor.ExecContext(ctx, query, models.StatusCancelled, completedAt, id, from)
	if err != nil {
		return fmt.Errorf("failed to cancel match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStatusConflict)
}

func (r *postgresMatchRepository) SetReplayKey(ctx context.Context, exec SQLExecutor, id int, key *string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET replay_key = $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to set replay key for match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListStaleInProgress(ctx context.Context, exec SQLExecutor, cutoff time.Time) ([]int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id FROM matches
		WHERE status = $1 AND started_at < $2
		ORDER BY started_at ASC`

	rows, err := executor.QueryContext(ctx, query, models.StatusInProgress, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale matches: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
