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
	ErrUserNotFound          = errors.New("user not found")
	ErrUserBattleTagConflict = errors.New("user battle tag conflict")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetByBattleTag(ctx context.Context, exec SQLExecutor, battleTag string) (*models.User, error)
	// GetRatingForUpdate читает текущий рейтинг с блокировкой строки (FOR UPDATE).
	// Вызывается только внутри транзакции коммита матча: mmr_after считается
	// от значения, увиденного в этой же транзакции, а не от закэшированного.
	GetRatingForUpdate(ctx context.Context, exec SQLExecutor, id int) (int, error)
	// ApplyMatchResult записывает новый рейтинг и инкрементирует wins/losses.
	ApplyMatchResult(ctx context.Context, exec SQLExecutor, id int, newRating int, won bool) error
	ListTopByRating(ctx context.Context, exec SQLExecutor, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `id, battle_tag, password_hash, role, rating, wins, losses, created_at`

func (r *postgresUserRepository) scanUser(rowScanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := rowScanner.Scan(
		&u.ID, &u.BattleTag, &u.PasswordHash, &u.Role,
		&u.Rating, &u.Wins, &u.Losses, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO users (battle_tag, password_hash, role, rating, wins, losses)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		user.BattleTag,
		user.PasswordHash,
		user.Role,
		user.Rating,
		user.Wins,
		user.Losses,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			// "23505": unique_violation
			if pqErr.Constraint == "users_battle_tag_key" {
				return ErrUserBattleTagConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByBattleTag(ctx context.Context, exec SQLExecutor, battleTag string) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + userColumns + ` FROM users WHERE battle_tag = $1`
	return r.scanUser(executor.QueryRowContext(ctx, query, battleTag))
}

func (r *postgresUserRepository) GetRatingForUpdate(ctx context.Context, exec SQLExecutor, id int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT rating FROM users WHERE id = $1 FOR UPDATE`

	var rating int
	if err := executor.QueryRowContext(ctx, query, id).Scan(&rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to lock rating for user %d: %w", id, err)
	}
	return rating, nil
}

func (r *postgresUserRepository) ApplyMatchResult(ctx context.Context, exec SQLExecutor, id int, newRating int, won bool) error {
	executor := r.getExecutor(exec)

	query := `UPDATE users SET rating = $1, losses = losses + 1 WHERE id = $2`
	if won {
		query = `UPDATE users SET rating = $1, wins = wins + 1 WHERE id = $2`
	}

	result, err := executor.ExecContext(ctx, query, newRating, id)
	if err != nil {
		return fmt.Errorf("failed to apply match result for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ListTopByRating(ctx context.Context, exec SQLExecutor, limit, offset int) ([]*models.User, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY rating DESC, wins DESC, id ASC
		LIMIT $1 OFFSET $2`

	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, scanErr := r.scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	executor := r.getExecutor(exec)

	var count int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
