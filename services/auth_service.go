package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/repositories"
	"github.com/jominki354/hotstinder/utils"
)

const minPasswordLength = 8

type RegisterInput struct {
	BattleTag string `json:"battle_tag"`
	Password  string `json:"password"`
}

// AuthService — минимум, который нужен HTTP-слою: локальная регистрация
// по battletag и проверка пароля. Полный bnet-логин живёт вне ядра.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	battleTag, err := utils.NormalizeBattleTag(input.BattleTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBattleTagInvalid, err)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		BattleTag:    battleTag,
		PasswordHash: hash,
		Role:         models.RolePlayer,
		Rating:       models.DefaultRating,
	}

	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrUserBattleTagConflict) {
			return nil, ErrBattleTagTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	battleTag, err := utils.NormalizeBattleTag(creds.BattleTag)
	if err != nil {
		return nil, ErrAuthInvalidCredentials
	}

	user, err := s.userRepo.GetByBattleTag(ctx, nil, battleTag)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return nil, ErrAuthInvalidCredentials
	}
	return user, nil
}
