package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/repositories"
)

const profileHistoryLimit = 20

// UserProfile — публичный профиль игрока: аккаунт, последние изменения MMR
// и статистика последних матчей.
type UserProfile struct {
	User       *models.User         `json:"user"`
	MmrHistory []*models.MmrChange  `json:"mmr_history"`
	RecentStat []*models.PlayerStat `json:"recent_stats"`
}

type UserService interface {
	Profile(ctx context.Context, userID int) (*UserProfile, error)
}

type userService struct {
	userRepo   repositories.UserRepository
	statRepo   repositories.PlayerStatRepository
	changeRepo repositories.MmrChangeRepository
}

func NewUserService(
	userRepo repositories.UserRepository,
	statRepo repositories.PlayerStatRepository,
	changeRepo repositories.MmrChangeRepository,
) UserService {
	return &userService{
		userRepo:   userRepo,
		statRepo:   statRepo,
		changeRepo: changeRepo,
	}
}

func (s *userService) Profile(ctx context.Context, userID int) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	profile := &UserProfile{User: user}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile.MmrHistory, err = s.changeRepo.ListByUser(gctx, nil, userID, profileHistoryLimit)
		return err
	})
	g.Go(func() error {
		var err error
		profile.RecentStat, err = s.statRepo.ListByUser(gctx, nil, userID, profileHistoryLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return profile, nil
}
