package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jominki354/hotstinder/models"
	"github.com/jominki354/hotstinder/repositories"
)

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID int    `json:"user_id"`
	// BattleTag отображается как есть, включая дискриминатор.
	BattleTag string `json:"battle_tag"`
	Rating    int    `json:"rating"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
	Total   int                `json:"total"`
}

type LeaderboardService interface {
	Top(ctx context.Context, limit, offset int) (*Leaderboard, error)
}

type leaderboardService struct {
	userRepo repositories.UserRepository
}

func NewLeaderboardService(userRepo repositories.UserRepository) LeaderboardService {
	return &leaderboardService{userRepo: userRepo}
}

func (s *leaderboardService) Top(ctx context.Context, limit, offset int) (*Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	var users []*models.User
	var total int

	// Страница и общее число игроков читаются параллельно.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.userRepo.ListTopByRating(gctx, nil, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.userRepo.Count(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:      offset + i + 1,
			UserID:    u.ID,
			BattleTag: u.BattleTag,
			Rating:    u.Rating,
			Wins:      u.Wins,
			Losses:    u.Losses,
		})
	}

	return &Leaderboard{Entries: entries, Total: total}, nil
}
