package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jominki354/hotstinder/models"
)

func TestLeaderboardOrderAndRanks(t *testing.T) {
	store := newFakeStore()
	svc := NewLeaderboardService(&fakeUserRepository{store: store})

	store.addUser("Mid#1", 1500)
	top := store.addUser("Top#2", 1700)
	store.addUser("Low#3", 1300)

	board, err := svc.Top(context.Background(), 10, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, board.Total)
	require.Len(t, board.Entries, 3)

	assert.Equal(t, top.ID, board.Entries[0].UserID)
	assert.Equal(t, 1700, board.Entries[0].Rating)
	for i, e := range board.Entries {
		assert.Equal(t, i+1, e.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, board.Entries[i-1].Rating, e.Rating)
		}
	}
}

func TestLeaderboardPagination(t *testing.T) {
	store := newFakeStore()
	svc := NewLeaderboardService(&fakeUserRepository{store: store})

	for i := 0; i < 5; i++ {
		store.addUser(battleTag(i), 1500+i*10)
	}

	board, err := svc.Top(context.Background(), 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, board.Total)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, 3, board.Entries[0].Rank)
	assert.Equal(t, 1520, board.Entries[0].Rating)
}

func TestProfileAggregatesHistory(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	u1 := f.store.addUser("Alpha#1", 1500)
	u2 := f.store.addUser("Bravo#2", 1500)
	match := f.createMatch(t, 2, models.BalanceBalanced)
	f.joinUser(t, match.ID, u1)
	f.joinUser(t, match.ID, u2)
	require.NoError(t, f.service.Start(ctx, match.ID))
	_, err := f.service.Complete(ctx, match.ID, models.MatchOutcome{Winner: models.TeamBlue})
	require.NoError(t, err)

	svc := NewUserService(
		&fakeUserRepository{store: f.store},
		&fakePlayerStatRepository{store: f.store},
		&fakeMmrChangeRepository{store: f.store},
	)

	profile, err := svc.Profile(ctx, u1.ID)
	require.NoError(t, err)

	assert.Equal(t, u1.ID, profile.User.ID)
	require.Len(t, profile.MmrHistory, 1)
	require.Len(t, profile.RecentStat, 1)
	assert.Equal(t, profile.MmrHistory[0].After, profile.User.Rating)

	_, err = svc.Profile(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
