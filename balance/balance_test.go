package balance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jominki354/hotstinder/models"
)

func rosterFromRatings(ratings ...int) []Player {
	roster := make([]Player, 0, len(ratings))
	for i, r := range ratings {
		roster = append(roster, Player{Key: string(rune('a' + i)), Rating: r})
	}
	return roster
}

func teamKeys(a Assignment, t models.Team) map[string]bool {
	keys := make(map[string]bool)
	for k, team := range a {
		if team == t {
			keys[k] = true
		}
	}
	return keys
}

func TestGreedyBalancer_WorkedExample(t *testing.T) {
	// 2v2: [1200, 1000, 1100, 1300] -> {1300, 1000} против {1200, 1100},
	// обе команды со средним 1150.
	roster := []Player{
		{Key: "p1200", Rating: 1200},
		{Key: "p1000", Rating: 1000},
		{Key: "p1100", Rating: 1100},
		{Key: "p1300", Rating: 1300},
	}

	assignment, err := NewGreedyBalancer().Assign(roster)
	require.NoError(t, err)
	require.Len(t, assignment, 4)

	first := assignment["p1300"]
	second := first.Opposite()
	assert.Equal(t, first, assignment["p1000"])
	assert.Equal(t, second, assignment["p1200"])
	assert.Equal(t, second, assignment["p1100"])
}

func TestGreedyBalancer_SizeConstraint(t *testing.T) {
	for n := 1; n <= 10; n++ {
		roster := make([]Player, 0, n)
		for i := 0; i < n; i++ {
			roster = append(roster, Player{Key: string(rune('a' + i)), Rating: 1500 + i*37})
		}
		assignment, err := NewGreedyBalancer().Assign(roster)
		require.NoError(t, err)
		require.Len(t, assignment, n)

		blue := assignment.TeamSize(models.TeamBlue)
		red := assignment.TeamSize(models.TeamRed)
		diff := blue - red
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 1, "roster of %d", n)
	}
}

func TestGreedyBalancer_Deterministic(t *testing.T) {
	roster := rosterFromRatings(1500, 1500, 1500, 1500, 1480, 1520)
	a1, err := NewGreedyBalancer().Assign(roster)
	require.NoError(t, err)
	a2, err := NewGreedyBalancer().Assign(roster)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestGreedyBalancer_EmptyRoster(t *testing.T) {
	_, err := NewGreedyBalancer().Assign(nil)
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestRandomBalancer_SizeConstraint(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	b := NewRandomBalancer(rnd)

	for n := 1; n <= 10; n++ {
		assignment, err := b.Assign(rosterFromRatings(make([]int, n)...))
		require.NoError(t, err)
		require.Len(t, assignment, n)

		blue := assignment.TeamSize(models.TeamBlue)
		red := assignment.TeamSize(models.TeamRed)
		diff := blue - red
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 1, "roster of %d", n)
	}
}

func TestManualBalancer_PreferredRespected(t *testing.T) {
	blue := models.TeamBlue
	red := models.TeamRed
	roster := []Player{
		{Key: "a", Rating: 1600, Preferred: &blue},
		{Key: "b", Rating: 1550, Preferred: &red},
		{Key: "c", Rating: 1400},
		{Key: "d", Rating: 1450},
	}

	assignment, err := NewManualBalancer().Assign(roster)
	require.NoError(t, err)
	assert.Equal(t, models.TeamBlue, assignment["a"])
	assert.Equal(t, models.TeamRed, assignment["b"])
	assert.Len(t, teamKeys(assignment, models.TeamBlue), 2)
	assert.Len(t, teamKeys(assignment, models.TeamRed), 2)
}

func TestManualBalancer_PreferredOverflow(t *testing.T) {
	blue := models.TeamBlue
	roster := []Player{
		{Key: "a", Rating: 1600, Preferred: &blue},
		{Key: "b", Rating: 1550, Preferred: &blue},
		{Key: "c", Rating: 1500, Preferred: &blue},
		{Key: "d", Rating: 1450},
	}

	_, err := NewManualBalancer().Assign(roster)
	assert.ErrorIs(t, err, ErrPreferredSideFull)
}

func TestForType(t *testing.T) {
	b, err := ForType(models.BalanceBalanced, nil)
	require.NoError(t, err)
	assert.Equal(t, "balanced", b.GetName())

	b, err = ForType(models.BalanceRandom, nil)
	require.NoError(t, err)
	assert.Equal(t, "random", b.GetName())

	b, err = ForType(models.BalanceManual, nil)
	require.NoError(t, err)
	assert.Equal(t, "manual", b.GetName())

	_, err = ForType(models.BalanceType("draft"), nil)
	assert.ErrorIs(t, err, ErrUnknownBalanceType)
}
