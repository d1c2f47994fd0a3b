package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedScore(t *testing.T) {
	// Равные рейтинги — ровно 0.5 с обеих сторон.
	assert.InDelta(t, 0.5, ExpectedScore(1500, 1500), 1e-9)

	// Разница в 400 пунктов даёт ~0.909 сильнейшему.
	assert.InDelta(t, 0.909, ExpectedScore(1900, 1500), 0.001)

	// Ожидания сторон в сумме дают единицу.
	a := ExpectedScore(1234, 1567)
	b := ExpectedScore(1567, 1234)
	assert.InDelta(t, 1.0, a+b, 1e-9)
}

func TestTeamAverage(t *testing.T) {
	assert.Equal(t, 0.0, TeamAverage(nil))
	assert.Equal(t, 1500.0, TeamAverage([]int{1500}))
	assert.Equal(t, 1150.0, TeamAverage([]int{1300, 1000, 1200, 1100}))
}

func TestComputeTeamDeltas_MidpointSymmetry(t *testing.T) {
	// Команды с равным средним: величина выигрыша равна величине проигрыша.
	win, lose := ComputeTeamDeltas([]int{1300, 1000}, []int{1200, 1100}, 32)
	assert.Equal(t, 16, win)
	assert.Equal(t, -16, lose)
}

func TestComputeTeamDeltas_Deterministic(t *testing.T) {
	winners := []int{1480, 1520, 1610}
	losers := []int{1390, 1505, 1550}

	w1, l1 := ComputeTeamDeltas(winners, losers, 32)
	w2, l2 := ComputeTeamDeltas(winners, losers, 32)
	require.Equal(t, w1, w2)
	require.Equal(t, l1, l2)
}

func TestComputeTeamDeltas_Underdog(t *testing.T) {
	// Победа слабой команды стоит дороже, чем победа фаворита.
	underdogWin, favoriteLose := ComputeTeamDeltas([]int{1300, 1300}, []int{1700, 1700}, 32)
	favoriteWin, underdogLose := ComputeTeamDeltas([]int{1700, 1700}, []int{1300, 1300}, 32)

	assert.Greater(t, underdogWin, favoriteWin)
	assert.Less(t, favoriteLose, underdogLose)

	// Выигрыш всегда неотрицателен, проигрыш всегда неположителен.
	assert.GreaterOrEqual(t, underdogWin, 0)
	assert.LessOrEqual(t, favoriteLose, 0)
}

func TestComputeTeamDeltas_KFactorScales(t *testing.T) {
	w16, _ := ComputeTeamDeltas([]int{1500}, []int{1500}, 16)
	w64, _ := ComputeTeamDeltas([]int{1500}, []int{1500}, 64)
	assert.Equal(t, 8, w16)
	assert.Equal(t, 32, w64)
}
