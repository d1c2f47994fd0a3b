// Package rating реализует командную Elo-модель расчёта изменений MMR.
// Все функции чистые: никакого I/O, часов и случайности, одинаковый вход
// всегда даёт одинаковый выход.
package rating

import "math"

// DefaultKFactor — величина K по умолчанию, если конфигурация её не задаёт.
const DefaultKFactor = 32.0

// ExpectedScore возвращает ожидаемый результат стороны A против стороны B
// по классической формуле Elo: 1 / (1 + 10^((b-a)/400)).
func ExpectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/400.0))
}

// TeamAverage — рейтинг команды как среднее арифметическое рейтингов её членов.
func TeamAverage(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// ComputeTeamDeltas считает изменение рейтинга для победившей и проигравшей
// команд. Дельта одна на команду: каждый член победителей получает winDelta,
// каждый член проигравших — loseDelta (отрицательный при положительном K).
// Модель командная, персональная статистика в расчёте не участвует.
func ComputeTeamDeltas(winners, losers []int, kFactor float64) (winDelta, loseDelta int) {
	winAvg := TeamAverage(winners)
	loseAvg := TeamAverage(losers)

	winExpected := ExpectedScore(winAvg, loseAvg)
	loseExpected := ExpectedScore(loseAvg, winAvg)

	winDelta = int(math.Round(kFactor * (1.0 - winExpected)))
	loseDelta = int(math.Round(kFactor * (0.0 - loseExpected)))
	return winDelta, loseDelta
}
