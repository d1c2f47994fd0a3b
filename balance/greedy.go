package balance

import (
	"sort"

	"github.com/jominki354/hotstinder/models"
)

// GreedyBalancer — стратегия "balanced" (по умолчанию): сортировка по рейтингу
// по убыванию, затем жадное распределение в команду с меньшей текущей суммой.
// O(n log n), детерминирована, минимизирует разрыв средних рейтингов без
// полного перебора.
type GreedyBalancer struct{}

func NewGreedyBalancer() *GreedyBalancer {
	return &GreedyBalancer{}
}

func (b *GreedyBalancer) GetName() string {
	return "balanced"
}

func (b *GreedyBalancer) Assign(roster []Player) (Assignment, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	sorted := make([]Player, len(roster))
	copy(sorted, roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		// Стабильный порядок при равных рейтингах — раскладка воспроизводима.
		return sorted[i].Key < sorted[j].Key
	})

	cap := teamCap(len(roster))
	assignment := make(Assignment, len(roster))
	sums := map[models.Team]int{models.TeamBlue: 0, models.TeamRed: 0}
	sizes := map[models.Team]int{models.TeamBlue: 0, models.TeamRed: 0}

	for _, p := range sorted {
		team := models.TeamBlue
		if sums[models.TeamRed] < sums[models.TeamBlue] {
			team = models.TeamRed
		}
		if sizes[team] >= cap {
			team = team.Opposite()
		}
		assignment[p.Key] = team
		sums[team] += p.Rating
		sizes[team]++
	}

	return assignment, nil
}
