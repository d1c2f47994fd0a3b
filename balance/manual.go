package balance

import (
	"fmt"
	"sort"

	"github.com/jominki354/hotstinder/models"
)

// ManualBalancer — стратегия "manual": явно запрошенные при входе команды
// сохраняются, оставшиеся участники жадно добалансируются в свободные слоты.
type ManualBalancer struct{}

func NewManualBalancer() *ManualBalancer {
	return &ManualBalancer{}
}

func (b *ManualBalancer) GetName() string {
	return "manual"
}

func (b *ManualBalancer) Assign(roster []Player) (Assignment, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	cap := teamCap(len(roster))
	assignment := make(Assignment, len(roster))
	sums := map[models.Team]int{models.TeamBlue: 0, models.TeamRed: 0}
	sizes := map[models.Team]int{models.TeamBlue: 0, models.TeamRed: 0}

	var unassigned []Player
	for _, p := range roster {
		if p.Preferred == nil {
			unassigned = append(unassigned, p)
			continue
		}
		team := *p.Preferred
		if !team.Valid() {
			return nil, fmt.Errorf("player %s: invalid team %q", p.Key, team)
		}
		if sizes[team] >= cap {
			return nil, fmt.Errorf("player %s wants %s: %w", p.Key, team, ErrPreferredSideFull)
		}
		assignment[p.Key] = team
		sums[team] += p.Rating
		sizes[team]++
	}

	sort.SliceStable(unassigned, func(i, j int) bool {
		if unassigned[i].Rating != unassigned[j].Rating {
			return unassigned[i].Rating > unassigned[j].Rating
		}
		return unassigned[i].Key < unassigned[j].Key
	})

	for _, p := range unassigned {
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
