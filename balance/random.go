package balance

import (
	"math/rand"
	"time"

	"github.com/jominki354/hotstinder/models"
)

// RandomBalancer — стратегия "random" для казуальных матчей: равномерно
// случайное разбиение с соблюдением ограничения на размер команд.
type RandomBalancer struct {
	rnd *rand.Rand
}

// NewRandomBalancer создаёт стратегию на переданном генераторе.
// nil означает генератор, посеянный текущим временем; в тестах передаётся
// детерминированный rand.New(rand.NewSource(...)).
func NewRandomBalancer(rnd *rand.Rand) *RandomBalancer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomBalancer{rnd: rnd}
}

func (b *RandomBalancer) GetName() string {
	return "random"
}

func (b *RandomBalancer) Assign(roster []Player) (Assignment, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	shuffled := make([]Player, len(roster))
	copy(shuffled, roster)
	b.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	// Чередование после перемешивания даёт |BLUE - RED| <= 1 при любом n.
	assignment := make(Assignment, len(roster))
	for i, p := range shuffled {
		if i%2 == 0 {
			assignment[p.Key] = models.TeamBlue
		} else {
			assignment[p.Key] = models.TeamRed
		}
	}

	return assignment, nil
}
