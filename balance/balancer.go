// Package balance раскладывает состав матча на две команды.
// Стратегия выбирается по models.BalanceType матча.
package balance

import (
	"errors"
	"math/rand"

	"github.com/jominki354/hotstinder/models"
)

var (
	ErrEmptyRoster        = errors.New("roster is empty")
	ErrPreferredSideFull  = errors.New("preferred team has no free slots")
	ErrUnknownBalanceType = errors.New("unknown balance type")
)

// Player — участник с текущим рейтингом и (для manual-стратегии)
// явно запрошенной командой.
type Player struct {
	Key       string
	Rating    int
	Preferred *models.Team
}

// Assignment — раскладка: ключ участника -> команда.
type Assignment map[string]models.Team

func (a Assignment) TeamSize(t models.Team) int {
	n := 0
	for _, team := range a {
		if team == t {
			n++
		}
	}
	return n
}

// Balancer делит состав на две команды. Контракт для любой стратегии:
// каждый участник получает ровно одну команду, |BLUE - RED| <= 1.
type Balancer interface {
	GetName() string
	Assign(roster []Player) (Assignment, error)
}

// ForType возвращает стратегию для типа балансировки матча.
// rnd используется только random-стратегией; nil допустим.
func ForType(t models.BalanceType, rnd *rand.Rand) (Balancer, error) {
	switch t {
	case models.BalanceBalanced:
		return NewGreedyBalancer(), nil
	case models.BalanceRandom:
		return NewRandomBalancer(rnd), nil
	case models.BalanceManual:
		return NewManualBalancer(), nil
	default:
		return nil, ErrUnknownBalanceType
	}
}

// teamCap — максимальный размер одной команды для данного состава.
func teamCap(rosterSize int) int {
	return (rosterSize + 1) / 2
}
