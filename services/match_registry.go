package services

import (
	"context"
	"sync"
)

// MatchRegistry — арена эксклюзивных замков по id матча. Любая мутация
// жизненного цикла матча выполняется под его замком, поэтому на один матч
// одновременно идёт не более одной операции. Разные матчи не пересекаются.
//
// Записи создаются лениво и убираются, когда последний держатель уходит:
// терминальный матч, к которому больше никто не обращается, не оставляет
// следа в памяти.
type MatchRegistry struct {
	mu      sync.Mutex
	entries map[int]*registryEntry
}

type registryEntry struct {
	sem  chan struct{}
	refs int
}

func NewMatchRegistry() *MatchRegistry {
	return &MatchRegistry{
		entries: make(map[int]*registryEntry),
	}
}

// WithMatch выполняет fn под эксклюзивным замком матча. Ожидание ограничено
// контекстом: по дедлайну возвращается ErrConcurrentModification, fn не
// вызывается. Замок освобождается на любом пути выхода.
func (r *MatchRegistry) WithMatch(ctx context.Context, matchID int, fn func() error) error {
	release, err := r.acquire(ctx, matchID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (r *MatchRegistry) acquire(ctx context.Context, matchID int) (func(), error) {
	r.mu.Lock()
	entry, ok := r.entries[matchID]
	if !ok {
		entry = &registryEntry{sem: make(chan struct{}, 1)}
		r.entries[matchID] = entry
	}
	entry.refs++
	r.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		r.releaseRef(matchID, entry)
		return nil, ErrConcurrentModification
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-entry.sem
		r.releaseRef(matchID, entry)
	}, nil
}

func (r *MatchRegistry) releaseRef(matchID int, entry *registryEntry) {
	r.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(r.entries, matchID)
	}
	r.mu.Unlock()
}

// Live возвращает число матчей, по которым сейчас есть держатели замка.
func (r *MatchRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
