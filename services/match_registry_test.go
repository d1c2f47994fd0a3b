package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySerializesSameMatch(t *testing.T) {
	registry := NewMatchRegistry()
	ctx := context.Background()

	const workers = 20
	var current, maxConcurrent int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := registry.WithMatch(ctx, 7, func() error {
				mu.Lock()
				current++
				if current > maxConcurrent {
					maxConcurrent = current
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxConcurrent)
	assert.Zero(t, registry.Live())
}

func TestRegistryAllowsDistinctMatches(t *testing.T) {
	registry := NewMatchRegistry()
	ctx := context.Background()

	firstInside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- registry.WithMatch(ctx, 1, func() error {
			close(firstInside)
			<-release
			return nil
		})
	}()

	<-firstInside

	// Замок матча 1 занят, но матч 2 не ждёт его.
	completed := make(chan struct{})
	go func() {
		_ = registry.WithMatch(ctx, 2, func() error { return nil })
		close(completed)
	}()

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("operation on a different match was blocked")
	}

	close(release)
	require.NoError(t, <-done)
}

func TestRegistryDeadlineReturnsConcurrentModification(t *testing.T) {
	registry := NewMatchRegistry()

	holderInside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- registry.WithMatch(context.Background(), 5, func() error {
			close(holderInside)
			<-release
			return nil
		})
	}()

	<-holderInside

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := registry.WithMatch(ctx, 5, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.False(t, called, "fn must not run when the lock was not acquired")

	close(release)
	require.NoError(t, <-done)

	// Последний держатель ушёл — запись снята.
	assert.Zero(t, registry.Live())
}

func TestRegistryReleasedOnError(t *testing.T) {
	registry := NewMatchRegistry()
	ctx := context.Background()

	sentinel := assert.AnError
	err := registry.WithMatch(ctx, 3, func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	// Замок свободен для следующей операции.
	err = registry.WithMatch(ctx, 3, func() error { return nil })
	assert.NoError(t, err)
	assert.Zero(t, registry.Live())
}
