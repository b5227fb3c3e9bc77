package orchestrator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestAcquireSerializesSameSession(t *testing.T) {
	r := NewRegistry(time.Hour)
	var counter, max, active int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := r.Acquire("one")
			defer release()
			mu.Lock()
			active++
			if active > max {
				max = active
			}
			counter++
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
	assert.Equal(t, 1, max)
}

func TestSweepRemovesOnlyIdleSessions(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)

	release := r.Acquire("busy")
	r.Acquire("idle")()
	assert.Equal(t, 2, r.Len())

	time.Sleep(25 * time.Millisecond)
	removed := r.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Len())

	release()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 0, r.Len())
}
