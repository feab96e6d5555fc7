package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArenaSerializesSameKey(t *testing.T) {
	arena := NewArena()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := arena.Lock("order-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestArenaReleasesEntries(t *testing.T) {
	arena := NewArena()

	unlock := arena.Lock("a")
	unlock()
	unlock = arena.Lock("b")
	unlock()

	arena.mu.Lock()
	defer arena.mu.Unlock()
	assert.Empty(t, arena.locks)
}

func TestArenaIndependentKeys(t *testing.T) {
	arena := NewArena()

	unlockA := arena.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := arena.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
}
