// Package locks provides a keyed mutex arena. Writers to the same
// entity serialize on its key; unrelated entities never contend.
package locks

import "sync"

type Arena struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewArena() *Arena {
	return &Arena{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key and returns its unlock function.
// Entries are reference counted and removed once the last holder
// releases, so the arena does not grow with the ID space.
func (a *Arena) Lock(key string) func() {
	a.mu.Lock()
	e, ok := a.locks[key]
	if !ok {
		e = &entry{}
		a.locks[key] = e
	}
	e.refs++
	a.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		a.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(a.locks, key)
		}
		a.mu.Unlock()
	}
}
