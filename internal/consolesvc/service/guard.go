package service

import (
	"errors"
	"sync"
)

var ErrSubmitInFlight = errors.New("a submission for this action is already in progress")

// SubmitGuard lets one submission per key run at a time.
type SubmitGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{inflight: make(map[string]struct{})}
}

// Acquire returns a release func, or ErrSubmitInFlight while key is busy.
func (g *SubmitGuard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, ErrSubmitInFlight
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}
