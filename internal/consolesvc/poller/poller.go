package poller

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type Result[T any] struct {
	Gen   uint64
	Value T
	Err   error
	At    time.Time
}

// Poller fetches on a fixed interval. Every fetch gets a generation number
// and only the newest generation's result is ever applied. A tick that
// finds the previous fetch still running is skipped so a slow upstream
// still gets its answer through; a manual Trigger cancels it instead.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	apply    func(Result[T])

	mu       sync.Mutex
	gen      uint64
	applied  uint64
	inFlight bool // the newest generation has not completed
	skipped  uint64
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	applyMu sync.Mutex // apply may block on a slow client; never held with mu while applying
}

func New[T any](name string, interval time.Duration, fetch func(ctx context.Context) (T, error), apply func(Result[T])) *Poller[T] {
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		apply:    apply,
	}
}

// Run fetches immediately and then on every tick until ctx is done. It
// returns after the last in-flight fetch has finished.
func (p *Poller[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.cancel != nil {
				p.cancel()
			}
			p.mu.Unlock()
			p.wg.Wait()
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick starts a fetch unless the newest one is still running.
func (p *Poller[T]) tick(ctx context.Context) {
	p.mu.Lock()
	if p.inFlight {
		p.skipped++
		fields := log.Fields{"poller": p.name, "gen": p.gen, "skipped": p.skipped}
		p.mu.Unlock()
		log.WithFields(fields).Debug("poll still in flight, skipping tick")
		return
	}
	p.mu.Unlock()
	p.Trigger(ctx)
}

// Trigger starts a fetch now, superseding any fetch still in flight. Use it
// for manual refresh.
func (p *Poller[T]) Trigger(ctx context.Context) uint64 {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	p.inFlight = true
	fctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()

		v, err := p.fetch(fctx)
		p.complete(Result[T]{Gen: gen, Value: v, Err: err, At: time.Now()}, fctx.Err() != nil)
	}()
	return gen
}

// complete applies res if it is the newest result. A fetch canceled by a
// newer Trigger or by shutdown is never applied.
func (p *Poller[T]) complete(res Result[T], canceled bool) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	p.mu.Lock()
	if res.Gen == p.gen {
		p.inFlight = false
	}
	if canceled || res.Gen != p.gen || res.Gen <= p.applied {
		latest := p.gen
		p.mu.Unlock()
		log.WithFields(log.Fields{"poller": p.name, "gen": res.Gen, "latest": latest}).Debug("discarding stale poll result")
		return
	}
	p.applied = res.Gen
	p.mu.Unlock()

	p.apply(res)
}

// Generation is the number of the newest fetch started.
func (p *Poller[T]) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Skipped counts ticks dropped because a fetch was still running.
func (p *Poller[T]) Skipped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped
}
