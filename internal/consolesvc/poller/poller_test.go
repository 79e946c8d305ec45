package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	results []Result[int]
}

func (r *recorder) apply(res Result[int]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) snapshot() []Result[int] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result[int](nil), r.results...)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	fetch := func(ctx context.Context) (int, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			// ignores cancellation and finishes after the second fetch
			close(started)
			<-release
			return 1, nil
		}
		return n, nil
	}

	rec := &recorder{}
	p := New("test", time.Hour, fetch, rec.apply)
	ctx := context.Background()

	p.Trigger(ctx)
	<-started
	p.Trigger(ctx)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	close(release)
	p.wg.Wait()

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].Gen)
	assert.Equal(t, 2, got[0].Value)
}

func TestNewTriggerCancelsInFlight(t *testing.T) {
	canceled := make(chan struct{})
	started := make(chan struct{})
	first := true
	var mu sync.Mutex

	fetch := func(ctx context.Context) (int, error) {
		mu.Lock()
		isFirst := first
		first = false
		mu.Unlock()
		if isFirst {
			close(started)
			<-ctx.Done()
			close(canceled)
			return 0, ctx.Err()
		}
		return 7, nil
	}

	rec := &recorder{}
	p := New("test", time.Hour, fetch, rec.apply)
	p.Trigger(context.Background())
	<-started
	p.Trigger(context.Background())

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("first fetch was not canceled")
	}
	p.wg.Wait()

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Value)
	assert.NoError(t, got[0].Err)
}

func TestRunPollsUntilCanceled(t *testing.T) {
	var mu sync.Mutex
	n := 0
	fetch := func(ctx context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return n, nil
	}

	rec := &recorder{}
	p := New("test", 10*time.Millisecond, fetch, rec.apply)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	got := rec.snapshot()
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Gen, got[i-1].Gen, "results applied in generation order")
	}
}

func TestSlowFetchStillApplied(t *testing.T) {
	var mu sync.Mutex
	started := 0
	fetch := func(ctx context.Context) (int, error) {
		mu.Lock()
		started++
		n := started
		mu.Unlock()
		select {
		case <-time.After(50 * time.Millisecond):
			return n, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	rec := &recorder{}
	p := New("slow", 20*time.Millisecond, fetch, rec.apply)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	for _, res := range rec.snapshot() {
		assert.NoError(t, res.Err)
	}
	assert.NotZero(t, p.Skipped())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, uint64(started), p.Generation(), "every started fetch has its own generation")
}

func TestTriggerNotBlockedBySlowApply(t *testing.T) {
	unblock := make(chan struct{})
	applying := make(chan struct{})
	var once sync.Once

	fetch := func(ctx context.Context) (int, error) { return 1, nil }
	apply := func(res Result[int]) {
		if res.Gen == 1 {
			once.Do(func() { close(applying) })
			<-unblock
		}
	}

	p := New("blocked", time.Hour, fetch, apply)
	p.Trigger(context.Background())
	<-applying

	triggered := make(chan uint64)
	go func() { triggered <- p.Trigger(context.Background()) }()
	select {
	case gen := <-triggered:
		assert.Equal(t, uint64(2), gen)
	case <-time.After(time.Second):
		t.Fatal("Trigger waited for apply")
	}

	close(unblock)
	p.wg.Wait()
}
