package riskwatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avvvet/console-services/internal/comm"
	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/service"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	"github.com/avvvet/console-services/internal/consolesvc/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []comm.ConsoleEvent
}

func (r *recorder) PublishEvent(ev comm.ConsoleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type platform struct {
	logins   atomic.Int32
	rejectNx atomic.Bool // reject the next players call with 401
}

func (p *platform) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/admin/auth/login":
			p.logins.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"ok":    true,
				"token": "svc",
				"admin": map[string]any{"id": 99, "username": "riskwatch", "role": "admin"},
			})
		case "/admin/users":
			if p.rejectNx.CompareAndSwap(true, false) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "expired"})
				return
			}
			assert.Equal(t, "total_wagered", r.URL.Query().Get("sort"))
			json.NewEncoder(w).Encode(map[string]any{
				"ok":    true,
				"total": 3,
				"users": []map[string]any{
					{"user_id": 1, "username": "lucky", "total_wagered": 600, "total_won": 590, "total_deposited_usd": 20},
					{"user_id": 2, "username": "freeloader", "total_wagered": 5000, "total_won": 100, "total_deposited_usd": 0},
					{"user_id": 3, "username": "regular", "total_wagered": 5000, "total_won": 4000, "total_deposited_usd": 300},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newWatcher(t *testing.T, p *platform, events service.EventPublisher) *Watcher {
	srv := p.server(t)
	connect := service.ClientConnector(api.NewClient(srv.URL, time.Second))
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)
	return NewWatcher("riskwatch", "riskwatch", "pw", rules.DefaultRiskRules(), connect, sessions, nil, events)
}

func TestScanAnnouncesNewFlagsOnce(t *testing.T) {
	p := &platform{}
	rec := &recorder{}
	w := newWatcher(t, p, rec)

	fresh, err := w.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	// critical first
	assert.Equal(t, int64(1), fresh[0].UserID)
	assert.Equal(t, rules.FlagExtremeWinRate, fresh[0].Flag)
	assert.Equal(t, int64(2), fresh[1].UserID)
	assert.Equal(t, rules.FlagNoDepositHighWager, fresh[1].Flag)

	require.Len(t, rec.events, 2)
	assert.Equal(t, EventRiskFlagged, rec.events[0].Type)
	assert.Equal(t, "risk_fraud", rec.events[0].Section)
	assert.Equal(t, "1", rec.events[0].Target)

	fresh, err = w.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Len(t, rec.events, 2)
	assert.Equal(t, int32(1), p.logins.Load())
}

func TestScanLogsInAgainAfterUnauthorized(t *testing.T) {
	p := &platform{}
	w := newWatcher(t, p, nil)

	_, err := w.Scan(context.Background())
	require.NoError(t, err)

	p.rejectNx.Store(true)
	_, err = w.Scan(context.Background())
	assert.True(t, api.IsKind(err, api.KindUnauthenticated))

	_, err = w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.logins.Load())
}

func TestRunStopsWithContext(t *testing.T) {
	p := &platform{}
	w := newWatcher(t, p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.logins.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type notes struct {
	mu   sync.Mutex
	recs []store.FlagRecord
}

func (n *notes) Notify(rec store.FlagRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recs = append(n.recs, rec)
}

func TestScanNotifiesNewFlags(t *testing.T) {
	p := &platform{}
	w := newWatcher(t, p, nil)
	n := &notes{}
	w.SetNotifier(n)

	_, err := w.Scan(context.Background())
	require.NoError(t, err)
	_, err = w.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, n.recs, 2)
	assert.Equal(t, rules.SeverityCritical, n.recs[0].Severity)
	assert.Equal(t, "lucky", n.recs[0].Username)
}
