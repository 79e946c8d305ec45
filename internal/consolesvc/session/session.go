package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrNotAuthenticated = errors.New("session is not authenticated")
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Record is the persisted part of a session: the platform token and the
// last known admin profile.
type Record struct {
	ID        string       `bson:"_id" json:"id"`
	Token     string       `bson:"token" json:"-"`
	Admin     models.Admin `bson:"admin" json:"admin"`
	CreatedAt time.Time    `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time    `bson:"expires_at" json:"expires_at"`
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}

// Session holds one operator's platform credentials. Any component that
// talks to the platform gets the session injected instead of reading a
// global token.
type Session struct {
	mu    sync.RWMutex
	rec   Record
	state State
	store Store
	now   func() time.Time

	onInvalidate func(id string)
}

// live reports whether the session is authenticated and inside its TTL.
// Callers hold s.mu.
func (s *Session) live() bool {
	return s.state == Authenticated && s.now().Before(s.rec.ExpiresAt)
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.ID
}

// State is Unauthenticated once the session was invalidated or its TTL
// has passed. Expiry is never renewed.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.live() {
		return Unauthenticated
	}
	return Authenticated
}

// Token returns the platform bearer token, empty once invalidated or expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.live() {
		return ""
	}
	return s.rec.Token
}

func (s *Session) Admin() (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.live() {
		return models.Admin{}, ErrNotAuthenticated
	}
	return s.rec.Admin, nil
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.ExpiresAt
}

// SetAdmin refreshes the cached profile, e.g. after /me.
func (s *Session) SetAdmin(ctx context.Context, a models.Admin) error {
	s.mu.Lock()
	if !s.live() {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.rec.Admin = a
	rec := s.rec
	s.mu.Unlock()

	return s.store.Save(ctx, rec)
}

// Invalidate moves the session to unauthenticated and clears the stored
// token and profile. Calling it again is a no-op.
func (s *Session) Invalidate(ctx context.Context) {
	s.mu.Lock()
	if s.state == Unauthenticated {
		s.mu.Unlock()
		return
	}
	s.state = Unauthenticated
	id := s.rec.ID
	s.rec.Token = ""
	s.rec.Admin = models.Admin{}
	hook := s.onInvalidate
	s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		log.WithField("session", id).Errorf("Error deleting session record: %s", err)
	}
	if hook != nil {
		hook(id)
	}
	log.WithField("session", id).Info("session invalidated")
}

// Manager creates and resolves sessions and keeps live ones in memory so
// every request for the same session shares one state machine.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu   sync.Mutex
	live map[string]*Session
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		live:  make(map[string]*Session),
	}
}

// Create starts an authenticated session for a freshly logged in admin.
func (m *Manager) Create(ctx context.Context, token string, admin models.Admin) (*Session, error) {
	now := m.now()
	rec := Record{
		ID:        uuid.NewString(),
		Token:     token,
		Admin:     admin,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	s := m.wrap(rec)
	m.mu.Lock()
	m.live[rec.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with the given id, restoring it from the store
// after a restart. Expired or invalidated sessions are ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		if s.State() == Authenticated && m.now().Before(s.ExpiresAt()) {
			return s, nil
		}
		s.Invalidate(ctx)
		return nil, ErrNotFound
	}

	rec, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.now().Before(rec.ExpiresAt) {
		m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.live[id]; ok {
		return s, nil
	}
	s = m.wrap(rec)
	m.live[id] = s
	return s, nil
}

func (m *Manager) wrap(rec Record) *Session {
	return &Session{
		rec:          rec,
		state:        Authenticated,
		store:        m.store,
		now:          func() time.Time { return m.now() },
		onInvalidate: m.forget,
	}
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.live, id)
	m.mu.Unlock()
}
