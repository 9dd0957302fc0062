package shell

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one mounted shell: its navigator lives as long as the session.
type Session struct {
	ID        string
	Navigator *Navigator
	Banner    *Banner
	CreatedAt time.Time

	mu       sync.RWMutex
	settings SettingsForm
	lastSeen time.Time
}

// LastSeen reports when the session was last resolved.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.LastSeen()) > ttl
}

// Settings returns the last saved settings.
func (s *Session) Settings() SettingsForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Session) saveSettings(form SettingsForm) {
	s.mu.Lock()
	s.settings = form
	s.mu.Unlock()
}

// SessionStore resolves shells by id.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Ensure(ctx context.Context, id string) (*Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// SessionStoreOption customizes the in-memory store.
type SessionStoreOption func(*InMemorySessionStore)

// WithNavigatorOptions applies options to every new navigator.
func WithNavigatorOptions(opts ...NavigatorOption) SessionStoreOption {
	return func(s *InMemorySessionStore) {
		s.navOpts = append(s.navOpts, opts...)
	}
}

// WithBannerTimeout sets the reset delay of the save banner.
func WithBannerTimeout(d time.Duration) SessionStoreOption {
	return func(s *InMemorySessionStore) {
		if d > 0 {
			s.bannerTimeout = d
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for banner timers.
func WithAfterFunc(fn AfterFunc) SessionStoreOption {
	return func(s *InMemorySessionStore) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionStoreOption {
	return func(s *InMemorySessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionTTL unmounts shells idle for longer than ttl. Zero keeps them
// for the life of the store.
func WithSessionTTL(ttl time.Duration) SessionStoreOption {
	return func(s *InMemorySessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// InMemorySessionStore provides a concurrency-safe default store.
type InMemorySessionStore struct {
	mu            sync.RWMutex
	data          map[string]*Session
	navOpts       []NavigatorOption
	bannerTimeout time.Duration
	afterFunc     AfterFunc
	now           func() time.Time
	ttl           time.Duration
}

// NewInMemorySessionStore creates an empty store.
func NewInMemorySessionStore(opts ...SessionStoreOption) *InMemorySessionStore {
	store := &InMemorySessionStore{
		data:          make(map[string]*Session),
		bannerTimeout: DefaultBannerTimeout,
		afterFunc:     defaultAfterFunc,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// NewSessionID returns a random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the session or ErrSessionNotFound. Expired sessions are
// unmounted on access.
func (s *InMemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	now := s.now()
	s.mu.RLock()
	session, ok := s.data[id]
	s.mu.RUnlock()
	if ok && session.expired(now, s.ttl) {
		s.mu.Lock()
		if s.data[id] == session {
			delete(s.data, id)
		}
		s.mu.Unlock()
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	session.touch(now)
	return session, nil
}

// Ensure returns the session for id, creating it when absent. An empty id
// allocates a new one.
func (s *InMemorySessionStore) Ensure(_ context.Context, id string) (*Session, bool, error) {
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return nil, false, fmt.Errorf("shell: invalid session id: %w", err)
		}
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.data[id]; ok {
		if !session.expired(now, s.ttl) {
			session.touch(now)
			return session, false, nil
		}
		delete(s.data, id)
	}
	if id == "" {
		id = NewSessionID()
	}
	session := &Session{
		ID:        id,
		Navigator: NewNavigator(s.navOpts...),
		Banner:    NewBanner(s.bannerTimeout, s.afterFunc),
		CreatedAt: now,
		settings:  DefaultSettings(),
		lastSeen:  now,
	}
	s.data[id] = session
	return session, true, nil
}

// Delete unmounts the shell.
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Sweep unmounts every expired session and returns how many it removed.
func (s *InMemorySessionStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.data {
		if session.expired(now, s.ttl) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *InMemorySessionStore) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len reports the number of live sessions.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
