package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.uber.org/zap"
)

// Session pairs one visitor's booking workflow with their cart
// coordinator.
type Session struct {
	ID       string
	Workflow *Workflow
	Cart     *Coordinator

	lastSeen time.Time
}

// SessionConfig carries the shared backends a session manager hands to
// every new session.
type SessionConfig struct {
	Source          ProviderSource
	Quotes          QuoteService
	Checkouts       CheckoutService
	Phones          PhoneVerifier
	Store           CartStore
	DefaultTimezone string
	TTL             time.Duration
	Logger          *zap.Logger
}

// SessionManager keeps live sessions in memory and evicts the ones idle
// past the TTL.
type SessionManager struct {
	mu       sync.Mutex
	cfg      SessionConfig
	sessions map[string]*Session
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	m := &SessionManager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Create starts a session for a guest. guestID keys the persisted cart; a
// returning guest gets their cart restored. timezone overrides the
// configured default when non-empty.
func (m *SessionManager) Create(ctx context.Context, guestID, timezone string) (*Session, error) {
	if timezone == "" {
		timezone = m.cfg.DefaultTimezone
	}

	cart := NewCoordinator(m.cfg.Quotes, m.cfg.Checkouts, m.cfg.Phones, m.cfg.Store, guestID, m.cfg.Logger)
	wf, err := NewWorkflow(m.cfg.Source, cart, timezone, m.cfg.Logger)
	if err != nil {
		return nil, err
	}
	cart.Restore(ctx)

	s := &Session{
		ID:       uuid.NewString(),
		Workflow: wf,
		Cart:     cart,
		lastSeen: time.Now(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get looks up a session by id and refreshes its idle timer.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = time.Now()
	}
	return s, ok
}

// Close stops the eviction sweeper.
func (m *SessionManager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *SessionManager) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, s := range m.sessions {
				if now.Sub(s.lastSeen) > m.cfg.TTL {
					delete(m.sessions, id)
					m.cfg.Logger.Debug("session expired", zap.String("sessionID", id))
				}
			}
			m.mu.Unlock()
		}
	}
}
