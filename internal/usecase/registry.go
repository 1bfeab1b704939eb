package usecase

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartshop/agent/internal/domain"
)

const defaultIdleTTL = time.Hour

// sessionEntry pairs a session with its last-seen time for idle expiry
type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// SessionRegistry multiplexes shopping sessions across browser clients,
// keyed by an opaque uuid the client echoes back on every request. Idle
// sessions are expired in the background.
type SessionRegistry struct {
	mu         sync.Mutex
	sessions   map[string]*sessionEntry
	gateway    domain.AgentGateway
	maxCompare int
	idleTTL    time.Duration
	stop       chan struct{}
	once       sync.Once
}

// NewSessionRegistry creates a registry that builds sessions against the
// given gateway
func NewSessionRegistry(gateway domain.AgentGateway, maxCompare int, idleTTL time.Duration) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	r := &SessionRegistry{
		sessions:   make(map[string]*sessionEntry),
		gateway:    gateway,
		maxCompare: maxCompare,
		idleTTL:    idleTTL,
		stop:       make(chan struct{}),
	}

	go r.expireIdle()

	return r
}

// Acquire returns the session for the given id, creating a fresh session
// under a new id when the id is empty or unknown. The returned id is what
// the client must present next time.
func (r *SessionRegistry) Acquire(id string) (*Session, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if entry, ok := r.sessions[id]; ok {
			entry.lastSeen = time.Now()
			return entry.session, id
		}
	}

	newID := uuid.NewString()
	session := NewSession(r.gateway, r.maxCompare)
	r.sessions[newID] = &sessionEntry{session: session, lastSeen: time.Now()}
	log.Printf("[SESSION] Created session %s", newID)
	return session, newID
}

// Lookup returns the session for the given id without creating one
func (r *SessionRegistry) Lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	entry.lastSeen = time.Now()
	return entry.session, nil
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the expiry goroutine
func (r *SessionRegistry) Close() {
	r.once.Do(func() { close(r.stop) })
}

// expireIdle drops sessions that have not been touched within the idle TTL
func (r *SessionRegistry) expireIdle() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			cutoff := time.Now().Add(-r.idleTTL)
			for id, entry := range r.sessions {
				if entry.lastSeen.Before(cutoff) {
					delete(r.sessions, id)
					log.Printf("[SESSION] Expired idle session %s", id)
				}
			}
			r.mu.Unlock()
		}
	}
}
