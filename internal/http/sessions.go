package http

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"treasury/internal/services"
)

// sessionStore keeps bearer tokens in memory. A single-tenant deployment
// does not need persistent sessions; restarting the server logs everyone out.
type sessionStore struct {
	mu           sync.Mutex
	ttl          time.Duration
	sessions     map[string]sessionEntry
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type sessionEntry struct {
	session   services.Session
	expiresAt time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	st := &sessionStore{
		ttl:         ttl,
		sessions:    make(map[string]sessionEntry),
		stopCleanup: make(chan struct{}),
	}
	go st.startCleanup()
	return st
}

func (st *sessionStore) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.cleanupExpired()
		case <-st.stopCleanup:
			return
		}
	}
}

func (st *sessionStore) cleanupExpired() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	for token, e := range st.sessions {
		if now.After(e.expiresAt) {
			delete(st.sessions, token)
		}
	}
}

func (st *sessionStore) stop() {
	st.shutdownOnce.Do(func() {
		close(st.stopCleanup)
	})
}

// issue creates a token for a logged-in user.
func (st *sessionStore) issue(sess services.Session) string {
	token := uuid.NewString()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[token] = sessionEntry{session: sess, expiresAt: time.Now().Add(st.ttl)}
	return token
}

// resolve validates an "Authorization: Bearer <token>" header.
func (st *sessionStore) resolve(header string) (services.Session, bool) {
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return services.Session{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[token]
	if !ok {
		return services.Session{}, false
	}
	if time.Now().After(e.expiresAt) {
		delete(st.sessions, token)
		return services.Session{}, false
	}
	return e.session, true
}
