package middleware

import (
	"net/http"
	"sync"
)

// IdentityLocks serializes work per session identity. Different identities
// never block each other; idle entries are dropped.
type IdentityLocks struct {
	mu    sync.Mutex
	locks map[string]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

func NewIdentityLocks() *IdentityLocks {
	return &IdentityLocks{locks: make(map[string]*identityLock)}
}

// Lock blocks until id is free and returns the matching unlock func.
func (l *IdentityLocks) Lock(id string) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &identityLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// Len reports how many identities currently hold or wait for a lock.
func (l *IdentityLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// SingleFlight 保证同一会话的请求串行执行，须放在 SessionIdentity 之后。
func SingleFlight(locks *IdentityLocks) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := SessionIDFromContext(r.Context())
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			unlock := locks.Lock(id)
			defer unlock()
			next.ServeHTTP(w, r)
		})
	}
}
