package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SessionHeaderName = "X-Session-ID"
	SessionCookieName = "tina_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

type contextKey int

const sessionIDKey contextKey = iota

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// SessionIDFromContext returns the identity placed by SessionIdentity, or ""
// outside of it.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID stores an identity in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIdentity resolves the session identity for every request: the
// X-Session-ID header wins, then the tina_session cookie, else a new uuid is
// minted. The cookie is always (re)issued so browsers keep the identity.
func SessionIdentity(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromRequest(r)
			if id == "" {
				id = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(sessionCookieTTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   secureCookie,
			})
			w.Header().Set(SessionHeaderName, id)

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

func sessionIDFromRequest(r *http.Request) string {
	if id := validSessionID(r.Header.Get(SessionHeaderName)); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return validSessionID(c.Value)
	}
	return ""
}

func validSessionID(id string) string {
	id = strings.TrimSpace(id)
	if !sessionIDPattern.MatchString(id) {
		return ""
	}
	return id
}
