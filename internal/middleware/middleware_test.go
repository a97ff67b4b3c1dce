package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(SessionIDFromContext(r.Context())))
	})
}

func TestSessionIdentityPrefersHeader(t *testing.T) {
	h := SessionIdentity(false)(echoIdentity())

	req := httptest.NewRequest(http.MethodPost, "/api/talk", nil)
	req.Header.Set(SessionHeaderName, "tab-1")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-id"})
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if got := resp.Body.String(); got != "tab-1" {
		t.Fatalf("expected header identity, got %q", got)
	}
}

func TestSessionIdentityFallsBackToCookie(t *testing.T) {
	h := SessionIdentity(false)(echoIdentity())

	req := httptest.NewRequest(http.MethodPost, "/api/talk", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-id"})
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if got := resp.Body.String(); got != "cookie-id" {
		t.Fatalf("expected cookie identity, got %q", got)
	}
}

func TestSessionIdentityMintsNewID(t *testing.T) {
	h := SessionIdentity(false)(echoIdentity())

	req := httptest.NewRequest(http.MethodPost, "/api/start", nil)
	req.Header.Set(SessionHeaderName, "bad id with spaces")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	id := resp.Body.String()
	if len(id) != 36 {
		t.Fatalf("expected minted uuid, got %q", id)
	}
	if resp.Header().Get(SessionHeaderName) != id {
		t.Fatalf("expected identity echoed in header")
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].Value != id {
		t.Fatalf("expected session cookie with minted id, got %+v", cookies)
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	h := CORS([]string{"*"})(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected origin echoed")
	}
	if resp.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("wildcard must not grant credentials")
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS([]string{"http://app.local"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/talk", nil)
	req.Header.Set("Origin", "http://app.local")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if called {
		t.Fatal("preflight should not reach the handler")
	}
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("explicit origin should allow credentials")
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	h := CORS([]string{"http://app.local"})(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Origin", "http://evil.local")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
}

func TestIdentityLocksSerializeSameIdentity(t *testing.T) {
	locks := NewIdentityLocks()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("same")
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&maxActive)
				if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected serialized access, saw %d concurrent holders", maxActive)
	}
	if locks.Len() != 0 {
		t.Fatalf("expected idle locks to be dropped, got %d", locks.Len())
	}
}

func TestIdentityLocksIndependentIdentities(t *testing.T) {
	locks := NewIdentityLocks()

	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("identity b was blocked by identity a")
	}
}
