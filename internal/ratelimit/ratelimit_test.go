package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

// ── memory counter ────────────────────────────────────────────────────────

func TestMemoryCounter_CountsWithinWindow(t *testing.T) {
	now := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	m := NewMemoryCounter()
	m.now = func() time.Time { return now }

	for want := 1; want <= 3; want++ {
		got, err := m.Incr(context.Background(), "k", time.Minute)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if got != want {
			t.Errorf("Incr #%d = %d, want %d", want, got, want)
		}
	}
}

func TestMemoryCounter_ResetsAfterExpiry(t *testing.T) {
	now := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	m := NewMemoryCounter()
	m.now = func() time.Time { return now }

	if _, err := m.Incr(context.Background(), "k", time.Minute); err != nil {
		t.Fatalf("Incr: %v", err)
	}
	now = now.Add(2 * time.Minute)
	got, err := m.Incr(context.Background(), "k", time.Minute)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if got != 1 {
		t.Errorf("count after expiry = %d, want 1", got)
	}
}

func TestMemoryCounter_SweepDropsExpiredKeys(t *testing.T) {
	now := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	m := NewMemoryCounter()
	m.now = func() time.Time { return now }

	if _, err := m.Incr(context.Background(), "stale", time.Minute); err != nil {
		t.Fatalf("Incr: %v", err)
	}
	now = now.Add(5 * time.Minute)
	if _, err := m.Incr(context.Background(), "fresh", time.Minute); err != nil {
		t.Fatalf("Incr: %v", err)
	}

	m.mu.Lock()
	_, staleKept := m.entries["stale"]
	m.mu.Unlock()
	if staleKept {
		t.Error("expired key survived the sweep")
	}
}

// ── limiter ───────────────────────────────────────────────────────────────

func okHandler() (http.Handler, *int) {
	calls := 0
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}), &calls
}

func fixedLimiter(c Counter) *Limiter {
	l := New(c, logging.Nop())
	fixed := time.Date(2025, 8, 25, 10, 0, 30, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l
}

func TestLimiter_RejectsOverLimit(t *testing.T) {
	m := NewMemoryCounter()
	l := fixedLimiter(m)
	next, calls := okHandler()
	h := l.Wrap("test", next, PerMinute(2))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "198.51.100.4:1000"
		h.ServeHTTP(last, req)
	}

	if *calls != 2 {
		t.Errorf("handler ran %d times, want 2", *calls)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("429 must carry Retry-After")
	}
	if got := last.Body.String(); got != `{"error":"rate_limited"}` {
		t.Errorf("429 body = %q", got)
	}
}

func TestLimiter_KeysByClientIP(t *testing.T) {
	m := NewMemoryCounter()
	l := fixedLimiter(m)
	next, calls := okHandler()
	h := l.Wrap("test", next, PerMinute(1))

	for _, ip := range []string{"198.51.100.4", "198.51.100.5"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("first request from %s = %d, want 200", ip, rec.Code)
		}
	}
	if *calls != 2 {
		t.Errorf("handler ran %d times, want 2 (one per IP)", *calls)
	}
}

func TestLimiter_StrictestLimitWins(t *testing.T) {
	m := NewMemoryCounter()
	l := fixedLimiter(m)
	next, _ := okHandler()
	h := l.Wrap("test", next, PerMinute(5), PerHour(2))

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "198.51.100.4:1000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	want := []int{200, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v (hourly cap of 2 trips first)", codes, want)
		}
	}
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int, error) {
	return 0, errors.New("backend down")
}

// A dead counter must not block traffic.
func TestLimiter_FailsOpen(t *testing.T) {
	l := fixedLimiter(failingCounter{})
	next, calls := okHandler()
	h := l.Wrap("test", next, PerMinute(1))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}
	if *calls != 3 {
		t.Errorf("handler ran %d times, want 3", *calls)
	}
}

// ── client IP ─────────────────────────────────────────────────────────────

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.4:52011"
	if got := clientIP(req); got != "198.51.100.4" {
		t.Errorf("clientIP = %q, want socket host", got)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP with XFF = %q, want first hop", got)
	}
}
