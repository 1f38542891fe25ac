package web

import (
	"context"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	sessionCookie = "sid"
	flashCookie   = "flash"

	sessionMaxAge = 365 * 24 * 60 * 60
)

type contextKey int

const sessionKey contextKey = iota

// SessionID returns the session id attached by EnsureSession, or "".
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey).(string)
	return sid
}

// EnsureSession attaches an anonymous session id to the request context,
// minting one and setting the cookie when the client has none. The id
// only groups analytics events; it carries no server-side state.
func EnsureSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			sid = c.Value
		}
		if sid == "" {
			u := uuid.New()
			sid = hex.EncodeToString(u[:])
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   sessionMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   requestIsSecure(r),
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sid)))
	})
}

// requestIsSecure also trusts the first X-Forwarded-Proto hop, as the
// app usually sits behind a TLS-terminating proxy.
func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	return strings.TrimSpace(first) == "https"
}

// setFlash queues a one-shot notice for the next index render.
func setFlash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the queued notice, if any.
func popFlash(w http.ResponseWriter, r *http.Request) (category, message string) {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return "", ""
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	category, message, _ = strings.Cut(raw, "|")
	return category, message
}
