// Package analytics records usage events with client identifiers hashed.
// Writes are best-effort: a failed analytics insert never fails the
// request that triggered it.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/Catalitium/catalitiumJobs/internal/store"
	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

// Sink is the slice of the store the recorder writes to.
type Sink interface {
	InsertSearchLog(ctx context.Context, term, country string) error
	InsertSearchEvent(ctx context.Context, ev store.SearchEvent) error
	InsertJobViewEvent(ctx context.Context, ev store.JobViewEvent) error
	InsertSubscribeEvent(ctx context.Context, ev store.SubscribeEvent) error
}

// ClientMeta is the per-request client context attached to events.
// The IP address is stored only as a salted hash.
type ClientMeta struct {
	UserAgent string
	Referer   string
	IPHash    string
	SessionID string
}

type Recorder struct {
	sink Sink
	salt string
	log  *logging.Logger
}

func NewRecorder(sink Sink, salt string, log *logging.Logger) *Recorder {
	return &Recorder{sink: sink, salt: salt, log: log}
}

// HashIdentifier returns the hex sha256 of salt+value. Empty values
// still hash, so absent identifiers group together rather than vanish.
func (r *Recorder) HashIdentifier(value string) string {
	sum := sha256.Sum256([]byte(r.salt + value))
	return hex.EncodeToString(sum[:])
}

// ClientMeta extracts headers and the hashed client IP from a request.
// User agent and referer are capped at 300 characters.
func (r *Recorder) ClientMeta(req *http.Request, sessionID string) ClientMeta {
	return ClientMeta{
		UserAgent: truncate(req.Header.Get("User-Agent"), 300),
		Referer:   truncate(req.Header.Get("Referer"), 300),
		IPHash:    r.HashIdentifier(clientIP(req)),
		SessionID: sessionID,
	}
}

func (r *Recorder) RecordSearch(ctx context.Context, ev store.SearchEvent) {
	ev.CreatedAt = store.NowISO()
	if err := r.sink.InsertSearchEvent(ctx, ev); err != nil {
		r.log.Warn("search event not recorded", "error", err)
	}
}

// RecordSearchLog keeps the plain term log. Empty searches are not rows.
func (r *Recorder) RecordSearchLog(ctx context.Context, term, country string) {
	if term == "" && country == "" {
		return
	}
	if err := r.sink.InsertSearchLog(ctx, term, country); err != nil {
		r.log.Warn("search log not recorded", "error", err)
	}
}

func (r *Recorder) RecordJobView(ctx context.Context, ev store.JobViewEvent) {
	ev.CreatedAt = store.NowISO()
	if err := r.sink.InsertJobViewEvent(ctx, ev); err != nil {
		r.log.Warn("job view event not recorded", "error", err)
	}
}

// RecordSubscribe writes the subscription outcome with the email hashed.
// A fresh subscription is stored as "subscribed", which is what the
// daily summary counts; repeats keep their "duplicate" status.
func (r *Recorder) RecordSubscribe(ctx context.Context, email string, status store.SubscribeStatus) {
	st := string(status)
	if status == store.SubscribeOK {
		st = "subscribed"
	}
	r.RecordSubscribeStatus(ctx, email, st)
}

// RecordSubscribeStatus stores a subscribe funnel event with a caller-
// supplied status, e.g. "clicked" reported by the frontend.
func (r *Recorder) RecordSubscribeStatus(ctx context.Context, email, status string) {
	ev := store.SubscribeEvent{
		CreatedAt: store.NowISO(),
		EmailHash: r.HashIdentifier(email),
		Status:    status,
	}
	if err := r.sink.InsertSubscribeEvent(ctx, ev); err != nil {
		r.log.Warn("subscribe event not recorded", "error", err)
	}
}

// clientIP prefers the first X-Forwarded-For hop, then the socket peer.
func clientIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
