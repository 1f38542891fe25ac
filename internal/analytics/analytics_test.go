package analytics_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Catalitium/catalitiumJobs/internal/analytics"
	"github.com/Catalitium/catalitiumJobs/internal/store"
	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

type fakeSink struct {
	searches   []store.SearchEvent
	logs       []string
	views      []store.JobViewEvent
	subscribes []store.SubscribeEvent
	err        error
}

func (f *fakeSink) InsertSearchLog(_ context.Context, term, country string) error {
	f.logs = append(f.logs, term+"|"+country)
	return f.err
}

func (f *fakeSink) InsertSearchEvent(_ context.Context, ev store.SearchEvent) error {
	f.searches = append(f.searches, ev)
	return f.err
}

func (f *fakeSink) InsertJobViewEvent(_ context.Context, ev store.JobViewEvent) error {
	f.views = append(f.views, ev)
	return f.err
}

func (f *fakeSink) InsertSubscribeEvent(_ context.Context, ev store.SubscribeEvent) error {
	f.subscribes = append(f.subscribes, ev)
	return f.err
}

func newRecorder(sink *fakeSink, salt string) *analytics.Recorder {
	return analytics.NewRecorder(sink, salt, logging.Nop())
}

// ── hashing ───────────────────────────────────────────────────────────────

func TestHashIdentifier(t *testing.T) {
	rec := newRecorder(&fakeSink{}, "pepper")

	h1 := rec.HashIdentifier("203.0.113.7")
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(h1))
	}
	if h1 != rec.HashIdentifier("203.0.113.7") {
		t.Error("same input must hash identically")
	}
	if h1 == rec.HashIdentifier("203.0.113.8") {
		t.Error("different inputs must hash differently")
	}

	other := newRecorder(&fakeSink{}, "different-salt")
	if h1 == other.HashIdentifier("203.0.113.7") {
		t.Error("the salt must change the hash")
	}

	if rec.HashIdentifier("") == "" {
		t.Error("empty identifiers still hash")
	}
}

// ── client metadata ───────────────────────────────────────────────────────

func TestClientMeta_ForwardedForFirstHop(t *testing.T) {
	rec := newRecorder(&fakeSink{}, "pepper")
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1, 10.0.0.2")

	meta := rec.ClientMeta(req, "sid-1")
	if meta.IPHash != rec.HashIdentifier("203.0.113.7") {
		t.Error("IPHash must hash the first X-Forwarded-For hop, trimmed")
	}
	if meta.SessionID != "sid-1" {
		t.Errorf("SessionID = %q, want sid-1", meta.SessionID)
	}
}

func TestClientMeta_RemoteAddrFallback(t *testing.T) {
	rec := newRecorder(&fakeSink{}, "pepper")
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.4:52011"

	meta := rec.ClientMeta(req, "")
	if meta.IPHash != rec.HashIdentifier("198.51.100.4") {
		t.Error("IPHash must hash the socket peer host when no forwarding header is set")
	}
}

func TestClientMeta_TruncatesHeaders(t *testing.T) {
	rec := newRecorder(&fakeSink{}, "pepper")
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("User-Agent", strings.Repeat("a", 400))
	req.Header.Set("Referer", strings.Repeat("r", 301))

	meta := rec.ClientMeta(req, "")
	if len(meta.UserAgent) != 300 {
		t.Errorf("UserAgent length = %d, want 300", len(meta.UserAgent))
	}
	if len(meta.Referer) != 300 {
		t.Errorf("Referer length = %d, want 300", len(meta.Referer))
	}
}

// ── recording ─────────────────────────────────────────────────────────────

func TestRecordSearch_StampsCreatedAt(t *testing.T) {
	sink := &fakeSink{}
	rec := newRecorder(sink, "pepper")

	rec.RecordSearch(context.Background(), store.SearchEvent{NormTitle: "backend"})
	if len(sink.searches) != 1 {
		t.Fatalf("recorded %d events, want 1", len(sink.searches))
	}
	if sink.searches[0].CreatedAt == "" {
		t.Error("CreatedAt must be stamped by the recorder")
	}
	if sink.searches[0].NormTitle != "backend" {
		t.Errorf("NormTitle = %q, want backend", sink.searches[0].NormTitle)
	}
}

func TestRecordSearchLog_SkipsEmptySearches(t *testing.T) {
	sink := &fakeSink{}
	rec := newRecorder(sink, "pepper")

	rec.RecordSearchLog(context.Background(), "", "")
	if len(sink.logs) != 0 {
		t.Error("empty searches must not be logged")
	}
	rec.RecordSearchLog(context.Background(), "backend", "")
	rec.RecordSearchLog(context.Background(), "", "DE")
	if len(sink.logs) != 2 {
		t.Errorf("logged %d rows, want 2", len(sink.logs))
	}
}

func TestRecordSubscribe_StatusMapping(t *testing.T) {
	sink := &fakeSink{}
	rec := newRecorder(sink, "pepper")
	ctx := context.Background()

	rec.RecordSubscribe(ctx, "dev@example.com", store.SubscribeOK)
	rec.RecordSubscribe(ctx, "dev@example.com", store.SubscribeDuplicate)
	if len(sink.subscribes) != 2 {
		t.Fatalf("recorded %d events, want 2", len(sink.subscribes))
	}
	if sink.subscribes[0].Status != "subscribed" {
		t.Errorf("fresh subscription status = %q, want subscribed", sink.subscribes[0].Status)
	}
	if sink.subscribes[1].Status != "duplicate" {
		t.Errorf("repeat status = %q, want duplicate", sink.subscribes[1].Status)
	}
	if sink.subscribes[0].EmailHash == "dev@example.com" {
		t.Error("email must be stored hashed")
	}
	if sink.subscribes[0].EmailHash != rec.HashIdentifier("dev@example.com") {
		t.Error("EmailHash must use the recorder's salt")
	}
}

// A broken store must not take the request down with it.
func TestRecord_SinkFailureIsSwallowed(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	rec := newRecorder(sink, "pepper")
	ctx := context.Background()

	rec.RecordSearch(ctx, store.SearchEvent{})
	rec.RecordSearchLog(ctx, "backend", "")
	rec.RecordJobView(ctx, store.JobViewEvent{})
	rec.RecordSubscribe(ctx, "dev@example.com", store.SubscribeOK)
}
