// Package store persists job listings, subscribers and analytics events.
// Two backends implement the same Store interface: Postgres behind a pgx
// pool for production, SQLite for development and tests. Both share the
// SQL built in sql.go; the Postgres side rebinds ? placeholders to $N.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Catalitium/catalitiumJobs/internal/search"
)

// Job is one stored listing. TitleNorm carries the normalized form of
// Title so query tokens match stored shorthand ("backend" finds listings
// stored as "Back-End Engineer"). Date orders results newest first;
// JobDate keeps the source's free-form date text for display.
type Job struct {
	ID          int64
	Title       string
	Description string
	Link        string
	TitleNorm   string
	Location    string
	JobDate     string
	Date        *time.Time
	SalaryMin   *int
	SalaryMax   *int
}

// SubscribeStatus is the outcome of an email subscription attempt.
type SubscribeStatus string

const (
	SubscribeOK        SubscribeStatus = "ok"
	SubscribeDuplicate SubscribeStatus = "duplicate"
)

// SearchEvent is one recorded search, raw and normalized, with client
// metadata already hashed by the caller.
type SearchEvent struct {
	CreatedAt   string
	RawTitle    string
	RawCountry  string
	NormTitle   string
	NormCountry string
	SalaryMin   *int
	SalaryMax   *int
	ResultCount int
	Page        int
	PerPage     int
	UserAgent   string
	Referer     string
	IPHash      string
	SessionID   string
}

// JobViewEvent is one recorded outbound click / detail view.
type JobViewEvent struct {
	CreatedAt   string
	JobID       string
	JobTitle    string
	Company     string
	Location    string
	NormCountry string
	UserAgent   string
	IPHash      string
	SessionID   string
}

// SubscribeEvent records a subscription attempt with the email hashed.
type SubscribeEvent struct {
	CreatedAt string
	EmailHash string
	Status    string
}

// TermCount pairs a grouped term with its occurrence count.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// RecentSearch is one row of the admin recent-searches feed.
type RecentSearch struct {
	CreatedAt   string `json:"created_at"`
	NormTitle   string `json:"norm_title"`
	NormCountry string `json:"norm_country"`
	ResultCount int    `json:"result_count"`
}

// Summary is the admin analytics roll-up for the current UTC day.
type Summary struct {
	SearchesToday       int         `json:"searches_today"`
	TopViewedJobs       []TermCount `json:"top_viewed_jobs"`
	NewSubscribersToday int         `json:"new_subscribers_today"`
	ConversionRate      float64     `json:"conversion_rate"`
}

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence surface consumed by the web and ingest layers.
type Store interface {
	// SearchJobs returns one page of listings matching the normalized
	// query, newest first. CountJobs returns the total for the same
	// filter so callers can paginate.
	SearchJobs(ctx context.Context, q search.Query, limit, offset int) ([]Job, error)
	CountJobs(ctx context.Context, q search.Query) (int, error)

	// InsertJobs bulk-inserts listings, skipping duplicates by link, and
	// returns how many rows were actually inserted.
	InsertJobs(ctx context.Context, jobs []Job) (int, error)

	// JobLink resolves a listing id to its outbound link.
	// Returns ErrNotFound for unknown or non-numeric ids.
	JobLink(ctx context.Context, id string) (string, error)

	InsertSubscriber(ctx context.Context, email string) (SubscribeStatus, error)

	InsertSearchLog(ctx context.Context, term, country string) error
	InsertSearchEvent(ctx context.Context, ev SearchEvent) error
	InsertJobViewEvent(ctx context.Context, ev JobViewEvent) error
	InsertSubscribeEvent(ctx context.Context, ev SubscribeEvent) error

	AnalyticsSummary(ctx context.Context) (Summary, error)
	TopSearchTitles(ctx context.Context, limit int) ([]TermCount, error)
	TopSearchCountries(ctx context.Context, limit int) ([]TermCount, error)
	RecentSearches(ctx context.Context, limit int) ([]RecentSearch, error)

	Ping(ctx context.Context) error
	Close()
}

// NowISO returns the current UTC time formatted the way event rows store
// it, second precision, e.g. "2025-08-25T09:30:00Z".
func NowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z07:00")
}

// DayBoundsISO returns the [start, end) ISO bounds of the given UTC day,
// for windowing event queries over the TEXT timestamp columns.
func DayBoundsISO(t time.Time) (string, string) {
	day := t.UTC().Truncate(24 * time.Hour)
	return day.Format("2006-01-02T15:04:05Z07:00"), day.Add(24 * time.Hour).Format("2006-01-02T15:04:05Z07:00")
}
