package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Catalitium/catalitiumJobs/internal/search"
)

// SQLite is the file-backed Store used for development and tests.
type SQLite struct {
	db       *sql.DB
	denylist []string
}

// NewSQLite opens (creating parent directories as needed) and migrates
// the database at path. ":memory:" works for throwaway instances.
func NewSQLite(ctx context.Context, path string, denylist []string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Single writer; more connections trip SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return &SQLite{db: db, denylist: denylist}, nil
}

func (s *SQLite) SearchJobs(ctx context.Context, q search.Query, limit, offset int) ([]Job, error) {
	where, args := whereJobs(q, s.denylist)
	query := fmt.Sprintf("SELECT %s FROM jobs %s %s LIMIT ? OFFSET ?", jobColumns, where, orderJobs)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searchJobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0, limit)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("searchJobs scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *SQLite) CountJobs(ctx context.Context, q search.Query) (int, error) {
	where, args := whereJobs(q, s.denylist)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("countJobs: %w", err)
	}
	return n, nil
}

func (s *SQLite) InsertJobs(ctx context.Context, jobs []Job) (int, error) {
	inserted := 0
	for _, j := range jobs {
		res, err := s.db.ExecContext(ctx, insertJobSQL,
			j.Title, j.Description, j.Link, j.TitleNorm, j.Location,
			j.JobDate, dateToISO(j.Date), j.SalaryMin, j.SalaryMax,
		)
		if err != nil {
			return inserted, fmt.Errorf("insertJobs: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (s *SQLite) JobLink(ctx context.Context, id string) (string, error) {
	numID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", ErrNotFound
	}
	var link string
	err = s.db.QueryRowContext(ctx, `SELECT link FROM jobs WHERE id = ?`, numID).Scan(&link)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("jobLink: %w", err)
	}
	return link, nil
}

func (s *SQLite) InsertSubscriber(ctx context.Context, email string) (SubscribeStatus, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (email, created_at) VALUES (?, ?) ON CONFLICT (email) DO NOTHING`,
		email, NowISO(),
	)
	if err != nil {
		return "", fmt.Errorf("insertSubscriber: %w", err)
	}
	status := SubscribeOK
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		status = SubscribeDuplicate
	}
	return status, nil
}

func (s *SQLite) InsertSearchLog(ctx context.Context, term, country string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_logs (term, country, created_at) VALUES (?, ?, ?)`,
		term, country, NowISO(),
	)
	if err != nil {
		return fmt.Errorf("insertSearchLog: %w", err)
	}
	return nil
}

func (s *SQLite) InsertSearchEvent(ctx context.Context, ev SearchEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_events (created_at, raw_title, raw_country, norm_title, norm_country,
			sal_floor, sal_ceiling, result_count, page, per_page, user_agent, referer, ip_hash, session_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.CreatedAt, ev.RawTitle, ev.RawCountry, ev.NormTitle, ev.NormCountry,
		ev.SalaryMin, ev.SalaryMax, ev.ResultCount, ev.Page, ev.PerPage,
		ev.UserAgent, ev.Referer, ev.IPHash, ev.SessionID,
	)
	if err != nil {
		return fmt.Errorf("insertSearchEvent: %w", err)
	}
	return nil
}

func (s *SQLite) InsertJobViewEvent(ctx context.Context, ev JobViewEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_view_events (created_at, job_id, job_title, company, location,
			norm_country, user_agent, ip_hash, session_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.CreatedAt, ev.JobID, ev.JobTitle, ev.Company, ev.Location,
		ev.NormCountry, ev.UserAgent, ev.IPHash, ev.SessionID,
	)
	if err != nil {
		return fmt.Errorf("insertJobViewEvent: %w", err)
	}
	return nil
}

func (s *SQLite) InsertSubscribeEvent(ctx context.Context, ev SubscribeEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribe_events (created_at, email_hash, status) VALUES (?, ?, ?)`,
		ev.CreatedAt, ev.EmailHash, ev.Status,
	)
	if err != nil {
		return fmt.Errorf("insertSubscribeEvent: %w", err)
	}
	return nil
}

func (s *SQLite) AnalyticsSummary(ctx context.Context) (Summary, error) {
	dayStart, dayEnd := DayBoundsISO(time.Now())
	var sum Summary

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM search_events WHERE created_at >= ? AND created_at < ?`,
		dayStart, dayEnd,
	).Scan(&sum.SearchesToday)
	if err != nil {
		return sum, fmt.Errorf("analyticsSummary searches: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM subscribe_events WHERE status = 'subscribed' AND created_at >= ? AND created_at < ?`,
		dayStart, dayEnd,
	).Scan(&sum.NewSubscribersToday)
	if err != nil {
		return sum, fmt.Errorf("analyticsSummary subscribers: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT job_title, COUNT(1) AS c FROM job_view_events
		 WHERE created_at >= ? AND created_at < ?
		 GROUP BY job_title ORDER BY c DESC LIMIT 5`,
		dayStart, dayEnd,
	)
	if err != nil {
		return sum, fmt.Errorf("analyticsSummary views: %w", err)
	}
	defer rows.Close()
	sum.TopViewedJobs = make([]TermCount, 0, 5)
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return sum, fmt.Errorf("analyticsSummary views scan: %w", err)
		}
		sum.TopViewedJobs = append(sum.TopViewedJobs, tc)
	}
	if err := rows.Err(); err != nil {
		return sum, err
	}

	sum.ConversionRate = conversionRate(sum.NewSubscribersToday, sum.SearchesToday)
	return sum, nil
}

func (s *SQLite) TopSearchTitles(ctx context.Context, limit int) ([]TermCount, error) {
	return s.termCounts(ctx,
		`SELECT norm_title, COUNT(*) AS c FROM search_events
		 WHERE norm_title != '' GROUP BY norm_title ORDER BY c DESC LIMIT ?`, limit)
}

func (s *SQLite) TopSearchCountries(ctx context.Context, limit int) ([]TermCount, error) {
	return s.termCounts(ctx,
		`SELECT norm_country, COUNT(*) AS c FROM search_events
		 WHERE norm_country != '' GROUP BY norm_country ORDER BY c DESC LIMIT ?`, limit)
}

func (s *SQLite) termCounts(ctx context.Context, query string, limit int) ([]TermCount, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("termCounts: %w", err)
	}
	defer rows.Close()
	out := make([]TermCount, 0, limit)
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("termCounts scan: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *SQLite) RecentSearches(ctx context.Context, limit int) ([]RecentSearch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, norm_title, norm_country, COALESCE(result_count, 0)
		 FROM search_events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recentSearches: %w", err)
	}
	defer rows.Close()
	out := make([]RecentSearch, 0, limit)
	for rows.Next() {
		var rs RecentSearch
		if err := rows.Scan(&rs.CreatedAt, &rs.NormTitle, &rs.NormCountry, &rs.ResultCount); err != nil {
			return nil, fmt.Errorf("recentSearches scan: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() { s.db.Close() }

func nullableInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
