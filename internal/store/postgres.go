package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Catalitium/catalitiumJobs/internal/search"
)

// Postgres is the production Store backend on a pgx connection pool.
type Postgres struct {
	pool     *pgxpool.Pool
	denylist []string
}

// NewPostgres connects, verifies the connection and ensures the schema.
// denylist is the set of listing links excluded from every search.
func NewPostgres(ctx context.Context, databaseURL string, denylist []string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
	}
	return &Postgres{pool: pool, denylist: denylist}, nil
}

func (p *Postgres) SearchJobs(ctx context.Context, q search.Query, limit, offset int) ([]Job, error) {
	where, args := whereJobs(q, p.denylist)
	sql := fmt.Sprintf("SELECT %s FROM jobs %s %s LIMIT ? OFFSET ?", jobColumns, where, orderJobs)
	args = append(args, limit, offset)

	rows, err := p.pool.Query(ctx, rebind(sql), args...)
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

func (p *Postgres) CountJobs(ctx context.Context, q search.Query) (int, error) {
	where, args := whereJobs(q, p.denylist)
	var n int
	err := p.pool.QueryRow(ctx, rebind("SELECT COUNT(1) FROM jobs "+where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("countJobs: %w", err)
	}
	return n, nil
}

func (p *Postgres) InsertJobs(ctx context.Context, jobs []Job) (int, error) {
	inserted := 0
	for _, j := range jobs {
		tag, err := p.pool.Exec(ctx, rebind(insertJobSQL),
			j.Title, j.Description, j.Link, j.TitleNorm, j.Location,
			j.JobDate, dateToISO(j.Date), j.SalaryMin, j.SalaryMax,
		)
		if err != nil {
			return inserted, fmt.Errorf("insertJobs: %w", err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (p *Postgres) JobLink(ctx context.Context, id string) (string, error) {
	numID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", ErrNotFound
	}
	var link string
	err = p.pool.QueryRow(ctx, `SELECT link FROM jobs WHERE id = $1`, numID).Scan(&link)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("jobLink: %w", err)
	}
	return link, nil
}

func (p *Postgres) InsertSubscriber(ctx context.Context, email string) (SubscribeStatus, error) {
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO subscribers (email, created_at) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		email, NowISO(),
	)
	if err != nil {
		return "", fmt.Errorf("insertSubscriber: %w", err)
	}
	status := SubscribeOK
	if tag.RowsAffected() == 0 {
		status = SubscribeDuplicate
	}
	return status, nil
}

func (p *Postgres) InsertSearchLog(ctx context.Context, term, country string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO search_logs (term, country, created_at) VALUES ($1, $2, $3)`,
		term, country, NowISO(),
	)
	if err != nil {
		return fmt.Errorf("insertSearchLog: %w", err)
	}
	return nil
}

func (p *Postgres) InsertSearchEvent(ctx context.Context, ev SearchEvent) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO search_events (created_at, raw_title, raw_country, norm_title, norm_country,
			sal_floor, sal_ceiling, result_count, page, per_page, user_agent, referer, ip_hash, session_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		ev.CreatedAt, ev.RawTitle, ev.RawCountry, ev.NormTitle, ev.NormCountry,
		ev.SalaryMin, ev.SalaryMax, ev.ResultCount, ev.Page, ev.PerPage,
		ev.UserAgent, ev.Referer, ev.IPHash, ev.SessionID,
	)
	if err != nil {
		return fmt.Errorf("insertSearchEvent: %w", err)
	}
	return nil
}

func (p *Postgres) InsertJobViewEvent(ctx context.Context, ev JobViewEvent) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO job_view_events (created_at, job_id, job_title, company, location,
			norm_country, user_agent, ip_hash, session_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.CreatedAt, ev.JobID, ev.JobTitle, ev.Company, ev.Location,
		ev.NormCountry, ev.UserAgent, ev.IPHash, ev.SessionID,
	)
	if err != nil {
		return fmt.Errorf("insertJobViewEvent: %w", err)
	}
	return nil
}

func (p *Postgres) InsertSubscribeEvent(ctx context.Context, ev SubscribeEvent) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO subscribe_events (created_at, email_hash, status) VALUES ($1, $2, $3)`,
		ev.CreatedAt, ev.EmailHash, ev.Status,
	)
	if err != nil {
		return fmt.Errorf("insertSubscribeEvent: %w", err)
	}
	return nil
}

func (p *Postgres) AnalyticsSummary(ctx context.Context) (Summary, error) {
	dayStart, dayEnd := DayBoundsISO(time.Now())
	var s Summary

	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM search_events WHERE created_at >= $1 AND created_at < $2`,
		dayStart, dayEnd,
	).Scan(&s.SearchesToday)
	if err != nil {
		return s, fmt.Errorf("analyticsSummary searches: %w", err)
	}

	err = p.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM subscribe_events WHERE status = 'subscribed' AND created_at >= $1 AND created_at < $2`,
		dayStart, dayEnd,
	).Scan(&s.NewSubscribersToday)
	if err != nil {
		return s, fmt.Errorf("analyticsSummary subscribers: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT job_title, COUNT(1) AS c FROM job_view_events
		 WHERE created_at >= $1 AND created_at < $2
		 GROUP BY job_title ORDER BY c DESC LIMIT 5`,
		dayStart, dayEnd,
	)
	if err != nil {
		return s, fmt.Errorf("analyticsSummary views: %w", err)
	}
	defer rows.Close()
	s.TopViewedJobs = make([]TermCount, 0, 5)
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return s, fmt.Errorf("analyticsSummary views scan: %w", err)
		}
		s.TopViewedJobs = append(s.TopViewedJobs, tc)
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	s.ConversionRate = conversionRate(s.NewSubscribersToday, s.SearchesToday)
	return s, nil
}

func (p *Postgres) TopSearchTitles(ctx context.Context, limit int) ([]TermCount, error) {
	return p.termCounts(ctx,
		`SELECT norm_title, COUNT(*) AS c FROM search_events
		 WHERE norm_title != '' GROUP BY norm_title ORDER BY c DESC LIMIT $1`, limit)
}

func (p *Postgres) TopSearchCountries(ctx context.Context, limit int) ([]TermCount, error) {
	return p.termCounts(ctx,
		`SELECT norm_country, COUNT(*) AS c FROM search_events
		 WHERE norm_country != '' GROUP BY norm_country ORDER BY c DESC LIMIT $1`, limit)
}

func (p *Postgres) termCounts(ctx context.Context, sql string, limit int) ([]TermCount, error) {
	rows, err := p.pool.Query(ctx, sql, limit)
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

func (p *Postgres) RecentSearches(ctx context.Context, limit int) ([]RecentSearch, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT created_at, norm_title, norm_country, COALESCE(result_count, 0)
		 FROM search_events ORDER BY created_at DESC LIMIT $1`, limit)
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

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() { p.pool.Close() }

// conversionRate is subscribes per hundred searches, rounded to 2 decimal
// places; zero searches yields zero rather than a division error.
func conversionRate(subs, searches int) float64 {
	if searches == 0 {
		return 0
	}
	return math.Round(float64(subs)/float64(searches)*100*100) / 100
}
