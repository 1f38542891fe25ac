package store

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/Catalitium/catalitiumJobs/internal/search"
)

const jobColumns = "id, job_title, job_description, link, job_title_norm, location, job_date, date, salary_min, salary_max"

// Listings with no date sink to the bottom; among dated rows newest first,
// id as the tie-break.
const orderJobs = "ORDER BY (date IS NULL) ASC, date DESC, id DESC"

const insertJobSQL = `INSERT INTO jobs (job_title, job_description, link, job_title_norm, location, job_date, date, salary_min, salary_max)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (link) DO NOTHING`

// whereJobs builds the WHERE clause for a normalized query with ?
// placeholders. Title tokens must all match one of the text columns, with
// the whole phrase as a fallback; the country filter expands a 2-letter
// code into separator-bounded patterns plus the full country names mapping
// to it; salary bounds keep rows whose declared range overlaps the
// requested one, and rows that declare no salary at all; denylisted links
// are excluded outright.
func whereJobs(q search.Query, denylist []string) (string, []any) {
	var clauses []string
	var args []any

	if len(q.Tokens) > 0 {
		clauses = append(clauses, titleClause(q.Tokens, &args))
	}
	if q.Country != "" {
		pats := countryPatterns(q.Country)
		ors := make([]string, len(pats))
		for i, p := range pats {
			ors[i] = `LOWER(location) LIKE ? ESCAPE '\'`
			args = append(args, p)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	if q.Salary.Min != nil {
		clauses = append(clauses, "(salary_max IS NULL OR salary_max >= ?)")
		args = append(args, *q.Salary.Min)
	}
	if q.Salary.Max != nil {
		clauses = append(clauses, "(salary_min IS NULL OR salary_min <= ?)")
		args = append(args, *q.Salary.Max)
	}
	if len(denylist) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(denylist)), ",")
		clauses = append(clauses, "link NOT IN ("+ph+")")
		for _, l := range denylist {
			args = append(args, l)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

const titleColumnsLike = `(job_title_norm LIKE ? ESCAPE '\' OR LOWER(job_title) LIKE ? ESCAPE '\' OR LOWER(job_description) LIKE ? ESCAPE '\')`

func titleClause(tokens []string, args *[]any) string {
	per := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		pat := "%" + escapeLike(tok) + "%"
		per = append(per, titleColumnsLike)
		*args = append(*args, pat, pat, pat)
	}
	all := strings.Join(per, " AND ")
	if len(tokens) == 1 {
		return all
	}
	phrase := "%" + escapeLike(strings.Join(tokens, " ")) + "%"
	*args = append(*args, phrase, phrase, phrase)
	return "((" + all + ") OR " + titleColumnsLike + ")"
}

// countryPatterns expands a normalized country into LIKE patterns over
// LOWER(location). A 2-letter code must appear separator-bounded (or at
// either end of the location) so "DE" never matches Dresden; the full
// names mapping to the code match anywhere. Free text matches anywhere.
func countryPatterns(country string) []string {
	c := strings.ToLower(strings.TrimSpace(country))
	if c == "" {
		return nil
	}
	if len(c) != 2 || !isASCIIAlpha(c) {
		return []string{"%" + escapeLike(c) + "%"}
	}

	token := escapeLike(c)
	before := []string{" ", "(", ",", "/", "-"}
	after := []string{" ", ")", ",", "/", "-"}
	var pats []string
	for _, b := range before {
		for _, a := range after {
			pats = append(pats, "%"+b+token+a+"%")
		}
		pats = append(pats, "%"+b+token)
	}
	pats = append(pats, token)
	for _, a := range after {
		pats = append(pats, token+a+"%")
	}
	for _, name := range search.NamesForCode(strings.ToUpper(c)) {
		pats = append(pats, "%"+escapeLike(name)+"%")
	}
	return pats
}

func isASCIIAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// escapeLike neutralizes LIKE wildcards in user input. Queries using the
// result must carry ESCAPE '\'.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// rebind renumbers ? placeholders into the $N form Postgres expects.
func rebind(sql string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dateToISO(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseISODate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// rowScanner is the one-method subset shared by pgx rows and
// database/sql rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob reads one jobColumns row. Every text column except link is
// nullable in the schema; NULLs surface as empty fields, not scan
// errors.
func scanJob(r rowScanner) (Job, error) {
	var (
		j         Job
		title     sql.NullString
		descr     sql.NullString
		titleNorm sql.NullString
		location  sql.NullString
		jobDate   sql.NullString
		dateISO   sql.NullString
		salMin    sql.NullInt64
		salMax    sql.NullInt64
	)
	if err := r.Scan(
		&j.ID, &title, &descr, &j.Link, &titleNorm,
		&location, &jobDate, &dateISO, &salMin, &salMax,
	); err != nil {
		return Job{}, err
	}
	j.Title = title.String
	j.Description = descr.String
	j.TitleNorm = titleNorm.String
	j.Location = location.String
	j.JobDate = jobDate.String
	if dateISO.Valid {
		j.Date = parseISODate(dateISO.String)
	}
	j.SalaryMin = nullableInt(salMin)
	j.SalaryMax = nullableInt(salMax)
	return j, nil
}

// Schema statements are executed one by one: neither pgx nor database/sql
// drivers reliably run multi-statement scripts.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_title TEXT,
		job_description TEXT,
		link TEXT UNIQUE,
		job_title_norm TEXT,
		location TEXT,
		job_date TEXT,
		date TEXT,
		salary_min INTEGER,
		salary_max INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_title_norm ON jobs(job_title_norm)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_location ON jobs(location)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		email TEXT PRIMARY KEY,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS search_logs (
		term TEXT,
		country TEXT,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS search_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT,
		raw_title TEXT,
		raw_country TEXT,
		norm_title TEXT,
		norm_country TEXT,
		sal_floor INTEGER,
		sal_ceiling INTEGER,
		result_count INTEGER,
		page INTEGER,
		per_page INTEGER,
		user_agent TEXT,
		referer TEXT,
		ip_hash TEXT,
		session_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_created ON search_events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_title ON search_events(norm_title)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_country ON search_events(norm_country)`,
	`CREATE TABLE IF NOT EXISTS job_view_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT,
		job_id TEXT,
		job_title TEXT,
		company TEXT,
		location TEXT,
		norm_country TEXT,
		user_agent TEXT,
		ip_hash TEXT,
		session_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_view_created ON job_view_events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_job_view_country ON job_view_events(norm_country)`,
	`CREATE TABLE IF NOT EXISTS subscribe_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT,
		email_hash TEXT,
		status TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscribe_created ON subscribe_events(created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGSERIAL PRIMARY KEY,
		job_title TEXT,
		job_description TEXT,
		link TEXT NOT NULL,
		job_title_norm TEXT,
		location TEXT,
		job_date TEXT,
		date TEXT,
		salary_min INTEGER,
		salary_max INTEGER
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_link_unique ON jobs(link)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_title_norm ON jobs(job_title_norm)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_location ON jobs(location)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		email TEXT PRIMARY KEY,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS search_logs (
		term TEXT,
		country TEXT,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS search_events (
		id BIGSERIAL PRIMARY KEY,
		created_at TEXT,
		raw_title TEXT,
		raw_country TEXT,
		norm_title TEXT,
		norm_country TEXT,
		sal_floor INTEGER,
		sal_ceiling INTEGER,
		result_count INTEGER,
		page INTEGER,
		per_page INTEGER,
		user_agent TEXT,
		referer TEXT,
		ip_hash TEXT,
		session_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_created ON search_events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_title ON search_events(norm_title)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_country ON search_events(norm_country)`,
	`CREATE TABLE IF NOT EXISTS job_view_events (
		id BIGSERIAL PRIMARY KEY,
		created_at TEXT,
		job_id TEXT,
		job_title TEXT,
		company TEXT,
		location TEXT,
		norm_country TEXT,
		user_agent TEXT,
		ip_hash TEXT,
		session_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_view_created ON job_view_events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_job_view_country ON job_view_events(norm_country)`,
	`CREATE TABLE IF NOT EXISTS subscribe_events (
		id BIGSERIAL PRIMARY KEY,
		created_at TEXT,
		email_hash TEXT,
		status TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscribe_created ON subscribe_events(created_at)`,
}
