// Package web implements the HTTP surface of the job board.
//
// Routes:
//
//	GET  /                    → HTML search page with pagination
//	GET  /api/jobs            → search results as JSON
//	GET  /api/salary-insights → recent matching jobs, compact JSON
//	POST /subscribe           → email signup (form), redirects back
//	POST /subscribe.json      → email signup, JSON in/out
//	POST /events/job_view     → job view analytics event
//	POST /events/log          → unified frontend event logger
//	GET  /ping                → health probe
//	GET  /admin/analytics     → daily summary JSON (admin key)
//	GET  /admin/metrics       → search metrics page (admin token)
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Catalitium/catalitiumJobs/internal/analytics"
	"github.com/Catalitium/catalitiumJobs/internal/config"
	"github.com/Catalitium/catalitiumJobs/internal/ratelimit"
	"github.com/Catalitium/catalitiumJobs/internal/search"
	"github.com/Catalitium/catalitiumJobs/internal/store"
	"github.com/Catalitium/catalitiumJobs/internal/textutil"
	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

const (
	perPageDefault = 20
	perPageMax     = 100
	pageMax        = 1_000_000 // keeps (page-1)*perPage well inside int

	// Admin feeds.
	topTermsLimit      = 20
	recentSearchLimit  = 50
	salaryInsightLimit = 100

	maxEventBody = 10 << 10
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	store   store.Store
	rec     *analytics.Recorder
	limiter *ratelimit.Limiter
	cfg     *config.Config
	log     *logging.Logger
	tmpl    *template.Template
}

// NewHandler returns a configured Handler with its templates parsed.
func NewHandler(st store.Store, rec *analytics.Recorder, limiter *ratelimit.Limiter, cfg *config.Config, log *logging.Logger) (*Handler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{store: st, rec: rec, limiter: limiter, cfg: cfg, log: log, tmpl: tmpl}, nil
}

// RegisterRoutes mounts all routes on mux. Every route sits behind the
// session middleware and a 200/hour default limit; the subscribe routes
// replace the default with their own, stricter limits.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	def := []ratelimit.Limit{ratelimit.PerHour(200)}
	sub := []ratelimit.Limit{ratelimit.PerMinute(5), ratelimit.PerHour(50)}

	mux.Handle("/", h.route("default", h.handleIndex, def))
	mux.Handle("/api/jobs", h.route("default", h.handleAPIJobs, def))
	mux.Handle("/api/salary-insights", h.route("default", h.handleSalaryInsights, def))
	mux.Handle("/subscribe", h.route("subscribe", h.handleSubscribe, sub))
	mux.Handle("/subscribe.json", h.route("subscribe", h.handleSubscribeJSON, sub))
	mux.Handle("/events/job_view", h.route("default", h.handleJobViewEvent, def))
	mux.Handle("/events/log", h.route("default", h.handleEventsLog, def))
	mux.Handle("/ping", h.route("default", h.handlePing, def))
	mux.Handle("/admin/analytics", h.route("default", h.handleAdminAnalytics, def))
	mux.Handle("/admin/metrics", h.route("default", h.handleAdminMetrics, def))
}

func (h *Handler) route(scope string, fn http.HandlerFunc, limits []ratelimit.Limit) http.Handler {
	return EnsureSession(h.limiter.Wrap(scope, fn, limits...))
}

// ─── Search pages ────────────────────────────────────────────────────────────

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawTitle := strings.TrimSpace(r.URL.Query().Get("title"))
	rawCountry := strings.TrimSpace(r.URL.Query().Get("country"))
	page, perPage := pagingParams(r.URL.Query())
	q := search.ParseQuery(rawTitle, rawCountry)
	hasFilters := rawTitle != "" || rawCountry != ""

	// Store trouble degrades to an empty result page, never a 500.
	total := 0
	var jobs []store.Job
	if t, err := h.store.CountJobs(r.Context(), q); err != nil {
		h.log.Error("count jobs", "error", err)
	} else {
		total = t
		rows, err := h.store.SearchJobs(r.Context(), q, perPage, (page-1)*perPage)
		if err != nil {
			h.log.Error("search jobs", "error", err)
			total = 0
		} else {
			jobs = rows
		}
	}
	pages := 1
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}

	items := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, shapeJob(j))
	}

	if hasFilters {
		meta := h.rec.ClientMeta(r, SessionID(r.Context()))
		h.rec.RecordSearchLog(r.Context(), rawTitle, rawCountry)
		h.rec.RecordSearch(r.Context(), store.SearchEvent{
			RawTitle:    rawTitle,
			RawCountry:  rawCountry,
			NormTitle:   q.Title,
			NormCountry: q.Country,
			SalaryMin:   q.Salary.Min,
			SalaryMax:   q.Salary.Max,
			ResultCount: total,
			Page:        page,
			PerPage:     perPage,
			UserAgent:   meta.UserAgent,
			Referer:     meta.Referer,
			IPHash:      meta.IPHash,
			SessionID:   meta.SessionID,
		})
	}

	// First load of an empty store shows demo cards instead of nothing.
	if !hasFilters && len(items) == 0 {
		items = demoJobs()
		page, perPage = 1, len(items)
		total, pages = len(items), 1
	}

	flashCategory, flashMessage := popFlash(w, r)
	h.render(w, "index.html", indexData{
		Results:       items,
		Count:         total,
		TitleQ:        q.Title,
		CountryQ:      q.Country,
		Pagination:    buildPagination(q, page, pages, total, perPage),
		GTM:           h.cfg.GTMContainer,
		FlashCategory: flashCategory,
		FlashMessage:  flashMessage,
	})
}

type apiJob struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	Location    string     `json:"location"`
	JobDate     string     `json:"job_date"`
	Date        *time.Time `json:"date"`
}

type pageMeta struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// handleAPIJobs is the JSON twin of the index search. Store errors
// yield an empty payload so API consumers never see a 500.
func (h *Handler) handleAPIJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawTitle := strings.TrimSpace(r.URL.Query().Get("title"))
	rawCountry := strings.TrimSpace(r.URL.Query().Get("country"))
	page, perPage := pagingParams(r.URL.Query())
	q := search.ParseQuery(rawTitle, rawCountry)

	total := 0
	var rows []store.Job
	if t, err := h.store.CountJobs(r.Context(), q); err != nil {
		h.log.Error("count jobs", "error", err)
	} else {
		total = t
		rs, err := h.store.SearchJobs(r.Context(), q, perPage, (page-1)*perPage)
		if err != nil {
			h.log.Error("search jobs", "error", err)
			total = 0
		} else {
			rows = rs
		}
	}
	pages := (total + perPage - 1) / perPage

	items := make([]apiJob, 0, len(rows))
	for _, j := range rows {
		items = append(items, apiJob{
			ID:          j.ID,
			Title:       textutil.LowerCamel(j.Title),
			Description: textutil.CleanDescription(j.Description),
			Link:        j.Link,
			Location:    j.Location,
			JobDate:     textutil.FormatJobDate(strings.TrimSpace(j.JobDate)),
			Date:        j.Date,
		})
	}

	jsonOK(w, map[string]any{
		"items": items,
		"meta": pageMeta{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
			HasPrev: page > 1,
			HasNext: page < pages,
		},
	})
}

type insightItem struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	JobDate  string `json:"job_date"`
	Link     string `json:"link"`
}

// handleSalaryInsights returns a compact view of the most recent jobs
// matching the normalized title/country, for client-side aggregation.
func (h *Handler) handleSalaryInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawTitle := strings.TrimSpace(r.URL.Query().Get("title"))
	rawCountry := strings.TrimSpace(r.URL.Query().Get("country"))
	// The title is normalized verbatim; salary phrases in it are part
	// of the analyzed phrase, not a filter.
	q := search.Query{
		RawTitle:   rawTitle,
		RawCountry: rawCountry,
		Title:      search.NormalizeTitle(rawTitle),
		Country:    search.NormalizeCountry(rawCountry),
	}
	q.Tokens = search.Tokenize(q.Title)

	rows, err := h.store.SearchJobs(r.Context(), q, salaryInsightLimit, 0)
	if err != nil {
		h.log.Error("salary insights search", "error", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	items := make([]insightItem, 0, len(rows))
	for _, j := range rows {
		items = append(items, insightItem{
			Title:    textutil.LowerCamel(j.Title),
			Location: j.Location,
			JobDate:  textutil.FormatJobDate(strings.TrimSpace(j.JobDate)),
			Link:     j.Link,
		})
	}

	jsonOK(w, map[string]any{
		"count": len(items),
		"items": items,
		"meta":  map[string]string{"title": q.Title, "country": q.Country},
	})
}

// ─── Subscriptions ───────────────────────────────────────────────────────────

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := normalizeEmail(r.PostFormValue("email"))
	if !ok {
		setFlash(w, "error", "Please enter a valid email.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	jobLink := h.jobLink(r.Context(), strings.TrimSpace(r.PostFormValue("job_id")))
	status := h.subscribe(r.Context(), email)

	// A signup from a job card goes straight to the job.
	if jobLink != "" {
		http.Redirect(w, r, jobLink, http.StatusFound)
		return
	}
	if status == store.SubscribeOK {
		setFlash(w, "success", "You're subscribed! You're all set.")
	} else {
		setFlash(w, "success", "You're already on the list.")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) handleSubscribeJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Email string `json:"email"`
		JobID string `json:"job_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	email, ok := normalizeEmail(payload.Email)
	if !ok {
		jsonError(w, "invalid_email", http.StatusBadRequest)
		return
	}
	jobLink := h.jobLink(r.Context(), strings.TrimSpace(payload.JobID))
	status := h.subscribe(r.Context(), email)

	body := map[string]string{}
	if status == store.SubscribeOK {
		body["status"] = "ok"
	} else {
		body["error"] = "duplicate"
	}
	if jobLink != "" {
		body["redirect"] = jobLink
	}
	jsonOK(w, body)
}

// subscribe inserts the address and records the outcome event. Insert
// failures are reported as duplicate, never as a server error.
func (h *Handler) subscribe(ctx context.Context, email string) store.SubscribeStatus {
	status, err := h.store.InsertSubscriber(ctx, email)
	if err != nil {
		h.log.Warn("subscriber insert", "error", err)
		status = store.SubscribeDuplicate
	}
	h.rec.RecordSubscribe(ctx, email, status)
	return status
}

// jobLink resolves an optional job id from a signup form to its
// outbound link. Unknown ids are not an error, just no redirect.
func (h *Handler) jobLink(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	link, err := h.store.JobLink(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warn("job link lookup", "id", id, "error", err)
		}
		return ""
	}
	return link
}

// ─── Events ──────────────────────────────────────────────────────────────────

func (h *Handler) handleJobViewEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		JobID    string `json:"job_id"`
		JobTitle string `json:"job_title"`
		Company  string `json:"company"`
		Location string `json:"location"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	meta := h.rec.ClientMeta(r, SessionID(r.Context()))
	h.rec.RecordJobView(r.Context(), store.JobViewEvent{
		JobID:       payload.JobID,
		JobTitle:    payload.JobTitle,
		Company:     payload.Company,
		Location:    payload.Location,
		NormCountry: search.NormalizeCountry(payload.Location),
		UserAgent:   meta.UserAgent,
		IPHash:      meta.IPHash,
		SessionID:   meta.SessionID,
	})
	jsonOK(w, map[string]bool{"ok": true})
}

// handleEventsLog is the unified logger for frontend analytics.
// Expects JSON {type: "job_view"|"search"|"subscribe", payload: {...}}
// and coerces payload fields leniently; malformed events get a 4xx.
func (h *Handler) handleEventsLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.ContentLength > maxEventBody {
		jsonError(w, "payload_too_large", http.StatusRequestEntityTooLarge)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody+1))
	if err != nil || int64(len(body)) > maxEventBody {
		jsonError(w, "payload_too_large", http.StatusRequestEntityTooLarge)
		return
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		jsonError(w, "invalid_json", http.StatusBadRequest)
		return
	}
	etype := strings.ToLower(coerceString(data["type"], 64))
	payload := map[string]any{}
	if raw, present := data["payload"]; present && raw != nil {
		m, isMap := raw.(map[string]any)
		if !isMap {
			jsonError(w, "invalid_payload", http.StatusBadRequest)
			return
		}
		payload = m
	}

	meta := h.rec.ClientMeta(r, SessionID(r.Context()))
	switch etype {
	case "job_view":
		location := coerceString(payload["location"], 120)
		h.rec.RecordJobView(r.Context(), store.JobViewEvent{
			JobID:       coerceString(payload["job_id"], 80),
			JobTitle:    coerceString(payload["job_title"], 180),
			Company:     coerceString(payload["company"], 120),
			Location:    location,
			NormCountry: search.NormalizeCountry(location),
			UserAgent:   meta.UserAgent,
			IPHash:      meta.IPHash,
			SessionID:   meta.SessionID,
		})
		jsonOK(w, map[string]bool{"ok": true})

	case "search":
		rawTitle := coerceString(payload["raw_title"], 180)
		rawCountry := coerceString(payload["raw_country"], 64)
		normTitle := coerceString(payload["norm_title"], 180)
		if normTitle == "" {
			normTitle = rawTitle
		}
		normCountry := coerceString(payload["norm_country"], 64)
		if normCountry == "" {
			normCountry = rawCountry
		}
		h.rec.RecordSearch(r.Context(), store.SearchEvent{
			RawTitle:    rawTitle,
			RawCountry:  rawCountry,
			NormTitle:   search.NormalizeTitle(normTitle),
			NormCountry: search.NormalizeCountry(normCountry),
			SalaryMin:   coerceIntPtr(payload["sal_floor"]),
			SalaryMax:   coerceIntPtr(payload["sal_ceiling"]),
			ResultCount: coerceInt(payload["result_count"], 0, 0, 100000),
			Page:        coerceInt(payload["page"], 1, 1, 100000),
			PerPage:     coerceInt(payload["per_page"], 10, 1, 1000),
			UserAgent:   meta.UserAgent,
			Referer:     meta.Referer,
			IPHash:      meta.IPHash,
			SessionID:   meta.SessionID,
		})
		jsonOK(w, map[string]bool{"ok": true})

	case "subscribe":
		status := strings.ToLower(coerceString(payload["status"], 32))
		if status == "" {
			status = "clicked"
		}
		h.rec.RecordSubscribeStatus(r.Context(), coerceString(payload["email"], 254), status)
		jsonOK(w, map[string]bool{"ok": true})

	default:
		jsonError(w, "unsupported_type", http.StatusBadRequest)
	}
}

// ─── Health + admin ──────────────────────────────────────────────────────────

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	supplied := r.URL.Query().Get("key")
	if supplied == "" {
		supplied = r.URL.Query().Get("token")
	}
	configured := h.cfg.AdminKey
	if configured == "" {
		configured = h.cfg.AdminToken
	}
	if !adminAuthorized(supplied, configured) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	summary, err := h.store.AnalyticsSummary(r.Context())
	if err != nil {
		h.log.Error("analytics summary", "error", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, summary)
}

func (h *Handler) handleAdminMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !adminAuthorized(r.URL.Query().Get("token"), h.cfg.AdminToken) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	titles, err := h.store.TopSearchTitles(r.Context(), topTermsLimit)
	if err != nil {
		h.log.Error("top titles", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	countries, err := h.store.TopSearchCountries(r.Context(), topTermsLimit)
	if err != nil {
		h.log.Error("top countries", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	recent, err := h.store.RecentSearches(r.Context(), recentSearchLimit)
	if err != nil {
		h.log.Error("recent searches", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	h.render(w, "admin_metrics.html", metricsData{TopTitles: titles, TopCountries: countries, Recent: recent})
}

// adminAuthorized compares in constant time. An unset credential denies
// everything rather than matching an empty supplied value.
func adminAuthorized(supplied, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) == 1
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// pagingParams clamps page and per_page: page between 1 and pageMax,
// per_page between 10 and 100 with 20 as the default for absent or
// junk values.
func pagingParams(q url.Values) (page, perPage int) {
	page = intParam(q.Get("page"), 1)
	if page < 1 {
		page = 1
	} else if page > pageMax {
		page = pageMax
	}
	perPage = intParam(q.Get("per_page"), perPageDefault)
	if perPage == 0 {
		perPage = perPageDefault
	}
	if perPage < 10 {
		perPage = 10
	} else if perPage > perPageMax {
		perPage = perPageMax
	}
	return page, perPage
}

func intParam(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// normalizeEmail validates an address and lowercases its domain.
// Display names ("Bob <bob@x.com>") are rejected; the form field is
// the bare address.
func normalizeEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", false
	}
	local, domain, found := strings.Cut(addr.Address, "@")
	if !found || domain == "" {
		return "", false
	}
	return local + "@" + strings.ToLower(domain), true
}

// coerceString extracts a trimmed, length-capped string from a decoded
// JSON value; non-scalar values become "".
func coerceString(v any, maxLen int) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		if t == 0 {
			break
		}
		if t == math.Trunc(t) {
			s = strconv.FormatInt(int64(t), 10)
		} else {
			s = strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	return s
}

// coerceInt extracts an int clamped to [lo, hi], falling back to def.
func coerceInt(v any, def, lo, hi int) int {
	n := def
	switch t := v.(type) {
	case float64:
		n = int(t)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			n = parsed
		}
	}
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return n
}

// coerceIntPtr is coerceInt without a default: nil when the value is
// absent or not a number.
func coerceIntPtr(v any) *int {
	switch t := v.(type) {
	case float64:
		n := int(t)
		return &n
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &parsed
		}
	}
	return nil
}
