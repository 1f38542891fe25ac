package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Catalitium/catalitiumJobs/internal/search"
	"github.com/Catalitium/catalitiumJobs/internal/store"
	"github.com/Catalitium/catalitiumJobs/internal/textutil"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// jobView is one card on the listings page.
type jobView struct {
	ID          string
	Title       string
	Company     string
	Location    string
	Description string
	DatePosted  string
	Link        string
}

type pagination struct {
	Page    int
	Pages   int
	Total   int
	PerPage int
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}

type indexData struct {
	Results       []jobView
	Count         int
	TitleQ        string
	CountryQ      string
	Pagination    pagination
	GTM           string
	FlashCategory string
	FlashMessage  string
}

type metricsData struct {
	TopTitles    []store.TermCount
	TopCountries []store.TermCount
	Recent       []store.RecentSearch
}

// shapeJob prepares one stored listing for display: collapsed title,
// location fallback, summarized description, dotted date.
func shapeJob(j store.Job) jobView {
	title := strings.Join(strings.Fields(j.Title), " ")
	if title == "" {
		title = "(Untitled)"
	}
	location := j.Location
	if location == "" {
		location = "Remote / Anywhere"
	}
	datePosted := ""
	if s := strings.TrimSpace(j.JobDate); s != "" {
		datePosted = textutil.FormatJobDate(s)
	}
	return jobView{
		ID:          strconv.FormatInt(j.ID, 10),
		Title:       title,
		Location:    location,
		Description: textutil.Preview(j.Description),
		DatePosted:  datePosted,
		Link:        j.Link,
	}
}

// demoJobs are the placeholder cards for an unfiltered load of an empty
// store, so a fresh deployment never renders a blank page.
func demoJobs() []jobView {
	return []jobView{
		{ID: "demo-1", Title: "Senior Software Engineer (AI)", Company: "Catalitium", Location: "Remote / EU", Description: "Own end-to-end features across ingestion, ranking, and AI-assisted matching.", DatePosted: "2025.10.01"},
		{ID: "demo-2", Title: "Data Engineer", Company: "Catalitium", Location: "Berlin, DE", Description: "Build reliable pipelines and optimize warehouse performance.", DatePosted: "2025.09.28"},
		{ID: "demo-3", Title: "Product Manager", Company: "Stealth", Location: "Zurich, CH", Description: "Partner with design and engineering to deliver user-value quickly.", DatePosted: "2025.09.27"},
		{ID: "demo-4", Title: "Frontend Developer", Company: "Acme Corp", Location: "Barcelona, ES", Description: "Ship delightful UI with Tailwind + Alpine and strong accessibility.", DatePosted: "2025.09.26"},
		{ID: "demo-5", Title: "Cloud DevOps Engineer", Company: "Nimbus", Location: "Munich, DE", Description: "Automate infra, observability, and release workflows.", DatePosted: "2025.09.25"},
		{ID: "demo-6", Title: "ML Engineer", Company: "Quantix", Location: "Remote", Description: "Deploy LLM-powered ranking and semantic matching at scale.", DatePosted: "2025.09.24"},
	}
}

func buildPagination(q search.Query, page, pages, total, perPage int) pagination {
	p := pagination{
		Page:    page,
		Pages:   pages,
		Total:   total,
		PerPage: perPage,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
	if p.HasPrev {
		p.PrevURL = pageURL(q, page-1, perPage)
	}
	if p.HasNext {
		p.NextURL = pageURL(q, page+1, perPage)
	}
	return p
}

// pageURL links to another page of the same search, carrying the
// normalized form of the filters.
func pageURL(q search.Query, page, perPage int) string {
	v := url.Values{}
	if q.Title != "" {
		v.Set("title", q.Title)
	}
	if q.Country != "" {
		v.Set("country", q.Country)
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))
	return "/?" + v.Encode()
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
