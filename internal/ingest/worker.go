package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Catalitium/catalitiumJobs/internal/search"
	"github.com/Catalitium/catalitiumJobs/internal/store"
	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

// Inserter is the slice of the store the worker writes to.
type Inserter interface {
	InsertJobs(ctx context.Context, jobs []store.Job) (int, error)
}

// WorkerConfig is the ingest matrix plus its filters.
type WorkerConfig struct {
	Titles    []string
	Locations []string
	RedFlags  []string
	Denylist  []string
}

// Worker runs one ingest cycle: for each title × location pair it
// fetches offers, drops red-flagged and denylisted ones, and inserts
// the rest with normalized titles. Duplicates fall out on the link key.
type Worker struct {
	store    Inserter
	provider Provider
	cfg      WorkerConfig
	denied   map[string]bool
	log      *logging.Logger
}

func NewWorker(st Inserter, provider Provider, cfg WorkerConfig, log *logging.Logger) *Worker {
	denied := make(map[string]bool, len(cfg.Denylist))
	for _, link := range cfg.Denylist {
		denied[link] = true
	}
	return &Worker{store: st, provider: provider, cfg: cfg, denied: denied, log: log}
}

// Run executes one full cycle. A failing pair is logged and skipped so
// one bad upstream response cannot starve the rest of the matrix.
func (w *Worker) Run(ctx context.Context) error {
	var totalInserted, totalFiltered, totalDupes int

	for _, title := range w.cfg.Titles {
		for _, location := range w.cfg.Locations {
			inserted, filtered, dupes, err := w.ingestPair(ctx, title, location)
			if err != nil {
				w.log.Warn("ingest pair failed", "title", title, "location", location, "error", err)
				continue
			}
			totalInserted += inserted
			totalFiltered += filtered
			totalDupes += dupes
		}
	}

	w.log.Info("ingest cycle done",
		"inserted", totalInserted, "filtered", totalFiltered, "duplicates", totalDupes)
	return nil
}

func (w *Worker) ingestPair(ctx context.Context, title, location string) (inserted, filtered, dupes int, err error) {
	listings, err := w.provider.Fetch(ctx, title, location)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fetch: %w", err)
	}
	if len(listings) == 0 {
		return 0, 0, 0, nil
	}

	jobs := make([]store.Job, 0, len(listings))
	for _, l := range listings {
		if containsRedFlag(l.Title, l.Company, l.Description, w.cfg.RedFlags) {
			filtered++
			continue
		}
		job := toJob(l)
		if w.denied[job.Link] {
			filtered++
			continue
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return 0, filtered, 0, nil
	}

	inserted, err = w.store.InsertJobs(ctx, jobs)
	if err != nil {
		return inserted, filtered, 0, fmt.Errorf("insert: %w", err)
	}
	return inserted, filtered, len(jobs) - inserted, nil
}

// toJob shapes a raw listing for storage. The link doubles as the
// dedup key, so offers without one get a synthetic adzuna: link.
func toJob(l Listing) store.Job {
	j := store.Job{
		Title:       l.Title,
		Description: l.Description,
		Link:        l.SourceURL,
		TitleNorm:   search.NormalizeTitle(l.Title),
		Location:    l.Location,
	}
	if j.Link == "" {
		j.Link = "adzuna:" + l.ExternalID
	}
	if t, parseErr := time.Parse(time.RFC3339, l.Created); parseErr == nil {
		utc := t.UTC()
		j.Date = &utc
		j.JobDate = utc.Format("2006-01-02")
	} else {
		j.JobDate = l.Created
	}
	if l.SalaryMin > 0 {
		v := int(math.Round(l.SalaryMin))
		j.SalaryMin = &v
	}
	if l.SalaryMax > 0 {
		v := int(math.Round(l.SalaryMax))
		j.SalaryMax = &v
	}
	return j
}

// containsRedFlag reports whether any flag term appears, case
// insensitively, in the combined title + company + description text.
func containsRedFlag(title, company, description string, redFlags []string) bool {
	if len(redFlags) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + company + " " + description)
	for _, flag := range redFlags {
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
