// Package ingest pulls job listings from Adzuna on a schedule and loads
// them into the store, normalized and deduplicated by link.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (title × location) pair
	httpTimeout    = 15 * time.Second
)

// Listing is one raw offer as the provider returns it.
type Listing struct {
	ExternalID  string
	Title       string
	Company     string
	Location    string
	Description string
	SalaryMin   float64
	SalaryMax   float64
	SourceURL   string
	Created     string
}

// Provider fetches offers for a title and location pair.
type Provider interface {
	Fetch(ctx context.Context, jobTitle, location string) ([]Listing, error)
}

// AdzunaFetcher fetches job offers from the Adzuna public API. With
// empty credentials Fetch returns (nil, nil) so a round simply skips.
type AdzunaFetcher struct {
	AppID   string
	AppKey  string
	Country string // "de", "gb", "us", …
	client  *http.Client
	log     *logging.Logger
}

// NewAdzunaFetcher constructs a fetcher with a shared HTTP client.
func NewAdzunaFetcher(appID, appKey, country string, log *logging.Logger) *AdzunaFetcher {
	return &AdzunaFetcher{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		client:  &http.Client{Timeout: httpTimeout},
		log:     log,
	}
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	SalaryMin   float64        `json:"salary_min"`
	SalaryMax   float64        `json:"salary_max"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Fetch retrieves offers for a title and location, paging until the
// results run out or adzunaMaxPages is reached.
func (f *AdzunaFetcher) Fetch(ctx context.Context, jobTitle, location string) ([]Listing, error) {
	if f.AppID == "" || f.AppKey == "" {
		f.log.Warn("adzuna credentials not set, skipping fetch")
		return nil, nil
	}

	var results []Listing
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := f.fetchPage(ctx, jobTitle, location, page)
		if err != nil {
			return results, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		results = append(results, batch...)
		if len(batch) < adzunaPageSize {
			break // last page
		}
	}
	return results, nil
}

func (f *AdzunaFetcher) fetchPage(ctx context.Context, jobTitle, location string, page int) ([]Listing, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", adzunaBaseURL, f.Country, page)

	params := url.Values{}
	params.Set("app_id", f.AppID)
	params.Set("app_key", f.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", jobTitle)
	params.Set("where", location)
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	listings := make([]Listing, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		listings = append(listings, Listing{
			ExternalID:  r.ID,
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: r.Description,
			SalaryMin:   r.SalaryMin,
			SalaryMax:   r.SalaryMax,
			SourceURL:   r.RedirectURL,
			Created:     r.Created,
		})
	}
	return listings, nil
}
