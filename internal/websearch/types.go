package websearch

import (
	"time"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/qcontext"
	"github.com/Aman-CERP/seekr/internal/result"
	"github.com/Aman-CERP/seekr/internal/sweeper"
	"github.com/Aman-CERP/seekr/internal/telemetry"
)

// SearchRequest is one front-end search.
type SearchRequest struct {
	Query string `json:"query"`
	// Lang is a language code, "auto", or empty for the configured default.
	Lang string `json:"lang,omitempty"`
	// AcceptLanguage is the client's header, consulted when Lang is "auto".
	AcceptLanguage string `json:"accept_language,omitempty"`
	// Engines names the backends to query; empty means the enabled ones.
	Engines []string      `json:"engines,omitempty"`
	Mode    qcontext.Mode `json:"mode"`
	// Page is the zero-based result page to return.
	Page int `json:"page,omitempty"`
	// Horizon is how many backend pages deep to expand; at least Page+1.
	Horizon     int  `json:"horizon,omitempty"`
	Personalize bool `json:"personalize,omitempty"`
	// Radius bounds the personalization lookup; nil means the default.
	Radius *int `json:"radius,omitempty"`
}

// SearchResponse is a page of ranked results.
type SearchResponse struct {
	Query    string   `json:"query"`
	Lang     string   `json:"lang"`
	Engines  []string `json:"engines"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	// Total counts the context's results voted for by the requested engines.
	Total   int   `json:"total"`
	Horizon int   `json:"horizon"`
	Hits    []Hit `json:"hits"`

	Suggestions []string `json:"suggestions,omitempty"`
	// Failed names requested backends that produced nothing this time.
	Failed []string `json:"failed,omitempty"`
	// Fetched is the number of backend pages fetched for this request.
	Fetched      int           `json:"fetched"`
	Personalized bool          `json:"personalized"`
	Elapsed      time.Duration `json:"elapsed"`
}

// FetchRequest asks for one result of a query by id.
type FetchRequest struct {
	Query          string `json:"query"`
	Lang           string `json:"lang,omitempty"`
	AcceptLanguage string `json:"accept_language,omitempty"`
	ID             int    `json:"id"`
}

// ClickRequest records that a user followed a result.
type ClickRequest struct {
	Query          string `json:"query"`
	Lang           string `json:"lang,omitempty"`
	AcceptLanguage string `json:"accept_language,omitempty"`
	URL            string `json:"url"`
}

// Hit is the presentation of a Result outside its context's lock.
type Hit struct {
	ID           int        `json:"id"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary,omitempty"`
	Cite         string     `json:"cite,omitempty"`
	Cached       string     `json:"cached,omitempty"`
	Archive      string     `json:"archive,omitempty"`
	Engines      []string   `json:"engines"`
	Rank         float64    `json:"rank"`
	PersonalRank *float64   `json:"personal_rank,omitempty"`
	DocType      string     `json:"doc_type"`
	FileFormat   string     `json:"file_format,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
}

func newHit(r *result.Result, u *engine.Universe) Hit {
	h := Hit{
		ID:         r.ID,
		URL:        r.URL,
		Title:      r.Title,
		Summary:    r.Summary,
		Cite:       r.Cite,
		Cached:     r.CachedLink,
		Archive:    r.ArchiveLink,
		Engines:    u.Names(r.Votes),
		Rank:       r.BaseRank,
		DocType:    r.DocType.String(),
		FileFormat: r.FileFormat,
	}
	if r.PersonalRank != nil {
		v := *r.PersonalRank
		h.PersonalRank = &v
	}
	if !r.Date.IsZero() {
		d := r.Date
		h.Date = &d
	}
	return h
}

// EngineInfo describes one configured backend.
type EngineInfo struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Parser  string `json:"parser"`
	Circuit string `json:"circuit"`
}

// Status is a snapshot of the node.
type Status struct {
	Uptime          time.Duration                   `json:"uptime"`
	Contexts        int                             `json:"contexts"`
	Sweeper         sweeper.Stats                   `json:"sweeper"`
	Engines         []EngineInfo                    `json:"engines"`
	Personalization bool                            `json:"personalization"`
	ContentAnalysis bool                            `json:"content_analysis"`
	Queries         *telemetry.QueryMetricsSnapshot `json:"queries"`
}
