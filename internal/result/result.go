// Package result holds the normalized search hit and the per-query arena
// that owns Results and indexes them by canonical URL, title and id.
package result

import (
	"time"

	"github.com/Aman-CERP/seekr/internal/engine"
)

// Result is one normalized search hit, possibly standing for several
// backends' agreement on the same resource.
type Result struct {
	// ID is unique within the owning query context and stable across
	// expansion: page × page size + position within the page.
	ID int `json:"id"`

	URL          string `json:"url"`
	CanonicalURL string `json:"-"`
	Title        string `json:"title"`
	Summary      string `json:"summary,omitempty"`
	Cite         string `json:"cite,omitempty"`
	CachedLink   string `json:"cached,omitempty"`
	ArchiveLink  string `json:"archive,omitempty"`

	// Votes holds every backend that independently returned this Result.
	Votes engine.Set `json:"-"`
	// BaseRank equals Votes.Len().
	BaseRank float64 `json:"rank"`
	// PersonalRank is set by the personalization oracle, nil otherwise.
	PersonalRank *float64 `json:"personal_rank,omitempty"`
	// SimScore is scratch space for similarity sorting; always zero at rest.
	SimScore float64 `json:"-"`
	// Pending is true only while the merge pass is deciding this Result.
	Pending bool `json:"-"`
	// Page is the expansion page the hit was scraped from.
	Page int `json:"-"`

	DocType    DocType   `json:"doc_type"`
	FileFormat string    `json:"file_format,omitempty"`
	Date       time.Time `json:"date,omitzero"`

	// Positions records the 1-based rank each backend gave this hit.
	Positions map[engine.ID]int `json:"-"`

	// Content is an optional cached copy of the page, owned by the Result.
	Content []byte `json:"-"`
}

// New builds a pending Result for a hit scraped from backend id.
func New(id engine.ID, rawURL, title string) *Result {
	u := CleanURL(rawURL)
	dt, ff := GuessDocType(u)
	return &Result{
		URL:          u,
		CanonicalURL: Canonicalize(u),
		Title:        title,
		ArchiveLink:  ArchiveLink(u),
		Votes:        engine.Of(id),
		BaseRank:     1,
		Pending:      true,
		DocType:      dt,
		FileFormat:   ff,
		Positions:    map[engine.ID]int{},
	}
}

// Valid reports whether r carries the fields every Result must have.
func (r *Result) Valid() bool {
	return r != nil && r.URL != "" && r.Title != "" && r.CanonicalURL != ""
}

// Rank returns the sort key: the personalized rank when present.
func (r *Result) Rank() float64 {
	if r.PersonalRank != nil {
		return *r.PersonalRank
	}
	return r.BaseRank
}

// Clone returns a deep copy safe to hand out after the owning context is
// unlocked.
func (r *Result) Clone() *Result {
	c := *r
	if r.PersonalRank != nil {
		v := *r.PersonalRank
		c.PersonalRank = &v
	}
	if r.Positions != nil {
		c.Positions = make(map[engine.ID]int, len(r.Positions))
		for k, v := range r.Positions {
			c.Positions[k] = v
		}
	}
	if r.Content != nil {
		c.Content = append([]byte(nil), r.Content...)
	}
	return &c
}

// Merge folds src into dst. Votes are OR'd, empty fields of dst are filled
// from src, and the richer of two competing values is kept. Vote
// cardinality never decreases.
func Merge(dst, src *Result) {
	dst.Votes = dst.Votes.Union(src.Votes)
	dst.BaseRank = float64(dst.Votes.Len())

	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(src.Summary) > len(dst.Summary) {
		dst.Summary = src.Summary
	}
	if src.Cite != "" && (dst.Cite == "" || len(src.Cite) < len(dst.Cite)) {
		dst.Cite = src.Cite
	}
	if dst.CachedLink == "" {
		dst.CachedLink = src.CachedLink
	}
	if dst.ArchiveLink == "" {
		dst.ArchiveLink = src.ArchiveLink
	}
	if src.DocType > dst.DocType {
		dst.DocType = src.DocType
	}
	if len(src.FileFormat) > len(dst.FileFormat) {
		dst.FileFormat = src.FileFormat
	}
	if dst.Date.IsZero() {
		dst.Date = src.Date
	}
	if len(src.Content) > len(dst.Content) {
		dst.Content = src.Content
	}
	if dst.Positions == nil {
		dst.Positions = map[engine.ID]int{}
	}
	for id, pos := range src.Positions {
		if cur, ok := dst.Positions[id]; !ok || pos < cur {
			dst.Positions[id] = pos
		}
	}
}
