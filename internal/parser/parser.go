// Package parser turns raw backend result pages into normalized Results.
//
// Each backend is bound to a parser profile: a set of CSS selectors for
// HTML result pages, or one of the structured formats (searx JSON, RSS).
// All parsing goes through a Serializer so at most one page is parsed at
// a time per process.
package parser

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/result"
)

// Parser extracts Results and query suggestions from one backend page.
type Parser interface {
	// Parse returns the hits of body in page order. Hits without a URL or
	// title are dropped. page is the expansion page body was fetched for.
	Parse(body []byte, page int) ([]*result.Result, []string, error)
}

// Builtin profile names.
const (
	ProfileDuckDuckGo    = "duckduckgo_html"
	ProfileBing          = "bing"
	ProfileMojeek        = "mojeek"
	ProfileSearxJSON     = "searx_json"
	ProfileOpenSearchRSS = "opensearch_rss"
)

// New returns the parser for profile, bound to backend id. overrides
// replace individual selectors of HTML profiles.
func New(profile string, id engine.ID, overrides map[string]string) (Parser, error) {
	switch profile {
	case ProfileSearxJSON:
		return &SearxParser{backend: id}, nil
	case ProfileOpenSearchRSS:
		return &RSSParser{backend: id}, nil
	}

	sel, ok := profiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown parser profile %q", profile)
	}
	sel = sel.With(overrides)
	return NewSelectorParser(id, sel)
}

// Profiles returns the names of every builtin profile.
func Profiles() []string {
	names := []string{ProfileSearxJSON, ProfileOpenSearchRSS}
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serializer runs parse calls one at a time.
type Serializer struct {
	mu sync.Mutex
}

// Parse runs p.Parse while holding the serializer.
func (s *Serializer) Parse(p Parser, body []byte, page int) ([]*result.Result, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.Parse(body, page)
}

// hit builds a pending Result for position pos (0-based) of page.
func hit(id engine.ID, page, pos int, rawURL, title string) *result.Result {
	r := result.New(id, rawURL, title)
	r.Page = page
	r.Positions[id] = pos + 1
	return r
}
