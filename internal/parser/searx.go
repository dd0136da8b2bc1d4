package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/result"
)

// SearxParser reads the JSON output format of a searx/SearXNG instance.
type SearxParser struct {
	backend engine.ID
}

type searxPage struct {
	Results []struct {
		URL           string `json:"url"`
		Title         string `json:"title"`
		Content       string `json:"content"`
		PublishedDate string `json:"publishedDate"`
		Cached        string `json:"cached_url"`
	} `json:"results"`
	Suggestions []string `json:"suggestions"`
}

// Parse implements Parser.
func (p *SearxParser) Parse(body []byte, page int) ([]*result.Result, []string, error) {
	var doc searxPage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse searx json: %w", err)
	}

	hits := make([]*result.Result, 0, len(doc.Results))
	for _, item := range doc.Results {
		title := strings.TrimSpace(item.Title)
		if item.URL == "" || title == "" {
			continue
		}
		r := hit(p.backend, page, len(hits), item.URL, title)
		r.Summary = strings.TrimSpace(item.Content)
		r.CachedLink = item.Cached
		if t, err := time.Parse(time.RFC3339, item.PublishedDate); err == nil {
			r.Date = t
		}
		hits = append(hits, r)
	}
	return hits, doc.Suggestions, nil
}
