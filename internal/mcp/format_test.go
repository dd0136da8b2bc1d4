package mcp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/seekr/internal/websearch"
)

func TestFormatSearchResults_Empty(t *testing.T) {
	out := FormatSearchResults(&websearch.SearchResponse{Query: "nothing", Suggestions: []string{"something"}})

	assert.True(t, strings.HasPrefix(out, `No results found for "nothing"`))
	assert.Contains(t, out, "Related searches: `something`")
}

func TestFormatSearchResults_Nil(t *testing.T) {
	assert.Equal(t, `No results found for ""`, FormatSearchResults(nil))
}

func TestFormatSearchResults_Header(t *testing.T) {
	resp := &websearch.SearchResponse{
		Query:        "golang",
		Page:         1,
		Total:        12,
		Personalized: true,
		Failed:       []string{"beta"},
		Hits:         []websearch.Hit{{ID: 10, URL: "https://go.dev/", Title: "Go", Rank: 1.5}},
	}

	out := FormatSearchResults(resp)

	assert.Contains(t, out, "Page 2, 1 of 12 results (personalized)")
	assert.Contains(t, out, "> Engines without results: beta")
	assert.Contains(t, out, "### [10] Go")
	assert.Contains(t, out, "rank: 1.50")
}

func TestFormatHit(t *testing.T) {
	personal := 0.75
	date := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	h := &websearch.Hit{
		ID:           3,
		URL:          "https://example.com/report.pdf",
		Summary:      strings.Repeat("a", maxSummaryLen+50),
		Engines:      []string{"alpha"},
		Rank:         1,
		PersonalRank: &personal,
		DocType:      "pdf",
		Cached:       "https://cache.example/report",
		Date:         &date,
	}

	out := FormatHit(h)

	assert.Contains(t, out, "### [3] https://example.com/report.pdf", "untitled hits fall back to the URL")
	assert.Contains(t, out, "personal: 0.75")
	assert.Contains(t, out, "type: pdf")
	assert.Contains(t, out, "date: 2024-03-09")
	assert.Contains(t, out, strings.Repeat("a", maxSummaryLen)+"...")
	assert.Contains(t, out, "Cached: https://cache.example/report")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short ", 10))
	assert.Equal(t, "héllo...", truncate("héllo world", 5))
}
