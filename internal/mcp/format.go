package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/seekr/internal/websearch"
)

// maxSummaryLen caps snippets so a page of results stays readable.
const maxSummaryLen = 300

// FormatSearchResults formats a search response as markdown.
func FormatSearchResults(resp *websearch.SearchResponse) string {
	if resp == nil || len(resp.Hits) == 0 {
		query := ""
		if resp != nil {
			query = resp.Query
		}
		msg := fmt.Sprintf("No results found for \"%s\"", query)
		if resp != nil && len(resp.Suggestions) > 0 {
			msg += "\n\n" + formatSuggestions(resp.Suggestions)
		}
		return msg
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Web Results for \"%s\"\n\n", resp.Query)
	fmt.Fprintf(&sb, "Page %d, %d of %d result", resp.Page+1, len(resp.Hits), resp.Total)
	if resp.Total != 1 {
		sb.WriteString("s")
	}
	if resp.Personalized {
		sb.WriteString(" (personalized)")
	}
	sb.WriteString("\n\n")

	if len(resp.Failed) > 0 {
		fmt.Fprintf(&sb, "> Engines without results: %s\n\n", strings.Join(resp.Failed, ", "))
	}

	for i := range resp.Hits {
		formatHit(&sb, &resp.Hits[i])
	}

	if len(resp.Suggestions) > 0 {
		sb.WriteString(formatSuggestions(resp.Suggestions))
	}
	return sb.String()
}

// FormatHit formats a single result fetched by id.
func FormatHit(h *websearch.Hit) string {
	var sb strings.Builder
	formatHit(&sb, h)
	return sb.String()
}

func formatHit(sb *strings.Builder, h *websearch.Hit) {
	fmt.Fprintf(sb, "### [%d] %s\n", h.ID, title(h))
	fmt.Fprintf(sb, "%s\n\n", h.URL)

	meta := []string{fmt.Sprintf("rank: %.2f", h.Rank)}
	if h.PersonalRank != nil {
		meta = append(meta, fmt.Sprintf("personal: %.2f", *h.PersonalRank))
	}
	if len(h.Engines) > 0 {
		meta = append(meta, "engines: "+strings.Join(h.Engines, ", "))
	}
	if h.DocType != "" && h.DocType != "webpage" {
		meta = append(meta, "type: "+h.DocType)
	}
	if h.Date != nil {
		meta = append(meta, "date: "+h.Date.Format("2006-01-02"))
	}
	fmt.Fprintf(sb, "*%s*\n\n", strings.Join(meta, " | "))

	if summary := truncate(h.Summary, maxSummaryLen); summary != "" {
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}
	if h.Cached != "" {
		fmt.Fprintf(sb, "Cached: %s\n\n", h.Cached)
	}
}

func title(h *websearch.Hit) string {
	if strings.TrimSpace(h.Title) == "" {
		return h.URL
	}
	return h.Title
}

func formatSuggestions(s []string) string {
	quoted := make([]string, len(s))
	for i, q := range s {
		quoted[i] = fmt.Sprintf("`%s`", q)
	}
	return "Related searches: " + strings.Join(quoted, ", ") + "\n"
}

// truncate shortens s to at most n runes, ending with an ellipsis.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
