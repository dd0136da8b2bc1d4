package fetch

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Template builds a backend request URL from a pattern with placeholders:
//
//	%query     the query, query-escaped
//	%start     StartOffset + page × PerPage
//	%num       PerPage
//	%page      page + 1
//	%lang      the query language
//	%encoding  the requested response encoding (UTF-8)
type Template struct {
	raw         string
	startOffset int
	perPage     int
}

// NewTemplate validates raw and returns a Template.
func NewTemplate(raw string, startOffset, perPage int) (*Template, error) {
	if !strings.Contains(raw, "%query") {
		return nil, fmt.Errorf("url template %q has no %%query placeholder", raw)
	}
	if perPage <= 0 {
		return nil, fmt.Errorf("url template %q: per page must be positive", raw)
	}
	probe := strings.NewReplacer(
		"%query", "q", "%start", "0", "%num", "1", "%page", "1", "%lang", "en", "%encoding", "UTF-8",
	).Replace(raw)
	if u, err := url.Parse(probe); err != nil || u.Host == "" {
		return nil, fmt.Errorf("url template %q does not yield an absolute url", raw)
	}
	return &Template{raw: raw, startOffset: startOffset, perPage: perPage}, nil
}

// PerPage returns the number of results requested per page.
func (t *Template) PerPage() int { return t.perPage }

// Build returns the URL for query at page (0-based) in lang.
func (t *Template) Build(query string, page int, lang string) string {
	r := strings.NewReplacer(
		"%query", url.QueryEscape(query),
		"%start", strconv.Itoa(t.startOffset+page*t.perPage),
		"%num", strconv.Itoa(t.perPage),
		"%page", strconv.Itoa(page+1),
		"%lang", url.QueryEscape(lang),
		"%encoding", "UTF-8",
	)
	return r.Replace(t.raw)
}
