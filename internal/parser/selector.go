package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/result"
)

// Selectors locate the parts of a hit inside an HTML result page. Result
// is evaluated against the document; the others against each result
// element. Empty selectors are skipped.
type Selectors struct {
	Result     string
	Link       string
	Title      string
	Summary    string
	Cite       string
	Cached     string
	Suggestion string

	// LinkAttr is the attribute of Link holding the URL; defaults to href.
	LinkAttr string
	// RedirectParam names a query parameter carrying the real target when
	// the backend wraps links in a redirector.
	RedirectParam string
	// BaseURL resolves relative links.
	BaseURL string
}

// With returns a copy of s with the named fields replaced.
func (s Selectors) With(overrides map[string]string) Selectors {
	for k, v := range overrides {
		switch k {
		case "result":
			s.Result = v
		case "link":
			s.Link = v
		case "title":
			s.Title = v
		case "summary":
			s.Summary = v
		case "cite":
			s.Cite = v
		case "cached":
			s.Cached = v
		case "suggestion":
			s.Suggestion = v
		case "link_attr":
			s.LinkAttr = v
		case "redirect_param":
			s.RedirectParam = v
		case "base_url":
			s.BaseURL = v
		}
	}
	return s
}

type compiled struct {
	result, link, title, summary, cite, cached, suggestion cascadia.Selector
}

// SelectorParser parses HTML result pages with CSS selectors.
type SelectorParser struct {
	backend engine.ID
	sel     Selectors
	c       compiled
	base    *url.URL
}

// NewSelectorParser compiles sel. Result, Link and Title are required.
func NewSelectorParser(id engine.ID, sel Selectors) (*SelectorParser, error) {
	if sel.Result == "" || sel.Link == "" || sel.Title == "" {
		return nil, fmt.Errorf("selector profile needs result, link and title selectors")
	}
	if sel.LinkAttr == "" {
		sel.LinkAttr = "href"
	}

	p := &SelectorParser{backend: id, sel: sel}
	var err error
	for _, f := range []struct {
		dst *cascadia.Selector
		src string
	}{
		{&p.c.result, sel.Result},
		{&p.c.link, sel.Link},
		{&p.c.title, sel.Title},
		{&p.c.summary, sel.Summary},
		{&p.c.cite, sel.Cite},
		{&p.c.cached, sel.Cached},
		{&p.c.suggestion, sel.Suggestion},
	} {
		if f.src == "" {
			continue
		}
		if *f.dst, err = cascadia.Compile(f.src); err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", f.src, err)
		}
	}
	if sel.BaseURL != "" {
		if p.base, err = url.Parse(sel.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", sel.BaseURL, err)
		}
	}
	return p, nil
}

// Parse implements Parser.
func (p *SelectorParser) Parse(body []byte, page int) ([]*result.Result, []string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	var hits []*result.Result
	doc.FindMatcher(p.c.result).Each(func(_ int, s *goquery.Selection) {
		link, ok := s.FindMatcher(p.c.link).First().Attr(p.sel.LinkAttr)
		if !ok {
			return
		}
		link = p.resolve(link)
		title := text(s.FindMatcher(p.c.title).First())
		if link == "" || title == "" {
			return
		}

		r := hit(p.backend, page, len(hits), link, title)
		if p.c.summary != nil {
			r.Summary = text(s.FindMatcher(p.c.summary).First())
		}
		if p.c.cite != nil {
			r.Cite = text(s.FindMatcher(p.c.cite).First())
		}
		if p.c.cached != nil {
			if cached, ok := s.FindMatcher(p.c.cached).First().Attr("href"); ok {
				r.CachedLink = p.resolve(cached)
			}
		}
		hits = append(hits, r)
	})

	var suggestions []string
	if p.c.suggestion != nil {
		doc.FindMatcher(p.c.suggestion).Each(func(_ int, s *goquery.Selection) {
			if q := text(s); q != "" {
				suggestions = append(suggestions, q)
			}
		})
	}
	return hits, suggestions, nil
}

// resolve makes link absolute and unwraps redirector links.
func (p *SelectorParser) resolve(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if p.base != nil {
		u = p.base.ResolveReference(u)
	}
	if p.sel.RedirectParam != "" {
		if target := u.Query().Get(p.sel.RedirectParam); target != "" {
			return target
		}
	}
	if !u.IsAbs() {
		return ""
	}
	return u.String()
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
