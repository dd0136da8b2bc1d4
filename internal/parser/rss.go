package parser

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/result"
)

// RSSParser reads OpenSearch RSS result feeds. The feed is walked with the
// HTML tokenizer rather than the tree builder, which would treat <link> as
// a void element and detach its text.
type RSSParser struct {
	backend engine.ID
}

type rssItem struct {
	title, link, description, pubDate string
}

// Parse implements Parser.
func (p *RSSParser) Parse(body []byte, page int) ([]*result.Result, []string, error) {
	z := html.NewTokenizer(bytes.NewReader(body))
	z.AllowCDATA(true)

	var (
		items []rssItem
		cur   *rssItem
		field *string
	)
loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, nil, err
			}
			break loop
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "item", "entry":
				cur = &rssItem{}
			case "title":
				field = pick(cur, func(it *rssItem) *string { return &it.title })
			case "link":
				field = pick(cur, func(it *rssItem) *string { return &it.link })
			case "description", "summary":
				field = pick(cur, func(it *rssItem) *string { return &it.description })
			case "pubdate":
				field = pick(cur, func(it *rssItem) *string { return &it.pubDate })
			}
		case html.TextToken:
			if field != nil {
				*field += string(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "item", "entry":
				if cur != nil {
					items = append(items, *cur)
				}
				cur = nil
				field = nil
			case "title", "link", "description", "summary", "pubdate":
				field = nil
			}
		}
	}

	hits := make([]*result.Result, 0, len(items))
	for _, it := range items {
		title := unwrapCDATA(it.title)
		link := unwrapCDATA(it.link)
		if title == "" || link == "" {
			continue
		}
		r := hit(p.backend, page, len(hits), link, title)
		r.Summary = stripMarkup(unwrapCDATA(it.description))
		date := unwrapCDATA(it.pubDate)
		if t, err := time.Parse(time.RFC1123Z, date); err == nil {
			r.Date = t
		} else if t, err := time.Parse(time.RFC1123, date); err == nil {
			r.Date = t
		}
		hits = append(hits, r)
	}
	return hits, nil, nil
}

// pick selects an item field; fields outside an item (channel title) are
// ignored.
func pick(cur *rssItem, f func(*rssItem) *string) *string {
	if cur == nil {
		return nil
	}
	return f(cur)
}

// unwrapCDATA trims s and removes a CDATA wrapper the tokenizer left in
// place (title is tokenized as RCDATA).
func unwrapCDATA(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<![CDATA[") && strings.HasSuffix(s, "]]>") {
		return strings.TrimSpace(s[len("<![CDATA[") : len(s)-len("]]>")])
	}
	return s
}

// stripMarkup reduces an HTML description to its text.
func stripMarkup(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
