package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/result"
)

const bingPage = `<html><body>
<ol id="b_results">
  <li class="b_algo">
    <h2><a href="https://go.dev/doc/">Documentation - The Go   Programming Language</a></h2>
    <div class="b_caption"><cite>go.dev/doc</cite><p>The Go programming language documentation.</p></div>
  </li>
  <li class="b_algo">
    <h2><a href="">No link</a></h2>
  </li>
  <li class="b_algo">
    <h2><a href="/relative">Relative link</a></h2>
    <div class="b_caption"><p>Resolved against the backend.</p></div>
  </li>
</ol>
<div class="b_rs"><ul><li><a href="#">golang tutorial</a></li><li><a href="#">go generics</a></li></ul></div>
</body></html>`

func TestSelectorParser_Bing(t *testing.T) {
	// Given: a bing-like result page
	p, err := New(ProfileBing, engine.ID(3), nil)
	require.NoError(t, err)

	// When: parsing it as page 2
	hits, suggestions, err := p.Parse([]byte(bingPage), 2)

	// Then: valid hits are returned in order with backend metadata
	require.NoError(t, err)
	require.Len(t, hits, 2)

	first := hits[0]
	assert.Equal(t, "https://go.dev/doc", first.URL)
	assert.Equal(t, "Documentation - The Go Programming Language", first.Title)
	assert.Equal(t, "The Go programming language documentation.", first.Summary)
	assert.Equal(t, "go.dev/doc", first.Cite)
	assert.Equal(t, 2, first.Page)
	assert.True(t, first.Votes.Has(3))
	assert.Equal(t, 1, first.Positions[3])
	assert.True(t, first.Pending)

	assert.Equal(t, "https://www.bing.com/relative", hits[1].URL)
	assert.Equal(t, 2, hits[1].Positions[3])

	assert.Equal(t, []string{"golang tutorial", "go generics"}, suggestions)
}

func TestSelectorParser_DuckDuckGoUnwrapsRedirects(t *testing.T) {
	page := `<div class="result results_links"><h2><a class="result__a"
	  href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fpage&rut=abc">Example page</a></h2>
	  <a class="result__snippet">An example.</a><a class="result__url">example.org/page</a></div>
	<div class="result result--ad"><a class="result__a" href="https://ads.example/">Ad</a></div>`

	p, err := New(ProfileDuckDuckGo, engine.ID(0), nil)
	require.NoError(t, err)

	hits, _, err := p.Parse([]byte(page), 0)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "https://example.org/page", hits[0].URL)
	assert.Equal(t, "An example.", hits[0].Summary)
}

func TestSelectorParser_Overrides(t *testing.T) {
	page := `<div class="hit"><a class="u" data-url="https://a.example/x">A</a></div>`

	p, err := New(ProfileMojeek, engine.ID(1), map[string]string{
		"result":    "div.hit",
		"link":      "a.u",
		"title":     "a.u",
		"link_attr": "data-url",
	})
	require.NoError(t, err)

	hits, _, err := p.Parse([]byte(page), 0)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "https://a.example/x", hits[0].URL)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("altavista", 0, nil)
	assert.Error(t, err)

	_, err = New(ProfileBing, 0, map[string]string{"result": "li[[["})
	assert.Error(t, err)

	_, err = NewSelectorParser(0, Selectors{Result: "li"})
	assert.Error(t, err)
}

func TestSearxParser(t *testing.T) {
	body := `{"results":[
	  {"url":"https://a.example/","title":"A","content":" first ","publishedDate":"2024-03-01T10:00:00Z"},
	  {"url":"","title":"no url"},
	  {"url":"https://b.example/","title":"B"}],
	 "suggestions":["a b"]}`

	p, err := New(ProfileSearxJSON, engine.ID(4), nil)
	require.NoError(t, err)

	hits, suggestions, err := p.Parse([]byte(body), 1)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://a.example", hits[0].URL)
	assert.Equal(t, "first", hits[0].Summary)
	assert.Equal(t, 2024, hits[0].Date.Year())
	assert.Equal(t, 2, hits[1].Positions[4])
	assert.Equal(t, []string{"a b"}, suggestions)

	_, _, err = p.Parse([]byte("not json"), 0)
	assert.Error(t, err)
}

func TestRSSParser(t *testing.T) {
	body := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Feed title</title><link>https://feed.example/</link>
<item><title>First &amp; best</title><link>https://one.example/a</link>
  <description>&lt;b&gt;Bold&lt;/b&gt; summary</description>
  <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate></item>
<item><title><![CDATA[Second]]></title><link>https://two.example/</link><description>plain</description></item>
<item><title></title><link>https://dropped.example/</link></item>
</channel></rss>`

	p, err := New(ProfileOpenSearchRSS, engine.ID(2), nil)
	require.NoError(t, err)

	hits, _, err := p.Parse([]byte(body), 0)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "First & best", hits[0].Title)
	assert.Equal(t, "https://one.example/a", hits[0].URL)
	assert.Equal(t, "Bold summary", hits[0].Summary)
	assert.Equal(t, 2006, hits[0].Date.Year())
	assert.Equal(t, "Second", hits[1].Title)
	assert.Equal(t, "https://two.example", hits[1].URL)
}

func TestSerializer_Parse(t *testing.T) {
	var s Serializer
	p := &SearxParser{backend: 0}

	hits, _, err := s.Parse(p, []byte(`{"results":[{"url":"https://x.example/","title":"X"}]}`), 0)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.IsType(t, &result.Result{}, hits[0])
}

func TestProfiles_ListsBuiltins(t *testing.T) {
	assert.ElementsMatch(t, []string{
		ProfileBing, ProfileDuckDuckGo, ProfileMojeek, ProfileOpenSearchRSS, ProfileSearxJSON,
	}, Profiles())
}
