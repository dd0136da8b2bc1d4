package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/result"
)

func hit(id engine.ID, url, title string) *result.Result {
	return result.New(id, url, title)
}

func newEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	return e
}

// bruteIndex proposes every indexed Result as a candidate, in insertion order.
type bruteIndex struct{ ids []int }

func (b *bruteIndex) Add(r *result.Result) { b.ids = append(b.ids, r.ID) }
func (b *bruteIndex) Candidates(_ *result.Result, k int) []int {
	return b.ids[:min(k, len(b.ids))]
}
func (b *bruteIndex) Len() int { return len(b.ids) }

// titleOracle accepts pairs whose summaries are equal.
type titleOracle struct{ calls int }

func (o *titleOracle) AreSimilar(a, b *result.Result, _ float64) bool {
	o.calls++
	return a.Summary != "" && a.Summary == b.Summary
}

func TestFold_ExactMergeUnionsVotes(t *testing.T) {
	// Given: the same page from two backends with scheme and www variants
	set := result.NewSet(640)
	e := newEngine(t, DefaultConfig())

	// When: folding both
	st := e.Fold(set, []*result.Result{
		hit(0, "https://www.example.com/page/", "Example"),
		hit(1, "http://example.com/page", "Example page"),
	})

	// Then: one Result whose votes are the union
	require.Equal(t, 1, set.Len())
	r := set.At(0)
	assert.True(t, r.Votes.Equal(engine.Of(0, 1)))
	assert.Equal(t, 2.0, r.BaseRank)
	assert.Equal(t, 1, st.Exact)
	assert.Equal(t, 1, st.Inserted)
	assert.False(t, r.Pending)
}

func TestFold_IsIdempotent(t *testing.T) {
	set := result.NewSet(640)
	e := newEngine(t, DefaultConfig())
	batch := func() []*result.Result {
		return []*result.Result{hit(0, "https://a.example/", "A"), hit(1, "https://a.example/", "A")}
	}

	e.Fold(set, batch())
	e.Fold(set, batch())

	require.Equal(t, 1, set.Len())
	assert.Equal(t, 2.0, set.At(0).BaseRank)
}

func TestFold_DropsInvalidResults(t *testing.T) {
	set := result.NewSet(640)
	e := newEngine(t, DefaultConfig())

	st := e.Fold(set, []*result.Result{
		hit(0, "https://a.example/", ""),
		hit(0, "", "No URL"),
		hit(0, "https://b.example/", "B"),
	})

	assert.Equal(t, 2, st.Dropped)
	assert.Equal(t, 1, set.Len())
}

func TestFold_StableSortByBaseRank(t *testing.T) {
	// Given: ranks [2,2,3,1] in insertion order r1..r4
	set := result.NewSet(640)
	e := newEngine(t, DefaultConfig())

	// When: folding hits producing those vote counts
	e.Fold(set, []*result.Result{
		hit(0, "https://r1.example/", "r1"), hit(1, "https://r1.example/", "r1"),
		hit(0, "https://r2.example/", "r2"), hit(1, "https://r2.example/", "r2"),
		hit(0, "https://r3.example/", "r3"), hit(1, "https://r3.example/", "r3"), hit(2, "https://r3.example/", "r3"),
		hit(0, "https://r4.example/", "r4"),
	})

	// Then: r3, r1, r2, r4
	var titles []string
	for _, r := range set.All() {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"r3", "r1", "r2", "r4"}, titles)
}

func TestFold_SameTitleDifferentURLsStaySeparate(t *testing.T) {
	// Given: content analysis off and two pages on one host sharing a title
	set := result.NewSet(640)
	e := newEngine(t, Config{ContentAnalysis: false})

	// When: folding them from different backends
	st := e.Fold(set, []*result.Result{
		hit(0, "https://forum.example/thread/1", "Login"),
		hit(1, "https://forum.example/thread/2", "Login"),
	})

	// Then: both are kept, each with its own vote
	assert.Equal(t, 0, st.Merged())
	assert.Equal(t, 2, st.Inserted)
	require.Equal(t, 2, set.Len())
	first, ok := set.ByURL(result.Canonicalize("https://forum.example/thread/1"))
	require.True(t, ok)
	assert.True(t, first.Votes.Equal(engine.Of(0)))
	second, ok := set.ByURL(result.Canonicalize("https://forum.example/thread/2"))
	require.True(t, ok)
	assert.True(t, second.Votes.Equal(engine.Of(1)))
}

func TestFold_NearDuplicateFirstAcceptanceWins(t *testing.T) {
	// Given: content analysis with an oracle matching equal summaries
	oracle := &titleOracle{}
	e := newEngine(t, Config{ContentAnalysis: true, Candidates: 4},
		WithOracle(oracle),
		WithIndexFactory(func(int) SignatureIndex { return &bruteIndex{} }))
	set := result.NewSet(640)

	a := hit(0, "https://mirror-a.example/x", "Alpha")
	a.Summary = "same body"
	b := hit(0, "https://mirror-b.example/x", "Beta")
	b.Summary = "same body"
	c := hit(1, "https://mirror-c.example/x", "Gamma")
	c.Summary = "same body"

	// When: folding all three
	st := e.Fold(set, []*result.Result{a, b, c})

	// Then: b and c collapse into a
	assert.Equal(t, 2, st.Near)
	require.Equal(t, 1, set.Len())
	assert.True(t, set.At(0).Votes.Equal(engine.Of(0, 1)))
	assert.Zero(t, set.At(0).SimScore)
}

func TestFold_ContentAnalysisOffSkipsOracle(t *testing.T) {
	oracle := &titleOracle{}
	e := newEngine(t, Config{ContentAnalysis: false}, WithOracle(oracle))
	set := result.NewSet(640)

	a := hit(0, "https://mirror-a.example/x", "Alpha")
	a.Summary = "same"
	b := hit(1, "https://mirror-b.example/x", "Beta")
	b.Summary = "same"

	e.Fold(set, []*result.Result{a, b})

	assert.Equal(t, 2, set.Len())
	assert.Zero(t, oracle.calls)
}

func TestFold_NearDuplicateAcrossFolds(t *testing.T) {
	// Given: a Result already in the arena
	e := newEngine(t, Config{ContentAnalysis: true},
		WithOracle(&titleOracle{}),
		WithIndexFactory(func(int) SignatureIndex { return &bruteIndex{} }))
	set := result.NewSet(640)
	a := hit(0, "https://a.example/", "A")
	a.Summary = "body"
	e.Fold(set, []*result.Result{a})

	// When: a later expansion brings a mirror of it
	b := hit(1, "https://b.example/", "B")
	b.Summary = "body"
	st := e.Fold(set, []*result.Result{b})

	// Then: it merges into the existing Result
	assert.Equal(t, 1, st.Near)
	assert.Equal(t, 1, set.Len())
}

func TestNewEngine_LoadsTokenOracle(t *testing.T) {
	e := newEngine(t, Config{ContentAnalysis: true})

	_, ok := e.oracle.(*TokenOracle)
	assert.True(t, ok)
	assert.Equal(t, 0.6, e.Config().Threshold)
}
