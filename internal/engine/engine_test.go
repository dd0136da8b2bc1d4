package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/seekr/internal/errors"
)

func TestSet_Algebra(t *testing.T) {
	a := Of(0, 1, 2)
	b := Of(2, 3)

	assert.Equal(t, Of(0, 1, 2, 3), a.Union(b))
	assert.Equal(t, Of(2), a.Intersect(b))
	assert.Equal(t, Of(0, 1), a.Difference(b))
	assert.Equal(t, Of(3), b.Difference(a))
	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Has(1))
	assert.False(t, a.Has(3))
	assert.False(t, a.Has(200))
}

func TestSet_ValueSemantics(t *testing.T) {
	// Given: a set and its union with another
	a := Of(1)
	_ = a.Union(Of(2))

	// Then: the original is unchanged and comparable as a map key
	assert.Equal(t, 1, a.Len())
	m := map[Set]int{Of(1, 2): 7}
	assert.Equal(t, 7, m[Of(2, 1)])
	assert.True(t, Of(2, 1).Equal(Of(1, 2)))
}

func TestSet_EmptyAndIDs(t *testing.T) {
	var empty Set
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.IDs())
	assert.Equal(t, "{}", empty.String())

	s := Of(63, 0, 5)
	assert.Equal(t, []ID{0, 5, 63}, s.IDs())
	assert.Equal(t, "{0,5,63}", s.String())
	assert.True(t, Of(64).IsEmpty())
}

func TestUniverse_Resolve(t *testing.T) {
	u, err := NewUniverse("bing", "DuckDuckGo", "mojeek")
	require.NoError(t, err)

	s, err := u.ParseList("duckduckgo, mojeek")
	require.NoError(t, err)
	assert.Equal(t, Of(1, 2), s)
	assert.Equal(t, "duckduckgo,mojeek", u.Format(s))
	assert.Equal(t, Of(0, 1, 2), u.All())
	assert.Equal(t, 3, u.Len())
	assert.Equal(t, "bing", u.Name(0))
	assert.Empty(t, u.Name(9))

	empty, err := u.ParseList("")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestUniverse_ResolveUnknown(t *testing.T) {
	u, err := NewUniverse("bing")
	require.NoError(t, err)

	_, err = u.Resolve([]string{"altavista"})
	assert.ErrorIs(t, err, serrors.ErrBadParameters)
}

func TestNewUniverse_Rejects(t *testing.T) {
	_, err := NewUniverse("bing", "BING")
	assert.Error(t, err)

	_, err = NewUniverse("bing", " ")
	assert.Error(t, err)

	names := make([]string, MaxBackends+1)
	for i := range names {
		names[i] = string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	_, err = NewUniverse(names...)
	assert.Error(t, err)
}
