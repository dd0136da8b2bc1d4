package qcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "go tutorial", NormalizeQuery("Tutorial+Go"))
	assert.Equal(t, "go tutorial", NormalizeQuery("  go   TUTORIAL "))
	assert.Empty(t, NormalizeQuery(" + "))
}

func TestFingerprintOf(t *testing.T) {
	assert.Equal(t, FingerprintOf("Go Tutorial", "en"), FingerprintOf("tutorial+go", "EN"))
	assert.NotEqual(t, FingerprintOf("go tutorial", "en"), FingerprintOf("go tutorial", "fr"))
	assert.NotEqual(t, FingerprintOf("go", "en"), FingerprintOf("rust", "en"))
	// the separator keeps query and language apart
	assert.NotEqual(t, FingerprintOf("a", "bc"), FingerprintOf("ab", "c"))
}
