package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config lookup at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults are applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 10, cfg.Search.ResultsPerPage)
	assert.Equal(t, "auto", cfg.Search.Lang)
	assert.Equal(t, "en", cfg.Search.DefaultLang)
	assert.Equal(t, 10, cfg.Search.MaxHorizon)
	assert.Equal(t, 3*time.Second, cfg.Search.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.Search.TransferTimeout)
	assert.False(t, cfg.Merge.ContentAnalysis)
	assert.Equal(t, 300*time.Second, cfg.Sweeper.QueryContextDelay)
	assert.Equal(t, 30*time.Second, cfg.Sweeper.Interval)
	assert.Equal(t, 0.7, cfg.Personalize.DomainNameWeight)
	assert.Equal(t, 5, cfg.Personalize.MaxRadius)
	require.NoError(t, cfg.Validate())
}

func TestDefaultBackends_EnabledSubset(t *testing.T) {
	cfg := NewConfig()
	u, err := cfg.Universe()
	require.NoError(t, err)

	enabled := cfg.EnabledSet(u)

	assert.Equal(t, []string{"bing", "duckduckgo", "mojeek"}, u.Names(enabled))
	assert.Equal(t, len(cfg.Backends), u.Len())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory with no .seekr.yaml
	isolate(t)
	dir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: defaults are returned without error
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Search.ResultsPerPage)
}

func TestLoad_ProjectFile_OverridesDefaults(t *testing.T) {
	// Given: a project file tuning search and disabling bing
	isolate(t)
	dir := t.TempDir()
	content := `
search:
  results_per_page: 20
  transfer_timeout: 8s
merge:
  content_analysis: true
backends:
  - name: bing
    enabled: false
  - name: local
    url: http://127.0.0.1:9000/?q=%query
    parser: searx_json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".seekr.yaml"), []byte(content), 0o644))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: overrides are applied and backends merged by name
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Search.ResultsPerPage)
	assert.Equal(t, 8*time.Second, cfg.Search.TransferTimeout)
	assert.True(t, cfg.Merge.ContentAnalysis)

	bing, ok := cfg.Backend("bing")
	require.True(t, ok)
	assert.False(t, bing.IsEnabled())
	assert.Contains(t, bing.URL, "bing.com")

	local, ok := cfg.Backend("local")
	require.True(t, ok)
	assert.True(t, local.IsEnabled())
	assert.Equal(t, "searx_json", local.Parser)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".seekr.yml"), []byte("search:\n  max_horizon: 3\n"), 0o644))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.MaxHorizon)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	// Given: both a user and a project config
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "seekr"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "seekr", "config.yaml"),
		[]byte("search:\n  results_per_page: 15\n  default_lang: fr\n"), 0o644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".seekr.yaml"),
		[]byte("search:\n  results_per_page: 25\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: project wins where set, user fills the rest
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Search.ResultsPerPage)
	assert.Equal(t, "fr", cfg.Search.DefaultLang)
}

func TestLoad_EnvOverridesEverything(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".seekr.yaml"),
		[]byte("search:\n  lang: de\n"), 0o644))
	t.Setenv("SEEKR_LANG", "it")
	t.Setenv("SEEKR_QUERY_CONTEXT_DELAY", "90s")
	t.Setenv("SEEKR_ENGINES", "mojeek,searx")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "it", cfg.Search.Lang)
	assert.Equal(t, 90*time.Second, cfg.Sweeper.QueryContextDelay)

	u, err := cfg.Universe()
	require.NoError(t, err)
	assert.Equal(t, []string{"mojeek", "searx"}, u.Names(cfg.EnabledSet(u)))
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".seekr.yaml"), []byte("search: [oops"), 0o644))

	_, err := Load(dir)

	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page size", func(c *Config) { c.Search.ResultsPerPage = 0 }},
		{"auto default lang", func(c *Config) { c.Search.DefaultLang = "auto" }},
		{"template without query", func(c *Config) { c.Backends[0].URL = "https://example.com/" }},
		{"duplicate backend", func(c *Config) { c.Backends = append(c.Backends, c.Backends[0]) }},
		{"threshold above one", func(c *Config) { c.Merge.SimilarityThreshold = 1.5 }},
		{"default radius above max", func(c *Config) { c.Personalize.DefaultRadius = 9 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteYAML_RoundTripsThroughLoadFile(t *testing.T) {
	// Given: a modified config written to disk
	isolate(t)
	cfg := NewConfig()
	cfg.Search.ResultsPerPage = 7
	cfg.Sweeper.Interval = 45 * time.Second
	path := filepath.Join(t.TempDir(), "nested", "seekr.yaml")

	require.NoError(t, cfg.WriteYAML(path))

	// When: loading it back
	loaded, err := LoadFile(path)

	// Then: values survive, durations included
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Search.ResultsPerPage)
	assert.Equal(t, 45*time.Second, loaded.Sweeper.Interval)
	assert.Len(t, loaded.Backends, len(cfg.Backends))
}
