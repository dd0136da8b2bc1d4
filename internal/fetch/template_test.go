package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Build(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		offset int
		page   int
		want   string
	}{
		{
			name: "first page zero offset",
			raw:  "https://s.example/?q=%query&s=%start&n=%num&l=%lang",
			page: 0,
			want: "https://s.example/?q=go+channels&s=0&n=10&l=en",
		},
		{
			name:   "third page one-based offset",
			raw:    "https://s.example/?q=%query&first=%start",
			offset: 1,
			page:   2,
			want:   "https://s.example/?q=go+channels&first=21",
		},
		{
			name: "page number and encoding",
			raw:  "https://s.example/?q=%query&p=%page&ie=%encoding",
			page: 1,
			want: "https://s.example/?q=go+channels&p=2&ie=UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := NewTemplate(tt.raw, tt.offset, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tpl.Build("go channels", tt.page, "en"))
		})
	}
}

func TestTemplate_QueryIsEscapedOnce(t *testing.T) {
	tpl, err := NewTemplate("https://s.example/?q=%query&n=%num", 0, 5)
	require.NoError(t, err)

	// A query that looks like a placeholder is not substituted again.
	assert.Equal(t, "https://s.example/?q=%25num+%26+more&n=5", tpl.Build("%num & more", 0, "en"))
}

func TestNewTemplate_Rejects(t *testing.T) {
	_, err := NewTemplate("https://s.example/?q=fixed", 0, 10)
	assert.Error(t, err)

	_, err = NewTemplate("/relative?q=%query", 0, 10)
	assert.Error(t, err)

	_, err = NewTemplate("https://s.example/?q=%query", 0, 0)
	assert.Error(t, err)
}
