package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.Example.com/", "example.com"},
		{"http://example.com", "example.com"},
		{"  HTTP://WWW.example.com/a/b/  ", "example.com/a/b"},
		{"https://example.com/a%20b", "example.com/a b"},
		{"example.com/path?q=a+b", "example.com/path?q=a+b"},
		{"ftp://files.example.org/x.pdf", "files.example.org/x.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestCanonicalize_SchemeAndWWWVariantsCollide(t *testing.T) {
	variants := []string{
		"http://golang.org/doc",
		"https://golang.org/doc/",
		"https://www.golang.org/doc",
		"HTTPS://WWW.GOLANG.ORG/DOC/",
	}
	for _, v := range variants {
		assert.Equal(t, "golang.org/doc", Canonicalize(v), v)
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "golang.org", Host("https://www.golang.org/doc?x=1"))
	assert.Equal(t, "example.com", Host("http://example.com"))
}

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a b", CleanURL(" https://example.com/a%20b/ "))
	assert.Equal(t, "https://example.com/%zz", CleanURL("https://example.com/%zz"))
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "the go programming language", NormalizeTitle("  The Go\n\tProgramming   Language "))
	assert.Empty(t, NormalizeTitle("   "))
}

func TestArchiveLink(t *testing.T) {
	assert.Equal(t, "http://web.archive.org/web/*/https://go.dev", ArchiveLink("https://go.dev"))
}

func TestGuessDocType(t *testing.T) {
	tests := []struct {
		url    string
		dt     DocType
		format string
	}{
		{"https://example.com/paper.PDF", DocFile, "pdf"},
		{"https://example.com/slides.pptx?download=1", DocFile, "pptx"},
		{"https://www.youtube.com/watch?v=abc", DocVideo, ""},
		{"https://github.com/golang/go", DocCode, ""},
		{"https://stackoverflow.com/questions/1/x", DocForum, ""},
		{"https://go.dev/doc/", DocWebpage, ""},
		{"https://example.com/v1.2/readme", DocWebpage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dt, ff := GuessDocType(tt.url)
			assert.Equal(t, tt.dt, dt)
			assert.Equal(t, tt.format, ff)
		})
	}
}

func TestDocType_Text(t *testing.T) {
	for d := DocUnknown; d <= DocRealTime; d++ {
		assert.Equal(t, d, ParseDocType(d.String()))
	}
	assert.Equal(t, DocUnknown, ParseDocType("hologram"))
	assert.Equal(t, "unknown", DocType(99).String())

	var d DocType
	assert.NoError(t, d.UnmarshalText([]byte("news")))
	assert.Equal(t, DocNews, d)
	b, _ := DocVideo.MarshalText()
	assert.Equal(t, "video", string(b))
}
