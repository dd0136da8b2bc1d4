package result

import "strings"

// DocType classifies what a Result points at. Higher values win when two
// Results are merged.
type DocType int

const (
	DocUnknown DocType = iota
	DocWebpage
	DocForum
	DocFile
	DocSoftware
	DocVideo
	DocCode
	DocNews
	DocRealTime
)

var docTypeNames = [...]string{
	DocUnknown:  "unknown",
	DocWebpage:  "webpage",
	DocForum:    "forum",
	DocFile:     "file",
	DocSoftware: "software",
	DocVideo:    "video",
	DocCode:     "code",
	DocNews:     "news",
	DocRealTime: "realtime",
}

func (d DocType) String() string {
	if d < 0 || int(d) >= len(docTypeNames) {
		return docTypeNames[DocUnknown]
	}
	return docTypeNames[d]
}

// ParseDocType maps a name back to a DocType; unknown names give DocUnknown.
func ParseDocType(s string) DocType {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range docTypeNames {
		if name == s {
			return DocType(i)
		}
	}
	return DocUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (d DocType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DocType) UnmarshalText(b []byte) error {
	*d = ParseDocType(string(b))
	return nil
}

// fileFormats maps URL suffixes to the format label shown to users.
var fileFormats = map[string]string{
	".pdf":  "pdf",
	".doc":  "doc",
	".docx": "docx",
	".xls":  "xls",
	".xlsx": "xlsx",
	".ppt":  "ppt",
	".pptx": "pptx",
	".odt":  "odt",
	".ps":   "ps",
	".txt":  "txt",
	".rtf":  "rtf",
}

// GuessDocType infers a document type and file format from a raw URL.
func GuessDocType(rawURL string) (DocType, string) {
	lower := strings.ToLower(rawURL)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	if dot := strings.LastIndexByte(lower, '.'); dot >= 0 && !strings.Contains(lower[dot:], "/") {
		if f, ok := fileFormats[lower[dot:]]; ok {
			return DocFile, f
		}
	}

	switch {
	case strings.Contains(lower, "youtube.com/watch"), strings.Contains(lower, "dailymotion.com/video"),
		strings.Contains(lower, "vimeo.com/"):
		return DocVideo, ""
	case strings.Contains(lower, "github.com/"), strings.Contains(lower, "gitlab.com/"),
		strings.Contains(lower, "sourceforge.net/"):
		return DocCode, ""
	case strings.Contains(lower, "/forum"), strings.Contains(lower, "viewtopic"),
		strings.Contains(lower, "stackoverflow.com/questions"):
		return DocForum, ""
	}
	return DocWebpage, ""
}
