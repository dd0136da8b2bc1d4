package websearch

import (
	"strings"

	"golang.org/x/text/language"
)

// LangAuto asks for the language to be taken from the client's
// Accept-Language header.
const LangAuto = "auto"

// resolveLang returns the two-letter language a query is run in. An empty
// lang means the node's configured language, which may itself be "auto".
func resolveLang(lang, acceptLanguage string, st *settings) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = st.lang
	}
	if lang != LangAuto {
		return lang
	}
	if l := fromAcceptLanguage(acceptLanguage); l != "" {
		return l
	}
	return st.defaultLang
}

// fromAcceptLanguage picks the highest weighted language of header.
func fromAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, conf := tags[0].Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
