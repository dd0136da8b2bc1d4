package parser

// profiles are the builtin HTML result page layouts. Backends change their
// markup from time to time; config selectors can patch a profile in place.
var profiles = map[string]Selectors{
	ProfileDuckDuckGo: {
		Result:        "div.result:not(.result--ad)",
		Link:          "a.result__a",
		Title:         "a.result__a",
		Summary:       ".result__snippet",
		Cite:          ".result__url",
		RedirectParam: "uddg",
		BaseURL:       "https://html.duckduckgo.com/",
	},
	ProfileBing: {
		Result:     "li.b_algo",
		Link:       "h2 a",
		Title:      "h2 a",
		Summary:    ".b_caption p",
		Cite:       "cite",
		Suggestion: "#brsv3 a, .b_rs li a",
		BaseURL:    "https://www.bing.com/",
	},
	ProfileMojeek: {
		Result:     "ul.results-standard > li",
		Link:       "a.ob",
		Title:      "h2 a",
		Summary:    "p.s",
		Cite:       "p.i",
		Suggestion: ".related-searches a",
		BaseURL:    "https://www.mojeek.com/",
	},
}
