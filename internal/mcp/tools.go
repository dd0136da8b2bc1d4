package mcp

import "github.com/Aman-CERP/seekr/internal/websearch"

// SearchInput defines the input schema for the web_search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the web search query"`
	Page        int      `json:"page,omitempty" jsonschema:"zero-based result page, default 0"`
	Horizon     int      `json:"horizon,omitempty" jsonschema:"how many backend pages deep to expand, at least page+1"`
	Engines     []string `json:"engines,omitempty" jsonschema:"backends to query, default all enabled"`
	Lang        string   `json:"lang,omitempty" jsonschema:"language code, or auto"`
	Personalize bool     `json:"personalize,omitempty" jsonschema:"rerank with the node's click history"`
}

// SearchOutput defines the output schema for the web_search tool.
type SearchOutput struct {
	Query        string         `json:"query"`
	Lang         string         `json:"lang"`
	Page         int            `json:"page"`
	Total        int            `json:"total" jsonschema:"results in the query context for the requested engines"`
	Horizon      int            `json:"horizon"`
	Results      []ResultOutput `json:"results"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	Failed       []string       `json:"failed,omitempty" jsonschema:"engines that produced nothing for this request"`
	Personalized bool           `json:"personalized"`
}

// ResultOutput is one merged web result.
type ResultOutput struct {
	ID           int      `json:"id" jsonschema:"result id, stable for the query; pass to fetch_result"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary,omitempty"`
	Engines      []string `json:"engines" jsonschema:"backends that returned this result"`
	Rank         float64  `json:"rank"`
	PersonalRank *float64 `json:"personal_rank,omitempty"`
	DocType      string   `json:"doc_type"`
	Date         string   `json:"date,omitempty"`
}

// FetchInput defines the input schema for the fetch_result tool.
type FetchInput struct {
	Query string `json:"query" jsonschema:"the query the result belongs to"`
	ID    int    `json:"id" jsonschema:"the result id from web_search"`
	Lang  string `json:"lang,omitempty"`
}

// ClickInput defines the input schema for the record_click tool.
type ClickInput struct {
	Query string `json:"query" jsonschema:"the query the result was found for"`
	URL   string `json:"url" jsonschema:"the followed result URL"`
	Lang  string `json:"lang,omitempty"`
}

// ClickOutput acknowledges a recorded click.
type ClickOutput struct {
	Recorded bool `json:"recorded"`
}

// NodeStatusInput defines the input schema for the node_status tool (no parameters).
type NodeStatusInput struct{}

// NodeStatusOutput summarizes the node for clients.
type NodeStatusOutput struct {
	UptimeSeconds   int            `json:"uptime_seconds"`
	Contexts        int            `json:"contexts" jsonschema:"live query contexts"`
	Swept           uint64         `json:"swept" jsonschema:"contexts released by the sweeper"`
	Personalization bool           `json:"personalization"`
	Engines         []EngineOutput `json:"engines"`
	TotalQueries    int64          `json:"total_queries"`
}

// EngineOutput describes one backend.
type EngineOutput struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Circuit string `json:"circuit"`
}

func toSearchOutput(resp *websearch.SearchResponse) SearchOutput {
	out := SearchOutput{
		Query:        resp.Query,
		Lang:         resp.Lang,
		Page:         resp.Page,
		Total:        resp.Total,
		Horizon:      resp.Horizon,
		Results:      make([]ResultOutput, 0, len(resp.Hits)),
		Suggestions:  resp.Suggestions,
		Failed:       resp.Failed,
		Personalized: resp.Personalized,
	}
	for i := range resp.Hits {
		out.Results = append(out.Results, toResultOutput(&resp.Hits[i]))
	}
	return out
}

func toResultOutput(h *websearch.Hit) ResultOutput {
	r := ResultOutput{
		ID:           h.ID,
		URL:          h.URL,
		Title:        h.Title,
		Summary:      h.Summary,
		Engines:      h.Engines,
		Rank:         h.Rank,
		PersonalRank: h.PersonalRank,
		DocType:      h.DocType,
	}
	if h.Date != nil {
		r.Date = h.Date.Format("2006-01-02")
	}
	return r
}

func toStatusOutput(st websearch.Status) NodeStatusOutput {
	out := NodeStatusOutput{
		UptimeSeconds:   int(st.Uptime.Seconds()),
		Contexts:        st.Contexts,
		Swept:           st.Sweeper.Released,
		Personalization: st.Personalization,
		Engines:         make([]EngineOutput, 0, len(st.Engines)),
	}
	for _, e := range st.Engines {
		out.Engines = append(out.Engines, EngineOutput{Name: e.Name, Enabled: e.Enabled, Circuit: e.Circuit})
	}
	if st.Queries != nil {
		out.TotalQueries = st.Queries.TotalQueries
	}
	return out
}
