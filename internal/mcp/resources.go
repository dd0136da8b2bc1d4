package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs served by the node.
const (
	URIEngines      = "seekr://engines"
	URIStatus       = "seekr://status"
	URIQueryMetrics = "seekr://query_metrics"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        "engines",
		URI:         URIEngines,
		Description: "Configured search backends and their circuit state",
		MIMEType:    "application/json",
	}, s.jsonResource(URIEngines, func() (any, error) {
		return s.node.Engines(), nil
	}))

	s.mcp.AddResource(&mcp.Resource{
		Name:        "status",
		URI:         URIStatus,
		Description: "Node status: live query contexts, sweeper and personalization",
		MIMEType:    "application/json",
	}, s.jsonResource(URIStatus, func() (any, error) {
		return s.node.Status(), nil
	}))

	s.mcp.AddResource(&mcp.Resource{
		Name:        "query_metrics",
		URI:         URIQueryMetrics,
		Description: "Query pattern telemetry for this node",
		MIMEType:    "application/json",
	}, s.jsonResource(URIQueryMetrics, func() (any, error) {
		q := s.node.Status().Queries
		if q == nil {
			return nil, NewInvalidParamsError("query metrics not available")
		}
		return q, nil
	}))
}

// jsonResource serves the value produced by get as indented JSON.
func (s *Server) jsonResource(uri string, get func() (any, error)) mcp.ResourceHandler {
	return func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		v, err := get()
		if err != nil {
			return nil, err
		}
		content, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, MapError(err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(content),
				},
			},
		}, nil
	}
}
