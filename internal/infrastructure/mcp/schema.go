package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const (
	schemaURI    = "flowcraft://schema"
	dashboardURI = "flowcraft://dashboard"
)

type schemaResponse struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
	Metrics       []string `json:"metrics"`
}

// toolNames must stay in sync with registerTools.
var toolNames = []string{
	"flowcraft_dashboard",
	"flowcraft_throughput",
	"flowcraft_cycle_time",
	"flowcraft_delivery_eta",
	"flowcraft_wip",
	"flowcraft_move_issue",
}

func (s *Server) registerResources() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version and metric names").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return jsonResource(schemaURI, schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Tools:         toolNames,
				Metrics:       application.MetricNames,
			})
		})

	s.mcpServer.Resource(dashboardURI).
		Name(dashboardURI).
		Description("Current dashboard computed with the stored preferences").
		MimeType("application/json").
		Handler(func(ctx context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			d, err := s.dashboardSvc.Compute(ctx, application.DashboardQuery{})
			if err != nil {
				return nil, s.loadErr(err)
			}
			return jsonResource(dashboardURI, d)
		})
}

func jsonResource(uri string, v any) (*mcplib.ResourceContent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcplib.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
