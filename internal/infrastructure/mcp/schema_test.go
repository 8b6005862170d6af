package mcp

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
)

func TestSchemaVersionIsSemver(t *testing.T) {
	re := regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	if !re.MatchString(SchemaVersion) {
		t.Fatalf("SchemaVersion %q is not valid semver", SchemaVersion)
	}
}

func TestJSONResource(t *testing.T) {
	content, err := jsonResource(schemaURI, schemaResponse{
		SchemaVersion: SchemaVersion,
		ServerVersion: "test",
		Tools:         toolNames,
		Metrics:       application.MetricNames,
	})
	if err != nil {
		t.Fatal(err)
	}
	if content.URI != schemaURI || content.MimeType != "application/json" {
		t.Errorf("content = %+v", content)
	}

	var decoded schemaResponse
	if err := json.Unmarshal([]byte(content.Text), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Tools) != len(toolNames) || len(decoded.Metrics) != len(application.MetricNames) {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestDashboardResourceRequiresWorkspace(t *testing.T) {
	s := NewServer(t.TempDir(), zerolog.Nop())
	if _, err := s.dashboardSvc.Compute(context.Background(), application.DashboardQuery{}); err == nil {
		t.Fatal("expected error before init")
	}
}
