package watch_test

import (
	"reflect"
	"testing"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/watch"
)

func TestFileSetContains(t *testing.T) {
	s := watch.NewFileSet("workspace.json", "preferences.yaml")

	tests := []struct {
		path  string
		match bool
	}{
		{"/ws/.flowcraft/workspace.json", true},
		{"preferences.yaml", true},
		{"/ws/.flowcraft/.tmp-123456", false},
		{"/ws/.flowcraft/telemetry.jsonl", false},
		{"workspace.json.bak", false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.path); got != tt.match {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.match)
		}
	}
}

func TestFileSetNames(t *testing.T) {
	s := watch.NewFileSet("/ws/.flowcraft/workspace.json", "preferences.yaml", "workspace.json")
	want := []string{"preferences.yaml", "workspace.json"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
