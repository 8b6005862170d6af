package sdk

import "strings"

// Scope narrows a metrics call. Zero fields fall back to the server's
// stored preferences.
type Scope struct {
	Range    string
	From     string
	To       string
	Projects []string
	Teams    []string
}

// withDefaults fills the zero fields of s from def. A custom From/To pair
// is taken as a unit so a default range never splits it.
func (s Scope) withDefaults(def Scope) Scope {
	if s.Range == "" && s.From == "" && s.To == "" {
		s.Range, s.From, s.To = def.Range, def.From, def.To
	}
	if len(s.Projects) == 0 {
		s.Projects = def.Projects
	}
	if len(s.Teams) == 0 {
		s.Teams = def.Teams
	}
	return s
}

func (s Scope) args() map[string]any {
	args := map[string]any{}
	if s.Range != "" {
		args["range"] = s.Range
	}
	if s.From != "" {
		args["from"] = s.From
	}
	if s.To != "" {
		args["to"] = s.To
	}
	if len(s.Projects) > 0 {
		args["projects"] = strings.Join(s.Projects, ",")
	}
	if len(s.Teams) > 0 {
		args["teams"] = strings.Join(s.Teams, ",")
	}
	return args
}

// SchemaInfo is the content of the flowcraft://schema resource.
type SchemaInfo struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
	Metrics       []string `json:"metrics"`
}
