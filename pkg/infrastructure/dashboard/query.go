package dashboard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/flowcraft/pkg/application"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// QueryError reports a malformed query parameter.
type QueryError struct {
	Param string
	Value string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Param, e.Value)
}

// ParseQuery reads range, from, to, project and team overrides. Parameters
// that are absent keep the stored preferences. project and team accept
// repeated values or comma separated lists; an explicit empty value clears
// the filter.
func ParseQuery(v url.Values) (application.DashboardQuery, error) {
	var q application.DashboardQuery

	preset := analytics.Preset(strings.TrimSpace(v.Get("range")))
	from, to := strings.TrimSpace(v.Get("from")), strings.TrimSpace(v.Get("to"))
	if preset == "" && (from != "" || to != "") {
		preset = analytics.PresetCustom
	}
	if preset != "" {
		if !preset.IsValid() {
			return q, &QueryError{Param: "range", Value: string(preset)}
		}
		for _, bound := range [][2]string{{"from", from}, {"to", to}} {
			if _, ok := tracker.ParseTimestamp(bound[1]); bound[1] != "" && !ok {
				return q, &QueryError{Param: bound[0], Value: bound[1]}
			}
		}
		q.TimeRange = &analytics.TimeRange{Preset: preset, From: from, To: to}
	}

	q.ProjectIDs = listParam(v, "project")
	q.TeamIDs = listParam(v, "team")
	return q, nil
}

func listParam(v url.Values, key string) []string {
	raw, ok := v[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
