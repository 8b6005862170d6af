package analytics

import "github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"

// ApplyScopeFilters keeps issues whose project and team are in the allow
// sets. An empty allow set disables filtering on that dimension. The result
// is a new slice in input order.
func ApplyScopeFilters(issues []tracker.Issue, projectIDs, teamIDs []string) []tracker.Issue {
	projects := toSet(projectIDs)
	teams := toSet(teamIDs)

	filtered := make([]tracker.Issue, 0, len(issues))
	for _, issue := range issues {
		if len(projects) > 0 && !projects[issue.ProjectID] {
			continue
		}
		if len(teams) > 0 && !teams[issue.TeamID] {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}
