package analytics

import (
	"sort"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/tracker"
)

// UnassignedKey is the bucket for issues without an assignee.
const UnassignedKey = "unassigned"

// DefaultTopN is the default number of entries returned by ranked lists.
const DefaultTopN = 5

// WorkloadEntry is the open issue count of one assignee bucket.
type WorkloadEntry struct {
	AssigneeID string `json:"assignee_id"`
	Count      int    `json:"count"`
}

// DeriveWorkloadByAssignee ranks assignees by their non-Done issue count and
// returns the top n (DefaultTopN when n <= 0). Equal counts keep the order in
// which the bucket first appeared in issues.
func DeriveWorkloadByAssignee(issues []tracker.Issue, n int) []WorkloadEntry {
	if n <= 0 {
		n = DefaultTopN
	}

	index := make(map[string]int)
	entries := make([]WorkloadEntry, 0)
	for _, issue := range issues {
		if issue.Status.IsDone() {
			continue
		}
		key := issue.AssigneeID
		if key == "" {
			key = UnassignedKey
		}
		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			entries = append(entries, WorkloadEntry{AssigneeID: key})
		}
		entries[i].Count++
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Count > entries[b].Count
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
