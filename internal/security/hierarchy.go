package security

import (
	"sort"
)

// RoleHierarchy expands roles into every role they imply
type RoleHierarchy struct {
	implied map[string][]string
}

// NewRoleHierarchy creates a hierarchy from role → implied roles
func NewRoleHierarchy(implied map[string][]string) *RoleHierarchy {
	return &RoleHierarchy{implied: implied}
}

// Reachable returns roles plus the roles they imply, transitively. Cycles
// are tolerated. The result keeps the input roles first.
func (h *RoleHierarchy) Reachable(roles []string) []string {
	if h == nil || len(h.implied) == 0 {
		return roles
	}

	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if !seen[role] {
			seen[role] = true
			out = append(out, role)
		}
	}

	var extra []string
	queue := append([]string(nil), out...)
	for len(queue) > 0 {
		role := queue[0]
		queue = queue[1:]
		for _, child := range h.implied[role] {
			if seen[child] {
				continue
			}
			seen[child] = true
			extra = append(extra, child)
			queue = append(queue, child)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
