package semantic

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// suggest returns the candidate closest to name by edit distance, ignoring
// case, or the empty string if none is close enough to be a likely typo.
func suggest(name string, candidates []string) string {
	limit := max(1, min(3, len(name)/3))
	lower := strings.ToLower(name)
	var best string
	bestDist := limit + 1
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	return best
}

// candidates returns every name visible at the current point of
// translation.
func (t *translator) candidates() []string {
	var names []string
	for _, q := range t.queries {
		for _, a := range q.aliases {
			names = append(names, a.name)
		}
		for name := range q.lets {
			names = append(names, name)
		}
	}
	for name := range t.operands {
		names = append(names, name)
	}
	if t.registry != nil {
		names = append(names, t.registry.names()...)
	}
	for alias := range t.includes {
		names = append(names, alias)
	}
	return names
}
