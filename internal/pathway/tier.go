// File path: internal/pathway/tier.go
package pathway

import "strings"

// tierRank buckets a program into a coarse presentation tier from its name.
// Lower ranks are presented first. This is a heuristic over names; promoting
// tier to a first-class graph attribute would replace this table.
func tierRank(name string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "nvq level 3"), strings.Contains(lower, "level 3"):
		return 0
	case strings.Contains(lower, "nvq level 4"), strings.Contains(lower, "level 4"):
		return 1
	case strings.Contains(lower, "advanced certificate"):
		return 2
	case strings.Contains(lower, "certificate"):
		return 3
	case strings.Contains(lower, "bachelor"):
		return 4
	case strings.Contains(lower, "bsc"), strings.Contains(lower, "b.sc"):
		return 5
	default:
		return 6
	}
}
