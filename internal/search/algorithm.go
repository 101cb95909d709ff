package search

import "strings"

// Algorithm selects the frontier ordering.
type Algorithm int

// Supported orderings. Dijkstra doubles as BFS since edges cost 1.
const (
	AStar Algorithm = iota
	Dijkstra
	DFS
)

// ParseAlgorithm accepts "a*", any prefix of "astar", "dijkstra", "bfs" or
// "dfs", case-insensitively. Anything else selects A*.
func ParseAlgorithm(s string) Algorithm {
	s = strings.ToLower(strings.TrimSpace(s))

	switch {
	case s == "":
		return AStar
	case s == "a*" || strings.HasPrefix("astar", s):
		return AStar
	case strings.HasPrefix("dijkstra", s) || strings.HasPrefix("bfs", s):
		return Dijkstra
	case strings.HasPrefix("dfs", s):
		return DFS
	default:
		return AStar
	}
}

// String returns AStar, Dijkstra or DFS.
func (a Algorithm) String() string {
	switch a {
	case Dijkstra:
		return "Dijkstra"
	case DFS:
		return "DFS"
	default:
		return "AStar"
	}
}

// Flag returns the short spelling used in result file names.
func (a Algorithm) Flag() string {
	switch a {
	case Dijkstra:
		return "dijkstra"
	case DFS:
		return "dfs"
	default:
		return "a*"
	}
}

// key returns the primary and secondary priority; lower pops first.
func (a Algorithm) key(g, h float64) (float64, float64) {
	switch a {
	case Dijkstra:
		return g, 0
	case DFS:
		return -g, 0
	default:
		return g + h, -g
	}
}
