// Package routeplan finds a jump-connected path of system names from an
// origin to a destination, pre-loading a spatial.RuntimeDatabase with every
// system in the origin-destination envelope and then running a
// bidirectional breadth-first search over the resulting neighbor graph.
// Grounded on the original Python's classes.py RoutePlanner/
// bi_directional_bfs (the algorithm — the teacher's graph/dijkstra.go is
// single-direction and does not meet in the middle, so the search loop
// itself is new) plus the teacher's queue/visited-map idioms.
package routeplan

import (
	"context"
	"strings"

	"tradelane/internal/planerr"
	"tradelane/internal/provider"
	"tradelane/internal/spatial"
)

// Params are the Route Planner's inputs (SPEC_FULL.md §4.4).
type Params struct {
	Origin      string
	Destination string
	JumpCapacity float64
	MinRange     float64 // minimum distance per jump; 0 means no minimum
	Calculate    bool    // false: skip pathfinding, system_route = [origin, destination]
}

// Plan runs the full pre-load + neighbor-build + bidirectional-BFS pipeline
// and returns the ordered system names from origin to destination
// (inclusive), plus the warmed RuntimeDatabase so the trade optimizer can
// keep using it without re-fetching coordinates or re-materializing
// stations already seen during the search.
func Plan(ctx context.Context, p provider.DataProvider, params Params) ([]string, *spatial.RuntimeDatabase, error) {
	rb := spatial.NewRuntimeDatabase(p)

	originCoords, ok, err := p.Coord(ctx, params.Origin)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, planerr.New(planerr.DataMissing, "coord("+params.Origin+")")
	}
	originIdx := rb.AddSystem(spatial.System{Name: params.Origin, Coords: originCoords})

	if params.Calculate && sameSystem(params.Origin, params.Destination) {
		return []string{params.Origin}, rb, nil
	}

	destCoords, ok, err := p.Coord(ctx, params.Destination)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, planerr.New(planerr.DataMissing, "coord("+params.Destination+")")
	}
	furthestDist := provider.Distance(originCoords, destCoords)
	destIdx := rb.AddSystem(spatial.System{Name: params.Destination, Coords: destCoords, Distance: furthestDist})

	if !params.Calculate {
		return []string{params.Origin, params.Destination}, rb, nil
	}

	if _, err := rb.SystemsInRadius(ctx, originCoords, furthestDist, 0, true); err != nil {
		return nil, nil, err
	}
	if _, err := rb.SystemsInRadius(ctx, destCoords, furthestDist, 0, true); err != nil {
		return nil, nil, err
	}
	rb.Warm = true

	rb.BuildNeighbors(params.JumpCapacity, params.MinRange)

	path, ok := bidirectionalBFS(rb, originIdx, destIdx)
	if !ok {
		return nil, nil, planerr.New(planerr.NoRoute, params.Origin+" -> "+params.Destination)
	}

	names := make([]string, len(path))
	for i, idx := range path {
		names[i] = rb.Systems[idx].Name
	}
	return names, rb, nil
}

func sameSystem(a, b string) bool {
	return strings.EqualFold(a, b)
}

// bidirectionalBFS alternates one expansion step from each of two
// frontiers (origin-side, destination-side), each tracked as a queue of
// full paths (arena index sequences) plus a visited map from arena index
// to the path that reached it — mirroring the Python's deque-of-paths
// implementation exactly. On a neighbor already visited by the other side,
// the path is reconstructed as the start-side prefix concatenated with the
// reversed end-side suffix.
func bidirectionalBFS(rb *spatial.RuntimeDatabase, start, end int) ([]int, bool) {
	if start == end {
		return []int{start}, true
	}

	queueStart := [][]int{{start}}
	queueEnd := [][]int{{end}}
	visitedStart := map[int][]int{start: {start}}
	visitedEnd := map[int][]int{end: {end}}

	for len(queueStart) > 0 && len(queueEnd) > 0 {
		pathStart := queueStart[0]
		queueStart = queueStart[1:]
		nodeStart := pathStart[len(pathStart)-1]

		for _, neighbor := range rb.Systems[nodeStart].Neighbors {
			if endPath, ok := visitedEnd[neighbor]; ok {
				return concatMeeting(pathStart, endPath), true
			}
			if _, ok := visitedStart[neighbor]; !ok {
				next := appendPath(pathStart, neighbor)
				visitedStart[neighbor] = next
				queueStart = append(queueStart, next)
			}
		}

		pathEnd := queueEnd[0]
		queueEnd = queueEnd[1:]
		nodeEnd := pathEnd[len(pathEnd)-1]

		for _, neighbor := range rb.Systems[nodeEnd].Neighbors {
			if startPath, ok := visitedStart[neighbor]; ok {
				return concatMeeting(startPath, pathEnd), true
			}
			if _, ok := visitedEnd[neighbor]; !ok {
				next := appendPath(pathEnd, neighbor)
				visitedEnd[neighbor] = next
				queueEnd = append(queueEnd, next)
			}
		}
	}
	return nil, false
}

func appendPath(path []int, next int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = next
	return out
}

// concatMeeting concatenates a start-side path with the reverse of an
// end-side path. The two paths share no common element: the end-side path
// is keyed by a neighbor of the start-side path's last node (or vice
// versa), never by that last node itself, so this is a plain concatenation
// with no overlap to strip — matching the Python's `path_start +
// visited_end[neighbor][::-1]` exactly.
func concatMeeting(startPath, endPath []int) []int {
	out := make([]int, 0, len(startPath)+len(endPath))
	out = append(out, startPath...)
	for i := len(endPath) - 1; i >= 0; i-- {
		out = append(out, endPath[i])
	}
	return out
}
