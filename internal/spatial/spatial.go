// Package spatial is the in-memory working set for one planning run: the
// RuntimeDatabase arena of Systems and Stations materialized from a
// provider.DataProvider, the neighbor graph built under a jump-distance
// threshold, and the per-station Market model. Grounded on the original
// Python's classes.py (SystemInfo, StationInfo, MarketInfo,
// RuntimeDatabase), restructured per SPEC_FULL.md §4.2/§9: an arena
// (`[]System`) with neighbor sets stored as stable integer indices rather
// than the Python's free object references — the direct analogue of the
// teacher's graph.Universe.Adj map[int32][]int32, adapted from SDE-assigned
// system IDs to arena-assigned indices.
package spatial

import (
	"context"
	"strings"

	"tradelane/internal/planerr"
	"tradelane/internal/provider"
)

// MarketInfo is the derived view of a station's commodity snapshot: which
// commodities are available to buy here, and which are in demand here.
type MarketInfo struct {
	Raw            []provider.Commodity
	AvailableStock map[int64]provider.Commodity
	DemandList     map[int64]provider.Commodity
}

// NewMarketInfo classifies a raw commodity snapshot into the two derived
// maps. An empty or nil snapshot yields two empty maps, so a market-less
// station simply never wins a manifest pick.
func NewMarketInfo(commodities []provider.Commodity) MarketInfo {
	mi := MarketInfo{
		Raw:            commodities,
		AvailableStock: make(map[int64]provider.Commodity),
		DemandList:     make(map[int64]provider.Commodity),
	}
	for _, c := range commodities {
		if c.Demand > c.Stock-5 {
			mi.DemandList[c.ID] = c
		}
		if c.Stock > 0 {
			mi.AvailableStock[c.ID] = c
		}
	}
	return mi
}

// Station is a materialized docking point: its commodity market, already
// classified into MarketInfo.
type Station struct {
	Name       string
	SystemName string
	Market     MarketInfo
}

// System is one arena entry: a star system, its coordinates, and the
// stations materialized for it so far. Neighbors holds arena indices into
// the owning RuntimeDatabase's Systems slice and is only meaningful for
// systems registered in that arena — a detached Copy has a Neighbors slice
// that still points at the original arena (shared, not duplicated, mirroring
// the Python's direct `result.neighbors = self.neighbors` assignment) but is
// never walked again once detached.
type System struct {
	Name      string
	Coords    provider.Coords
	Distance  float64
	Neighbors []int
	Stations  []Station
}

// Copy detaches a shallow copy of the system: same name/coords/distance,
// an independent Stations slice (so IsolateStation on the copy doesn't
// mutate the arena original), and a shared Neighbors slice.
func (s System) Copy() System {
	cp := s
	cp.Stations = append([]Station(nil), s.Stations...)
	return cp
}

// IsolateStation narrows the system to a single named station, for the
// between-section continuity step and the deviated two-hop leg
// construction in internal/tradeplan.
func (s *System) IsolateStation(stationName string) error {
	for _, st := range s.Stations {
		if strings.EqualFold(st.Name, stationName) {
			s.Stations = []Station{st}
			return nil
		}
	}
	return planerr.New(planerr.DataMissing, "isolate station "+stationName+" in "+s.Name)
}

// MaterializeStations fetches and classifies every eligible station's
// market for this system. When stationOverride is non-empty (an explicit
// "System/Station" location), only that one station is considered,
// mirroring the facade's endpoint-pinning behavior.
func (s *System) MaterializeStations(ctx context.Context, p provider.DataProvider, stationOverride string) error {
	if len(s.Stations) > 0 {
		return nil
	}

	var names []string
	if stationOverride != "" {
		names = []string{stationOverride}
	} else {
		var err error
		names, err = p.Stations(ctx, s.Name, true)
		if err != nil {
			return err
		}
	}

	stations := make([]Station, 0, len(names))
	for _, name := range names {
		commodities, ok, err := p.StationMarket(ctx, s.Name, name)
		if err != nil {
			return err
		}
		if !ok {
			commodities = nil
		}
		stations = append(stations, Station{
			Name:       name,
			SystemName: s.Name,
			Market:     NewMarketInfo(commodities),
		})
	}
	s.Stations = stations
	return nil
}

// RuntimeDatabase is the cache: it owns every System materialized during
// one planning run, deduplicated by name, plus the neighbor graph built
// over them.
type RuntimeDatabase struct {
	Provider provider.DataProvider
	Systems  []System
	Warm     bool

	index map[string]int
}

// NewRuntimeDatabase constructs an empty, cold cache backed by p.
func NewRuntimeDatabase(p provider.DataProvider) *RuntimeDatabase {
	return &RuntimeDatabase{Provider: p, index: make(map[string]int)}
}

// AddSystem registers sys in the arena, or returns the index of the
// existing entry if a system with the same name (case-insensitive) is
// already present.
func (rb *RuntimeDatabase) AddSystem(sys System) int {
	key := strings.ToLower(sys.Name)
	if idx, ok := rb.index[key]; ok {
		return idx
	}
	idx := len(rb.Systems)
	rb.Systems = append(rb.Systems, sys)
	rb.index[key] = idx
	return idx
}

// Lookup returns the arena index of a named system, if present.
func (rb *RuntimeDatabase) Lookup(name string) (int, bool) {
	idx, ok := rb.index[strings.ToLower(name)]
	return idx, ok
}

// System returns a pointer into the arena for in-place mutation (station
// materialization, isolate-in-place for the section[0] continuity swap).
func (rb *RuntimeDatabase) System(idx int) *System {
	return &rb.Systems[idx]
}

// BuildNeighbors adds a bidirectional neighbor edge between every pair of
// interned systems whose distance satisfies minDist < dist <= maxDist. This
// is the O(N²/2) pass SPEC_FULL.md §4.2 requires be restricted to a
// pre-narrowed envelope (the systems already interned via SystemsInRadius
// pre-load around both route endpoints).
func (rb *RuntimeDatabase) BuildNeighbors(maxDist, minDist float64) {
	n := len(rb.Systems)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := provider.Distance(rb.Systems[i].Coords, rb.Systems[j].Coords)
			if d > minDist && d <= maxDist {
				rb.Systems[i].Neighbors = append(rb.Systems[i].Neighbors, j)
				rb.Systems[j].Neighbors = append(rb.Systems[j].Neighbors, i)
			}
		}
	}
}

// SystemsInRadius serves a radius query either by delegating to the Data
// Provider (cold: the arena isn't pre-loaded yet, so every hit is a system
// the caller hasn't seen and must be interned) or by scanning the already
// -interned arena (warm: every hit is already present, only its index is
// returned). Returns arena indices.
func (rb *RuntimeDatabase) SystemsInRadius(ctx context.Context, origin provider.Coords, radius, minRadius float64, includeAnarchy bool) ([]int, error) {
	if !rb.Warm {
		hits, err := rb.Provider.SystemsInRadius(ctx, origin, radius, minRadius, includeAnarchy)
		if err != nil {
			return nil, err
		}
		indices := make([]int, 0, len(hits))
		for _, hit := range hits {
			idx := rb.AddSystem(System{Name: hit.Name, Coords: hit.Coords, Distance: hit.Distance})
			indices = append(indices, idx)
		}
		return indices, nil
	}

	var indices []int
	for i, sys := range rb.Systems {
		dist := provider.Distance(origin, sys.Coords)
		if dist > radius {
			continue
		}
		if minRadius > 0 && dist < minRadius {
			continue
		}
		if !includeAnarchy {
			anarchy, err := rb.Provider.IsAnarchy(ctx, sys.Name)
			if err != nil {
				return nil, err
			}
			if anarchy {
				continue
			}
		}
		indices = append(indices, i)
	}
	return indices, nil
}
