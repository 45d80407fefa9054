// Package provider defines the read-only data access contract the planning
// engine consumes: populated systems, system coordinates, and per-station
// market snapshots. The concrete implementation lives in provider/local
// (shard files on disk); provider/remote (bulk-dump download + reshard)
// fills that shard layout but does not implement DataProvider itself.
package provider

import (
	"context"
	"math"
	"strings"
)

// Coords is a 3D position in light-years.
type Coords struct {
	X, Y, Z float64
}

// StationSummary is the station record embedded in the populated-systems
// collection: enough to decide trade eligibility without reading the market
// shard.
type StationSummary struct {
	ID           int64
	MarketID     int64
	Name         string
	Type         string
	HaveShipyard bool
}

// HasMarket reports whether this station is eligible for trade consideration:
// not a planetary or settlement type, and carrying a market.
func (s StationSummary) HasMarket() bool {
	if s.MarketID == 0 {
		return false
	}
	return !IsPlanetary(s.Type)
}

// IsPlanetary reports whether a station type string excludes it from trade,
// per the original data set's "Odyssey Settlement" and "*Planetary*" types.
func IsPlanetary(stationType string) bool {
	if stationType == "Odyssey Settlement" {
		return true
	}
	return strings.Contains(strings.ToLower(stationType), "planetary")
}

// PopulatedSystem is a record from the populated-systems collection.
type PopulatedSystem struct {
	ID       int64
	Name     string
	Stations []StationSummary
}

// Commodity is one entry in a station's market snapshot.
type Commodity struct {
	ID        int64
	Name      string
	BuyPrice  float64
	SellPrice float64
	Stock     int64
	Demand    int64
}

// NearbySystem is one hit from a radius query: a system name, its
// coordinates, and its distance from the query origin.
type NearbySystem struct {
	Name     string
	Coords   Coords
	Distance float64
}

// Distance is the euclidean distance between two coordinates, in
// light-years. Shared by provider/local, internal/spatial, and
// internal/routeplan so the radius math stays consistent everywhere it's
// used.
func Distance(a, b Coords) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// DataProvider is the read-only contract the spatial index and trade
// optimizer consume. Implementations: provider/local (shard files on disk),
// provider/remote (the bulk-dump acquisition path, which resyncs into the
// provider/local shard layout rather than implementing this interface
// itself).
type DataProvider interface {
	// Coord returns the coordinates of a named system, or ok=false if the
	// system is not present in the coordinate collection.
	Coord(ctx context.Context, systemName string) (coords Coords, ok bool, err error)

	// IsAnarchy reports whether systemName is absent from the
	// populated-systems collection (lawless, no stations to trade with).
	IsAnarchy(ctx context.Context, systemName string) (bool, error)

	// SystemsInRadius returns every system within radius and, if minRadius
	// is positive, outside minRadius of origin. includeAnarchy controls
	// whether lawless systems are included in the result.
	SystemsInRadius(ctx context.Context, origin Coords, radius, minRadius float64, includeAnarchy bool) ([]NearbySystem, error)

	// Stations returns the station names at systemName. When noPlanet is
	// true, planetary/settlement types and market-less stations are
	// omitted.
	Stations(ctx context.Context, systemName string, noPlanet bool) ([]string, error)

	// StationMarket returns the commodity snapshot for a named station in
	// a named system, or ok=false if no market snapshot exists.
	StationMarket(ctx context.Context, systemName, stationName string) (commodities []Commodity, ok bool, err error)
}
