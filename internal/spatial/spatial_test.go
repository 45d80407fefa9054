package spatial

import (
	"context"
	"testing"

	"tradelane/internal/provider"
)

func TestNewMarketInfo_Classification(t *testing.T) {
	commodities := []provider.Commodity{
		{ID: 1, Name: "Gold", Stock: 10, Demand: 0},   // available, not demanded
		{ID: 2, Name: "Silver", Stock: 0, Demand: 50}, // demanded, not available
		{ID: 3, Name: "Iron", Stock: 20, Demand: 18},  // both: demand(18) > stock-5(15)
		{ID: 4, Name: "Lead", Stock: 20, Demand: 10},  // available only: demand(10) <= stock-5(15)
	}
	mi := NewMarketInfo(commodities)

	if _, ok := mi.AvailableStock[1]; !ok {
		t.Error("Gold should be available")
	}
	if _, ok := mi.DemandList[1]; ok {
		t.Error("Gold should not be demanded")
	}
	if _, ok := mi.AvailableStock[2]; ok {
		t.Error("Silver should not be available (stock 0)")
	}
	if _, ok := mi.DemandList[2]; !ok {
		t.Error("Silver should be demanded")
	}
	if _, ok := mi.DemandList[3]; !ok {
		t.Error("Iron should be demanded (demand > stock-5)")
	}
	if _, ok := mi.DemandList[4]; ok {
		t.Error("Lead should not be demanded (demand <= stock-5)")
	}
}

func TestNewMarketInfo_Empty(t *testing.T) {
	mi := NewMarketInfo(nil)
	if len(mi.AvailableStock) != 0 || len(mi.DemandList) != 0 {
		t.Error("empty commodity snapshot should yield empty derived maps")
	}
}

func TestSystem_CopyIsolatesStations(t *testing.T) {
	original := System{
		Name:      "Alpha",
		Neighbors: []int{1, 2},
		Stations: []Station{
			{Name: "Hub A"},
			{Name: "Hub B"},
		},
	}
	cp := original.Copy()
	if err := cp.IsolateStation("Hub B"); err != nil {
		t.Fatal(err)
	}
	if len(cp.Stations) != 1 || cp.Stations[0].Name != "Hub B" {
		t.Fatalf("copy not isolated correctly: %+v", cp.Stations)
	}
	if len(original.Stations) != 2 {
		t.Error("isolating the copy mutated the original's Stations")
	}
	if &cp.Neighbors[0] != &original.Neighbors[0] {
		t.Error("Neighbors should be the same underlying array (shared, not duplicated)")
	}
}

func TestSystem_IsolateStation_NotFound(t *testing.T) {
	s := System{Name: "Alpha", Stations: []Station{{Name: "Hub A"}}}
	if err := s.IsolateStation("Nonexistent"); err == nil {
		t.Error("expected an error isolating a station that doesn't exist")
	}
}

type fakeProvider struct {
	coords    map[string]provider.Coords
	anarchies map[string]bool
	stations  map[string][]string
	markets   map[string][]provider.Commodity
}

func (f *fakeProvider) Coord(_ context.Context, name string) (provider.Coords, bool, error) {
	c, ok := f.coords[name]
	return c, ok, nil
}
func (f *fakeProvider) IsAnarchy(_ context.Context, name string) (bool, error) {
	return f.anarchies[name], nil
}
func (f *fakeProvider) SystemsInRadius(_ context.Context, origin provider.Coords, radius, minRadius float64, includeAnarchy bool) ([]provider.NearbySystem, error) {
	var out []provider.NearbySystem
	for name, c := range f.coords {
		d := provider.Distance(origin, c)
		if d > radius || (minRadius > 0 && d < minRadius) {
			continue
		}
		if !includeAnarchy && f.anarchies[name] {
			continue
		}
		out = append(out, provider.NearbySystem{Name: name, Coords: c, Distance: d})
	}
	return out, nil
}
func (f *fakeProvider) Stations(_ context.Context, name string, _ bool) ([]string, error) {
	return f.stations[name], nil
}
func (f *fakeProvider) StationMarket(_ context.Context, _, stationName string) ([]provider.Commodity, bool, error) {
	c, ok := f.markets[stationName]
	return c, ok, nil
}

func TestRuntimeDatabase_BuildNeighbors(t *testing.T) {
	rb := NewRuntimeDatabase(&fakeProvider{})
	a := rb.AddSystem(System{Name: "A", Coords: provider.Coords{X: 0}})
	b := rb.AddSystem(System{Name: "B", Coords: provider.Coords{X: 10}})
	c := rb.AddSystem(System{Name: "C", Coords: provider.Coords{X: 25}})

	rb.BuildNeighbors(15, 0)

	if !containsInt(rb.Systems[a].Neighbors, b) {
		t.Error("A and B are within 15 ly, should be neighbors")
	}
	if containsInt(rb.Systems[a].Neighbors, c) {
		t.Error("A and C are 25 ly apart, should not be neighbors under maxDist 15")
	}
	if !containsInt(rb.Systems[b].Neighbors, c) {
		t.Error("B and C are 15 ly apart, should be neighbors (dist <= maxDist)")
	}
}

func TestRuntimeDatabase_AddSystem_DedupesByName(t *testing.T) {
	rb := NewRuntimeDatabase(&fakeProvider{})
	i1 := rb.AddSystem(System{Name: "Alpha"})
	i2 := rb.AddSystem(System{Name: "alpha"})
	if i1 != i2 {
		t.Error("AddSystem should dedupe case-insensitively")
	}
	if len(rb.Systems) != 1 {
		t.Errorf("len(Systems) = %d, want 1", len(rb.Systems))
	}
}

func TestRuntimeDatabase_SystemsInRadius_ColdThenWarm(t *testing.T) {
	fp := &fakeProvider{
		coords: map[string]provider.Coords{
			"Alpha": {X: 0},
			"Beta":  {X: 10},
		},
	}
	rb := NewRuntimeDatabase(fp)

	cold, err := rb.SystemsInRadius(context.Background(), provider.Coords{X: 0}, 15, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(cold) != 2 {
		t.Fatalf("cold radius query: got %d, want 2", len(cold))
	}

	rb.Warm = true
	warm, err := rb.SystemsInRadius(context.Background(), provider.Coords{X: 0}, 15, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(warm) != 2 {
		t.Fatalf("warm radius query: got %d, want 2", len(warm))
	}
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
