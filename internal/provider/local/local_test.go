package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tradelane/internal/planerr"
	"tradelane/internal/provider"
)

func writeShardTree(t *testing.T, dir string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Join(dir, "system_coords"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "station_market"), 0o755); err != nil {
		t.Fatal(err)
	}

	coords := `[
		{"id":1,"name":"Alpha","coords":{"X":0,"Y":0,"Z":0}},
		{"id":2,"name":"Beta","coords":{"X":10,"Y":0,"Z":0}},
		{"id":3,"name":"Gamma","coords":{"X":100,"Y":0,"Z":0}}
	]`
	if err := os.WriteFile(filepath.Join(dir, "system_coords", "shard0.json"), []byte(coords), 0o644); err != nil {
		t.Fatal(err)
	}

	populated := `[
		{"id":1,"name":"Alpha","stations":[{"id":11,"marketId":101,"type":"Coriolis Starport","name":"Alpha Hub"}]},
		{"id":2,"name":"Beta","stations":[
			{"id":21,"marketId":201,"type":"Ocellus Starport","name":"Beta Exchange"},
			{"id":22,"marketId":0,"type":"Planetary Outpost","name":"Beta Dirt"}
		]}
	]`
	if err := os.WriteFile(filepath.Join(dir, "populated_system.json"), []byte(populated), 0o644); err != nil {
		t.Fatal(err)
	}

	market := `[
		{"id":11,"name":"Alpha Hub","type":"Coriolis Starport","commodities":[
			{"id":1,"name":"Gold","buyPrice":100,"sellPrice":150,"stock":50,"demand":0}
		]},
		{"id":21,"name":"Beta Exchange","type":"Ocellus Starport","commodities":[
			{"id":1,"name":"Gold","buyPrice":90,"sellPrice":200,"stock":0,"demand":80}
		]}
	]`
	if err := os.WriteFile(filepath.Join(dir, "station_market", "shard0.json"), []byte(market), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProvider_CoordAndIsAnarchy(t *testing.T) {
	dir := t.TempDir()
	writeShardTree(t, dir)
	p := New(dir)
	ctx := context.Background()

	coords, ok, err := p.Coord(ctx, "Beta")
	if err != nil || !ok {
		t.Fatalf("Coord(Beta) = %v, %v, %v", coords, ok, err)
	}
	if coords.X != 10 {
		t.Errorf("Coord(Beta).X = %v, want 10", coords.X)
	}

	if _, ok, err := p.Coord(ctx, "Nowhere"); err != nil || ok {
		t.Errorf("Coord(Nowhere) ok = %v, want false", ok)
	}

	anarchy, err := p.IsAnarchy(ctx, "Gamma")
	if err != nil || !anarchy {
		t.Errorf("IsAnarchy(Gamma) = %v, %v, want true (unpopulated)", anarchy, err)
	}
	anarchy, err = p.IsAnarchy(ctx, "Alpha")
	if err != nil || anarchy {
		t.Errorf("IsAnarchy(Alpha) = %v, %v, want false", anarchy, err)
	}
}

func TestProvider_SystemsInRadius(t *testing.T) {
	dir := t.TempDir()
	writeShardTree(t, dir)
	p := New(dir)
	ctx := context.Background()

	hits, err := p.SystemsInRadius(ctx, provider.Coords{}, 15, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2 (Alpha, Beta)", len(hits))
	}

	hits, err = p.SystemsInRadius(ctx, provider.Coords{}, 15, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Name != "Beta" {
		t.Fatalf("minRadius filter: got %+v, want only Beta", hits)
	}
}

func TestProvider_Stations_NoPlanetFilter(t *testing.T) {
	dir := t.TempDir()
	writeShardTree(t, dir)
	p := New(dir)
	ctx := context.Background()

	names, err := p.Stations(ctx, "Beta", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "Beta Exchange" {
		t.Fatalf("Stations(Beta, noPlanet) = %v, want [Beta Exchange]", names)
	}

	if _, err := p.Stations(ctx, "Nowhere", true); !planerr.Is(err, planerr.DataMissing) {
		t.Errorf("Stations(Nowhere) err = %v, want DataMissing", err)
	}
}

func TestProvider_StationMarket(t *testing.T) {
	dir := t.TempDir()
	writeShardTree(t, dir)
	p := New(dir)
	ctx := context.Background()

	commodities, ok, err := p.StationMarket(ctx, "Alpha", "Alpha Hub")
	if err != nil || !ok {
		t.Fatalf("StationMarket = %v, %v, %v", commodities, ok, err)
	}
	if len(commodities) != 1 || commodities[0].Name != "Gold" {
		t.Fatalf("commodities = %+v", commodities)
	}

	_, ok, err = p.StationMarket(ctx, "Alpha", "No Such Station")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("StationMarket for unknown station should be ok=false, not error")
	}
}
