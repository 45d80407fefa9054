// Package local implements provider.DataProvider by reading the three
// bulk-dump collections directly off disk: a single populated_system.json,
// a directory of system-coordinate shards, and a directory of
// station-market shards. Grounded on the original Python's
// offline_database.py (shard layout, axis-aligned radius pre-filter,
// noPlanet station filter, anarchy check) and the teacher's
// internal/sde/loader.go streaming-decode idiom.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"tradelane/internal/planerr"
	"tradelane/internal/provider"
)

// populatedSystemRecord mirrors one entry of populated_system.json.
type populatedSystemRecord struct {
	ID       int64                    `json:"id"`
	Name     string                   `json:"name"`
	Stations []stationSummaryRecord   `json:"stations"`
}

type stationSummaryRecord struct {
	ID           int64  `json:"id"`
	MarketID     int64  `json:"marketId"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	HaveShipyard bool   `json:"haveShipyard"`
}

// coordRecord mirrors one entry of a system_coords/*.json shard.
type coordRecord struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	Coords provider.Coords `json:"coords"`
}

// marketRecord mirrors one entry of a station_market/*.json shard.
type marketRecord struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Type         string               `json:"type"`
	HaveShipyard bool                 `json:"haveShipyard"`
	Commodities  []commodityRecord    `json:"commodities"`
}

type commodityRecord struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	BuyPrice  float64 `json:"buyPrice"`
	SellPrice float64 `json:"sellPrice"`
	Stock     int64   `json:"stock"`
	Demand    int64   `json:"demand"`
}

// Provider reads the shard layout from a data directory of the shape:
//
//	<dir>/populated_system.json
//	<dir>/system_coords/*.json
//	<dir>/station_market/*.json
type Provider struct {
	dir string

	mu              sync.Mutex
	populated       map[string]populatedSystemRecord // lowercase name -> record
	populatedLoaded bool

	marketGroup singleflight.Group
}

// New constructs a shard-file Provider rooted at dir. It does not read
// anything until first use.
func New(dir string) *Provider {
	return &Provider{dir: dir}
}

func (p *Provider) systemCoordsDir() string  { return filepath.Join(p.dir, "system_coords") }
func (p *Provider) stationMarketDir() string { return filepath.Join(p.dir, "station_market") }
func (p *Provider) populatedSystemFile() string {
	return filepath.Join(p.dir, "populated_system.json")
}

func (p *Provider) loadPopulated() (map[string]populatedSystemRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.populatedLoaded {
		return p.populated, nil
	}

	f, err := os.Open(p.populatedSystemFile())
	if err != nil {
		if os.IsNotExist(err) {
			p.populated = map[string]populatedSystemRecord{}
			p.populatedLoaded = true
			return p.populated, nil
		}
		return nil, fmt.Errorf("open populated systems: %w", err)
	}
	defer f.Close()

	var records []populatedSystemRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode populated systems: %w", err)
	}

	index := make(map[string]populatedSystemRecord, len(records))
	for _, r := range records {
		index[strings.ToLower(r.Name)] = r
	}
	p.populated = index
	p.populatedLoaded = true
	return p.populated, nil
}

// forEachCoordShard streams every record across every shard file, stopping
// early if fn returns false.
func (p *Provider) forEachCoordShard(fn func(coordRecord) bool) error {
	entries, err := os.ReadDir(p.systemCoordsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list coordinate shards: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(p.systemCoordsDir(), entry.Name())
		cont, err := streamCoordShard(path, fn)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func streamCoordShard(path string, fn func(coordRecord) bool) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open coordinate shard %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if _, err := dec.Token(); err != nil { // consume leading '['
		return false, fmt.Errorf("decode coordinate shard %s: %w", path, err)
	}
	for dec.More() {
		var rec coordRecord
		if err := dec.Decode(&rec); err != nil {
			return false, fmt.Errorf("decode coordinate shard %s: %w", path, err)
		}
		if !fn(rec) {
			return false, nil
		}
	}
	return true, nil
}

func (p *Provider) Coord(_ context.Context, systemName string) (provider.Coords, bool, error) {
	var found coordRecord
	ok := false
	err := p.forEachCoordShard(func(rec coordRecord) bool {
		if strings.EqualFold(rec.Name, systemName) {
			found = rec
			ok = true
			return false
		}
		return true
	})
	if err != nil {
		return provider.Coords{}, false, err
	}
	return found.Coords, ok, nil
}

func (p *Provider) IsAnarchy(_ context.Context, systemName string) (bool, error) {
	populated, err := p.loadPopulated()
	if err != nil {
		return false, err
	}
	_, ok := populated[strings.ToLower(systemName)]
	return !ok, nil
}

// SystemsInRadius streams every coordinate shard, applying the mandatory
// axis-aligned pre-filter (|Δaxis| <= radius, per SPEC_FULL.md §9) before
// computing the true euclidean distance.
func (p *Provider) SystemsInRadius(ctx context.Context, origin provider.Coords, radius, minRadius float64, includeAnarchy bool) ([]provider.NearbySystem, error) {
	var result []provider.NearbySystem
	err := p.forEachCoordShard(func(rec coordRecord) bool {
		if math.Abs(rec.Coords.X-origin.X) > radius ||
			math.Abs(rec.Coords.Y-origin.Y) > radius ||
			math.Abs(rec.Coords.Z-origin.Z) > radius {
			return true
		}

		dist := provider.Distance(origin, rec.Coords)
		if dist > radius {
			return true
		}
		if minRadius > 0 && dist < minRadius {
			return true
		}

		if !includeAnarchy {
			anarchy, err := p.IsAnarchy(ctx, rec.Name)
			if err != nil || anarchy {
				return true
			}
		}

		result = append(result, provider.NearbySystem{
			Name:     rec.Name,
			Coords:   rec.Coords,
			Distance: dist,
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Provider) Stations(_ context.Context, systemName string, noPlanet bool) ([]string, error) {
	populated, err := p.loadPopulated()
	if err != nil {
		return nil, err
	}
	sys, ok := populated[strings.ToLower(systemName)]
	if !ok {
		return nil, planerr.New(planerr.DataMissing, "stations("+systemName+")")
	}

	names := make([]string, 0, len(sys.Stations))
	for _, st := range sys.Stations {
		if st.Name == "" {
			continue
		}
		if noPlanet {
			if st.Type == "" || provider.IsPlanetary(st.Type) {
				continue
			}
			if st.MarketID == 0 {
				continue
			}
		}
		names = append(names, st.Name)
	}
	return names, nil
}

func (p *Provider) stationID(systemName, stationName string) (int64, error) {
	populated, err := p.loadPopulated()
	if err != nil {
		return 0, err
	}
	sys, ok := populated[strings.ToLower(systemName)]
	if !ok {
		return 0, planerr.New(planerr.DataMissing, "station("+systemName+"/"+stationName+")")
	}
	for _, st := range sys.Stations {
		if strings.EqualFold(st.Name, stationName) {
			return st.ID, nil
		}
	}
	return 0, planerr.New(planerr.DataMissing, "station("+systemName+"/"+stationName+")")
}

// StationMarket resolves the station's id within its system, then scans the
// market shards for a matching record. Concurrent calls for the same
// station are collapsed via singleflight; calls made one after another
// each scan the shards again.
func (p *Provider) StationMarket(ctx context.Context, systemName, stationName string) ([]provider.Commodity, bool, error) {
	stationID, err := p.stationID(systemName, stationName)
	if err != nil {
		return nil, false, nil
	}

	key := fmt.Sprintf("%d", stationID)
	value, err, _ := p.marketGroup.Do(key, func() (interface{}, error) {
		return p.scanMarketShards(stationID)
	})
	if err != nil {
		return nil, false, err
	}
	rec, ok := value.(*marketRecord)
	if !ok || rec == nil {
		return nil, false, nil
	}

	commodities := make([]provider.Commodity, 0, len(rec.Commodities))
	for _, c := range rec.Commodities {
		commodities = append(commodities, provider.Commodity{
			ID:        c.ID,
			Name:      c.Name,
			BuyPrice:  c.BuyPrice,
			SellPrice: c.SellPrice,
			Stock:     c.Stock,
			Demand:    c.Demand,
		})
	}
	return commodities, true, nil
}

func (p *Provider) scanMarketShards(stationID int64) (*marketRecord, error) {
	entries, err := os.ReadDir(p.stationMarketDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list market shards: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(p.stationMarketDir(), entry.Name())
		rec, found, err := scanOneMarketShard(path, stationID)
		if err != nil {
			return nil, err
		}
		if found {
			return rec, nil
		}
	}
	return nil, nil
}

func scanOneMarketShard(path string, stationID int64) (*marketRecord, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("open market shard %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if _, err := dec.Token(); err != nil {
		return nil, false, fmt.Errorf("decode market shard %s: %w", path, err)
	}
	for dec.More() {
		var rec marketRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, false, fmt.Errorf("decode market shard %s: %w", path, err)
		}
		if rec.ID == stationID {
			return &rec, true, nil
		}
	}
	return nil, false, nil
}

var _ provider.DataProvider = (*Provider)(nil)
