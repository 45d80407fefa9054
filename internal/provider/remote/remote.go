// Package remote is the bulk-dump acquisition path described in
// SPEC_FULL.md §4.1.1/§6: it downloads three gzipped EDSM-style
// JSON dumps over HTTP and re-shards them into the provider/local on-disk
// layout, recording a sync timestamp per collection in SQLite so a later
// run can skip a collection synced recently. Grounded on the original
// Python's offline_database_edsm.py (three dumps, stream-and-rewrite) and
// the teacher's internal/sde/loader.go downloadFile/extractZip shape,
// generalized from one zip to three independent .json.gz dumps.
package remote

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tradelane/internal/db"
	"tradelane/internal/logger"
)

const (
	systemsWithCoordsURL = "https://www.edsm.net/dump/systemsWithCoordinates.json.gz"
	populatedSystemsURL  = "https://www.edsm.net/dump/systemsPopulated.json.gz"
	stationsURL          = "https://www.edsm.net/dump/stations.json.gz"

	coordShardSize  = 1 << 20
	marketShardSize = 4096

	// StaleAfter is how long a collection is trusted before a plain run
	// (without -sync) re-downloads it.
	StaleAfter = 7 * 24 * time.Hour
)

// collection names, also used as the sync_state primary key and as the
// raw-download filename stem.
const (
	collSystemCoords = "system_coords"
	collPopulated    = "populated_system"
	collStations     = "stations"
)

// Syncer downloads and reshards the three bulk dumps into a provider/local
// compatible data directory.
type Syncer struct {
	DataDir string
	RawDir  string
	Client  *http.Client
	State   *db.DB
}

// New constructs a Syncer rooted at dataDir, using rawDir as scratch space
// for the downloaded .gz files (deleted after extraction).
func New(dataDir, rawDir string, state *db.DB) *Syncer {
	return &Syncer{
		DataDir: dataDir,
		RawDir:  rawDir,
		Client:  &http.Client{Timeout: 10 * time.Minute},
		State:   state,
	}
}

// Sync refreshes every collection older than StaleAfter (or all three, if
// force is true). The three downloads run concurrently, bounded by a
// small semaphore, in the teacher's fetchBySide WaitGroup+channel idiom.
func (s *Syncer) Sync(ctx context.Context, force bool) error {
	if err := os.MkdirAll(s.RawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	type job struct {
		collection string
		url        string
		run        func(ctx context.Context, rawFile string) (shards int, err error)
	}
	jobs := []job{
		{collPopulated, populatedSystemsURL, s.extractPopulated},
		{collSystemCoords, systemsWithCoordsURL, s.extractCoords},
		{collStations, stationsURL, s.extractStations},
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 3)
	errs := make([]error, len(jobs))

	for i, j := range jobs {
		if !force {
			if stale, err := s.isFresh(j.collection); err == nil && stale {
				logger.Info("SYNC", fmt.Sprintf("%s is fresh, skipping", j.collection))
				continue
			}
		}

		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[i] = s.syncOne(ctx, j.collection, j.url, j.run)
		}(i, j)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) isFresh(collection string) (bool, error) {
	state, ok, err := s.State.GetSyncState(collection)
	if err != nil || !ok {
		return false, err
	}
	return time.Since(state.SyncedAt) < StaleAfter, nil
}

func (s *Syncer) syncOne(ctx context.Context, collection, url string, extract func(ctx context.Context, rawFile string) (int, error)) error {
	rawFile := filepath.Join(s.RawDir, filepath.Base(url))

	if _, err := os.Stat(rawFile); os.IsNotExist(err) {
		logger.Info("SYNC", fmt.Sprintf("Downloading %s...", collection))
		size, err := s.download(ctx, url, rawFile)
		if err != nil {
			return fmt.Errorf("download %s: %w", collection, err)
		}
		logger.Success("SYNC", fmt.Sprintf("Downloaded %s (%d bytes)", collection, size))
	}

	logger.Info("SYNC", fmt.Sprintf("Extracting %s...", collection))
	shards, err := extract(ctx, rawFile)
	if err != nil {
		return fmt.Errorf("extract %s: %w", collection, err)
	}

	info, _ := os.Stat(rawFile)
	var byteSize int64
	if info != nil {
		byteSize = info.Size()
	}
	os.Remove(rawFile)

	if s.State != nil {
		err := s.State.PutSyncState(db.SyncState{
			Collection: collection,
			SyncedAt:   timeNow(),
			ShardCount: shards,
			ByteSize:   byteSize,
		})
		if err != nil {
			return fmt.Errorf("record sync state for %s: %w", collection, err)
		}
	}
	logger.Success("SYNC", fmt.Sprintf("%s resharded into %d shard(s)", collection, shards))
	return nil
}

// timeNow exists so the production sync path and any future test seam can
// diverge without touching call sites.
func timeNow() time.Time { return time.Now() }

func (s *Syncer) download(ctx context.Context, url, dst string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// edsmStationRecord mirrors one station entry embedded in the populated
// systems dump.
type edsmStationRecord struct {
	ID         int64  `json:"id"`
	MarketID   int64  `json:"marketId"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	HaveMarket bool   `json:"haveMarket"`
}

type edsmPopulatedSystemRecord struct {
	ID       int64               `json:"id"`
	Name     string              `json:"name"`
	Stations []edsmStationRecord `json:"stations"`
}

type outStationSummary struct {
	ID       int64  `json:"id"`
	MarketID int64  `json:"marketId"`
	Type     string `json:"type"`
	Name     string `json:"name"`
}

type outPopulatedSystem struct {
	ID       int64               `json:"id"`
	Name     string              `json:"name"`
	Stations []outStationSummary `json:"stations"`
}

func (s *Syncer) extractPopulated(_ context.Context, rawFile string) (int, error) {
	gz, f, err := openGzip(rawFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	defer gz.Close()

	dec := json.NewDecoder(gz)
	if _, err := dec.Token(); err != nil {
		return 0, fmt.Errorf("read array start: %w", err)
	}

	var out []outPopulatedSystem
	for dec.More() {
		var rec edsmPopulatedSystemRecord
		if err := dec.Decode(&rec); err != nil {
			return 0, fmt.Errorf("decode populated system: %w", err)
		}

		var stations []outStationSummary
		for _, st := range rec.Stations {
			if !st.HaveMarket {
				continue
			}
			stations = append(stations, outStationSummary{
				ID: st.ID, MarketID: st.MarketID, Type: st.Type, Name: st.Name,
			})
		}
		if len(stations) == 0 {
			continue
		}
		out = append(out, outPopulatedSystem{ID: rec.ID, Name: rec.Name, Stations: stations})
	}

	if err := writeJSONFile(filepath.Join(s.DataDir, "populated_system.json"), out); err != nil {
		return 0, err
	}
	return 1, nil
}

type edsmCoordRecord struct {
	ID     int64              `json:"id"`
	Name   string             `json:"name"`
	Coords map[string]float64 `json:"coords"`
}

type outCoordRecord struct {
	ID     int64             `json:"id"`
	Name   string            `json:"name"`
	Coords map[string]float64 `json:"coords"`
}

func (s *Syncer) extractCoords(_ context.Context, rawFile string) (int, error) {
	gz, f, err := openGzip(rawFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	defer gz.Close()

	shardDir := filepath.Join(s.DataDir, "system_coords")
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		return 0, err
	}

	dec := json.NewDecoder(gz)
	if _, err := dec.Token(); err != nil {
		return 0, fmt.Errorf("read array start: %w", err)
	}

	shardID := 0
	batch := make([]outCoordRecord, 0, coordShardSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		path := filepath.Join(shardDir, fmt.Sprintf("system_coords_%d.json", shardID))
		if err := writeJSONFile(path, batch); err != nil {
			return err
		}
		shardID++
		batch = batch[:0]
		return nil
	}

	for dec.More() {
		var rec edsmCoordRecord
		if err := dec.Decode(&rec); err != nil {
			return 0, fmt.Errorf("decode system coords: %w", err)
		}
		batch = append(batch, outCoordRecord{ID: rec.ID, Name: rec.Name, Coords: rec.Coords})
		if len(batch) >= coordShardSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return shardID, nil
}

type edsmStationDumpRecord struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	HaveMarket   bool          `json:"haveMarket"`
	HaveShipyard bool          `json:"haveShipyard"`
	Commodities  []interface{} `json:"commodities"`
}

type outMarketRecord struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	HaveShipyard bool          `json:"haveShipyard"`
	Commodities  []interface{} `json:"commodities"`
}

func (s *Syncer) extractStations(_ context.Context, rawFile string) (int, error) {
	gz, f, err := openGzip(rawFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	defer gz.Close()

	shardDir := filepath.Join(s.DataDir, "station_market")
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		return 0, err
	}

	dec := json.NewDecoder(gz)
	if _, err := dec.Token(); err != nil {
		return 0, fmt.Errorf("read array start: %w", err)
	}

	shardID := 0
	batch := make([]outMarketRecord, 0, marketShardSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		path := filepath.Join(shardDir, fmt.Sprintf("station_market_%d.json", shardID))
		if err := writeJSONFile(path, batch); err != nil {
			return err
		}
		shardID++
		batch = batch[:0]
		return nil
	}

	for dec.More() {
		var rec edsmStationDumpRecord
		if err := dec.Decode(&rec); err != nil {
			return 0, fmt.Errorf("decode station: %w", err)
		}
		if !rec.HaveMarket {
			continue
		}
		batch = append(batch, outMarketRecord{
			ID: rec.ID, Name: rec.Name, Type: rec.Type,
			HaveShipyard: rec.HaveShipyard, Commodities: rec.Commodities,
		})
		if len(batch) >= marketShardSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return shardID, nil
}

func openGzip(path string) (*gzip.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open gzip reader for %s: %w", path, err)
	}
	return gz, f, nil
}

func writeJSONFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
