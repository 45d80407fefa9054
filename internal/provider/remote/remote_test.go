package remote

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradelane/internal/db"
)

func TestWriteJSONFile_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	type record struct {
		Name string `json:"name"`
	}
	if err := writeJSONFile(path, []record{{Name: "Alpha"}, {Name: "Beta"}}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("writeJSONFile wrote nothing")
	}
}

func TestOpenGzip_ReadsBackWhatWasWritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.json.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte(`[{"id":1}]`)); err != nil {
		t.Fatal(err)
	}
	gw.Close()
	f.Close()

	gz, raw, err := openGzip(path)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()
	defer gz.Close()

	buf := make([]byte, 64)
	n, _ := gz.Read(buf)
	if n == 0 {
		t.Fatal("expected to read decompressed bytes")
	}
}

func TestSyncer_IsFresh(t *testing.T) {
	dir := t.TempDir()
	state, err := db.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	s := New(dir, filepath.Join(dir, "raw"), state)

	fresh, err := s.isFresh(collPopulated)
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Error("a never-synced collection should not be fresh")
	}

	if err := state.PutSyncState(db.SyncState{Collection: collPopulated, SyncedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	fresh, err = s.isFresh(collPopulated)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Error("a just-synced collection should be fresh")
	}
}
