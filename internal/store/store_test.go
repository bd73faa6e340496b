package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndGetConversion(t *testing.T) {
	db := testDB(t)

	c := Conversion{
		JobID:      "job-1",
		Mode:       "heightmap",
		Source:     "photo.png",
		Files:      []string{"heightmap_job-1.stl"},
		Vertices:   20000,
		Faces:      39996,
		WidthMM:    99,
		DepthMM:    99,
		HeightMM:   12,
		DurationMS: 130,
	}
	if err := db.RecordConversion(c); err != nil {
		t.Fatalf("RecordConversion failed: %v", err)
	}

	got, err := db.GetConversion("job-1")
	if err != nil {
		t.Fatalf("GetConversion failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected conversion, got nil")
	}
	if got.Mode != c.Mode || got.Source != c.Source {
		t.Errorf("got mode=%q source=%q, want %q %q", got.Mode, got.Source, c.Mode, c.Source)
	}
	if got.Vertices != c.Vertices || got.Faces != c.Faces {
		t.Errorf("got counts %d/%d, want %d/%d", got.Vertices, got.Faces, c.Vertices, c.Faces)
	}
	if diff := cmp.Diff(c.Files, got.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not populated")
	}
}

func TestGetConversionMissing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetConversion("nope")
	if err != nil {
		t.Fatalf("GetConversion failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing job, got %+v", got)
	}
}

func TestListConversions(t *testing.T) {
	db := testDB(t)

	for i, mode := range []string{"braille", "qr", "topo"} {
		err := db.RecordConversion(Conversion{
			JobID:      string(rune('a' + i)),
			Mode:       mode,
			Files:      []string{mode + ".stl"},
			DurationMS: int64(i),
		})
		if err != nil {
			t.Fatalf("RecordConversion failed: %v", err)
		}
	}

	list, err := db.ListConversions(10)
	if err != nil {
		t.Fatalf("ListConversions failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d conversions, want 3", len(list))
	}
	// Newest first; timestamps share a second so job_id DESC breaks the tie.
	if list[0].Mode != "topo" {
		t.Errorf("first entry mode = %q, want topo", list[0].Mode)
	}

	list, err = db.ListConversions(2)
	if err != nil {
		t.Fatalf("ListConversions failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d conversions with limit 2", len(list))
	}
}

func TestListConversionsEmpty(t *testing.T) {
	db := testDB(t)

	list, err := db.ListConversions(0)
	if err != nil {
		t.Fatalf("ListConversions failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d entries", len(list))
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := testDB(t)

	// Relative to this package's directory.
	dir := filepath.Join("..", "..", "migrations")

	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("database dirty after MigrateUp")
	}
	if version == 0 {
		t.Error("version still 0 after MigrateUp")
	}

	if err := db.MigrateDown(dir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
}

func TestRecordConversionTimestampRecent(t *testing.T) {
	db := testDB(t)

	if err := db.RecordConversion(Conversion{JobID: "t", Mode: "depth"}); err != nil {
		t.Fatalf("RecordConversion failed: %v", err)
	}
	got, err := db.GetConversion("t")
	if err != nil {
		t.Fatalf("GetConversion failed: %v", err)
	}
	if time.Since(got.Timestamp.UTC()) > time.Hour {
		t.Errorf("timestamp %v too far in the past", got.Timestamp)
	}
}
