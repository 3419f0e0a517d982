package storage

import (
	"testing"
	"time"
)

func TestBuildExportPath(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 23, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildExportPath("seed-42", "historical_data", ts)
	if err != nil {
		t.Fatalf("BuildExportPath() error = %v", err)
	}
	want := "date=2026-02-20/run=seed-42/historical_data.parquet"
	if key != want {
		t.Fatalf("BuildExportPath() = %q, want %q", key, want)
	}
}

func TestBuildExportPathRejectsInvalidInput(t *testing.T) {
	if _, err := BuildExportPath("../oops", "historical_data", time.Now()); err == nil {
		t.Fatal("expected invalid run id error")
	}
	if _, err := BuildExportPath("run-1", "a/b", time.Now()); err == nil {
		t.Fatal("expected invalid table name error")
	}
	if _, err := BuildExportPath("run-1", "historical_data", time.Time{}); err == nil {
		t.Fatal("expected missing time error")
	}
}
