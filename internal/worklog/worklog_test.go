package worklog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwester/era5fetch/internal/era5"
	"github.com/cwester/era5fetch/internal/fetch"
	"github.com/cwester/era5fetch/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testRecord(t *testing.T, started time.Time) Record {
	t.Helper()

	controlFile := filepath.Join(t.TempDir(), "control_active.txt")
	content := "root_path | /data/hydro # base path for the domain\n"
	if err := os.WriteFile(controlFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write control file: %v", err)
	}

	return Record{
		Tool:        "era5fetch",
		Version:     "0.3.0",
		Started:     started,
		Finished:    started.Add(90 * time.Second),
		ControlFile: controlFile,
		Area:        "51.75/-116.5/51/-115.5",
		DateRange:   "2008-01-01/2008-12-31",
		Results: []fetch.Result{
			{Month: era5.Month{Year: 2008, Month: time.January}, Status: fetch.StatusDownloaded, Attempts: 1, Bytes: 2048},
			{Month: era5.Month{Year: 2008, Month: time.February}, Status: fetch.StatusSkipped},
			{Month: era5.Month{Year: 2008, Month: time.March}, Status: fetch.StatusFailed, Attempts: 10, Err: errors.New("connection reset")},
		},
	}
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	started := time.Date(2026, time.August, 22, 10, 0, 0, 0, time.UTC)
	rec := testRecord(t, started)

	if err := Write(ctx, st, rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// The control file is copied under the log prefix.
	copied, err := st.ReadAll(ctx, Dir+"/control_active.txt")
	if err != nil {
		t.Fatalf("read copied control file: %v", err)
	}
	if !strings.Contains(string(copied), "root_path") {
		t.Errorf("copied control file lost its content: %q", copied)
	}

	// The dated log describes the run.
	log, err := st.ReadAll(ctx, Dir+"/era5fetch_log_20260822.txt")
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	for _, want := range []string{
		"era5fetch 0.3.0",
		"control file: control_active.txt",
		"area: 51.75/-116.5/51/-115.5",
		"dates: 2008-01-01/2008-12-31",
		"months: 1 downloaded, 1 skipped, 1 failed (2.00 KB in 1m 30s)",
		"failed: ERA5_surface_200803.nc after 10 attempts: connection reset",
	} {
		if !strings.Contains(string(log), want) {
			t.Errorf("log entry missing %q:\n%s", want, log)
		}
	}

	// The manifest round-trips through YAML.
	raw, err := st.ReadAll(ctx, Dir+"/manifest_20260822.yaml")
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if m.Tool != "era5fetch" || m.Version != "0.3.0" {
		t.Errorf("unexpected tool in manifest: %s %s", m.Tool, m.Version)
	}
	if m.ControlFile != "control_active.txt" {
		t.Errorf("expected control file base name, got %q", m.ControlFile)
	}
	if len(m.Months) != 3 {
		t.Fatalf("expected 3 months in manifest, got %d", len(m.Months))
	}
	if m.Months[0].File != "ERA5_surface_200801.nc" || m.Months[0].Status != "downloaded" {
		t.Errorf("unexpected first month: %+v", m.Months[0])
	}
	if m.Months[2].Status != "failed" || m.Months[2].Error != "connection reset" {
		t.Errorf("unexpected failed month: %+v", m.Months[2])
	}
}

func TestWriteAppendsWithinTheSameDay(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	started := time.Date(2026, time.August, 22, 10, 0, 0, 0, time.UTC)
	if err := Write(ctx, st, testRecord(t, started)); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := Write(ctx, st, testRecord(t, started.Add(4*time.Hour))); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	log, err := st.ReadAll(ctx, Dir+"/era5fetch_log_20260822.txt")
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if got := strings.Count(string(log), "=== "); got != 2 {
		t.Errorf("expected 2 log entries, got %d:\n%s", got, log)
	}
}

func TestWriteMissingControlFile(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	rec := testRecord(t, time.Now())
	rec.ControlFile = filepath.Join(t.TempDir(), "missing.txt")

	if err := Write(ctx, st, rec); err == nil {
		t.Error("expected error for missing control file")
	}
}

func TestWriteWithoutControlFile(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)

	rec := testRecord(t, time.Date(2026, time.August, 22, 10, 0, 0, 0, time.UTC))
	rec.ControlFile = ""

	if err := Write(ctx, st, rec); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := st.ReadAll(ctx, Dir+"/era5fetch_log_20260822.txt"); err != nil {
		t.Errorf("expected run log even without a control file: %v", err)
	}
}
