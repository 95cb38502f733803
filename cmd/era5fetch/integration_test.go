//go:build integration

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwester/era5fetch/internal/testutils"
)

func writeControlFile(t *testing.T, dir, forcingPath string) string {
	t.Helper()

	content := fmt.Sprintf(`# Control file for the integration domain

root_path          | %s # Root folder where the domain lives
domain_name        | integration # Name of the domain
forcing_raw_path   | %s # Destination for raw forcing files
forcing_raw_time   | 2008,2008 # Years to download, comma separated
forcing_raw_space  | 51.6/-116.4/51.1/-115.6 # Bounding box, lat_max/lon_min/lat_min/lon_max
retry_attempts     | 2 # Download attempts per month
`, dir, forcingPath)

	path := filepath.Join(dir, "control_active.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write control file: %v", err)
	}
	return path
}

func TestIntegrationFetchEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	payload := []byte("pretend this is a month of netcdf")
	fake := testutils.StartFakeCDS(t, testutils.FakeCDSOptions{Payload: payload})

	dir := t.TempDir()
	forcing := filepath.Join(dir, "forcing", "raw")
	controlFile := writeControlFile(t, dir, forcing)

	t.Setenv("HOME", dir) // keep any real ~/.cdsapirc out of the test
	t.Setenv("CDSAPI_URL", fake.URL())
	t.Setenv("CDSAPI_KEY", "1234:secret")

	if code := run([]string{"fetch", "-config", controlFile}); code != ExitSuccess {
		t.Fatalf("fetch exited %d, want %d", code, ExitSuccess)
	}
	if got := fake.Submits(); got != 12 {
		t.Errorf("expected 12 retrievals, got %d", got)
	}

	// Twelve plain files land at the destination.
	data, err := os.ReadFile(filepath.Join(forcing, "ERA5_surface_200802.nc"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("unexpected file contents: %q", data)
	}

	// Provenance sits next to the data.
	if _, err := os.Stat(filepath.Join(forcing, "_workflow_log", "control_active.txt")); err != nil {
		t.Errorf("control file copy missing: %v", err)
	}
	logs, err := filepath.Glob(filepath.Join(forcing, "_workflow_log", "era5fetch_log_*.txt"))
	if err != nil || len(logs) != 1 {
		t.Errorf("expected one run log, got %v", logs)
	}
	manifests, err := filepath.Glob(filepath.Join(forcing, "_workflow_log", "manifest_*.yaml"))
	if err != nil || len(manifests) != 1 {
		t.Errorf("expected one manifest, got %v", manifests)
	}

	// A second run contacts the service for nothing.
	if code := run([]string{"fetch", "-config", controlFile}); code != ExitSuccess {
		t.Fatalf("second fetch exited %d, want %d", code, ExitSuccess)
	}
	if got := fake.Submits(); got != 12 {
		t.Errorf("expected no new retrievals on re-run, got %d total", got)
	}
}

func TestIntegrationPlan(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	forcing := filepath.Join(dir, "forcing", "raw")
	controlFile := writeControlFile(t, dir, forcing)

	// Plan needs no credentials and no service.
	if code := run([]string{"plan", "-config", controlFile}); code != ExitSuccess {
		t.Fatalf("plan exited %d, want %d", code, ExitSuccess)
	}

	// Seed one month, then plan again: still fine, one fewer to fetch.
	if err := os.WriteFile(filepath.Join(forcing, "ERA5_surface_200801.nc"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}
	if code := run([]string{"plan", "-config", controlFile}); code != ExitSuccess {
		t.Fatalf("plan with existing file exited %d, want %d", code, ExitSuccess)
	}
}
