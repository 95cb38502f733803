package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenLocalDirCreatesIt(t *testing.T) {
	ctx := context.Background()
	target := filepath.Join(t.TempDir(), "forcing", "raw")

	st, err := Open(ctx, target)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	data := []byte("one month of data")
	if err := st.WriteAll(ctx, "ERA5_surface_200801.nc", data); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	// The object must land as a bare file under the requested directory.
	got, err := os.ReadFile(filepath.Join(target, "ERA5_surface_200801.nc"))
	if err != nil {
		t.Fatalf("read file from disk: %v", err)
	}
	if string(got) != string(data) {
		t.Error("file contents mismatch")
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single file, found %d entries", len(entries))
	}
}

func TestSubdirectoryKeys(t *testing.T) {
	ctx := context.Background()
	target := t.TempDir()

	st, err := Open(ctx, target)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if err := st.WriteAll(ctx, "_workflow_log/era5fetch_log_20080101.txt", []byte("log line\n")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	if _, err := os.Stat(filepath.Join(target, "_workflow_log", "era5fetch_log_20080101.txt")); err != nil {
		t.Errorf("expected log file under _workflow_log: %v", err)
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, "mem://")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	exists, err := st.Exists(ctx, "ERA5_surface_200802.nc")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("expected missing key to not exist")
	}

	if err := st.WriteAll(ctx, "ERA5_surface_200802.nc", []byte("x")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	exists, err = st.Exists(ctx, "ERA5_surface_200802.nc")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("expected written key to exist")
	}
}

func TestAbandonedWriterCommitsNothing(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, "mem://")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	wctx, cancel := context.WithCancel(ctx)
	w, err := st.NewWriter(wctx, "ERA5_surface_200803.nc")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write([]byte("partial")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cancel()
	if err := w.Close(); err == nil {
		t.Error("expected Close to fail after cancel")
	}

	exists, err := st.Exists(ctx, "ERA5_surface_200803.nc")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("abandoned writer left an object behind")
	}
}

func TestReadAllMissing(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, "mem://")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	_, err = st.ReadAll(ctx, "nope.txt")
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if !IsNotExist(err) {
		t.Errorf("expected IsNotExist to recognize %v", err)
	}
}

func TestOpenUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "bogus://bucket"); err == nil {
		t.Error("expected error for unknown scheme")
	}
}
