//go:build integration

package store_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	_ "gocloud.dev/blob/s3blob"

	"github.com/cwester/era5fetch/internal/store"
	"github.com/cwester/era5fetch/internal/testutils"
)

func TestIntegrationStoreOnMinio(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	t.Log("Starting Minio container...")
	env := testutils.StartMinioContainer(t, ctx, "forcing-raw")
	defer func() {
		if err := env.Close(ctx); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	}()

	st, err := env.OpenStore(ctx)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	key := "ERA5_surface_200801.nc"
	payload := []byte("netcdf bytes on object storage")

	exists, err := st.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists before write: %v", err)
	}
	if exists {
		t.Fatalf("fresh bucket already has %s", key)
	}

	if err := st.WriteAll(ctx, key, payload); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	exists, err = st.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists after write: %v", err)
	}
	if !exists {
		t.Fatalf("expected %s to exist after write", key)
	}

	got, err := st.ReadAll(ctx, key)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back %d bytes, want %d", len(got), len(payload))
	}

	// Keys under the provenance prefix behave like any other key.
	logKey := "_workflow_log/era5fetch_log_20260822.txt"
	if err := st.WriteAll(ctx, logKey, []byte("run entry\n")); err != nil {
		t.Fatalf("WriteAll %s: %v", logKey, err)
	}
	if _, err := st.ReadAll(ctx, logKey); err != nil {
		t.Fatalf("ReadAll %s: %v", logKey, err)
	}

	// Missing keys report cleanly.
	if _, err := st.ReadAll(ctx, "ERA5_surface_190001.nc"); !store.IsNotExist(err) {
		t.Fatalf("expected IsNotExist for a missing key, got %v", err)
	}
}
