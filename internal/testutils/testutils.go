//go:build integration

// Package testutils provides shared test infrastructure for integration tests.
package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cwester/era5fetch/internal/store"
)

// FakeCDSOptions configures the fake retrieval service.
type FakeCDSOptions struct {
	// PollsUntilReady is how many status polls a task stays queued for
	// before it completes. Zero makes tasks complete at submit time, which
	// keeps tests from waiting out the client's poll interval.
	PollsUntilReady int

	// Payload is served as every task's result.
	Payload []byte
}

// FakeCDS is an in-process stand-in for the Copernicus retrieval API.
// It accepts any retrieval request on any dataset and serves the
// configured payload as the result. Requests without HTTP basic auth
// are rejected.
type FakeCDS struct {
	Server *httptest.Server

	opts  FakeCDSOptions
	mu    sync.Mutex
	polls map[string]int
	subs  int
}

// StartFakeCDS starts a fake retrieval service. The server is torn down
// when the test finishes.
func StartFakeCDS(t *testing.T, opts FakeCDSOptions) *FakeCDS {
	t.Helper()

	f := &FakeCDS{
		opts:  opts,
		polls: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /resources/", func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		f.subs++
		id := fmt.Sprintf("task-%d", f.subs)
		f.polls[id] = 0
		f.mu.Unlock()

		json.NewEncoder(w).Encode(f.taskDoc(id, 0))
	})
	mux.HandleFunc("GET /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		id := r.PathValue("id")
		f.mu.Lock()
		if _, known := f.polls[id]; !known {
			f.mu.Unlock()
			http.NotFound(w, r)
			return
		}
		f.polls[id]++
		seen := f.polls[id]
		f.mu.Unlock()

		json.NewEncoder(w).Encode(f.taskDoc(id, seen))
	})
	mux.HandleFunc("GET /download/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(f.opts.Payload)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the endpoint to hand to a client.
func (f *FakeCDS) URL() string {
	return f.Server.URL
}

// Submits reports how many retrieval requests the service accepted.
func (f *FakeCDS) Submits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs
}

// taskDoc builds the status document for a task that has been polled
// seen times. The result location is deliberately relative: real
// deployments hand out both forms and clients must cope.
func (f *FakeCDS) taskDoc(id string, seen int) map[string]string {
	doc := map[string]string{
		"state":      "queued",
		"request_id": id,
	}
	if seen >= f.opts.PollsUntilReady {
		doc["state"] = "completed"
		doc["location"] = "/download/" + id + ".nc"
	}
	return doc
}

// MinioEnv contains connection information for a Minio test environment.
type MinioEnv struct {
	Container testcontainers.Container
	StoreURL  string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Close terminates the Minio container.
func (e *MinioEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// OpenStore opens a store backed by the Minio environment.
func (e *MinioEnv) OpenStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, e.StoreURL)
}

// StartMinioContainer starts a Minio container with a pre-created bucket
// and returns connection information for it.
func StartMinioContainer(t *testing.T, ctx context.Context, bucketName string) *MinioEnv {
	t.Helper()

	const (
		accessKey = "minioadmin"
		secretKey = "minioadmin"
	)

	// Minio and the mc bootstrap container need a shared network.
	networkName := fmt.Sprintf("era5fetch-test-net-%d", time.Now().UnixNano())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name: networkName,
		},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { network.Remove(ctx) })

	minioReq := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Networks:     []string{networkName},
		NetworkAliases: map[string][]string{
			networkName: {"minio"},
		},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
	}

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: minioReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}

	createBucketWithMC(t, ctx, networkName, accessKey, secretKey, bucketName)

	host, err := minioContainer.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}

	port, err := minioContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	storeURL := fmt.Sprintf("s3://%s?endpoint=http://%s&use_path_style=true&disable_https=true&region=us-east-1",
		bucketName,
		endpoint,
	)

	// gocloud's s3blob reads credentials from the environment.
	t.Setenv("AWS_ACCESS_KEY_ID", accessKey)
	t.Setenv("AWS_SECRET_ACCESS_KEY", secretKey)

	return &MinioEnv{
		Container: minioContainer,
		StoreURL:  storeURL,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}

// createBucketWithMC creates a bucket using a one-shot minio/mc container.
func createBucketWithMC(t *testing.T, ctx context.Context, networkName, accessKey, secretKey, bucketName string) {
	t.Helper()

	mcReq := testcontainers.ContainerRequest{
		Image:      "minio/mc:latest",
		Networks:   []string{networkName},
		Entrypoint: []string{"/bin/sh", "-c"},
		Cmd: []string{
			fmt.Sprintf(
				"/usr/bin/mc config host add myminio http://minio:9000 %s %s && "+
					"/usr/bin/mc mb myminio/%s; "+
					"exit 0",
				accessKey, secretKey, bucketName,
			),
		},
		WaitingFor: wait.ForExit(),
	}

	mcContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: mcReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mc container: %v", err)
	}
	defer mcContainer.Terminate(ctx)
}
