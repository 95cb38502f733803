package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/cwester/era5fetch/internal/cds"
	"github.com/cwester/era5fetch/internal/config"
	"github.com/cwester/era5fetch/internal/fetch"
	"github.com/cwester/era5fetch/internal/store"
	"github.com/cwester/era5fetch/internal/worklog"
)

// runFetch downloads the configured ERA5 months into the destination
// store, skipping files that already exist, and records provenance
// under _workflow_log/.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to the control file (required)")
	storeURL := fs.String("store", "", "Destination store URL (default: forcing path from the control file)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: era5fetch fetch [options]

Download ERA5 monthly surface files for the domain and years named in
the control file. Months whose files already exist are skipped, so an
interrupted run can simply be started again.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	// A local .env may carry CDSAPI_URL / CDSAPI_KEY during development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading control file: %v\n", err)
		return ExitConfigError
	}
	if err := cfg.LoadCredentials(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading credentials: %v\n", err)
		return ExitConfigError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}
	if err := cfg.ValidateCredentials(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	destination := cfg.ForcingPath
	if *storeURL != "" {
		destination = *storeURL
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[era5fetch] Received interrupt, shutting down...")
		cancel()
	}()

	st, err := store.Open(ctx, destination)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return ExitStorageError
	}
	defer st.Close()

	client, err := cds.NewClient(cds.Options{
		URL: cfg.Credentials.URL,
		Key: cfg.Credentials.Key,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	runner := fetch.NewRunner(client, st, fetch.Options{
		Attempts: cfg.Retry.Attempts,
		Logger:   logger,
	})

	plan := fetch.Plan{
		Box:       cfg.Box.SnapOut(),
		StartYear: cfg.StartYear,
		EndYear:   cfg.EndYear,
		Variables: cfg.Variables,
	}

	started := time.Now()
	results, runErr := runner.Run(ctx, plan)
	finished := time.Now()

	// Provenance is written even for an interrupted run, so the log
	// shows how far it got. The run context may already be canceled.
	rec := worklog.Record{
		Tool:        toolName,
		Version:     toolVersion,
		Started:     started,
		Finished:    finished,
		ControlFile: cfg.ControlFile,
		Area:        plan.Box.Area(),
		DateRange:   fmt.Sprintf("%04d-01-01/%04d-12-31", cfg.StartYear, cfg.EndYear),
		Variables:   cfg.Variables,
		Results:     results,
	}
	if err := worklog.Write(context.Background(), st, rec); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing provenance log: %v\n", err)
		return ExitStorageError
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintf(os.Stderr, "[era5fetch] Interrupted after %d of %d months\n",
				len(results), len(plan.Months()))
			return ExitInterrupted
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return ExitStorageError
	}

	tally := fetch.Summarize(results)
	fmt.Printf("Destination: %s\n", st.URL())
	fmt.Printf("Months: %d downloaded, %d skipped, %d failed\n",
		tally.Downloaded, tally.Skipped, tally.Failed)
	fmt.Printf("Transferred: %s in %s\n",
		fetch.FormatBytes(tally.Bytes), fetch.FormatDuration(finished.Sub(started)))

	if tally.Failed > 0 {
		for _, res := range results {
			if res.Status != fetch.StatusFailed {
				continue
			}
			fmt.Fprintf(os.Stderr, "Failed: %s after %d attempts: %v\n",
				res.Month.FileName(), res.Attempts, res.Err)
		}
		return ExitFetchIncomplete
	}

	return ExitSuccess
}
