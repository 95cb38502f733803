package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwester/era5fetch/internal/config"
	"github.com/cwester/era5fetch/internal/era5"
	"github.com/cwester/era5fetch/internal/fetch"
	"github.com/cwester/era5fetch/internal/store"
)

// runPlan resolves the control file and lists what a fetch would do,
// without contacting the retrieval service. Credentials are not needed.
func runPlan(args []string) int {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to the control file (required)")
	storeURL := fs.String("store", "", "Destination store URL (default: forcing path from the control file)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: era5fetch plan [options]

Resolve the control file and list the months a fetch would download,
marking those whose files already exist at the destination.

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

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading control file: %v\n", err)
		return ExitConfigError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	destination := cfg.ForcingPath
	if *storeURL != "" {
		destination = *storeURL
	}

	ctx := context.Background()
	st, err := store.Open(ctx, destination)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return ExitStorageError
	}
	defer st.Close()

	plan := fetch.Plan{
		Box:       cfg.Box.SnapOut(),
		StartYear: cfg.StartYear,
		EndYear:   cfg.EndYear,
		Variables: cfg.Variables,
	}
	months := plan.Months()

	variables := cfg.Variables
	if variables == nil {
		variables = era5.DefaultVariables
	}

	fmt.Printf("Control file: %s\n", cfg.ControlFile)
	fmt.Printf("Destination:  %s\n", st.URL())
	fmt.Printf("Years:        %d-%d (%d months)\n", cfg.StartYear, cfg.EndYear, len(months))
	fmt.Printf("Domain box:   %s\n", cfg.Box.Area())
	fmt.Printf("Request area: %s\n", plan.Box.Area())
	fmt.Printf("Variables:    %s\n", strings.Join(variables, ", "))
	fmt.Printf("Attempts:     %d per month\n", cfg.Retry.Attempts)
	fmt.Println()

	toFetch := 0
	for _, m := range months {
		exists, err := st.Exists(ctx, m.FileName())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking %s: %v\n", m.FileName(), err)
			return ExitStorageError
		}

		status := "download"
		if exists {
			status = "exists, will skip"
		} else {
			toFetch++
		}
		fmt.Printf("  %s  %s  %s\n", m.FileName(), m.DateRange(), status)
	}

	fmt.Println()
	fmt.Printf("%d of %d months to download\n", toFetch, len(months))

	return ExitSuccess
}
