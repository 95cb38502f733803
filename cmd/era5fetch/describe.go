package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwester/era5fetch/internal/era5"
)

// runDescribe opens a downloaded NetCDF file and reports its grid
// shape, time span, and variables.
func runDescribe(args []string) int {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)

	file := fs.String("file", "", "Path to a downloaded NetCDF file (required)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: era5fetch describe [options]

Summarize a downloaded ERA5 NetCDF file: grid shape, time span, and
the surface variables it carries.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	s, err := era5.Summarize(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	fmt.Printf("File: %s\n", s.Path)
	fmt.Printf("Grid: %d latitudes x %d longitudes\n", s.Latitudes, s.Longitudes)
	fmt.Printf("Steps: %d hourly\n", s.Steps)
	fmt.Printf("Range: %s to %s\n",
		s.Start.Format("2006-01-02 15:04"), s.End.Format("2006-01-02 15:04"))
	fmt.Printf("Variables: %s\n", strings.Join(s.Variables, ", "))

	return ExitSuccess
}
