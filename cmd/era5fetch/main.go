package main

import (
	"fmt"
	"os"
)

const (
	toolName    = "era5fetch"
	toolVersion = "0.3.0"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitInvalidArgs     = 2
	ExitConfigError     = 3
	ExitStorageError    = 4
	ExitFetchIncomplete = 5
	ExitInterrupted     = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "fetch":
		return runFetch(cmdArgs)
	case "plan":
		return runPlan(cmdArgs)
	case "describe":
		return runDescribe(cmdArgs)
	case "version":
		fmt.Printf("%s %s\n", toolName, toolVersion)
		return ExitSuccess
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: era5fetch <command> [options]

Commands:
  fetch     Download ERA5 monthly surface files for the configured domain
  plan      Show what a fetch would do without contacting the service
  describe  Summarize a downloaded NetCDF file
  version   Print the tool version

Run 'era5fetch <command> -h' for command-specific help.`)
}
