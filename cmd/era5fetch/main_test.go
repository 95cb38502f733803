package main

import "testing"

func TestRunDispatch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, ExitInvalidArgs},
		{"help", []string{"help"}, ExitSuccess},
		{"version", []string{"version"}, ExitSuccess},
		{"unknown command", []string{"frobnicate"}, ExitInvalidArgs},
		{"fetch without config", []string{"fetch"}, ExitInvalidArgs},
		{"plan without config", []string{"plan"}, ExitInvalidArgs},
		{"describe without file", []string{"describe"}, ExitInvalidArgs},
		{"fetch with missing control file", []string{"fetch", "-config", "/nonexistent/control.txt"}, ExitConfigError},
		{"describe with missing file", []string{"describe", "-file", "/nonexistent.nc"}, ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}
