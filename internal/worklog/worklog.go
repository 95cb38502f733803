package worklog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwester/era5fetch/internal/fetch"
	"github.com/cwester/era5fetch/internal/store"
)

// Dir is the store prefix that holds provenance records.
const Dir = "_workflow_log"

// Record describes one completed run.
type Record struct {
	Tool        string
	Version     string
	Started     time.Time
	Finished    time.Time
	ControlFile string
	Area        string
	DateRange   string
	Variables   []string
	Results     []fetch.Result
}

// Write stores the provenance records for one run: a copy of the
// control file that drove it, an entry in the dated run log, and a
// YAML manifest of the run's results.
func Write(ctx context.Context, st *store.Store, rec Record) error {
	if rec.ControlFile != "" {
		if err := copyControlFile(ctx, st, rec.ControlFile); err != nil {
			return fmt.Errorf("copy control file: %w", err)
		}
	}
	if err := appendLog(ctx, st, rec); err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	if err := writeManifest(ctx, st, rec); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func copyControlFile(ctx context.Context, st *store.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return st.WriteAll(ctx, Dir+"/"+filepath.Base(path), data)
}

func appendLog(ctx context.Context, st *store.Store, rec Record) error {
	key := fmt.Sprintf("%s/%s_log_%s.txt", Dir, rec.Tool, rec.Started.Format("20060102"))

	existing, err := st.ReadAll(ctx, key)
	if err != nil && !store.IsNotExist(err) {
		return err
	}

	var buf bytes.Buffer
	buf.Write(existing)
	buf.WriteString(logEntry(rec))
	return st.WriteAll(ctx, key, buf.Bytes())
}

func logEntry(rec Record) string {
	tally := fetch.Summarize(rec.Results)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== %s %s %s\n", rec.Started.Format(time.RFC3339), rec.Tool, rec.Version)
	if rec.ControlFile != "" {
		fmt.Fprintf(&buf, "control file: %s\n", filepath.Base(rec.ControlFile))
	}
	fmt.Fprintf(&buf, "area: %s\n", rec.Area)
	fmt.Fprintf(&buf, "dates: %s\n", rec.DateRange)
	fmt.Fprintf(&buf, "months: %d downloaded, %d skipped, %d failed (%s in %s)\n",
		tally.Downloaded, tally.Skipped, tally.Failed,
		fetch.FormatBytes(tally.Bytes),
		fetch.FormatDuration(rec.Finished.Sub(rec.Started)),
	)
	for _, res := range rec.Results {
		if res.Status != fetch.StatusFailed {
			continue
		}
		fmt.Fprintf(&buf, "failed: %s after %d attempts: %v\n", res.Month.FileName(), res.Attempts, res.Err)
	}
	return buf.String()
}

type manifest struct {
	Tool        string        `yaml:"tool"`
	Version     string        `yaml:"version"`
	Started     time.Time     `yaml:"started"`
	Finished    time.Time     `yaml:"finished"`
	ControlFile string        `yaml:"control_file,omitempty"`
	Area        string        `yaml:"area"`
	DateRange   string        `yaml:"date_range"`
	Variables   []string      `yaml:"variables,omitempty"`
	Months      []monthResult `yaml:"months"`
}

type monthResult struct {
	File     string `yaml:"file"`
	Status   string `yaml:"status"`
	Attempts int    `yaml:"attempts,omitempty"`
	Size     int64  `yaml:"size,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

func writeManifest(ctx context.Context, st *store.Store, rec Record) error {
	m := manifest{
		Tool:      rec.Tool,
		Version:   rec.Version,
		Started:   rec.Started,
		Finished:  rec.Finished,
		Area:      rec.Area,
		DateRange: rec.DateRange,
		Variables: rec.Variables,
	}
	if rec.ControlFile != "" {
		m.ControlFile = filepath.Base(rec.ControlFile)
	}
	for _, res := range rec.Results {
		mr := monthResult{
			File:     res.Month.FileName(),
			Status:   res.Status.String(),
			Attempts: res.Attempts,
			Size:     res.Bytes,
		}
		if res.Err != nil {
			mr.Error = res.Err.Error()
		}
		m.Months = append(m.Months, mr)
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s/manifest_%s.yaml", Dir, rec.Started.Format("20060102"))
	return st.WriteAll(ctx, key, data)
}
