package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cwester/era5fetch/internal/cds"
	"github.com/cwester/era5fetch/internal/era5"
	"github.com/cwester/era5fetch/internal/grid"
	"github.com/cwester/era5fetch/internal/store"
)

// Retriever fetches one dataset request into w. *cds.Client implements it.
type Retriever interface {
	Retrieve(ctx context.Context, dataset string, req cds.Request, w io.Writer) (int64, error)
}

// Status classifies the outcome of one month.
type Status int

const (
	StatusDownloaded Status = iota
	StatusSkipped
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result records the outcome of one month of the plan.
type Result struct {
	Month    era5.Month
	Status   Status
	Attempts int
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Plan is everything a run needs to know: where in space, when in time,
// and which variables.
type Plan struct {
	// Box must already be snapped outward to the grid.
	Box       grid.Box
	StartYear int
	EndYear   int

	// Variables is the CDS variable list; nil selects the default
	// surface set.
	Variables []string
}

// Months returns the download units of the plan in order.
func (p Plan) Months() []era5.Month {
	return era5.MonthsBetween(p.StartYear, p.EndYear)
}

// Request builds the retrieval request for one month of the plan.
func (p Plan) Request(m era5.Month) cds.Request {
	return era5.SurfaceRequest(p.Box, m, p.Variables)
}

// Options configures a Runner.
type Options struct {
	// Attempts is how many times a failing retrieval is tried per month.
	// Default: 10
	Attempts int

	// Logger receives operational logs. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Attempts: 10,
	}
}

// Runner executes a Plan strictly in order, one month at a time.
type Runner struct {
	client Retriever
	store  *store.Store
	opts   Options
	logger *slog.Logger
}

// NewRunner creates a Runner that retrieves through client and writes
// through st.
func NewRunner(client Retriever, st *store.Store, opts Options) *Runner {
	def := DefaultOptions()
	if opts.Attempts <= 0 {
		opts.Attempts = def.Attempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{client: client, store: st, opts: opts, logger: logger}
}

// Run walks the plan month by month and returns a Result per month.
// Months whose files exist are skipped; the rest are retrieved with up
// to Attempts tries each. Exhausted months are recorded as failed and
// the loop continues. Context cancellation and store failures end the
// run early with the results gathered so far.
func (r *Runner) Run(ctx context.Context, plan Plan) ([]Result, error) {
	months := plan.Months()
	results := make([]Result, 0, len(months))

	r.logger.Info("starting run",
		"months", len(months),
		"years", fmt.Sprintf("%d-%d", plan.StartYear, plan.EndYear),
		"area", plan.Box.Area(),
	)

	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := r.fetchMonth(ctx, plan, m)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	tally := Summarize(results)
	r.logger.Info("run complete",
		"downloaded", tally.Downloaded,
		"skipped", tally.Skipped,
		"failed", tally.Failed,
		"bytes", FormatBytes(tally.Bytes),
	)
	return results, nil
}

func (r *Runner) fetchMonth(ctx context.Context, plan Plan, m era5.Month) (Result, error) {
	key := m.FileName()

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if exists {
		r.logger.Info("skipping existing file", "file", key)
		return Result{Month: m, Status: StatusSkipped}, nil
	}

	req := plan.Request(m)
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= r.opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		n, err := r.attempt(ctx, key, req)
		if err == nil {
			res := Result{
				Month:    m,
				Status:   StatusDownloaded,
				Attempts: attempt,
				Bytes:    n,
				Duration: time.Since(start),
			}
			r.logger.Info("downloaded",
				"file", key,
				"size", FormatBytes(n),
				"attempts", attempt,
				"duration", FormatDuration(res.Duration),
			)
			return res, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}

		lastErr = err
		r.logger.Error("retrieval failed",
			"file", key,
			"attempt", attempt,
			"attempts", r.opts.Attempts,
			"error", err,
		)
	}

	r.logger.Error("giving up on month", "file", key, "attempts", r.opts.Attempts, "error", lastErr)
	return Result{
		Month:    m,
		Status:   StatusFailed,
		Attempts: r.opts.Attempts,
		Duration: time.Since(start),
		Err:      lastErr,
	}, nil
}

// attempt streams one retrieval into the store. The writer gets its own
// context so a failed attempt can be abandoned without committing a
// partial object.
func (r *Runner) attempt(ctx context.Context, key string, req cds.Request) (int64, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := r.store.NewWriter(wctx, key)
	if err != nil {
		return 0, err
	}

	n, err := r.client.Retrieve(ctx, era5.Dataset, req, w)
	if err != nil {
		cancel()
		w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("commit %s: %w", key, err)
	}
	return n, nil
}

// Tally counts results by status.
type Tally struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Summarize tallies results by status.
func Summarize(results []Result) Tally {
	var t Tally
	for _, res := range results {
		switch res.Status {
		case StatusDownloaded:
			t.Downloaded++
			t.Bytes += res.Bytes
		case StatusSkipped:
			t.Skipped++
		case StatusFailed:
			t.Failed++
		}
	}
	return t
}
