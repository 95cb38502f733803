package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Common errors.
var (
	ErrUnauthorized = errors.New("cds: unauthorized")
	ErrForbidden    = errors.New("cds: access forbidden")
	ErrNotFound     = errors.New("cds: resource not found")
	ErrServerError  = errors.New("cds: server error")
	ErrTaskFailed   = errors.New("cds: retrieval task failed")
)

// Request describes one retrieval from a CDS dataset. Field names follow
// the service's JSON request schema.
type Request struct {
	ProductType string   `json:"product_type"`
	Format      string   `json:"format"`
	Variables   []string `json:"variable"`
	Date        string   `json:"date"`
	Time        []string `json:"time"`
	Area        string   `json:"area"`
	Grid        string   `json:"grid"`
}

// Options configures the CDS client.
type Options struct {
	// URL is the API endpoint, e.g. https://cds.climate.copernicus.eu/api/v2.
	URL string

	// Key is the account credential in "uid:key" form, as issued by the
	// service.
	Key string

	// PollInterval is how often a queued task is checked.
	// Default: 2s
	PollInterval time.Duration

	// RequestTimeout bounds the submit and poll calls. Result downloads
	// are bounded only by the caller's context.
	// Default: 30s
	RequestTimeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 4
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		PollInterval:        2 * time.Second,
		RequestTimeout:      30 * time.Second,
		MaxIdleConnsPerHost: 4,
	}
}

// Client submits retrieval requests and downloads their results. It
// performs no retries of its own.
type Client struct {
	client *http.Client
	opts   Options
	uid    string
	key    string
}

// NewClient creates a CDS client with the given options.
func NewClient(opts Options) (*Client, error) {
	def := DefaultOptions()
	if opts.PollInterval == 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = def.RequestTimeout
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}

	if opts.URL == "" {
		return nil, errors.New("cds: endpoint URL is required")
	}
	uid, key, found := strings.Cut(opts.Key, ":")
	if !found || uid == "" || key == "" {
		return nil, errors.New(`cds: key must have the form "uid:key"`)
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
		uid:    uid,
		key:    key,
	}, nil
}

// task is the service's task-status document.
type task struct {
	State     string    `json:"state"`
	RequestID string    `json:"request_id"`
	Location  string    `json:"location"`
	Error     taskError `json:"error"`
}

type taskError struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

func (e taskError) String() string {
	switch {
	case e.Message == "" && e.Reason == "":
		return "no error detail from service"
	case e.Reason == "":
		return e.Message
	case e.Message == "":
		return e.Reason
	default:
		return e.Message + ": " + e.Reason
	}
}

// Retrieve downloads one dataset request into w, blocking until the
// service has prepared and served the result. It returns the number of
// bytes written.
func (c *Client) Retrieve(ctx context.Context, dataset string, req Request, w io.Writer) (int64, error) {
	t, err := c.submit(ctx, dataset, req)
	if err != nil {
		return 0, err
	}
	t, err = c.await(ctx, t)
	if err != nil {
		return 0, err
	}
	return c.download(ctx, t.Location, w)
}

// submit posts the request document and returns the initial task state.
func (c *Client) submit(ctx context.Context, dataset string, req Request) (task, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return task{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.opts.URL+"/resources/"+dataset, bytes.NewReader(body))
	if err != nil {
		return task{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var t task
	if err := c.do(httpReq, &t); err != nil {
		return task{}, fmt.Errorf("submit %s: %w", dataset, err)
	}
	return t, nil
}

// await polls the task until it completes or fails.
func (c *Client) await(ctx context.Context, t task) (task, error) {
	for {
		switch t.State {
		case "completed":
			return t, nil
		case "failed":
			return task{}, fmt.Errorf("%w: %s", ErrTaskFailed, t.Error)
		}

		select {
		case <-ctx.Done():
			return task{}, ctx.Err()
		case <-time.After(c.opts.PollInterval):
		}

		req, err := c.newRequest(ctx, http.MethodGet, c.opts.URL+"/tasks/"+url.PathEscape(t.RequestID), nil)
		if err != nil {
			return task{}, err
		}

		var latest task
		if err := c.do(req, &latest); err != nil {
			return task{}, fmt.Errorf("poll task %s: %w", t.RequestID, err)
		}
		if latest.RequestID == "" {
			latest.RequestID = t.RequestID
		}
		t = latest
	}
}

// download streams the completed result into w.
func (c *Client) download(ctx context.Context, location string, w io.Writer) (int64, error) {
	if location == "" {
		return 0, errors.New("cds: task completed without a result location")
	}

	target, err := c.resolveLocation(location)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download result: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode, resp.Status); err != nil {
		return 0, err
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream result: %w", err)
	}
	return n, nil
}

// resolveLocation makes a result location absolute. The service usually
// hands out absolute download URLs but relative ones appear in older
// deployments.
func (c *Client) resolveLocation(location string) (string, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse result location: %w", err)
	}
	if loc.IsAbs() {
		return location, nil
	}
	base, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", fmt.Errorf("parse endpoint URL: %w", err)
	}
	return base.ResolveReference(loc).String(), nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.uid, c.key)
	return req, nil
}

// do runs one API call bounded by RequestTimeout and decodes the JSON
// response into out.
func (c *Client) do(req *http.Request, out any) error {
	ctx, cancel := context.WithTimeout(req.Context(), c.opts.RequestTimeout)
	defer cancel()

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode, resp.Status); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int, status string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return fmt.Errorf("%w: %s", ErrServerError, status)
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
