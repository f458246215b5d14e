package jobstatus

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tinytelemetry/jobwatch/internal/model"
)

// maxSnapshotBytes bounds how much of a response body is read.
const maxSnapshotBytes = 32 << 20

// Fetcher retrieves one snapshot of queue state.
type Fetcher interface {
	Fetch(ctx context.Context) (model.QueueSnapshot, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (model.QueueSnapshot, error)

func (f FetcherFunc) Fetch(ctx context.Context) (model.QueueSnapshot, error) { return f(ctx) }

// HTTPFetcher reads a snapshot from a fixed status endpoint.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for url. A nil client uses http.DefaultClient.
func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{url: url, client: client}
}

// URL returns the status endpoint.
func (f *HTTPFetcher) URL() string { return f.url }

// Fetch issues a single GET. Every failure is returned as a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context) (model.QueueSnapshot, error) {
	var snapshot model.QueueSnapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return snapshot, &FetchError{URL: f.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return snapshot, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return snapshot, &FetchError{
			URL:        f.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %q", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return snapshot, &FetchError{URL: f.url, StatusCode: resp.StatusCode, Err: err}
	}
	if err := snapshot.UnmarshalJSON(body); err != nil {
		return model.QueueSnapshot{}, &FetchError{URL: f.url, StatusCode: resp.StatusCode, Err: err}
	}
	return snapshot, nil
}
