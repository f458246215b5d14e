package analytics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPRecorder posts events to the jobwatch service's events endpoint.
type HTTPRecorder struct {
	url    string
	client *http.Client
}

func NewHTTPRecorder(url string, client *http.Client) *HTTPRecorder {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRecorder{url: url, client: client}
}

func (r *HTTPRecorder) Record(ctx context.Context, event model.AnalyticsEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("analytics: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("analytics: post event: unexpected status %q", resp.Status)
	}
	return nil
}
