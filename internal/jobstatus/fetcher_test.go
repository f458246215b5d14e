package jobstatus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newStatusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcherSuccess(t *testing.T) {
	t.Parallel()

	srv := newStatusServer(t, http.StatusOK, `{
		"default": {"name": "default", "started": [{"id": "j1"}, {"id": "j2"}], "queued": [{"id": "j3"}]},
		"emails":  {"name": "emails", "started": [], "queued": []}
	}`)

	snap, err := NewHTTPFetcher(srv.URL, srv.Client()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	names := snap.Names()
	if len(names) != 2 || names[0] != "default" || names[1] != "emails" {
		t.Fatalf("names = %v", names)
	}
}

func TestHTTPFetcherFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, http.StatusInternalServerError},
		{"not found", http.StatusNotFound, ``, http.StatusNotFound},
		{"array payload", http.StatusOK, `[]`, http.StatusOK},
		{"garbage payload", http.StatusOK, `<html>`, http.StatusOK},
		{"bad queue shape", http.StatusOK, `{"default": {"started": 1}}`, http.StatusOK},
		{"trailing html", http.StatusOK, `{"default": {"started": [{"id": "j1"}], "queued": []}}<html>oops</html>`, http.StatusOK},
		{"concatenated objects", http.StatusOK, `{"a": {}}{"b": {}}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := newStatusServer(t, tc.status, tc.body)

			snap, err := NewHTTPFetcher(srv.URL, srv.Client()).Fetch(context.Background())
			if !errors.Is(err, ErrFetchFailed) {
				t.Fatalf("err = %v, want ErrFetchFailed", err)
			}
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %T, want *FetchError", err)
			}
			if fe.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", fe.StatusCode, tc.wantStatus)
			}
			if snap.Len() != 0 {
				t.Errorf("partial snapshot returned with error: %d queues", snap.Len())
			}
		})
	}
}

func TestLoaderFailsOnTrailingBytes(t *testing.T) {
	t.Parallel()

	srv := newStatusServer(t, http.StatusOK, `{"default": {"started": [{"id": "j1"}], "queued": []}}}`)

	state := NewLoader(NewHTTPFetcher(srv.URL, srv.Client()), nil, nil, "test").LoadState(context.Background())
	if state.Kind() != Failed {
		t.Fatalf("kind = %v, want Failed", state.Kind())
	}
	if !errors.Is(state.Err(), ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", state.Err())
	}
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(url, nil).Fetch(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 0 {
		t.Fatalf("err = %#v, want FetchError without status", err)
	}
}
