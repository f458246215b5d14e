package httpserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/jobwatch/internal/analytics"
	"github.com/tinytelemetry/jobwatch/internal/journal"
	"github.com/tinytelemetry/jobwatch/internal/jobstatus"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticProvider struct {
	snapshot model.QueueSnapshot
	err      error
}

func (p staticProvider) Snapshot(context.Context) (model.QueueSnapshot, error) {
	return p.snapshot, p.err
}

func sampleSnapshot() model.QueueSnapshot {
	return model.NewQueueSnapshot(
		model.QueueState{
			Name:    "queries",
			Started: []model.Job{model.Job(`{"id":"j1","origin":"queries"}`)},
			Queued:  []model.Job{model.Job(`{"id":"j2"}`), model.Job(`{"id":"j3"}`)},
		},
		model.QueueState{Name: "default"},
	)
}

func newTestServer(t *testing.T, provider model.SnapshotProvider) (*Server, *journal.Journal, http.Handler) {
	t.Helper()
	events, err := journal.Open(filepath.Join(t.TempDir(), "events.journal"), 0)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() { _ = events.Close() })

	srv := NewServer("", provider, events, nil)
	return srv, events, srv.Handler()
}

func serve(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{})

	w := serve(h, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
}

func TestRoutesEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{})

	w := serve(h, http.MethodGet, "/api/routes", nil)
	var routes []jobstatus.Route
	if err := json.Unmarshal(w.Body.Bytes(), &routes); err != nil {
		t.Fatalf("unmarshal routes: %v", err)
	}
	if len(routes) != 1 || routes[0] != jobstatus.JobsRoute {
		t.Fatalf("routes = %+v, want [%+v]", routes, jobstatus.JobsRoute)
	}
}

func TestSnapshotEndpointKeepsQueueOrder(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{snapshot: sampleSnapshot()})

	w := serve(h, http.MethodGet, model.DefaultStatusPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d; body: %s", w.Code, w.Body.String())
	}

	var decoded model.QueueSnapshot
	if err := decoded.UnmarshalJSON(w.Body.Bytes()); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	names := decoded.Names()
	if len(names) != 2 || names[0] != "queries" || names[1] != "default" {
		t.Fatalf("names = %v, want [queries default]", names)
	}
	q, _ := decoded.Get("queries")
	if got := q.Started[0].Field("origin"); got != "queries" {
		t.Errorf("job field origin = %q, want passthrough", got)
	}
}

func TestSnapshotEndpointProviderError(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{err: errors.New("redis down")})

	w := serve(h, http.MethodGet, model.DefaultStatusPath, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{snapshot: sampleSnapshot()})

	w := serve(h, http.MethodGet, model.DefaultStatusPath+"/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d; body: %s", w.Code, w.Body.String())
	}

	var status struct {
		QueueCounters []model.QueueCounter    `json:"queueCounters"`
		Overall       model.OverallCounters   `json:"overallCounters"`
		StartedJobs   []map[string]interface{} `json:"startedJobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if status.Overall != (model.OverallCounters{Started: 1, Queued: 2}) {
		t.Errorf("overall = %+v, want {1 2}", status.Overall)
	}
	if len(status.QueueCounters) != 2 || status.QueueCounters[1].Name != "default" {
		t.Errorf("queue counters = %+v", status.QueueCounters)
	}
	if len(status.StartedJobs) != 1 || status.StartedJobs[0]["id"] != "j1" {
		t.Errorf("started jobs = %+v", status.StartedJobs)
	}
}

func TestEventsEndpoints(t *testing.T) {
	_, events, h := newTestServer(t, staticProvider{})

	w := serve(h, http.MethodPost, model.DefaultEventsPath, []byte(`{"action":"view","object_type":"page","object_id":"admin/jobs"}`))
	if w.Code != http.StatusAccepted {
		t.Fatalf("post event status = %d; body: %s", w.Code, w.Body.String())
	}

	recent, err := events.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID == "" || recent[0].Timestamp.IsZero() {
		t.Fatalf("recorded events = %+v, want one with id and timestamp", recent)
	}

	w = serve(h, http.MethodGet, model.DefaultEventsPath+"?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list events status = %d", w.Code)
	}
	var listed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if listed.Count != 1 {
		t.Errorf("count = %d, want 1", listed.Count)
	}
}

func TestEventsEndpointRejectsBadInput(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{})

	cases := map[string][]byte{
		"not json":       []byte(`{`),
		"missing action": []byte(`{"object_type":"page","object_id":"admin/jobs"}`),
	}
	for name, body := range cases {
		if w := serve(h, http.MethodPost, model.DefaultEventsPath, body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, w.Code, http.StatusBadRequest)
		}
	}
	if w := serve(h, http.MethodGet, model.DefaultEventsPath+"?limit=-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("negative limit: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestEventsDisabledWithoutStore(t *testing.T) {
	h := NewServer("", staticProvider{}, nil, nil).Handler()

	if w := serve(h, http.MethodGet, model.DefaultEventsPath, nil); w.Code != http.StatusNotFound {
		t.Fatalf("events without store: status = %d, want 404", w.Code)
	}
}

func TestSnapshotEndpoint_WrongMethod(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{})

	w := serve(h, http.MethodPost, model.DefaultStatusPath, nil)
	// Gin returns 404 unless HandleMethodNotAllowed is enabled.
	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("snapshot POST status = %d, want 405 or 404", w.Code)
	}
}

// The TUI loader talking to a live server: one fetch, one aggregated state,
// one page view landing in the service journal.
func TestLoaderAgainstServer(t *testing.T) {
	_, events, h := newTestServer(t, staticProvider{snapshot: sampleSnapshot()})
	ts := httptest.NewServer(h)
	defer ts.Close()

	loader := jobstatus.NewLoader(
		jobstatus.NewHTTPFetcher(ts.URL+model.DefaultStatusPath, ts.Client()),
		analytics.NewHTTPRecorder(ts.URL+model.DefaultEventsPath, ts.Client()),
		nil,
		"test",
	)
	state := loader.LoadState(context.Background())
	status, ok := state.Status()
	if !ok {
		t.Fatalf("state = %v (%v), want loaded", state.Kind(), state.Err())
	}
	if status.Overall != (model.OverallCounters{Started: 1, Queued: 2}) {
		t.Fatalf("overall = %+v", status.Overall)
	}

	loader.Wait()
	recent, err := events.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ObjectID != jobstatus.PageID || recent[0].Source != "test" {
		t.Fatalf("recorded events = %+v, want one page view", recent)
	}
}

func TestLoaderAgainstFailingServer(t *testing.T) {
	_, _, h := newTestServer(t, staticProvider{err: errors.New("redis down")})
	ts := httptest.NewServer(h)
	defer ts.Close()

	loader := jobstatus.NewLoader(jobstatus.NewHTTPFetcher(ts.URL+model.DefaultStatusPath, ts.Client()), nil, nil, "test")
	state := loader.LoadState(context.Background())
	if state.Kind() != jobstatus.Failed {
		t.Fatalf("kind = %v, want failed", state.Kind())
	}
	if _, ok := state.Status(); ok {
		t.Fatal("failed state exposes counters")
	}
}

func TestGinRecovery(t *testing.T) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := serve(r, http.MethodGet, "/panic", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("panic recovery status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
