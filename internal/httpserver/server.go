package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/tinytelemetry/jobwatch/internal/jobstatus"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 1000
)

// EventStore is the narrow analytics contract required by the HTTP API.
type EventStore interface {
	model.EventRecorder
	model.EventReader
}

// Server provides the queue status HTTP API.
type Server struct {
	addr      string
	provider  model.SnapshotProvider
	events    EventStore
	logger    *slog.Logger
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. events may be nil, which disables
// the analytics endpoints.
func NewServer(addr string, provider model.SnapshotProvider, events EventStore, logger *slog.Logger) *Server {
	if addr == "" {
		addr = net.JoinHostPort(model.DefaultBindHost, strconv.Itoa(model.DefaultAPIPort))
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		provider:  provider,
		events:    events,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Handler returns the configured gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/routes", s.handleRoutes)
	r.GET(model.DefaultStatusPath, s.handleSnapshot)
	r.GET(model.DefaultStatusPath+"/summary", s.handleSummary)
	if s.events != nil {
		r.POST(model.DefaultEventsPath, s.handleRecordEvent)
		r.GET(model.DefaultEventsPath, s.handleListEvents)
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()
	s.logger.Info("http api listening", "addr", listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http api stopped", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, []jobstatus.Route{jobstatus.JobsRoute})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snapshot, ok := s.snapshot(c)
	if !ok {
		return
	}
	body, err := snapshot.MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode snapshot"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) handleSummary(c *gin.Context) {
	snapshot, ok := s.snapshot(c)
	if !ok {
		return
	}
	body, err := json.Marshal(jobstatus.Aggregate(snapshot))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode summary"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) snapshot(c *gin.Context) (model.QueueSnapshot, bool) {
	snapshot, err := s.provider.Snapshot(c.Request.Context())
	if err != nil {
		s.logger.Warn("snapshot failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read queue state"})
		return model.QueueSnapshot{}, false
	}
	return snapshot, true
}

func (s *Server) handleRecordEvent(c *gin.Context) {
	var event model.AnalyticsEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := event.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.events.Record(c.Request.Context(), event); err != nil {
		s.logger.Warn("event not recorded", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record event"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": event.ID})
}

func (s *Server) handleListEvents(c *gin.Context) {
	limit := defaultEventsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxEventsLimit)
	}

	events, err := s.events.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
