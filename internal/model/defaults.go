package model

// Shared defaults used by both the service and TUI binaries.
const (
	DefaultAPIPort    = 3000
	DefaultBindHost   = "127.0.0.1"
	DefaultStatusPath = "/api/admin/queries/jobs"
	DefaultEventsPath = "/api/events"
	DefaultKeyPrefix  = "rq:"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)
