package jobstatus

// Route describes where the status view is registered.
type Route struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Key   string `json:"key"`
}

// PageID identifies the status view in analytics events.
const PageID = "admin/jobs"

// JobsRoute is the fixed registration of the status view.
var JobsRoute = Route{
	Path:  "/admin/queries/jobs",
	Title: "RQ Status",
	Key:   "jobs",
}

// FailureNotice is shown in place of all counters when loading fails.
const FailureNotice = "Failed loading status. Please refresh."
