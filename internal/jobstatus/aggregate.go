package jobstatus

import "github.com/tinytelemetry/jobwatch/internal/model"

// Aggregate derives per-queue counters, overall totals and the started job
// list from a snapshot. It has no side effects; an empty snapshot yields empty
// (non-nil) lists and zero totals.
func Aggregate(snapshot model.QueueSnapshot) model.Status {
	queues := snapshot.Queues()

	status := model.Status{
		QueueCounters: make([]model.QueueCounter, 0, len(queues)),
		StartedJobs:   []model.Job{},
	}
	for _, q := range queues {
		counter := model.QueueCounter{
			Name:    q.Name,
			Started: len(q.Started),
			Queued:  len(q.Queued),
		}
		status.QueueCounters = append(status.QueueCounters, counter)
		status.Overall.Started += counter.Started
		status.Overall.Queued += counter.Queued
		status.StartedJobs = append(status.StartedJobs, q.Started...)
	}
	return status
}
