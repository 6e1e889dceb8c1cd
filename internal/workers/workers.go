package workers

import "context"

// Workers runs a set of jobs as a unit.
type Workers struct {
	jobs []Job
}

// New groups jobs into a single startable unit.
func New(jobs ...Job) *Workers {
	return &Workers{jobs: jobs}
}

// Start launches every job.
func (w *Workers) Start(ctx context.Context) {
	for _, job := range w.jobs {
		job.Start(ctx)
	}
}

// Stop stops every job and blocks until all have exited.
func (w *Workers) Stop() {
	for _, job := range w.jobs {
		job.Stop()
	}
}
