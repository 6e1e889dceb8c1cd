// Package workers provides the daemon's background jobs: the periodic
// connectivity probe and the periodic sync trigger.
// It defines the Job interface and a Workers aggregate that starts and stops
// a set of jobs as a unit.
package workers

import "context"

// Job is a background task with an explicit lifecycle. Start launches the
// job's goroutine and returns immediately; Stop blocks until the goroutine
// has fully exited.
//
// Jobs are restartable: calling Start on a running job stops it first.
type Job interface {
	Start(ctx context.Context)
	Stop()
}
