// Package stats collects per-request outcomes reported by simulated users.
//
// Users never aggregate anything themselves: every request made through a
// session is reported to a Recorder as a success or a failure, keyed by the
// HTTP method and a request name (usually the URL path).
package stats

import "time"

// Recorder receives request outcomes.
//
// Implementations must be safe for concurrent use since every simulated user
// reports to the same Recorder.
type Recorder interface {
	// RecordSuccess records a request that completed with an acceptable status.
	RecordSuccess(method, name string, elapsed time.Duration, bytes int64)

	// RecordFailure records a request that failed at the transport level or
	// returned an unacceptable status.
	RecordFailure(method, name string, elapsed time.Duration, err error)
}

// Discard is a Recorder that drops everything.
var Discard Recorder = discard{}

type discard struct{}

func (discard) RecordSuccess(string, string, time.Duration, int64) {}
func (discard) RecordFailure(string, string, time.Duration, error) {}
