// Package testutil provides deterministic helpers for harness and agent
// tests.
package testutil

import (
	"github.com/lumenlab/kaleido/internal/mirror"
)

// Recorder is a mirror observer that records every snapshot it receives.
//
// Snapshots arrive as deep copies, so recorded history stays stable even
// while the mirror keeps mutating. An optional error can be injected to
// exercise broadcast failure paths.
type Recorder struct {
	snapshots []mirror.Snapshot

	// Err, when set, is returned from every delivery after recording.
	Err error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnSnapshot implements mirror.Observer. The snapshot is recorded before
// any injected error is returned, matching how a real observer can fail
// after doing partial work.
func (r *Recorder) OnSnapshot(s mirror.Snapshot) error {
	r.snapshots = append(r.snapshots, s)
	return r.Err
}

// Snapshots returns all recorded snapshots in delivery order.
func (r *Recorder) Snapshots() []mirror.Snapshot {
	return r.snapshots
}

// Len returns the number of recorded snapshots.
func (r *Recorder) Len() int {
	return len(r.snapshots)
}

// Last returns the most recent snapshot, or nil if none was recorded.
func (r *Recorder) Last() mirror.Snapshot {
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

// Reset discards recorded snapshots for test reuse.
func (r *Recorder) Reset() {
	r.snapshots = nil
}
