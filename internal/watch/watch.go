// Package watch detects modifications of the data file made by other
// processes.
//
// The Detector interface is what the store's reconciler depends on.
// MTimeDetector implements it by polling the file's modification time, which
// needs nothing beyond os.Stat and works the same on every platform.
//
// Polling by modification time is a heuristic. Two writes that land within
// the same timestamp tick of the filesystem (one second on some filesystems)
// are indistinguishable, and a writer whose clock runs behind this process can
// produce a time that never passes the baseline. Such changes are missed until
// the next write that moves the time forward.
package watch

import (
	"io/fs"
	"os"
	"sync"
	"time"
)

// Detector reports whether the watched file changed since this process last
// read or wrote it.
type Detector interface {
	// RecordBaseline captures the file's current state. Call it right after
	// every successful save or load.
	RecordBaseline()

	// HasExternalChange reports whether the file moved past the baseline.
	// Failures to inspect the file report false.
	HasExternalChange() bool
}

// MTimeDetector compares the modification time of a file with a recorded
// baseline. It is safe for concurrent use.
type MTimeDetector struct {
	path string
	stat func(string) (fs.FileInfo, error)

	mu       sync.Mutex
	baseline time.Time
	reported time.Time
}

var _ Detector = (*MTimeDetector)(nil)

// NewMTimeDetector returns a detector for path with a zero baseline, so an
// existing file counts as changed until the first RecordBaseline.
func NewMTimeDetector(path string) *MTimeDetector {
	return &MTimeDetector{path: path, stat: os.Stat}
}

// RecordBaseline stores the current modification time. If the file cannot be
// inspected the baseline is left as it was.
func (d *MTimeDetector) RecordBaseline() {
	fi, err := d.stat(d.path)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.baseline = fi.ModTime()
	d.reported = time.Time{}
}

// HasExternalChange returns true when the file exists and its modification
// time is strictly after the baseline. A given modification time is reported
// once; the check stays false until the time advances again or a new
// baseline is recorded.
func (d *MTimeDetector) HasExternalChange() bool {
	fi, err := d.stat(d.path)
	if err != nil {
		return false
	}
	mtime := fi.ModTime()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !mtime.After(d.baseline) {
		return false
	}
	if !d.reported.IsZero() && !mtime.After(d.reported) {
		return false
	}
	d.reported = mtime
	return true
}

// Baseline returns the recorded modification time.
func (d *MTimeDetector) Baseline() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.baseline
}
