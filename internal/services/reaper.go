package services

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Reaper tracks every transient artifact created during one pipeline
// invocation and deletes them all on the way out, success or failure.
// Deletion failures are collected and reported but never escalate.
type Reaper struct {
	mu     sync.Mutex
	paths  []string
	dirs   []string
	reaped bool
	errs   []string
}

// NewReaper creates an empty artifact tracker for one invocation.
func NewReaper() *Reaper {
	return &Reaper{}
}

// Track registers an artifact for deletion at the end of the invocation.
func (r *Reaper) Track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path != "" {
		r.paths = append(r.paths, path)
	}
}

// TrackDir registers a working directory to remove after all artifacts have
// been deleted.
func (r *Reaper) TrackDir(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dir != "" {
		r.dirs = append(r.dirs, dir)
	}
}

// Reap attempts to delete each tracked artifact exactly once and returns the
// deletion failures. Further calls are no-ops returning the same errors, so
// it is safe to invoke both explicitly (to collect errors for the payload)
// and from a defer (to guarantee cleanup on unexpected exits).
func (r *Reaper) Reap() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reaped {
		return r.errs
	}
	r.reaped = true

	for _, path := range r.paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			r.errs = append(r.errs, fmt.Sprintf("Error deleting %s: %v", path, err))
			continue
		}
		if info.IsDir() {
			r.errs = append(r.errs, fmt.Sprintf("%s is not a file", path))
			continue
		}
		if err := os.Remove(path); err != nil {
			r.errs = append(r.errs, fmt.Sprintf("Error deleting %s: %v", path, err))
		}
	}

	for _, dir := range r.dirs {
		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
			r.errs = append(r.errs, fmt.Sprintf("Error deleting %s: %v", dir, err))
		}
	}

	if len(r.errs) > 0 {
		slog.Error("Cleanup finished with errors.", "errorCount", len(r.errs))
	}
	return r.errs
}
