package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// FileProgressReporter persists a job's progress snapshot as a JSON file so
// out-of-process pollers can observe live progress. Every update rewrites the
// whole record through a temp-file rename, so a reader never sees a snapshot
// that is partially written or mixes two updates.
type FileProgressReporter struct {
	path    string
	mu      sync.Mutex
	current domain.Progress
}

// NewFileProgressReporter creates a reporter writing to
// <baseDir>/<jobID>_progress.json.
func NewFileProgressReporter(baseDir, jobID string) *FileProgressReporter {
	return &FileProgressReporter{
		path: filepath.Join(baseDir, jobID+"_progress.json"),
	}
}

// Path returns the location of the progress file.
func (r *FileProgressReporter) Path() string {
	return r.path
}

// Update applies mutate to the snapshot and atomically replaces the file.
// Returns the snapshot as written.
func (r *FileProgressReporter) Update(mutate func(*domain.Progress)) (domain.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mutate(&r.current)

	if err := r.write(r.current); err != nil {
		return r.current, err
	}
	return r.current, nil
}

// Read loads the snapshot from disk, which is what an out-of-process reader
// would observe.
func (r *FileProgressReporter) Read() (domain.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to read progress file: %w", err)
	}

	var p domain.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Progress{}, fmt.Errorf("failed to decode progress file: %w", err)
	}
	return p, nil
}

func (r *FileProgressReporter) write(p domain.Progress) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}
