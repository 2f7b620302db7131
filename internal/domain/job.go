package domain

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a download job
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status is a terminal state.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Progress is the observable snapshot of a job. It is always read and written
// as a whole record; the field names form the on-disk progress file contract
// consumed by out-of-process pollers.
type Progress struct {
	Status       JobStatus `json:"status"`
	TotalSongs   int       `json:"total_songs"`
	Downloaded   int       `json:"downloaded"`
	Failed       int       `json:"failed"`
	CurrentSong  string    `json:"current_song"`
	ErrorMessage string    `json:"error_message"`
	ZipFilePath  string    `json:"zip_file_path"`
}

// Job represents one fetch-and-package execution on behalf of a session.
// Exactly one controller task mutates a job; status pollers only read.
type Job struct {
	ID           string
	SessionToken string
	MaxSongs     int
	CreatedAt    time.Time

	mu          sync.RWMutex
	progress    Progress
	startedAt   *time.Time
	completedAt *time.Time

	cancelRequested atomic.Bool
}

// NewJob creates a new job in queued status.
func NewJob(sessionToken string, maxSongs int) *Job {
	return &Job{
		ID:           uuid.New().String(),
		SessionToken: sessionToken,
		MaxSongs:     maxSongs,
		CreatedAt:    time.Now(),
		progress:     Progress{Status: StatusQueued},
	}
}

// Snapshot returns a copy of the current progress record.
func (j *Job) Snapshot() Progress {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.progress
}

// Status returns the job's current status.
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.progress.Status
}

// SetProgress replaces the job's progress snapshot. Writes after a terminal
// state are ignored so that status transitions stay monotonic.
func (j *Job) SetProgress(p Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.progress.Status.IsTerminal() {
		return
	}

	now := time.Now()
	if p.Status == StatusRunning && j.startedAt == nil {
		j.startedAt = &now
	}
	if p.Status.IsTerminal() {
		j.completedAt = &now
	}
	j.progress = p
}

// StartedAt returns when the job transitioned to running, if it has.
func (j *Job) StartedAt() *time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.startedAt
}

// CompletedAt returns when the job reached a terminal state, if it has.
func (j *Job) CompletedAt() *time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.completedAt
}

// RequestCancel sets the cooperative cancellation flag. The controller task
// observes it at the next song boundary; in-flight fetches are not interrupted.
func (j *Job) RequestCancel() {
	j.cancelRequested.Store(true)
}

// CancelRequested reports whether cancellation has been requested.
func (j *Job) CancelRequested() bool {
	return j.cancelRequested.Load()
}
