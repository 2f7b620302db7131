package domain

import "context"

// SourceCredentials carries opaque credentials for the content source. The
// chrome_debug method attaches to an already-authenticated browser session.
type SourceCredentials struct {
	Method string            `json:"method"`
	Data   map[string]string `json:"data"`
}

// SongSource enumerates and fetches songs from the external site.
type SongSource interface {
	// Enumerate returns the available songs in first-seen order, deduplicated
	// by id, stopping once targetCount songs have been discovered.
	Enumerate(ctx context.Context, creds SourceCredentials, targetCount int) ([]Song, error)

	// Fetch retrieves the raw bytes for one song. May fail transiently.
	Fetch(ctx context.Context, song Song) ([]byte, error)
}

// Ledger is the credit ledger adapter. Settlement is a remote transactional
// boundary: it may take arbitrarily long or fail without corrupting job state.
type Ledger interface {
	// CreateSession activates a session for a completed payment.
	CreateSession(ctx context.Context, plan Plan, reference string) (*Session, error)

	// GetSession returns the session for a token, or ErrSessionNotFound.
	GetSession(ctx context.Context, token string) (*Session, error)

	// Settle debits the session's allowance by quantity songs for the given
	// job. Idempotent per jobID.
	Settle(ctx context.Context, token, jobID string, quantity int) error
}

// JobRegistry is the process-wide table of job handles. Implementations must
// support concurrent reads by status pollers alongside single-writer mutation
// of the jobs themselves. Eviction is left to external retention policy.
type JobRegistry interface {
	Put(job *Job) error
	Get(id string) (*Job, error)
	Delete(id string) error
	Range(fn func(job *Job) bool)
}

// ProgressReporter is the durable, crash-visible progress record for one job.
// Each Update is an atomic whole-record replace; a reader never observes a
// partially written snapshot.
type ProgressReporter interface {
	Update(mutate func(*Progress)) (Progress, error)
	Read() (Progress, error)
}

// Packager bundles a job's fetched songs into one retrievable artifact.
type Packager interface {
	// Package collects every fetched song file under sourceDir into a single
	// archive and returns its path. Fails when no songs were fetched.
	Package(jobID, sourceDir string) (string, error)
}
