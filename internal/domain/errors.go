package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id is not present in the registry.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidState is returned when an operation is not permitted in the
	// job's current state, e.g. cancelling a completed job.
	ErrInvalidState = errors.New("invalid job state")

	// ErrNoSongs is returned when enumeration yields nothing, or packaging is
	// attempted with zero downloaded songs.
	ErrNoSongs = errors.New("no songs")

	// ErrSessionNotFound is returned for unknown session tokens.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session's paid window has elapsed.
	ErrSessionExpired = errors.New("session expired")

	// ErrArtifactNotReady is returned when the archive is requested before the
	// job has completed.
	ErrArtifactNotReady = errors.New("artifact not ready")
)
