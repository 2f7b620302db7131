package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job := NewJob("token-1", 20)

	require.NotEmpty(t, job.ID)
	assert.Equal(t, "token-1", job.SessionToken)
	assert.Equal(t, 20, job.MaxSongs)
	assert.Equal(t, StatusQueued, job.Status())
	assert.False(t, job.CancelRequested())
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestJob_SetProgress(t *testing.T) {
	job := NewJob("token-1", 5)

	job.SetProgress(Progress{Status: StatusRunning, TotalSongs: 5, Downloaded: 2})

	snap := job.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 5, snap.TotalSongs)
	assert.Equal(t, 2, snap.Downloaded)
	require.NotNil(t, job.StartedAt())
	assert.Nil(t, job.CompletedAt())
}

func TestJob_SetProgress_TerminalIsFinal(t *testing.T) {
	job := NewJob("token-1", 5)

	job.SetProgress(Progress{Status: StatusRunning})
	job.SetProgress(Progress{Status: StatusFailed, ErrorMessage: "enumeration failed"})
	require.NotNil(t, job.CompletedAt())

	// Writes after a terminal state are ignored.
	job.SetProgress(Progress{Status: StatusRunning})
	assert.Equal(t, StatusFailed, job.Status())

	job.SetProgress(Progress{Status: StatusCompleted, ZipFilePath: "late.zip"})
	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Empty(t, snap.ZipFilePath)
	assert.Equal(t, "enumeration failed", snap.ErrorMessage)
}

func TestJob_RequestCancel(t *testing.T) {
	job := NewJob("token-1", 5)

	assert.False(t, job.CancelRequested())
	job.RequestCancel()
	assert.True(t, job.CancelRequested())
}

func TestProgress_CountInvariant(t *testing.T) {
	// downloaded + failed never exceeds the total once it is known.
	p := Progress{Status: StatusRunning, TotalSongs: 4}
	for i := 0; i < 4; i++ {
		if i%2 == 0 {
			p.Downloaded++
		} else {
			p.Failed++
		}
		assert.LessOrEqual(t, p.Downloaded+p.Failed, p.TotalSongs)
	}
}
