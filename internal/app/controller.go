package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
	"github.com/hitbot-agency/suno-downloader/internal/infrastructure"
)

// ReporterFactory creates the progress reporter for one job.
type ReporterFactory func(jobID string) domain.ProgressReporter

// JobController owns the lifecycle of download jobs from submission to a
// terminal state. One asynchronous task drives each job; the number of
// concurrently running jobs is bounded by a semaphore.
type JobController struct {
	registry    domain.JobRegistry
	source      domain.SongSource
	ledger      domain.Ledger
	packager    domain.Packager
	pipeline    *FetchPipeline
	notifier    *infrastructure.NotificationService
	config      *domain.Config
	logger      *zap.Logger
	newReporter ReporterFactory

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewJobController creates a new job controller
func NewJobController(
	registry domain.JobRegistry,
	source domain.SongSource,
	ledger domain.Ledger,
	packager domain.Packager,
	pipeline *FetchPipeline,
	notifier *infrastructure.NotificationService,
	config *domain.Config,
	logger *zap.Logger,
	newReporter ReporterFactory,
) *JobController {
	ctx, cancel := context.WithCancel(context.Background())

	return &JobController{
		registry:    registry,
		source:      source,
		ledger:      ledger,
		packager:    packager,
		pipeline:    pipeline,
		notifier:    notifier,
		config:      config,
		logger:      logger,
		newReporter: newReporter,
		sem:         make(chan struct{}, config.Download.MaxConcurrentJobs),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Submit creates a job in queued status, registers it and schedules its
// asynchronous execution. maxSongs must already be resolved to a concrete
// positive cap by the caller.
func (c *JobController) Submit(sessionToken string, maxSongs int, creds domain.SourceCredentials) (*domain.Job, error) {
	if maxSongs < 1 {
		return nil, fmt.Errorf("max songs must be positive, got %d", maxSongs)
	}

	job := domain.NewJob(sessionToken, maxSongs)
	if err := c.registry.Put(job); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}

	reporter := c.newReporter(job.ID)

	// Write the initial snapshot before the task starts so out-of-process
	// pollers see the job as soon as Submit returns.
	if snap, err := reporter.Update(func(p *domain.Progress) {
		p.Status = domain.StatusQueued
	}); err != nil {
		c.logger.Error("Failed to write initial progress", zap.String("job_id", job.ID), zap.Error(err))
	} else {
		job.SetProgress(snap)
	}

	c.logger.Info("Job submitted",
		zap.String("job_id", job.ID),
		zap.Int("max_songs", maxSongs))

	c.wg.Add(1)
	go c.run(job, reporter, creds)

	return job, nil
}

// GetStatus returns the current progress snapshot of a job.
func (c *JobController) GetStatus(jobID string) (domain.Progress, error) {
	job, err := c.registry.Get(jobID)
	if err != nil {
		return domain.Progress{}, err
	}
	return job.Snapshot(), nil
}

// Cancel requests cooperative cancellation of a queued or running job. The
// task observes the flag at the next song boundary; the song in flight
// completes normally.
func (c *JobController) Cancel(jobID string) error {
	job, err := c.registry.Get(jobID)
	if err != nil {
		return err
	}

	status := job.Status()
	if status != domain.StatusQueued && status != domain.StatusRunning {
		return fmt.Errorf("%w: cannot cancel job in status %s", domain.ErrInvalidState, status)
	}

	job.RequestCancel()
	c.logger.Info("Job cancellation requested", zap.String("job_id", jobID))
	return nil
}

// ArtifactPath returns the archive location for a completed job.
func (c *JobController) ArtifactPath(jobID string) (string, error) {
	job, err := c.registry.Get(jobID)
	if err != nil {
		return "", err
	}

	snap := job.Snapshot()
	if snap.Status != domain.StatusCompleted {
		return "", fmt.Errorf("%w: job status is %s", domain.ErrArtifactNotReady, snap.Status)
	}
	return snap.ZipFilePath, nil
}

// Wait blocks until all scheduled job tasks have finished.
func (c *JobController) Wait() {
	c.wg.Wait()
}

// Close cancels all running job tasks and waits for them to finish.
func (c *JobController) Close() {
	c.cancel()
	c.wg.Wait()
}

// run drives one job to a terminal state.
func (c *JobController) run(job *domain.Job, reporter domain.ProgressReporter, creds domain.SourceCredentials) {
	defer c.wg.Done()

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-c.ctx.Done():
		c.update(job, reporter, func(p *domain.Progress) {
			p.Status = domain.StatusFailed
			p.ErrorMessage = "server shutting down"
		})
		return
	}

	// A cancel that arrived while the job was still queued: nothing was
	// fetched, nothing is billed.
	if job.CancelRequested() {
		c.update(job, reporter, func(p *domain.Progress) {
			p.Status = domain.StatusCancelled
		})
		return
	}

	c.update(job, reporter, func(p *domain.Progress) {
		p.Status = domain.StatusRunning
		p.CurrentSong = "Loading song list"
	})
	if c.notifier != nil {
		c.notifier.NotifyJobStarted(job.ID)
	}

	jobDir := filepath.Join(c.config.Download.BaseDir, job.ID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		c.fail(job, reporter, fmt.Errorf("failed to create job directory: %w", err))
		return
	}

	songs, err := c.source.Enumerate(c.ctx, creds, job.MaxSongs)
	if err != nil {
		// Enumeration failure is fatal: no billing is attempted.
		c.fail(job, reporter, fmt.Errorf("enumeration failed: %w", err))
		return
	}

	if len(songs) > job.MaxSongs {
		songs = songs[:job.MaxSongs]
	}
	if len(songs) == 0 {
		c.fail(job, reporter, fmt.Errorf("%w found on profile", domain.ErrNoSongs))
		return
	}

	c.update(job, reporter, func(p *domain.Progress) {
		p.TotalSongs = len(songs)
		p.CurrentSong = "Starting downloads"
	})

	downloaded, failed := c.pipeline.Run(c.ctx, songs, jobDir,
		func(index int, song domain.Song) {
			c.update(job, reporter, func(p *domain.Progress) {
				p.CurrentSong = song.Title
			})
		},
		func(index int, song domain.Song, itemErr error) {
			c.update(job, reporter, func(p *domain.Progress) {
				if itemErr == nil {
					p.Downloaded++
				} else {
					p.Failed++
					p.ErrorMessage = itemErr.Error()
				}
			})
		},
		job.CancelRequested,
	)

	if job.CancelRequested() {
		// Partial settlement: songs fetched before the cancel are billed,
		// unattempted ones are not.
		c.settle(job, downloaded)
		c.update(job, reporter, func(p *domain.Progress) {
			p.Status = domain.StatusCancelled
			p.CurrentSong = ""
		})
		c.logger.Info("Job cancelled",
			zap.String("job_id", job.ID),
			zap.Int("downloaded", downloaded),
			zap.Int("failed", failed))
		if c.notifier != nil {
			c.notifier.NotifyJobCancelled(job.ID, downloaded)
		}
		return
	}

	// Shutdown stopped the pipeline before it finished: a truncated archive
	// is not a deliverable artifact, and nothing is billed.
	if c.ctx.Err() != nil {
		c.update(job, reporter, func(p *domain.Progress) {
			p.Status = domain.StatusFailed
			p.CurrentSong = ""
			p.ErrorMessage = "server shutting down"
		})
		c.logger.Warn("Job aborted by shutdown",
			zap.String("job_id", job.ID),
			zap.Int("downloaded", downloaded),
			zap.Int("failed", failed))
		return
	}

	c.update(job, reporter, func(p *domain.Progress) {
		p.CurrentSong = "Creating ZIP file"
	})

	// Packaging is part of success: a job with zero fetched songs, or an
	// unreadable job directory, fails here and is never billed.
	zipPath, err := c.packager.Package(job.ID, jobDir)
	if err != nil {
		c.fail(job, reporter, fmt.Errorf("packaging failed: %w", err))
		return
	}

	// Billing is best-effort reconciliation, not a gate on delivery: a
	// settlement failure is logged for out-of-band reconciliation and the
	// artifact is still delivered.
	c.settle(job, downloaded)

	c.update(job, reporter, func(p *domain.Progress) {
		p.Status = domain.StatusCompleted
		p.CurrentSong = ""
		p.ZipFilePath = zipPath
	})

	c.logger.Info("Job completed",
		zap.String("job_id", job.ID),
		zap.Int("downloaded", downloaded),
		zap.Int("failed", failed),
		zap.String("zip", zipPath))
	if c.notifier != nil {
		c.notifier.NotifyJobCompleted(job.ID, downloaded, failed)
	}
}

// update applies one atomic progress mutation: the durable snapshot first,
// then the in-registry job, always in that order by the single writer task.
func (c *JobController) update(job *domain.Job, reporter domain.ProgressReporter, mutate func(*domain.Progress)) {
	snap, err := reporter.Update(mutate)
	if err != nil {
		c.logger.Error("Failed to persist progress",
			zap.String("job_id", job.ID),
			zap.Error(err))
		// Keep the in-memory snapshot consistent regardless.
		snap = job.Snapshot()
		mutate(&snap)
	}
	job.SetProgress(snap)
}

// fail transitions a job to the failed terminal state. No billing.
func (c *JobController) fail(job *domain.Job, reporter domain.ProgressReporter, err error) {
	c.update(job, reporter, func(p *domain.Progress) {
		p.Status = domain.StatusFailed
		p.CurrentSong = ""
		p.ErrorMessage = truncateError(err.Error())
	})

	c.logger.Error("Job failed",
		zap.String("job_id", job.ID),
		zap.Error(err))
	if c.notifier != nil {
		c.notifier.NotifyJobFailed(job.ID, err)
	}
}

// settle bills the session for the songs actually fetched, keyed by job id so
// retries cannot double-charge. Zero fetched songs means nothing to settle.
func (c *JobController) settle(job *domain.Job, downloaded int) {
	if downloaded == 0 {
		return
	}

	if err := c.ledger.Settle(c.ctx, job.SessionToken, job.ID, downloaded); err != nil {
		c.logger.Error("Settlement failed, artifact still delivered",
			zap.String("job_id", job.ID),
			zap.Int("quantity", downloaded),
			zap.Error(err))
	}
}
