package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// maxErrorLen bounds adapter error details surfaced in the progress record.
const maxErrorLen = 100

// FetchPipeline fetches enumerated songs strictly in order, persisting each
// payload under its deterministic archive name. Per-song failures are counted
// and surfaced; they never abort the run.
type FetchPipeline struct {
	source domain.SongSource
	config *domain.DownloadConfig
	logger *zap.Logger
}

// NewFetchPipeline creates a pipeline over the given source. The inter-song
// delay is a fixed courtesy pause toward the external site, enforced with a
// per-run token bucket so concurrent jobs do not pace each other.
func NewFetchPipeline(source domain.SongSource, config *domain.DownloadConfig, logger *zap.Logger) *FetchPipeline {
	return &FetchPipeline{
		source: source,
		config: config,
		logger: logger,
	}
}

// newSongLimiter builds the token bucket enforcing one run's inter-song delay.
func newSongLimiter(delay time.Duration) *rate.Limiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return rate.NewLimiter(limit, 1)
}

// Run processes songs in the order given, writing each payload into destDir.
// onStart is invoked before a song is fetched, onResult after it is classified
// (err is nil on success). cancelled is checked at song boundaries only: the
// song already dispatched completes normally, later songs are not attempted.
// Returns the number of songs downloaded and failed.
func (p *FetchPipeline) Run(
	ctx context.Context,
	songs []domain.Song,
	destDir string,
	onStart func(index int, song domain.Song),
	onResult func(index int, song domain.Song, err error),
	cancelled func() bool,
) (downloaded, failed int) {
	limiter := newSongLimiter(p.config.SongDelay)

	for i, song := range songs {
		if cancelled() || ctx.Err() != nil {
			p.logger.Info("Pipeline stopping early",
				zap.Int("processed", i),
				zap.Int("total", len(songs)))
			return downloaded, failed
		}

		index := i + 1
		if onStart != nil {
			onStart(index, song)
		}

		err := p.fetchSong(ctx, index, song, destDir)
		if err == nil {
			downloaded++
		} else {
			failed++
			p.logger.Warn("Song fetch failed",
				zap.String("song_id", song.ID),
				zap.Int("index", index),
				zap.Error(err))
		}

		if onResult != nil {
			onResult(index, song, err)
		}

		// Rate-limiting courtesy pause before the next song.
		if i < len(songs)-1 {
			if waitErr := limiter.Wait(ctx); waitErr != nil {
				return downloaded, failed
			}
		}
	}

	return downloaded, failed
}

// fetchSong retrieves one song with a bounded timeout and persists it.
func (p *FetchPipeline) fetchSong(ctx context.Context, index int, song domain.Song, destDir string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	path := filepath.Join(destDir, domain.ArchiveFileName(index, song))

	data, err := p.source.Fetch(fetchCtx, song)
	if err != nil {
		return fmt.Errorf("%s", truncateError(err.Error()))
	}

	if len(data) == 0 {
		// Remove any partial file from an earlier attempt at this slot.
		os.Remove(path)
		return fmt.Errorf("empty content")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("%s", truncateError(err.Error()))
	}

	p.logger.Debug("Song downloaded",
		zap.String("song_id", song.ID),
		zap.String("file", path),
		zap.Int("bytes", len(data)))

	return nil
}

// truncateError bounds an error string for the progress record.
func truncateError(msg string) string {
	if len(msg) > maxErrorLen {
		return msg[:maxErrorLen]
	}
	return msg
}
