package infrastructure

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// ZipPackager bundles a job's fetched songs into a single zip archive.
type ZipPackager struct {
	logger *zap.Logger
}

// NewZipPackager creates a new zip packager.
func NewZipPackager(logger *zap.Logger) *ZipPackager {
	return &ZipPackager{logger: logger}
}

// Package collects every .mp3 under sourceDir into <jobID>_songs.zip inside
// the same directory. Non-payload files (the progress record, the archive
// itself) are skipped. An empty archive is not a valid artifact: zero fetched
// songs is an error.
func (p *ZipPackager) Package(jobID, sourceDir string) (string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return "", fmt.Errorf("failed to read job directory: %w", err)
	}

	var songs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
			continue
		}
		songs = append(songs, entry.Name())
	}

	if len(songs) == 0 {
		return "", fmt.Errorf("%w downloaded, nothing to package", domain.ErrNoSongs)
	}

	zipPath := filepath.Join(sourceDir, jobID+"_songs.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)
	for _, name := range songs {
		if err := p.addFile(zw, filepath.Join(sourceDir, name), name); err != nil {
			zw.Close()
			os.Remove(zipPath)
			return "", fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	if info, err := os.Stat(zipPath); err == nil && p.logger != nil {
		p.logger.Info("Archive created",
			zap.String("job_id", jobID),
			zap.String("path", zipPath),
			zap.Int("songs", len(songs)),
			zap.Int64("bytes", info.Size()))
	}

	return zipPath, nil
}

func (p *ZipPackager) addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
