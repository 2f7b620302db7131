package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 4, config.Download.MaxConcurrentJobs)
	assert.Equal(t, "https://cdn1.suno.ai", config.Source.CDNBaseURL)
	assert.Equal(t, "http://localhost:9222", config.Source.DebugURL)
	// $HOME in the default paths is expanded.
	assert.NotContains(t, config.Download.BaseDir, "$HOME")
	assert.NotContains(t, config.Ledger.DatabasePath, "$HOME")
}

func TestLoadConfig_FromFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
download:
  base_dir: /tmp/suno-test
  max_concurrent_jobs: 2
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	config, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/tmp/suno-test", config.Download.BaseDir)
	assert.Equal(t, 2, config.Download.MaxConcurrentJobs)
	// Unset values keep their defaults.
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "https://suno.com/me", config.Source.ProfileURL)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 70000\n"), 0644))

	_, err := LoadConfig(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestValidateConfig(t *testing.T) {
	config := domain.DefaultConfig()
	require.NoError(t, validateConfig(config))

	config.Download.MaxConcurrentJobs = 0
	require.Error(t, validateConfig(config))

	config = domain.DefaultConfig()
	config.Download.SongDelay = -1
	require.Error(t, validateConfig(config))

	config = domain.DefaultConfig()
	config.Source.CDNBaseURL = ""
	require.Error(t, validateConfig(config))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "downloads"), expandPath("~/downloads"))
	assert.Equal(t, home+"/downloads", expandPath("$HOME/downloads"))
	assert.Equal(t, "/var/lib/suno", expandPath("/var/lib/suno"))
}
