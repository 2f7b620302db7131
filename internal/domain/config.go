package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Source       SourceConfig       `mapstructure:"source"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains job execution configuration
type DownloadConfig struct {
	BaseDir           string        `mapstructure:"base_dir"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	SongDelay         time.Duration `mapstructure:"song_delay"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
}

// SourceConfig contains content source configuration
type SourceConfig struct {
	ProfileURL   string        `mapstructure:"profile_url"`
	CDNBaseURL   string        `mapstructure:"cdn_base_url"`
	DebugURL     string        `mapstructure:"debug_url"`
	PageLoadWait time.Duration `mapstructure:"page_load_wait"`
	ScrollPause  time.Duration `mapstructure:"scroll_pause"`
	MaxScrolls   int           `mapstructure:"max_scrolls"`
	StallLimit   int           `mapstructure:"stall_limit"`
}

// LedgerConfig contains ledger database configuration
type LedgerConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			BaseDir:           "$HOME/suno-downloader/downloads",
			FetchTimeout:      30 * time.Second,
			SongDelay:         1500 * time.Millisecond,
			MaxConcurrentJobs: 4,
		},
		Source: SourceConfig{
			ProfileURL:   "https://suno.com/me",
			CDNBaseURL:   "https://cdn1.suno.ai",
			DebugURL:     "http://localhost:9222",
			PageLoadWait: 5 * time.Second,
			ScrollPause:  2 * time.Second,
			MaxScrolls:   20,
			StallLimit:   5,
		},
		Ledger: LedgerConfig{
			DatabasePath: "$HOME/suno-downloader/ledger.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
