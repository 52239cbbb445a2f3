package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/handiism/nts-downloader/internal/audio"
	"github.com/handiism/nts-downloader/internal/http"
)

// Settings holds all configuration options.
type Settings struct {
	// Output settings
	SaveDir string `json:"save_dir"`
	TempDir string `json:"temp_dir"` // empty uses the system temp dir
	Quiet   bool   `json:"quiet"`
	Save    bool   `json:"save"` // false fetches metadata only

	// Network settings
	HTTPTimeoutSeconds int     `json:"http_timeout_seconds"`
	RequestsPerSecond  float64 `json:"requests_per_second"`
	RequestBurst       int     `json:"request_burst"`
	UserAgent          string  `json:"user_agent"`

	// External downloader settings
	DownloaderPath         string   `json:"downloader_path"`
	DownloaderArgs         []string `json:"downloader_args"`
	DownloadTimeoutMinutes int      `json:"download_timeout_minutes"`
	MaxConcurrentEpisodes  int      `json:"max_concurrent_episodes"`

	// Tag settings
	ID3WriteComment bool `json:"id3_write_comment"`
	ID3WriteCover   bool `json:"id3_write_cover"`
	MP4WriteComment bool `json:"mp4_write_comment"`
	MP4WriteCover   bool `json:"mp4_write_cover"`

	// Cover art settings
	CoverResize       bool `json:"cover_resize"`
	CoverMaxSize      int  `json:"cover_max_size"`
	ConvertCoverToJPG bool `json:"convert_cover_to_jpg"`

	// Playlist settings
	CreatePlaylist bool   `json:"create_playlist"`
	PlaylistFormat string `json:"playlist_format"` // m3u, pls
	M3UExtended    bool   `json:"m3u_extended"`

	// Log settings
	LogLevel  string `json:"log_level"`  // debug, info, warn, error
	LogFormat string `json:"log_format"` // pretty, json
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		SaveDir: filepath.Join(homeDir, "Music", "NTS"),
		Save:    true,

		HTTPTimeoutSeconds: 30,
		RequestsPerSecond:  2,
		RequestBurst:       4,

		DownloaderPath:         "yt-dlp",
		DownloadTimeoutMinutes: 180,
		MaxConcurrentEpisodes:  1,

		MP4WriteComment: true,
		MP4WriteCover:   true,

		CoverMaxSize: 1000,

		PlaylistFormat: "m3u",
		M3UExtended:    true,

		LogLevel:  "info",
		LogFormat: "pretty",
	}
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "nts-downloader", "settings.json")
}

// Load reads settings from a JSON file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return settings, nil
}

// SaveTo writes settings to a JSON file.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values no component can work with.
func (s *Settings) Validate() error {
	if s.SaveDir == "" {
		return fmt.Errorf("save_dir is empty")
	}
	if s.MaxConcurrentEpisodes < 1 {
		return fmt.Errorf("max_concurrent_episodes must be at least 1, got %d", s.MaxConcurrentEpisodes)
	}
	if s.CoverResize && s.CoverMaxSize <= 0 {
		return fmt.Errorf("cover_max_size must be positive when cover_resize is set")
	}
	if _, err := audio.ParsePlaylistFormat(s.PlaylistFormat); err != nil {
		return err
	}
	return nil
}

// HTTPTimeout returns the per-request timeout.
func (s *Settings) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSeconds) * time.Second
}

// DownloadTimeout returns the bound on one external download.
func (s *Settings) DownloadTimeout() time.Duration {
	return time.Duration(s.DownloadTimeoutMinutes) * time.Minute
}

// ToTagOptions converts settings to the tagger's options.
func (s *Settings) ToTagOptions() audio.TagOptions {
	return audio.TagOptions{
		ID3Comment: s.ID3WriteComment,
		ID3Cover:   s.ID3WriteCover,
		MP4Comment: s.MP4WriteComment,
		MP4Cover:   s.MP4WriteCover,
	}
}

// ToHTTPConfig converts settings to the HTTP client configuration.
func (s *Settings) ToHTTPConfig() *http.Config {
	return &http.Config{
		Timeout:           s.HTTPTimeout(),
		UserAgent:         s.UserAgent,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.RequestBurst,
	}
}

// ToPlaylistFormat returns the configured playlist format, M3U if unknown.
func (s *Settings) ToPlaylistFormat() audio.PlaylistFormat {
	f, _ := audio.ParsePlaylistFormat(s.PlaylistFormat)
	return f
}
