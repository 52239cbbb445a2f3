// Package config provides configuration management for nts-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Conversion to the options of other packages
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Saves to ~/Music/NTS
//	// Downloads with yt-dlp, one episode at a time
//	// MP4 comment and cover enabled, ID3 comment and cover disabled
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	// A missing file yields defaults, an invalid one an error
//
// # Saving Settings
//
//	settings.SaveDir = "/srv/radio"
//	err := settings.SaveTo(config.DefaultPath())
package config
