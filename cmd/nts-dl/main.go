package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/nts-downloader/internal/config"
	"github.com/handiism/nts-downloader/internal/download"
	"github.com/handiism/nts-downloader/internal/logger"
	"github.com/handiism/nts-downloader/internal/model"
)

var version = "dev"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func main() {
	// Command line flags
	var (
		outputFlag     = flag.String("output", "", "Save directory (overrides config)")
		configFlag     = flag.String("config", "", "Path to config file (default: user config dir)")
		quietFlag      = flag.Bool("quiet", false, "Silence the external downloader")
		verboseFlag    = flag.Bool("verbose", false, "Show verbose output and debug logs")
		noDownloadFlag = flag.Bool("no-download", false, "Only print episode metadata as JSON")
		playlistFlag   = flag.Bool("playlist", false, "Create a playlist for show downloads")
		versionFlag    = flag.Bool("version", false, "Print version and exit")
	)

	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Println("nts-dl", version)
		return
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	// Load config
	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *outputFlag != "" {
		settings.SaveDir = *outputFlag
	}
	if *quietFlag {
		settings.Quiet = true
	}
	if *noDownloadFlag {
		settings.Save = false
	}
	if *playlistFlag {
		settings.CreatePlaylist = true
	}
	level := logger.ParseLevel(settings.LogLevel)
	if *verboseFlag {
		level = slog.LevelDebug
	} else if settings.Quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	log := logger.New(logger.Config{Format: settings.LogFormat, Level: level})

	if settings.Save && !download.NewYTDLP(settings.DownloaderPath, nil, 0).Available() {
		fmt.Fprintf(os.Stderr, "Error: downloader %q not found; install yt-dlp or set downloader_path\n", settings.DownloaderPath)
		os.Exit(1)
	}

	// Handle interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Progress goes to stderr so stdout carries only the JSON output
	manager := download.NewManager(settings, func(event download.ProgressEvent) {
		if !showEvent(event.Level, settings.Quiet, *verboseFlag) {
			return
		}
		fmt.Fprintln(os.Stderr, renderEvent(event))
	}, download.WithLogger(log))

	fmt.Fprintln(os.Stderr, headerStyle.Render("NTS Downloader"))
	fmt.Fprintln(os.Stderr)

	var (
		failed   int
		metadata []*model.EpisodeMetadata
	)
	for _, rawURL := range flag.Args() {
		results, err := manager.Download(ctx, rawURL)
		for _, r := range results {
			if r.Metadata != nil && r.Err == nil {
				metadata = append(metadata, r.Metadata)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "\nDownload cancelled.")
				os.Exit(130)
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, renderEvent(download.ProgressEvent{
					Message: fmt.Sprintf("%s: %v", rawURL, err),
					Level:   download.LevelError,
				}))
			}
			failed++
		}
	}

	if !settings.Save {
		if err := printJSON(metadata); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metadata: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Fprintln(os.Stderr)
	if failed > 0 {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Finished with errors in %d of %d URL(s)", failed, flag.NArg())))
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, successStyle.Render(fmt.Sprintf("Complete! %d episode(s)", len(metadata))))
}

func usage() {
	fmt.Fprintln(os.Stderr, "NTS Downloader - Download and tag NTS Radio episodes")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  nts-dl [options] <show or episode URL>...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "For interactive mode, use: nts-tui")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func showEvent(level download.ProgressLevel, quiet, verbose bool) bool {
	switch level {
	case download.LevelVerbose:
		return verbose
	case download.LevelInfo:
		return verbose || !quiet
	default:
		return true
	}
}

func renderEvent(event download.ProgressEvent) string {
	switch event.Level {
	case download.LevelError:
		return errorStyle.Render("✗ " + event.Message)
	case download.LevelWarning:
		return warningStyle.Render("! " + event.Message)
	case download.LevelSuccess:
		return successStyle.Render("✓ " + event.Message)
	case download.LevelInfo:
		return infoStyle.Render("› " + event.Message)
	default:
		return dimStyle.Render("  " + event.Message)
	}
}

func printJSON(metadata []*model.EpisodeMetadata) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(metadata) == 1 {
		return enc.Encode(metadata[0])
	}
	if metadata == nil {
		metadata = []*model.EpisodeMetadata{}
	}
	if err := enc.Encode(metadata); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return nil
}
