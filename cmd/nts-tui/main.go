package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/nts-downloader/internal/config"
	"github.com/handiism/nts-downloader/internal/logger"
	"github.com/handiism/nts-downloader/internal/tui"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Path to config file")
	logFlag := flag.String("log", "", "Write logs to this file (default: discard)")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The alt screen owns the terminal, so logs only go to a file
	log := logger.Discard()
	if *logFlag != "" {
		f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log = logger.New(logger.Config{Writer: f, Format: logger.FormatJSON, Level: logger.ParseLevel(settings.LogLevel)})
	}

	if err := tui.Run(settings, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
