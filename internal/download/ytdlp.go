package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// MediaDownloader fetches the audio stream behind a locator into files
// named after outputTemplate. The template carries a yt-dlp style
// "%(ext)s" placeholder; the downloader picks the extension.
type MediaDownloader interface {
	Download(ctx context.Context, locator, outputTemplate string, quiet bool) error
}

// DownloaderError is returned when the external downloader exits with a
// failure or is killed by its timeout.
type DownloaderError struct {
	Locator string
	Output  string // captured stderr, empty when passed through
	Err     error
}

func (e *DownloaderError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("download %s: %v: %s", e.Locator, e.Err, e.Output)
	}
	return fmt.Sprintf("download %s: %v", e.Locator, e.Err)
}

func (e *DownloaderError) Unwrap() error {
	return e.Err
}

// YTDLP runs the yt-dlp binary.
//
// Example:
//
//	dl := NewYTDLP("yt-dlp", nil, 3*time.Hour)
//	err := dl.Download(ctx, "https://www.mixcloud.com/NTSRadio/show/", "/tmp/nts-1/Show - 2021-2-1.%(ext)s", true)
type YTDLP struct {
	path    string
	args    []string
	timeout time.Duration
	logger  *slog.Logger

	stdout io.Writer
	stderr io.Writer
}

// NewYTDLP creates a runner for the binary at path (looked up on PATH
// when it has no separator). args are passed before the locator. A zero
// timeout leaves the run bounded only by ctx.
func NewYTDLP(path string, args []string, timeout time.Duration) *YTDLP {
	if path == "" {
		path = "yt-dlp"
	}
	return &YTDLP{
		path:    path,
		args:    append([]string(nil), args...),
		timeout: timeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithLogger returns the runner logging its command lines to logger.
func (y *YTDLP) WithLogger(logger *slog.Logger) *YTDLP {
	if logger != nil {
		y.logger = logger
	}
	return y
}

// Available reports whether the binary can be found.
func (y *YTDLP) Available() bool {
	_, err := exec.LookPath(y.path)
	return err == nil
}

// Download runs yt-dlp and waits for it to exit. In quiet mode its output
// is captured and only reported on failure; otherwise it is passed
// through to the terminal.
func (y *YTDLP) Download(ctx context.Context, locator, outputTemplate string, quiet bool) error {
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	args := y.buildArgs(locator, outputTemplate, quiet)
	cmd := exec.CommandContext(ctx, y.path, args...)

	var captured bytes.Buffer
	if quiet {
		cmd.Stderr = &captured
	} else {
		cmd.Stdout = y.stdout
		cmd.Stderr = y.stderr
	}

	y.logger.Debug("running downloader", "cmd", cmd.String())

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return &DownloaderError{
			Locator: locator,
			Output:  strings.TrimSpace(captured.String()),
			Err:     err,
		}
	}
	return nil
}

func (y *YTDLP) buildArgs(locator, outputTemplate string, quiet bool) []string {
	args := []string{"-o", outputTemplate}
	if quiet {
		args = append(args, "--quiet", "--no-warnings")
	}
	args = append(args, y.args...)
	return append(args, "--", locator)
}

// templateStem escapes a file stem for use in an output template, where
// '%' starts a field reference.
func templateStem(stem string) string {
	return strings.ReplaceAll(stem, "%", "%%")
}
