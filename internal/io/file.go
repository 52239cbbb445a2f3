package ioutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CopyFile copies a file from source to destination.
//
// The destination file is created with mode 0644 if it doesn't exist,
// or truncated if it does. A partially written destination is removed.
//
// Example:
//
//	err := CopyFile(ctx, "/tmp/nts-1/show.m4a", "/music/show.m4a")
func CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		os.Remove(dst)
		return err
	}
	return destFile.Close()
}

// MoveFile moves src to dst, replacing dst if it exists.
//
// A rename is tried first. When it fails, typically because the scratch
// directory is on another file system, the file is copied and the source
// removed. If the copy fails the source is left in place.
func MoveFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	if err := CopyFile(ctx, src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, errors.Join(renameErr, err))
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return nil
}

// WriteFile writes data to a file, creating it if necessary.
//
// Example:
//
//	err := WriteFile(ctx, "/music/show.m3u", []byte("#EXTM3U\n..."))
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FindByPrefix returns the regular files directly inside dir whose names
// start with prefix, sorted by name. The prefix is compared literally, so
// names containing glob characters such as '[' match as written.
//
// Example:
//
//	// dir holds "Show [Live] - 2021-2-1.m4a" and "other.mp3"
//	FindByPrefix(dir, "Show [Live] - 2021-2-1")
//	// Returns [dir + "/Show [Live] - 2021-2-1.m4a"]
func FindByPrefix(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		matches = append(matches, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(matches)
	return matches, nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
