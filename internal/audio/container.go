package audio

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/handiism/nts-downloader/internal/model"
)

// Format identifies the native tag scheme of an audio container.
type Format int

const (
	// FormatUnknown is any container without a supported tag scheme.
	FormatUnknown Format = iota

	// FormatID3 is an MPEG audio file tagged with ID3v2 frames.
	FormatID3

	// FormatMP4 is an MPEG-4 file tagged with iTunes-style atoms.
	FormatMP4
)

func (f Format) String() string {
	switch f {
	case FormatID3:
		return "id3"
	case FormatMP4:
		return "mp4"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is matched by every *UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("audio: unsupported container format")

// UnsupportedFormatError is returned by Open for files that are neither
// MPEG audio nor MPEG-4.
type UnsupportedFormatError struct {
	Path string
	MIME string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("audio: cannot tag %s: unsupported container %s", e.Path, e.MIME)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// Container is an opened audio file whose tags can be rewritten.
//
// WriteFields only changes the in-memory tags; nothing reaches the disk
// until Save. Close releases the file and must be called on every path.
type Container interface {
	Format() Format
	Path() string
	WriteFields(meta *model.EpisodeMetadata, opts TagOptions) error
	Save() error
	Close() error
}

// mp4Family lists the MIME types mimetype reports for MPEG-4 audio.
var mp4Family = []string{
	"video/mp4",
	"audio/mp4",
	"audio/x-m4a",
	"audio/x-m4b",
	"video/x-m4v",
}

// Open sniffs the file's content and opens it with the matching tag
// scheme. The extension is ignored.
//
// Example:
//
//	c, err := audio.Open("/tmp/nts-123/Show - 2021-2-1.m4a")
//	if errors.Is(err, audio.ErrUnsupportedFormat) {
//	    // neither MP3 nor MP4, file untouched
//	}
//	defer c.Close()
func Open(path string) (Container, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect container of %s: %w", path, err)
	}

	switch formatOf(mtype) {
	case FormatID3:
		return openID3(path)
	case FormatMP4:
		return openMP4(path)
	}
	return nil, &UnsupportedFormatError{Path: path, MIME: mtype.String()}
}

// formatOf walks the detected type and its parents until a known scheme
// matches.
func formatOf(mtype *mimetype.MIME) Format {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("audio/mpeg") {
			return FormatID3
		}
		for _, family := range mp4Family {
			if m.Is(family) {
				return FormatMP4
			}
		}
	}
	return FormatUnknown
}
