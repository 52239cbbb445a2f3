package audio

import (
	"fmt"
	"mime"
	"regexp"
	"strconv"
	"strings"

	"github.com/handiism/nts-downloader/internal/model"
)

// ArtistSeparator joins multiple artists into a single tag value.
const ArtistSeparator = "; "

var jpegContentType = regexp.MustCompile(`jpe?g$`)

// TagOptions switches the optional fields of each tag scheme.
//
// ID3 files historically get neither the comment nor the cover, MP4 files
// get both:
//
//	opts := DefaultTagOptions()
//	// opts.ID3Comment = false, opts.ID3Cover = false
//	// opts.MP4Comment = true,  opts.MP4Cover = true
type TagOptions struct {
	// ID3Comment writes the episode URL as a COMM frame.
	ID3Comment bool

	// ID3Cover embeds the cover art as an APIC front cover.
	ID3Cover bool

	// MP4Comment writes the episode URL as the comment atom.
	MP4Comment bool

	// MP4Cover embeds the cover art as a covr atom.
	MP4Cover bool
}

// DefaultTagOptions returns the options matching the long-standing output.
func DefaultTagOptions() TagOptions {
	return TagOptions{
		MP4Comment: true,
		MP4Cover:   true,
	}
}

// Tagger writes episode metadata into audio containers.
//
// Example:
//
//	tagger := NewTagger(DefaultTagOptions())
//	c, err := audio.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	err = tagger.WriteTags(c, meta)
type Tagger struct {
	opts TagOptions
}

// NewTagger creates a Tagger with the given options.
func NewTagger(opts TagOptions) *Tagger {
	return &Tagger{opts: opts}
}

// Options returns the options the tagger writes with.
func (t *Tagger) Options() TagOptions {
	return t.opts
}

// WriteTags sets every field on the container and persists it.
func (t *Tagger) WriteTags(c Container, meta *model.EpisodeMetadata) error {
	if err := c.WriteFields(meta, t.opts); err != nil {
		return fmt.Errorf("write %s tags to %s: %w", c.Format(), c.Path(), err)
	}
	if err := c.Save(); err != nil {
		return fmt.Errorf("save %s tags to %s: %w", c.Format(), c.Path(), err)
	}
	return nil
}

// TagFile opens path, writes the tags and closes it again.
func (t *Tagger) TagFile(path string, meta *model.EpisodeMetadata) error {
	c, err := Open(path)
	if err != nil {
		return err
	}
	defer c.Close()

	return t.WriteTags(c, meta)
}

// IsJPEG reports whether a content type names JPEG data. Parameters such
// as charset are ignored. Everything else is treated as PNG.
//
// Example:
//
//	IsJPEG("image/jpeg")               // true
//	IsJPEG("image/jpg; charset=binary") // true
//	IsJPEG("image/png")                // false
func IsJPEG(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return jpegContentType.MatchString(strings.ToLower(strings.TrimSpace(mediaType)))
}

// tagFields are the values shared by both tag schemes.
type tagFields struct {
	title   string
	album   string
	artist  string
	year    string
	genre   string // empty when the episode has no genres
	comment string
}

func fieldsOf(meta *model.EpisodeMetadata) tagFields {
	f := tagFields{
		title:   meta.Name(),
		album:   meta.AlbumName(),
		artist:  strings.Join(meta.AllArtists, ArtistSeparator),
		year:    strconv.Itoa(meta.Date.Year()),
		comment: meta.URL,
	}
	if len(meta.Genres) > 0 {
		f.genre = meta.Genres[0]
	}
	return f
}
