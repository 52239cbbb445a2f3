package audio

import (
	"fmt"

	"github.com/zhaarey/go-mp4tag"

	"github.com/handiism/nts-downloader/internal/model"
)

// MP4Tags is an MPEG-4 file tagged with iTunes-style atoms.
type MP4Tags struct {
	path        string
	file        *mp4tag.MP4
	tags        *mp4tag.MP4Tags
	compilation bool
}

func openMP4(path string) (*MP4Tags, error) {
	file, err := mp4tag.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mp4 tags of %s: %w", path, err)
	}
	return &MP4Tags{path: path, file: file}, nil
}

// Format returns FormatMP4.
func (t *MP4Tags) Format() Format { return FormatMP4 }

// Path returns the file the atoms belong to.
func (t *MP4Tags) Path() string { return t.path }

// WriteFields prepares ©nam, ©alb, ©ART, ©day, ©gen and cpil, plus ©cmt
// and covr when enabled.
func (t *MP4Tags) WriteFields(meta *model.EpisodeMetadata, opts TagOptions) error {
	f := fieldsOf(meta)

	tags := &mp4tag.MP4Tags{
		Title:  f.title,
		Album:  f.album,
		Artist: f.artist,
		Year:   int32(meta.Date.Year()),
	}
	if f.genre != "" {
		tags.CustomGenre = f.genre
	}
	if opts.MP4Comment {
		tags.Comment = f.comment
	}
	if opts.MP4Cover && meta.HasImage() {
		format := mp4tag.ImageTypePNG
		if IsJPEG(meta.Image.ContentType) {
			format = mp4tag.ImageTypeJPEG
		}
		tags.Pictures = []*mp4tag.MP4Picture{{
			Format: format,
			Data:   meta.Image.Data,
		}}
	}

	t.tags = tags
	t.compilation = meta.Compilation
	return nil
}

// Save writes the prepared atoms into the file. mp4tag rebuilds ilst
// without cpil, so the flag is set afterwards.
func (t *MP4Tags) Save() error {
	if t.tags == nil {
		return nil
	}
	var drop []string
	if len(t.tags.Pictures) > 0 {
		// mp4tag appends pictures to the existing covr
		drop = append(drop, "allpictures")
	}
	if err := t.file.Write(t.tags, drop); err != nil {
		return err
	}
	if err := setCompilation(t.path, t.compilation); err != nil {
		return fmt.Errorf("write compilation flag: %w", err)
	}
	return nil
}

// Close releases the file.
func (t *MP4Tags) Close() error {
	return t.file.Close()
}
