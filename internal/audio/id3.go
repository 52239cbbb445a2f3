package audio

import (
	"fmt"

	"github.com/bogem/id3v2"

	"github.com/handiism/nts-downloader/internal/model"
)

// ID3Tags is an MPEG audio file tagged with ID3v2.4 frames.
type ID3Tags struct {
	path string
	tag  *id3v2.Tag
}

func openID3(path string) (*ID3Tags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("open id3 tag of %s: %w", path, err)
	}
	return &ID3Tags{path: path, tag: tag}, nil
}

// Format returns FormatID3.
func (t *ID3Tags) Format() Format { return FormatID3 }

// Path returns the file the tag belongs to.
func (t *ID3Tags) Path() string { return t.path }

// WriteFields sets TIT2, TCMP, TALB, TPE1, TDRC and TCON, plus COMM and
// APIC when enabled. Existing frames of the same kind are replaced.
func (t *ID3Tags) WriteFields(meta *model.EpisodeMetadata, opts TagOptions) error {
	f := fieldsOf(meta)
	tag := t.tag

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	tag.SetTitle(f.title)
	tag.AddTextFrame("TCMP", tag.DefaultEncoding(), compilationValue(meta.Compilation))
	tag.SetAlbum(f.album)
	tag.SetArtist(f.artist)
	tag.AddTextFrame("TDRC", tag.DefaultEncoding(), f.year)
	if f.genre != "" {
		tag.SetGenre(f.genre)
	}

	if opts.ID3Comment {
		tag.DeleteFrames(tag.CommonID("Comments"))
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: tag.DefaultEncoding(),
			Language: "eng",
			Text:     f.comment,
		})
	}

	if opts.ID3Cover && meta.HasImage() {
		mimeType := "image/png"
		if IsJPEG(meta.Image.ContentType) {
			mimeType = "image/jpeg"
		}
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    tag.DefaultEncoding(),
			MimeType:    mimeType,
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     meta.Image.Data,
		})
	}
	return nil
}

// Save writes the tag back into the file.
func (t *ID3Tags) Save() error {
	return t.tag.Save()
}

// Close releases the file.
func (t *ID3Tags) Close() error {
	return t.tag.Close()
}

func compilationValue(compilation bool) string {
	if compilation {
		return "1"
	}
	return "0"
}
