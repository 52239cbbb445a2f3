package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// CoverOptions controls cover art post-processing before tagging.
type CoverOptions struct {
	// Resize shrinks covers larger than MaxSize on either side.
	Resize  bool
	MaxSize int

	// ConvertToJPEG re-encodes covers that are not already JPEG.
	ConvertToJPEG bool
}

// ImageService provides image processing operations for cover art.
//
// Example usage:
//
//	svc := NewImageService()
//	data, contentType, err := svc.ProcessCover(ctx, img.Data, img.ContentType,
//	    CoverOptions{Resize: true, MaxSize: 1000, ConvertToJPEG: true})
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// ProcessCover applies the enabled options and returns the new bytes with
// their content type. With no option enabled the input is returned as is.
func (s *ImageService) ProcessCover(ctx context.Context, data []byte, contentType string, opts CoverOptions) ([]byte, string, error) {
	if opts.Resize && opts.MaxSize > 0 {
		resized, err := s.ResizeImage(ctx, data, opts.MaxSize, opts.MaxSize)
		if err != nil {
			return nil, "", err
		}
		return resized, "image/jpeg", nil
	}

	if opts.ConvertToJPEG && !mimetype.Detect(data).Is("image/jpeg") {
		converted, err := s.ConvertToJPEG(ctx, data)
		if err != nil {
			return nil, "", err
		}
		return converted, "image/jpeg", nil
	}

	return data, contentType, nil
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved and the result is always JPEG-encoded.
// The Catmull-Rom algorithm is used for high-quality resizing.
//
// Example:
//
//	// Resize to fit within 1000x1000, maintaining aspect ratio
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
//	// A 1500x1000 image becomes 1000x666
//	// A 800x600 image remains 800x600 (but re-encoded)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

// ConvertToJPEG re-encodes an image as JPEG with 90% quality.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

// fitWithin scales width and height down to fit the bounds, keeping the
// aspect ratio. Sizes already within bounds are returned unchanged.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}
	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		return int(float64(maxHeight) * ratio), maxHeight
	}
	// Width is the limiting factor
	return maxWidth, int(float64(maxWidth) / ratio)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
