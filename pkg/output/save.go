package output

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// JPEGQuality is used whenever a render is written as JPEG
const JPEGQuality = 95

// Save writes the image to path, choosing the encoder from the file extension
// (png, jpg/jpeg, gif, tif/tiff, bmp). Parent directories are created as needed.
func Save(img image.Image, path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := imaging.Save(img, path, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// Encode writes the image to w in the named format ("png", "jpg", ...)
func Encode(w io.Writer, img image.Image, format string) error {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return fmt.Errorf("unknown image format %q: %w", format, err)
	}
	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return nil
}

// ContentType returns the MIME type for an image format name
func ContentType(format string) string {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return "application/octet-stream"
	}
	switch f {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// Thumbnail scales the image to the given width, preserving its aspect ratio
func Thumbnail(img image.Image, width int) image.Image {
	if width <= 0 {
		return img
	}
	return resize.Resize(uint(width), 0, img, resize.Bilinear)
}
