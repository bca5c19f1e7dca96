// Package imageprep validates, decodes and shrinks uploaded images before
// they are handed to an OCR engine.
package imageprep

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/rwcarlsen/goexif/exif"
)

const (
	// MaxDimension is the longest edge kept when shrinking for upload.
	MaxDimension = 2048

	// MaxUploadBytes caps what the extract endpoint accepts at all.
	MaxUploadBytes = 10 * 1024 * 1024

	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWebP = "image/webp"
)

var (
	// ErrUnsupportedFormat is returned for anything but PNG, JPEG and WebP.
	ErrUnsupportedFormat = errors.New("unsupported image format, use PNG, JPEG or WebP")
	// ErrTooLarge is returned when an image cannot be shrunk under the
	// requested byte limit.
	ErrTooLarge = errors.New("image exceeds the maximum size limit")
)

// DetectMIME sniffs the image type from magic bytes. Unknown data reports
// JPEG, matching what most camera uploads actually are.
func DetectMIME(data []byte) string {
	if len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return MimePNG
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return MimeJPEG
	}
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return MimeWebP
	}
	return MimeJPEG
}

// IsSupported reports whether the data carries one of the accepted magic
// headers. DetectMIME alone cannot tell JPEG from garbage because JPEG is
// its fallback.
func IsSupported(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] == 0xFF && data[1] == 0xD8 {
		return true
	}
	mime := DetectMIME(data)
	return mime == MimePNG || mime == MimeWebP
}

// Decode turns image bytes into a pixel image, honoring EXIF orientation on
// JPEG input.
func Decode(data []byte) (image.Image, error) {
	if !IsSupported(data) {
		return nil, ErrUnsupportedFormat
	}

	switch DetectMIME(data) {
	case MimeWebP:
		img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if err != nil {
			return nil, fmt.Errorf("decoding webp: %w", err)
		}
		return img, nil
	case MimeJPEG:
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding jpeg: %w", err)
		}
		return applyOrientation(img, data), nil
	default:
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		return img, nil
	}
}

// applyOrientation rotates the decoded image according to its EXIF
// orientation tag. Images without EXIF pass through untouched.
func applyOrientation(img image.Image, data []byte) image.Image {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return img
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// Compress re-encodes the image as JPEG under the byte limit, shrinking the
// longest edge to MaxDimension first and stepping the quality down from 70
// to 30 until it fits.
func Compress(data []byte, maxBytes int) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	for quality := 70; quality >= 30; quality -= 10 {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encoding jpeg: %w", err)
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes(), nil
		}
	}
	return nil, ErrTooLarge
}
