// Package images enforces the upload policy: accepted content types,
// maximum file size, and pixel dimension bounds.
package images

import (
	"fmt"

	"github.com/h2non/bimg"
)

const (
	MaxFileSize  = 10 << 20 // 10MB
	MinDimension = 100
	MaxDimension = 10000
)

// extensions also serves as the accepted content type set.
var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

var allowedTypes = map[bimg.ImageType]bool{
	bimg.JPEG: true,
	bimg.PNG:  true,
	bimg.GIF:  true,
	bimg.SVG:  true,
}

// ValidationError describes a rejected upload. Message is safe to return
// to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Extension maps an accepted content type to its file extension. Returns
// false for content types outside the policy.
func Extension(mimeType string) (string, bool) {
	ext, ok := extensions[mimeType]
	return ext, ok
}

// Validate checks an upload against the policy. Checks run cheapest first:
// declared content type, then byte size, then the decoded pixel
// dimensions, so oversized or mistyped files are rejected before any
// decode work.
func Validate(buf []byte, declaredType string) error {
	if _, ok := extensions[declaredType]; !ok {
		return &ValidationError{Message: fmt.Sprintf("unsupported image type %q; must be JPEG, PNG, GIF, or SVG", declaredType)}
	}

	if len(buf) == 0 {
		return &ValidationError{Message: "image file is empty"}
	}
	if len(buf) > MaxFileSize {
		return &ValidationError{Message: fmt.Sprintf("image exceeds the maximum size of %d bytes", MaxFileSize)}
	}

	if !allowedTypes[bimg.DetermineImageType(buf)] {
		return &ValidationError{Message: "image data does not match an accepted format"}
	}

	size, err := bimg.NewImage(buf).Size()
	if err != nil {
		return &ValidationError{Message: "image could not be decoded"}
	}
	if size.Width < MinDimension || size.Height < MinDimension {
		return &ValidationError{Message: fmt.Sprintf("image dimensions must be at least %dx%d pixels", MinDimension, MinDimension)}
	}
	if size.Width > MaxDimension || size.Height > MaxDimension {
		return &ValidationError{Message: fmt.Sprintf("image dimensions must be at most %dx%d pixels", MaxDimension, MaxDimension)}
	}

	return nil
}
