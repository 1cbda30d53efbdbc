// Package vision turns an uploaded image into a natural-language prompt by
// calling an external multimodal model API.
package vision

import "context"

type Describer interface {
	// Describe returns a textual description of the image bytes. The mime
	// type must be the image's declared content type.
	Describe(ctx context.Context, image []byte, mimeType string) (string, error)
}
