package domain

import (
	"context"
	"fmt"
	"net/http"
)

// MaxImageBytes bounds the image payload accepted for captioning.
const MaxImageBytes = 8 << 20

// Generator is the text/image understanding capability shared between layers.
// A rate-limit failure must wrap ErrRateLimited so callers can tell it apart.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// HealthChecker verifies AI provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Prompt is a single generation request. Image is optional.
type Prompt struct {
	Text  string
	Image *Image
}

// HasImage reports whether the prompt carries an image payload.
func (p Prompt) HasImage() bool {
	return p.Image != nil && len(p.Image.Data) > 0
}

// Image is a raw image payload with its detected MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

var supportedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// NewImage validates raw bytes and sniffs the content type.
func NewImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, NewValidationError("image", "payload is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, NewValidationError("image", fmt.Sprintf("payload exceeds %d bytes", MaxImageBytes))
	}
	mimeType := http.DetectContentType(data)
	if _, ok := supportedImageTypes[mimeType]; !ok {
		return nil, NewValidationError("image", fmt.Sprintf("unsupported content type %q", mimeType))
	}
	return &Image{Data: data, MIMEType: mimeType}, nil
}
