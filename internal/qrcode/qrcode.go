package qrcode

import (
	"encoding/base64"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of rendered codes
const DefaultSize = 256

// Renderer renders text as a PNG QR code. Output is deterministic for identical input.
// Codes use the lowest recovery level so long receipts still fit.
type Renderer struct {
	size  int
	level goqrcode.RecoveryLevel
}

// NewRenderer creates a renderer producing size x size images
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size, level: goqrcode.Low}
}

// Render encodes text into a PNG image
func (r *Renderer) Render(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot encode empty text")
	}
	png, err := goqrcode.Encode(text, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// DataURI wraps a PNG image for inline embedding
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
