package deserializer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image renders only the dimensions of a raster image, never its pixels.
type Image struct{}

// Deserialize fails when body is not a decodable image.
func (Image) Deserialize(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return "", false
	}
	return fmt.Sprintf("image = [ %d x %d ]", cfg.Width, cfg.Height), true
}

// SummarizesBinary marks Image as unsafe for inline part bodies.
func (Image) SummarizesBinary() bool {
	return true
}
