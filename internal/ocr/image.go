package ocr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	// registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ppiankov/newsguard/internal/model"
)

// DecodeBase64Image decodes a base64 image, with or without a data URI
// prefix such as "data:image/jpeg;base64,".
func DecodeBase64Image(encoded string, maxPixels int64) (image.Image, error) {
	encoded = strings.TrimSpace(encoded)
	if idx := strings.Index(encoded, ","); idx >= 0 {
		encoded = encoded[idx+1:]
	}
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty image data", model.ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 image: %v", model.ErrInvalidImage, err)
	}

	img, _, err := DecodeImage(data, maxPixels)
	return img, err
}

// DecodeImage decodes png, jpeg, gif, bmp, tiff or webp bytes and returns
// the detected format. Images over maxPixels are rejected from their header
// before any pixel data is decoded; maxPixels <= 0 disables the check.
func DecodeImage(data []byte, maxPixels int64) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image data", model.ErrInvalidImage)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > maxPixels {
		return nil, "", fmt.Errorf("%w: image is %dx%d, over the %d pixel limit",
			model.ErrInvalidImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("%w: image has no pixels", model.ErrInvalidImage)
	}
	return img, format, nil
}
