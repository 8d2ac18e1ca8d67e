package transform

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// Thumbnailer derives fixed-size thumbnails and probes image dimensions.
// Decoding is synchronous and deterministic for a given input.
type Thumbnailer struct {
	size int
	log  zerolog.Logger
}

func NewThumbnailer(size int, log zerolog.Logger) *Thumbnailer {
	return &Thumbnailer{
		size: size,
		log:  log.With().Str("component", "thumbnailer").Logger(),
	}
}

// Dimensions returns the pixel width and height of the encoded image.
// Only the header is decoded.
func (t *Thumbnailer) Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Thumbnail resizes the image to the configured edge size (both axes,
// aspect ratio not preserved) and re-encodes it in its source format.
func (t *Thumbnailer) Thumbnail(data []byte, mimeType string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Resize(img, t.size, t.size, imaging.Lanczos)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, resized, formatForMIME(mimeType)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func formatForMIME(mimeType string) imaging.Format {
	switch mimeType {
	case "image/png":
		return imaging.PNG
	case "image/gif":
		return imaging.GIF
	case "image/tiff":
		return imaging.TIFF
	case "image/bmp":
		return imaging.BMP
	default:
		return imaging.JPEG
	}
}
