package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxSignatureWidth bounds the pixel width of a stamped signature
const DefaultMaxSignatureWidth = 1200

// DecodeSignature turns a captured signature payload into a PNG raster.
// Accepted payloads are data URLs, bare base64, or raw image bytes.
func DecodeSignature(payload []byte, maxWidth int) (*Raster, error) {
	raw, err := transferDecode(payload)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("signature image is empty")
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("signature image has no pixels")
	}

	if maxWidth > 0 && b.Dx() > maxWidth {
		h := b.Dy() * maxWidth / b.Dx()
		if h < 1 {
			h = 1
		}
		dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode signature image: %w", err)
	}

	return &Raster{
		PNG:      buf.Bytes(),
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Format:   format,
		Original: raw,
	}, nil
}

// transferDecode strips data URL and base64 wrapping
func transferDecode(payload []byte) ([]byte, error) {
	text := strings.TrimSpace(string(payload))

	if strings.HasPrefix(text, "data:") {
		comma := strings.IndexByte(text, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		meta, data := text[len("data:"):comma], text[comma+1:]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("data URL must be base64 encoded")
		}
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 in data URL: %w", err)
		}
		return decoded, nil
	}

	if decoded, err := base64.StdEncoding.DecodeString(text); err == nil && len(decoded) > 0 {
		return decoded, nil
	}

	return payload, nil
}

// ContentType maps a decoded image format to its MIME type
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// Extension maps a decoded image format to a file extension
func Extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "gif", "bmp", "webp":
		return format
	default:
		return "png"
	}
}
