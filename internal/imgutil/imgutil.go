// ABOUTME: Prepares image attachments for model requests
// ABOUTME: Downscales oversized images and encodes them as base64 blocks

package imgutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/mauromedda/nano-agent-go/pkg/msg"
)

const (
	// Provider request limits: longest edge and encoded size.
	maxEdge  = 1568
	maxBytes = 4 << 20
)

// LoadAttachment reads an image file and returns it as a base64 image block
// ready for a user message. Oversized images are downscaled first.
func LoadAttachment(path string) (msg.Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return msg.Content{}, fmt.Errorf("reading attachment: %w", err)
	}

	data, mime, err := Prepare(data)
	if err != nil {
		return msg.Content{}, fmt.Errorf("preparing %s: %w", path, err)
	}

	return msg.Content{
		Type:      msg.ContentImage,
		MediaType: mime,
		Data:      base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Prepare returns data fit for a model request along with its MIME type.
// Images already within limits pass through untouched.
func Prepare(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("unrecognized image format: %w", err)
	}
	if cfg.Width <= maxEdge && cfg.Height <= maxEdge && len(data) <= maxBytes {
		return data, sniffMIME(data), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	w, h := fit(cfg.Width, cfg.Height, maxEdge)
	out, mime, err := encode(scale(img, w, h))
	if err != nil {
		return nil, "", err
	}

	// Still too big: halve until it fits or degrades to a thumbnail.
	for len(out) > maxBytes && w > 64 {
		w, h = w/2, h/2
		out, mime, err = encode(scale(img, w, h))
		if err != nil {
			return nil, "", err
		}
	}
	return out, mime, nil
}

func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, h * limit / w
	}
	return w * limit / h, limit
}

func scale(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// encode prefers PNG, dropping to JPEG when PNG is too heavy.
func encode(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encoding PNG: %w", err)
	}
	if buf.Len() <= maxBytes {
		return buf.Bytes(), "image/png", nil
	}

	buf.Reset()
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, "", fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func sniffMIME(data []byte) string {
	switch {
	case len(data) > 3 && data[0] == 0x89 && data[1] == 'P':
		return "image/png"
	case len(data) > 2 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg"
	case len(data) > 3 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F':
		return "image/gif"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
