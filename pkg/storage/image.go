package storage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

// Blob is a decoded upload.
type Blob struct {
	ContentType string
	Data        []byte
}

// DecodeDataURL accepts "data:<mime>;base64,<payload>" or bare base64.
func DecodeDataURL(raw string) (Blob, error) {
	payload := strings.TrimSpace(raw)
	contentType := ""
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return Blob{}, fmt.Errorf("malformed data url")
		}
		meta := payload[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return Blob{}, fmt.Errorf("data url must be base64 encoded")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = payload[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Blob{}, fmt.Errorf("decode base64: %w", err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Blob{ContentType: contentType, Data: data}, nil
}

// EncodeDataURL renders a blob back into a data URL.
func EncodeDataURL(b Blob) string {
	return "data:" + b.ContentType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// CompressImage shrinks images wider than maxWidth and re-encodes them as JPEG.
// Non-image blobs are returned untouched.
func CompressImage(b Blob, maxWidth int) (Blob, error) {
	if !strings.HasPrefix(b.ContentType, "image/") {
		return b, nil
	}
	img, err := imaging.Decode(bytes.NewReader(b.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Blob{}, fmt.Errorf("decode image: %w", err)
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) (Blob, error) {
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return Blob{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Blob{ContentType: "image/jpeg", Data: buf.Bytes()}, nil
}
