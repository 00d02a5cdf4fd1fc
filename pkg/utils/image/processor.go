package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"github.com/chai2010/webp"
)

// Quality is the lossy webp quality uploads are re-encoded at.
const Quality = 85

// Processed is an upload re-encoded for storage.
type Processed struct {
	Body        *bytes.Buffer
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Process decodes a jpeg, png or webp image and re-encodes it as webp.
func Process(r io.Reader) (*Processed, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	switch format {
	case "jpeg", "png", "webp":
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: Quality}); err != nil {
		return nil, fmt.Errorf("could not encode image: %w", err)
	}

	bounds := img.Bounds()
	return &Processed{
		Body:        buf,
		ContentType: "image/webp",
		Ext:         ".webp",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

// ProcessFile opens an uploaded file and runs Process on it.
func ProcessFile(file *multipart.FileHeader) (*Processed, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer src.Close()
	return Process(src)
}
