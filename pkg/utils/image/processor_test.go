package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf
}

func TestProcessConvertsToWebp(t *testing.T) {
	out, err := Process(samplePNG(t, 16, 9))
	require.NoError(t, err)

	assert.Equal(t, "image/webp", out.ContentType)
	assert.Equal(t, ".webp", out.Ext)
	assert.Equal(t, 16, out.Width)
	assert.Equal(t, 9, out.Height)

	decoded, err := webp.Decode(bytes.NewReader(out.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := Process(strings.NewReader("definitely not an image"))
	assert.Error(t, err)
}
