package testutil

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"
)

// Upload builds a multipart file header the way a parsed form would.
func Upload(t testing.TB, field, name, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(8 << 20)
	require.NoError(t, err)
	return form.File[field][0]
}

// PNGUpload returns a tiny valid PNG as an upload.
func PNGUpload(t testing.TB, field, name string) *multipart.FileHeader {
	t.Helper()
	return Upload(t, field, name, "image/png", PNG(t))
}

func PNG(t testing.TB) []byte {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return img.Bytes()
}
