package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/shotpub/internal/errors"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// twoPixelImage returns a 2x1 image: red on the left, blue on the right.
func twoPixelImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, red)
	img.Set(1, 0, blue)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func decodePayload(t *testing.T, dataURI string) (image.Image, string) {
	t.Helper()
	_, payload, ok := strings.Cut(dataURI, ",")
	require.True(t, ok, "data URI must contain a comma")
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img, format
}

func TestTransformer_PNG(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"Cls/test.png": {Data: encodePNG(t, twoPixelImage())}}
	tr := NewTransformer(fsys)

	uri, err := tr.Transform(context.Background(), "Cls/test.png", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	img, format := decodePayload(t, uri)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
}

func TestTransformer_RotatesClockwise(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"Cls/test.png": {Data: encodePNG(t, twoPixelImage())}}
	tr := NewTransformer(fsys)

	uri, err := tr.Transform(context.Background(), "Cls/test.png", 90)
	require.NoError(t, err)

	img, _ := decodePayload(t, uri)
	require.Equal(t, 1, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, red, color.NRGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, blue, color.NRGBAModel.Convert(img.At(0, 1)))
}

func TestTransformer_JPEGKeepsFormat(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	fsys := fstest.MapFS{"UITests/testOne()/shot.jpg": {Data: encodeJPEG(t, src)}}
	tr := NewTransformer(fsys)

	uri, err := tr.Transform(context.Background(), "UITests/testOne()/shot.jpg", 90)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	img, format := decodePayload(t, uri)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 4, 8), img.Bounds())
}

func TestTransformer_FormatFollowsContent(t *testing.T) {
	t.Parallel()

	// A PNG stored with a .jpg name stays a PNG.
	fsys := fstest.MapFS{"a/b.jpg": {Data: encodePNG(t, twoPixelImage())}}
	uri, err := NewTransformer(fsys).Transform(context.Background(), "a/b.jpg", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestTransformer_Unreadable(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"Cls/garbage.png": {Data: []byte("not an image")}}
	tr := NewTransformer(fsys)

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()
		_, err := tr.Transform(context.Background(), "Cls/garbage.png", 0)
		require.ErrorIs(t, err, errors.ErrImageUnreadable)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := tr.Transform(context.Background(), "Cls/none.png", 0)
		require.ErrorIs(t, err, errors.ErrImageUnreadable)
	})
}

func TestRotate(t *testing.T) {
	t.Parallel()

	src := twoPixelImage()

	tests := []struct {
		angle  int
		width  int
		height int
		topLft color.NRGBA
	}{
		{0, 2, 1, red},
		{360, 2, 1, red},
		{90, 1, 2, red},
		{-270, 1, 2, red},
		{180, 2, 1, blue},
		{270, 1, 2, blue},
		{-90, 1, 2, blue},
	}

	for _, tt := range tests {
		out := Rotate(src, tt.angle)
		assert.Equal(t, tt.width, out.Bounds().Dx(), "angle %d", tt.angle)
		assert.Equal(t, tt.height, out.Bounds().Dy(), "angle %d", tt.angle)
		b := out.Bounds()
		assert.Equal(t, tt.topLft, color.NRGBAModel.Convert(out.At(b.Min.X, b.Min.Y)), "angle %d", tt.angle)
	}
}

func TestRotate_ArbitraryAngleExpandsCanvas(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	out := Rotate(src, 45)
	assert.Greater(t, out.Bounds().Dx(), 10)
	assert.Greater(t, out.Bounds().Dy(), 10)
}
