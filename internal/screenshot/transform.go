package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"io/fs"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/mrz1836/shotpub/internal/errors"
)

// mimeTypes maps image.Decode format names to MIME types.
//
//nolint:gochecknoglobals // Lookup table
var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// Transformer loads a screenshot, rotates it and encodes it as a data URI.
type Transformer struct {
	fsys fs.FS
}

// NewTransformer creates a Transformer reading from fsys.
func NewTransformer(fsys fs.FS) *Transformer {
	return &Transformer{fsys: fsys}
}

// Transform reads the image at name, rotates it clockwise by angle degrees
// and re-encodes it in the format it was stored in. The result has the form
// "data:image/png;base64,<payload>".
//
// Failures wrap errors.ErrImageUnreadable.
func (t *Transformer) Transform(ctx context.Context, name string, angle int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := t.fsys.Open(name)
	if err != nil {
		return "", errors.Wrapf(errors.ErrImageUnreadable, "open %s: %v", name, err)
	}
	defer func() { _ = f.Close() }()

	// image.Decode reports the sniffed format, which decides the output
	// encoding regardless of the file extension.
	img, formatName, err := image.Decode(f)
	if err != nil {
		return "", errors.Wrapf(errors.ErrImageUnreadable, "decode %s: %v", name, err)
	}

	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		return "", errors.Wrapf(errors.ErrImageUnreadable, "format %s of %s: %v", formatName, name, err)
	}

	rotated := Rotate(img, angle)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, rotated, format); err != nil {
		return "", errors.Wrapf(errors.ErrImageUnreadable, "encode %s: %v", name, err)
	}
	if buf.Len() == 0 {
		return "", errors.Wrapf(errors.ErrImageUnreadable, "encode %s: empty output", name)
	}

	zerolog.Ctx(ctx).Debug().
		Str("name", name).
		Str("format", formatName).
		Int("angle", angle).
		Int("bytes", buf.Len()).
		Msg("image transformed")

	return "data:" + mimeType(formatName) + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Rotate turns img clockwise by angle degrees. Quarter turns are lossless;
// other angles expand the canvas and fill the corners with transparency.
func Rotate(img image.Image, angle int) image.Image {
	// imaging rotates counter-clockwise.
	switch normalizeAngle(angle) {
	case 0:
		return img
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return imaging.Rotate(img, float64(-angle), color.Transparent)
	}
}

func normalizeAngle(angle int) int {
	return ((angle % 360) + 360) % 360
}

func mimeType(formatName string) string {
	if m, ok := mimeTypes[formatName]; ok {
		return m
	}
	return "image/" + formatName
}
