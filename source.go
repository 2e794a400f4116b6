package zplgraphic

import (
	"bytes"
	"context"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

var errEmptyImage = errors.New("image has no pixels")

// PixelSource turns encoded image bytes into a Bitmap. Implementations
// report unsupported or corrupt input as *DecodeError.
type PixelSource interface {
	Decode(ctx context.Context, data []byte) (Bitmap, error)
}

// PixelSourceFunc adapts a function to PixelSource.
type PixelSourceFunc func(ctx context.Context, data []byte) (Bitmap, error)

// Decode calls f.
func (f PixelSourceFunc) Decode(ctx context.Context, data []byte) (Bitmap, error) {
	return f(ctx, data)
}

// ImageSource decodes every format registered with the image package: PNG,
// JPEG, GIF, BMP and TIFF through imaging, WebP through x/image.
type ImageSource struct {
	// AutoOrientation applies the EXIF orientation tag of JPEG input.
	AutoOrientation bool
}

// Decode implements PixelSource.
func (s ImageSource) Decode(ctx context.Context, data []byte) (Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return Bitmap{}, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(s.AutoOrientation))
	if err != nil {
		return Bitmap{}, &DecodeError{Err: err}
	}
	b := BitmapFromImage(img)
	if b.Width == 0 || b.Height == 0 {
		return Bitmap{}, &DecodeError{Err: errEmptyImage}
	}
	return b, nil
}
