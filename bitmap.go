package zplgraphic

import (
	"image"

	"github.com/disintegration/imaging"
)

// lightThreshold is the luminance above which a pixel is left unprinted.
const lightThreshold = 127

// Bitmap is a decoded image: non-premultiplied RGBA, 4 bytes per pixel,
// row-major with the origin at the top-left corner.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// BitmapFromImage copies any image.Image into a Bitmap.
func BitmapFromImage(img image.Image) Bitmap {
	nrgba := imaging.Clone(img)
	size := nrgba.Bounds().Size()
	return Bitmap{
		Width:  size.X,
		Height: size.Y,
		Pix:    nrgba.Pix,
	}
}

// Stride returns the number of bytes holding one packed row of width pixels.
func Stride(width int) int {
	return (width + 7) / 8
}

// rightMask clears the bits past width in the last byte of a row.
func rightMask(width int) byte {
	return byte(0xff) << uint(Stride(width)*8-width)
}

// light reports whether the pixel at byte offset i stays blank on the label:
// floor((r+g+b)/3) * (a/255) > 127, kept in integers.
func (b Bitmap) light(i int) bool {
	r, g, bl, a := int(b.Pix[i]), int(b.Pix[i+1]), int(b.Pix[i+2]), int(b.Pix[i+3])
	return (r+g+bl)/3*a > lightThreshold*255
}

// PackRows thresholds the bitmap and packs every image row into Stride(width)
// bytes, leftmost pixel in the high bit. Light pixels are packed as 1 and the
// byte is then inverted, so a set bit on the wire is a printed dot. Bits past
// the right edge are cleared.
func PackRows(b Bitmap) ([][]byte, error) {
	if b.Width <= 0 || b.Height <= 0 {
		return nil, invariantf("bitmap size %dx%d is not positive", b.Width, b.Height)
	}
	if len(b.Pix) < b.Width*b.Height*4 {
		return nil, invariantf("pixel buffer holds %d bytes, %dx%d needs %d", len(b.Pix), b.Width, b.Height, b.Width*b.Height*4)
	}

	stride := Stride(b.Width)
	mask := rightMask(b.Width)
	rows := make([][]byte, 0, b.Height)

	for y := 0; y < b.Height; y++ {
		row := make([]byte, 0, stride)
		for x := 0; x < b.Width; x += 8 {
			var packed byte
			for i := 0; i < 8 && x+i < b.Width; i++ {
				if b.light(((y*b.Width)+x+i)*4) {
					packed |= 0x80 >> uint(i)
				}
			}
			packed = 0xff ^ packed
			if x/8 == stride-1 {
				packed &= mask
			}
			row = append(row, packed)
		}
		if len(row) != stride {
			return nil, invariantf("row %d packed into %d bytes, stride is %d", y, len(row), stride)
		}
		rows = append(rows, row)
	}

	if len(rows) != b.Height {
		return nil, invariantf("packed %d rows, image height is %d", len(rows), b.Height)
	}
	return rows, nil
}
