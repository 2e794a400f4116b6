package zplgraphic

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func filled(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestConvertWhite(t *testing.T) {
	zpl, err := ImageToZPL(context.Background(), encodePNG(t, filled(8, 1, color.White)), "")
	require.NoError(t, err)
	assert.Equal(t,
		"^XA~DGR:TEST.GRF,1,1,,^FS^XZ\n"+
			"^XA^FO0,0^XGR:TEST.GRF,1,1^FS^XZ\n"+
			"^XA^IDR:TEST.GRF^FS^XZ",
		zpl)
}

func TestConvertBlack(t *testing.T) {
	zpl, err := ImageToZPL(context.Background(), encodePNG(t, filled(16, 1, color.Black)), "")
	require.NoError(t, err)
	assert.Equal(t,
		"^XA~DGR:TEST.GRF,2,2,!^FS^XZ\n"+
			"^XA^FO0,0^XGR:TEST.GRF,1,1^FS^XZ\n"+
			"^XA^IDR:TEST.GRF^FS^XZ",
		zpl)
}

func TestConvertPreambleAndName(t *testing.T) {
	conv := NewConverter(WithPreamble("^XA^LH0,0^XZ"), WithName("E:LABEL.GRF"))
	zpl, err := conv.Convert(context.Background(), encodePNG(t, filled(8, 2, color.Black)))
	require.NoError(t, err)
	assert.Equal(t,
		"^XA^LH0,0^XZ\n"+
			"^XA~DGE:LABEL.GRF,2,1,!!^FS^XZ\n"+
			"^XA^FO0,0^XGE:LABEL.GRF,1,1^FS^XZ\n"+
			"^XA^IDE:LABEL.GRF^FS^XZ",
		zpl)
}

func TestConvertBMP(t *testing.T) {
	img := filled(12, 3, color.White)
	img.Set(0, 1, color.Black)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	zpl, err := ImageToZPL(context.Background(), buf.Bytes(), "")
	require.NoError(t, err)
	g, err := ParseGraphic(zpl)
	require.NoError(t, err)
	rows, err := g.Rows()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x00, 0x00}, {0x80, 0x00}, {0x00, 0x00}}, rows)
}

func TestConvertDecodeError(t *testing.T) {
	_, err := ImageToZPL(context.Background(), []byte("not an image"), "")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestConvertCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ImageToZPL(ctx, encodePNG(t, filled(8, 1, color.White)), "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestConvertDecodesOnce(t *testing.T) {
	calls := 0
	src := PixelSourceFunc(func(ctx context.Context, data []byte) (Bitmap, error) {
		calls++
		return solidBitmap(9, 2, black), nil
	})
	zpl, err := NewConverter(WithSource(src)).Convert(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, zpl, "~DGR:TEST.GRF,4,2,")
}

func TestConvertPropagatesInvariantError(t *testing.T) {
	src := PixelSourceFunc(func(ctx context.Context, data []byte) (Bitmap, error) {
		return Bitmap{Width: 8, Height: 2, Pix: make([]byte, 8)}, nil
	})
	zpl, err := NewConverter(WithSource(src)).Convert(context.Background(), nil)
	var invariantErr *InvariantError
	require.ErrorAs(t, err, &invariantErr)
	assert.Empty(t, zpl)
}

func checkerboard(width, height int) Bitmap {
	b := solidBitmap(width, height, white)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				copy(b.Pix[(y*width+x)*4:], []byte{0, 0, 0, 0xff})
			}
		}
	}
	return b
}

func randomBitmap(r *rand.Rand, width, height int) Bitmap {
	b := Bitmap{Width: width, Height: height, Pix: make([]byte, width*height*4)}
	r.Read(b.Pix)
	// long horizontal streaks so rows compress into runs
	for y := 0; y < height; y += 3 {
		for x := 0; x < width/2; x++ {
			copy(b.Pix[(y*width+x)*4:], []byte{0xff, 0xff, 0xff, 0xff})
		}
	}
	return b
}

func TestEncodeRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	bitmaps := map[string]Bitmap{
		"AllBlack":          solidBitmap(37, 5, black),
		"AllWhite":          solidBitmap(64, 4, white),
		"Checkerboard":      checkerboard(20, 6),
		"CheckerboardWide":  checkerboard(3300, 2),
		"Random1":           randomBitmap(r, 1, 9),
		"Random13":          randomBitmap(r, 13, 12),
		"Random64":          randomBitmap(r, 64, 12),
		"Random203":         randomBitmap(r, 203, 20),
		"RandomNarrowTall":  randomBitmap(r, 5, 40),
		"RandomWideRunning": randomBitmap(r, 1601, 7),
	}
	for name, b := range bitmaps {
		t.Run(name, func(t *testing.T) {
			g, err := Encode(b)
			require.NoError(t, err)
			assert.Equal(t, Stride(b.Width), g.Stride)
			assert.Equal(t, Stride(b.Width)*b.Height, g.TotalBytes())

			parsed, err := ParseGraphic(g.String())
			require.NoError(t, err)
			assert.Equal(t, g.TotalBytes(), parsed.TotalBytes())

			want, err := PackRows(b)
			require.NoError(t, err)
			got, err := parsed.Rows()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestEncodeRepeatsIdenticalRows(t *testing.T) {
	b := checkerboard(16, 3)
	// rows 1 and 2 equal
	copy(b.Pix[2*16*4:], b.Pix[16*4:2*16*4])

	g, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, byte(':'), g.Data[len(g.Data)-1])
}
