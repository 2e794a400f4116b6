package zplgraphic

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamMatchesConvert(t *testing.T) {
	img := filled(29, 11, color.White)
	for x := 0; x < 29; x += 3 {
		img.Set(x, x%11, color.Black)
	}
	data := encodePNG(t, img)

	conv := NewConverter(WithPreamble("^XA^MMT^XZ"))
	want, err := conv.Convert(context.Background(), data)
	require.NoError(t, err)

	for _, size := range []int{1, 7, 64, len(data)} {
		var out bytes.Buffer
		s := conv.NewStream(context.Background(), &out)
		for off := 0; off < len(data); off += size {
			end := off + size
			if end > len(data) {
				end = len(data)
			}
			n, err := s.Write(data[off:end])
			require.NoError(t, err)
			assert.Equal(t, end-off, n)
		}
		require.NoError(t, s.Close())
		assert.Equal(t, want, out.String(), "chunk size %d", size)
	}
}

func TestStreamRejectsUseAfterClose(t *testing.T) {
	var out bytes.Buffer
	s := NewConverter().NewStream(context.Background(), &out)
	_, err := s.Write(encodePNG(t, filled(8, 1, color.Black)))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	produced := out.String()

	_, err = s.Write([]byte{1})
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.ErrorIs(t, s.Close(), ErrStreamClosed)
	assert.Equal(t, produced, out.String())
}

func TestStreamErrorIsTerminal(t *testing.T) {
	var out bytes.Buffer
	s := NewConverter().NewStream(context.Background(), &out)
	_, err := s.Write([]byte("garbage"))
	require.NoError(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, s.Close(), &decodeErr)
	assert.ErrorIs(t, s.Close(), ErrStreamClosed)
	_, err = s.Write([]byte{1})
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Empty(t, out.String())
}

func TestStreamAbort(t *testing.T) {
	calls := 0
	src := PixelSourceFunc(func(ctx context.Context, data []byte) (Bitmap, error) {
		calls++
		return solidBitmap(8, 1, black), nil
	})

	var out bytes.Buffer
	s := NewConverter(WithSource(src)).NewStream(context.Background(), &out)
	_, err := s.Write([]byte("partial"))
	require.NoError(t, err)
	s.Abort()

	assert.ErrorIs(t, s.Close(), ErrStreamClosed)
	assert.Equal(t, 0, calls)
	assert.Empty(t, out.String())
	assert.Equal(t, 0, s.buf.Len())
}
