package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ka2n/zplgraphic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(context.Background(), "abc123")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "abc123\n", out)
}

func TestConvertToFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 16, 1))
	in := writePNG(t, dir, img)
	outPath := filepath.Join(dir, "out.zpl")

	_, err := run(t, "convert", in, "-o", outPath, "--preamble", "^XA^PW16^XZ", "--name", "R:ICON.GRF")
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t,
		"^XA^PW16^XZ\n"+
			"^XA~DGR:ICON.GRF,2,2,!^FS^XZ\n"+
			"^XA^FO0,0^XGR:ICON.GRF,1,1^FS^XZ\n"+
			"^XA^IDR:ICON.GRF^FS^XZ",
		string(got))
}

func TestConvertPreambleFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 8, 1))
	img.SetGray(0, 0, color.Gray{Y: 0xff})
	in := writePNG(t, dir, img)
	pre := filepath.Join(dir, "pre.zpl")
	require.NoError(t, os.WriteFile(pre, []byte("^XA^LH10,10^XZ\r\n"), 0644))

	out, err := run(t, "convert", "-i", in, "--preamble-file", pre)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "^XA^LH10,10^XZ\n^XA~DGR:TEST.GRF,1,1,"), out)
}

func TestConvertResize(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, image.NewGray(image.Rect(0, 0, 40, 20)))

	out, err := run(t, "convert", in, "--width", "20")
	require.NoError(t, err)
	g, err := zplgraphic.ParseGraphic(out)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Stride)
	assert.Equal(t, 10, g.Height)
}

func TestConvertMissingFile(t *testing.T) {
	_, err := run(t, "convert", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	zplPath := filepath.Join(dir, "in.zpl")
	require.NoError(t, os.WriteFile(zplPath, []byte("^XA~DGR:TEST.GRF,4,2,I71,^FS^XZ"), 0644))

	out, err := run(t, "preview", zplPath, "--debug")
	require.NoError(t, err)
	assert.Equal(t, "0111011101110001\n0000000000000000\n", out)

	pngPath := filepath.Join(dir, "out.png")
	_, err = run(t, "preview", "-i", zplPath, "-o", pngPath)
	require.NoError(t, err)
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 2), img.Bounds())
}

func TestPrintRequiresAddress(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, image.NewGray(image.Rect(0, 0, 8, 8)))
	_, err := run(t, "print", in, "-d", "tcp", "-a", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address required")
}
