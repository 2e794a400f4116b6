package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/ka2n/zplgraphic"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewConvertCmd converts an image file into ZPL text
func NewConvertCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [image]",
		Short: "convert an image into ZPL commands",
		Long:  "Decodes an image, thresholds it to monochrome and writes the ~DG store, ^XG recall and ^ID delete commands.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := inputPath(cmd, args)
			conv, err := converterFromFlags(cmd)
			if err != nil {
				return err
			}

			r, closeIn, err := openInput(in)
			if err != nil {
				return err
			}
			defer closeIn()

			outPath, _ := cmd.Flags().GetString("output")
			w, closeOut, err := openOutput(cmd, outPath)
			if err != nil {
				return err
			}
			defer closeOut()

			stream := conv.NewStream(ctx, w)
			if _, err := io.Copy(stream, r); err != nil {
				stream.Abort()
				return errors.Wrap(err, "read image")
			}
			if err := stream.Close(); err != nil {
				return err
			}
			slog.DebugContext(ctx, "converted", slog.String("input", in), slog.String("output", outPath))
			return nil
		},
	}
	addInputFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", "-", "ZPL output path, - for stdout")
	return cmd
}

func addInputFlags(fs *pflag.FlagSet) {
	fs.StringP("input", "i", "", "image path, - for stdin")
	fs.String("name", zplgraphic.DefaultGraphicName, "printer object name for the stored graphic")
	fs.String("preamble", "", "ZPL text emitted before the graphic commands")
	fs.String("preamble-file", "", "read the preamble from a file")
	fs.Int("width", 0, "resize to this many dots wide before thresholding, 0 keeps the size")
	fs.Bool("auto-orient", false, "apply the EXIF orientation of JPEG input")
}

func inputPath(cmd *cobra.Command, args []string) string {
	in, _ := cmd.Flags().GetString("input")
	if in == "" && len(args) > 0 {
		in = args[0]
	}
	if in == "" {
		in = "-"
	}
	return in
}

func converterFromFlags(cmd *cobra.Command) (*zplgraphic.Converter, error) {
	fs := cmd.Flags()
	name, _ := fs.GetString("name")
	preamble, _ := fs.GetString("preamble")
	preambleFile, _ := fs.GetString("preamble-file")
	width, _ := fs.GetInt("width")
	autoOrient, _ := fs.GetBool("auto-orient")

	if preambleFile != "" {
		raw, err := os.ReadFile(preambleFile)
		if err != nil {
			return nil, errors.Wrap(err, "read preamble")
		}
		preamble = string(bytes.TrimRight(raw, "\r\n"))
	}
	if width < 0 {
		return nil, fmt.Errorf("width must not be negative, got: %d", width)
	}

	return zplgraphic.NewConverter(
		zplgraphic.WithName(name),
		zplgraphic.WithPreamble(preamble),
		zplgraphic.WithSource(resizeSource(width, autoOrient)),
	), nil
}

// resizeSource decodes like zplgraphic.ImageSource and scales the image to
// width dots keeping its aspect ratio.
func resizeSource(width int, autoOrient bool) zplgraphic.PixelSource {
	if width == 0 {
		return zplgraphic.ImageSource{AutoOrientation: autoOrient}
	}
	return zplgraphic.PixelSourceFunc(func(ctx context.Context, data []byte) (zplgraphic.Bitmap, error) {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
		if err != nil {
			return zplgraphic.Bitmap{}, &zplgraphic.DecodeError{Err: err}
		}
		return zplgraphic.BitmapFromImage(imaging.Resize(img, width, 0, imaging.Lanczos)), nil
	})
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input")
	}
	return f, func() { f.Close() }, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create output")
	}
	return f, func() { f.Close() }, nil
}

func readInput(path string) ([]byte, error) {
	r, closeIn, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer closeIn()
	return io.ReadAll(r)
}
