package zplgraphic

import (
	"context"
	"log/slog"
	"time"
)

type config struct {
	name     string
	preamble string
	source   PixelSource
	logger   *slog.Logger
}

// Option configures a Converter.
type Option func(*config)

// WithName sets the printer object name shared by the store, display and
// delete commands.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithPreamble sets text emitted on its own line before the commands.
func WithPreamble(preamble string) Option {
	return func(c *config) { c.preamble = preamble }
}

// WithSource replaces the default ImageSource.
func WithSource(src PixelSource) Option {
	return func(c *config) { c.source = src }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func newConfig(opts []Option) config {
	c := config{
		name:   DefaultGraphicName,
		source: ImageSource{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Encode packs and compresses a bitmap into a Graphic.
func Encode(b Bitmap, opts ...Option) (*Graphic, error) {
	c := newConfig(opts)
	return encode(b, c.name)
}

func encode(b Bitmap, name string) (*Graphic, error) {
	rows, err := PackRows(b)
	if err != nil {
		return nil, err
	}
	data, err := EncodeRows(rows)
	if err != nil {
		return nil, err
	}
	return &Graphic{
		Name:   name,
		Stride: Stride(b.Width),
		Height: b.Height,
		Data:   data,
	}, nil
}

// Converter turns encoded images into ZPL download graphic commands.
type Converter struct {
	cfg config
}

// NewConverter returns a Converter configured by opts.
func NewConverter(opts ...Option) *Converter {
	return &Converter{cfg: newConfig(opts)}
}

// Convert decodes data once and encodes the result. Nothing is returned
// unless the whole image encodes.
func (c *Converter) Convert(ctx context.Context, data []byte) (string, error) {
	type decoded struct {
		b   Bitmap
		err error
	}

	start := time.Now()
	done := make(chan decoded, 1)
	go func() {
		b, err := c.cfg.source.Decode(ctx, data)
		done <- decoded{b, err}
	}()

	var d decoded
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case d = <-done:
	}
	if d.err != nil {
		return "", d.err
	}

	g, err := encode(d.b, c.cfg.name)
	if err != nil {
		return "", err
	}
	c.cfg.logger.DebugContext(ctx, "encoded graphic",
		slog.String("name", g.Name),
		slog.Int("width", d.b.Width),
		slog.Int("height", d.b.Height),
		slog.Int("stride", g.Stride),
		slog.Int("compressed", len(g.Data)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return g.Assemble(c.cfg.preamble), nil
}

// ImageToZPL converts data with the default source and object name.
func ImageToZPL(ctx context.Context, data []byte, preamble string) (string, error) {
	return NewConverter(WithPreamble(preamble)).Convert(ctx, data)
}
