package zplgraphic

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// DefaultGraphicName is the object name used when none is configured.
const DefaultGraphicName = "R:TEST.GRF"

// Graphic is a compressed download graphic: a stored GRF object together with
// the geometry the printer needs to expand it.
type Graphic struct {
	Name   string
	Stride int
	Height int
	Data   string
}

// TotalBytes is the uncompressed size announced to the printer.
func (g *Graphic) TotalBytes() int {
	return g.Stride * g.Height
}

// StoreCommand downloads the graphic into printer memory.
func (g *Graphic) StoreCommand() string {
	return fmt.Sprintf("^XA~DG%s,%d,%d,%s^FS^XZ", g.Name, g.TotalBytes(), g.Stride, g.Data)
}

// DisplayCommand prints the stored graphic at the field origin, unscaled.
func (g *Graphic) DisplayCommand() string {
	return fmt.Sprintf("^XA^FO0,0^XG%s,1,1^FS^XZ", g.Name)
}

// DeleteCommand removes the stored graphic from printer memory.
func (g *Graphic) DeleteCommand() string {
	return fmt.Sprintf("^XA^ID%s^FS^XZ", g.Name)
}

// String joins the store, display and delete commands with newlines.
func (g *Graphic) String() string {
	return strings.Join([]string{g.StoreCommand(), g.DisplayCommand(), g.DeleteCommand()}, "\n")
}

// Assemble returns the final command text, with preamble on its own line
// in front when it is not empty.
func (g *Graphic) Assemble(preamble string) string {
	if preamble == "" {
		return g.String()
	}
	return preamble + "\n" + g.String()
}

// ParseGraphic locates the first ~DG store command in text and returns the
// graphic it carries. The data is not expanded until Rows is called.
func ParseGraphic(text string) (*Graphic, error) {
	start := strings.Index(text, "~DG")
	if start < 0 {
		return nil, &FormatError{Offset: 0, Msg: "no ~DG command"}
	}
	body := text[start+3:]
	if end := strings.IndexAny(body, "^~"); end >= 0 {
		body = body[:end]
	}

	fields := strings.SplitN(body, ",", 4)
	if len(fields) != 4 {
		return nil, &FormatError{Offset: start, Msg: "~DG needs name, size, stride and data"}
	}
	total, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || total < 0 {
		return nil, &FormatError{Offset: start, Msg: "bad total byte count " + strconv.Quote(fields[1])}
	}
	stride, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil || stride <= 0 {
		return nil, &FormatError{Offset: start, Msg: "bad bytes per row " + strconv.Quote(fields[2])}
	}
	if total%stride != 0 {
		return nil, &FormatError{Offset: start, Msg: fmt.Sprintf("total %d is not a multiple of stride %d", total, stride)}
	}

	return &Graphic{
		Name:   fields[0],
		Stride: stride,
		Height: total / stride,
		Data:   strings.TrimSpace(fields[3]),
	}, nil
}

// Rows expands the compressed data back into packed rows.
func (g *Graphic) Rows() ([][]byte, error) {
	width := g.Stride * 2
	rows := make([][]byte, 0, g.Height)
	nibbles := make([]byte, 0, width)
	count := 0

	finish := func(fill byte) {
		for len(nibbles) < width {
			nibbles = append(nibbles, fill)
		}
		row := make([]byte, g.Stride)
		for i := range row {
			row[i] = nibbles[2*i]<<4 | nibbles[2*i+1]
		}
		rows = append(rows, row)
		nibbles = nibbles[:0]
	}

	for off := 0; off < len(g.Data); off++ {
		c := g.Data[off]
		switch c {
		case '\r', '\n', ' ', '\t':
			continue
		}
		if len(rows) == g.Height {
			return nil, &FormatError{Offset: off, Msg: "data past the last row"}
		}

		if v, ok := repeatValue(c); ok {
			count += v
			continue
		}

		switch c {
		case markBlank, markSolid:
			if count != 0 {
				return nil, &FormatError{Offset: off, Msg: "repeat code before a row marker"}
			}
			if c == markSolid {
				finish(0xf)
			} else {
				finish(0x0)
			}
		case markRepeat:
			if count != 0 || len(rows) == 0 || len(nibbles) != 0 {
				return nil, &FormatError{Offset: off, Msg: "repeat marker must follow a complete row"}
			}
			rows = append(rows, append([]byte(nil), rows[len(rows)-1]...))
		default:
			n, err := strconv.ParseUint(string(c), 16, 8)
			if err != nil {
				return nil, &FormatError{Offset: off, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
			}
			if count == 0 {
				count = 1
			}
			if len(nibbles)+count > width {
				return nil, &FormatError{Offset: off, Msg: "run crosses the end of the row"}
			}
			for ; count > 0; count-- {
				nibbles = append(nibbles, byte(n))
			}
			if len(nibbles) == width {
				finish(0)
			}
		}
	}

	if count != 0 || len(nibbles) != 0 || len(rows) != g.Height {
		return nil, &FormatError{Offset: len(g.Data), Msg: fmt.Sprintf("data ends after %d of %d rows", len(rows), g.Height)}
	}
	return rows, nil
}

// Image renders the graphic, printed dots black on white.
func (g *Graphic) Image() (*image.Gray, error) {
	rows, err := g.Rows()
	if err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, g.Stride*8, g.Height))
	for y, row := range rows {
		for x := 0; x < g.Stride*8; x++ {
			c := color.Gray{Y: 0xff}
			if row[x/8]&(0x80>>uint(x%8)) != 0 {
				c = color.Gray{Y: 0x00}
			}
			img.SetGray(x, y, c)
		}
	}
	return img, nil
}
