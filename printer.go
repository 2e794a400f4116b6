package zplgraphic

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	stx = 0x02
	etx = 0x03
)

var (
	cmdHostStatus = []byte("~HS")
	cmdCancelAll  = []byte("~JA")
)

// Host status field offsets, first string of the ~HS reply.
const (
	statusOffsetPaperOut     = 1
	statusOffsetPause        = 2
	statusOffsetLabelLength  = 3
	statusOffsetFormats      = 4
	statusOffsetBufferFull   = 5
	statusOffsetCorruptRAM   = 9
	statusOffsetUnderTemp    = 10
	statusOffsetOverTemp     = 11
	statusFieldsFirstString  = 12
	statusOffsetHeadUp       = 2
	statusOffsetRibbonOut    = 3
	statusOffsetLabelsRemain = 8
	statusOffsetGraphics     = 10
	statusFieldsSecondString = 11
)

// Status is the decoded reply to a host status request.
type Status struct {
	PaperOut         bool
	Paused           bool
	LabelLength      int
	FormatsInBuffer  int
	BufferFull       bool
	CorruptRAM       bool
	UnderTemperature bool
	OverTemperature  bool
	HeadUp           bool
	RibbonOut        bool
	LabelsRemaining  int
	GraphicsStored   int
}

// Ready reports whether nothing blocks printing.
func (s Status) Ready() bool {
	return len(s.Problems()) == 0
}

// Problems lists the conditions that stop the printer.
func (s Status) Problems() []string {
	var p []string
	if s.PaperOut {
		p = append(p, "paper out")
	}
	if s.Paused {
		p = append(p, "paused")
	}
	if s.HeadUp {
		p = append(p, "head up")
	}
	if s.RibbonOut {
		p = append(p, "ribbon out")
	}
	if s.BufferFull {
		p = append(p, "receive buffer full")
	}
	if s.CorruptRAM {
		p = append(p, "corrupt RAM")
	}
	if s.UnderTemperature {
		p = append(p, "under temperature")
	}
	if s.OverTemperature {
		p = append(p, "over temperature")
	}
	return p
}

func (s Status) String() string {
	if s.Ready() {
		return fmt.Sprintf("Ready: %d formats queued, %d graphics stored", s.FormatsInBuffer, s.GraphicsStored)
	}
	return "Not ready: " + strings.Join(s.Problems(), ", ")
}

// Printer is a session with a ZPL printer over any byte channel.
type Printer struct {
	Conn   io.ReadWriteCloser
	Logger *slog.Logger
}

// NewPrinter wraps an open connection.
func NewPrinter(conn io.ReadWriteCloser) *Printer {
	return &Printer{Conn: conn, Logger: slog.Default()}
}

// Close closes the underlying connection.
func (p *Printer) Close() error {
	return p.Conn.Close()
}

// Send writes raw command text.
func (p *Printer) Send(zpl string) error {
	_, err := io.WriteString(p.Conn, zpl)
	return errors.Wrap(err, "send commands")
}

// CancelAll drops every format waiting in the printer buffer.
func (p *Printer) CancelAll() error {
	_, err := p.Conn.Write(cmdCancelAll)
	return errors.Wrap(err, "cancel formats")
}

// PrintImage converts data and sends the result, returning the job id that
// tags its log records.
func (p *Printer) PrintImage(ctx context.Context, conv *Converter, data []byte) (string, error) {
	id := uuid.NewString()
	log := p.logger().With(slog.String("job", id))

	zpl, err := conv.Convert(ctx, data)
	if err != nil {
		return id, errors.Wrap(err, "convert image")
	}
	log.DebugContext(ctx, "sending graphic", slog.Int("bytes", len(zpl)))
	if err := p.Send(zpl); err != nil {
		return id, err
	}
	log.InfoContext(ctx, "print job sent")
	return id, nil
}

// HostStatus requests and parses the printer status.
func (p *Printer) HostStatus() (*Status, error) {
	if _, err := p.Conn.Write(cmdHostStatus); err != nil {
		return nil, errors.Wrap(err, "request host status")
	}

	r := bufio.NewReader(p.Conn)
	var lines []string
	for len(lines) < 3 {
		if _, err := r.ReadBytes(stx); err != nil {
			return nil, errors.Wrap(err, "read host status")
		}
		line, err := r.ReadBytes(etx)
		if err != nil {
			return nil, errors.Wrap(err, "read host status")
		}
		lines = append(lines, string(line[:len(line)-1]))
	}
	return parseStatus(lines)
}

func (p *Printer) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func parseStatus(lines []string) (*Status, error) {
	if len(lines) < 2 {
		return nil, fmt.Errorf("status must be 3 strings, got: %d", len(lines))
	}
	first := strings.Split(lines[0], ",")
	if len(first) < statusFieldsFirstString {
		return nil, fmt.Errorf("status string 1 must have %d fields, got: %d", statusFieldsFirstString, len(first))
	}
	second := strings.Split(lines[1], ",")
	if len(second) < statusFieldsSecondString {
		return nil, fmt.Errorf("status string 2 must have %d fields, got: %d", statusFieldsSecondString, len(second))
	}

	var err error
	num := func(s string) int {
		n, perr := strconv.Atoi(strings.TrimSpace(s))
		if perr != nil && err == nil {
			err = fmt.Errorf("status field %q is not a number", s)
		}
		return n
	}
	flag := func(s string) bool {
		return strings.TrimSpace(s) == "1"
	}

	st := &Status{
		PaperOut:         flag(first[statusOffsetPaperOut]),
		Paused:           flag(first[statusOffsetPause]),
		LabelLength:      num(first[statusOffsetLabelLength]),
		FormatsInBuffer:  num(first[statusOffsetFormats]),
		BufferFull:       flag(first[statusOffsetBufferFull]),
		CorruptRAM:       flag(first[statusOffsetCorruptRAM]),
		UnderTemperature: flag(first[statusOffsetUnderTemp]),
		OverTemperature:  flag(first[statusOffsetOverTemp]),
		HeadUp:           flag(second[statusOffsetHeadUp]),
		RibbonOut:        flag(second[statusOffsetRibbonOut]),
		LabelsRemaining:  num(second[statusOffsetLabelsRemain]),
		GraphicsStored:   num(second[statusOffsetGraphics]),
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}
