package conn

import (
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/goburrow/serial"
	"github.com/pkg/errors"
)

const (
	// DefaultBaudRate is the factory serial setting of ZPL printers.
	DefaultBaudRate = 9600
	// DefaultPort is the raw printing port of networked ZPL printers.
	DefaultPort = "9100"

	dialTimeout = 5 * time.Second
)

// openSerial for generic serial connection. address is a device path with an
// optional "@baud" suffix, e.g. "/dev/ttyUSB0@115200".
func openSerial(address string) (io.ReadWriteCloser, error) {
	cfg, err := serialConfig(address)
	if err != nil {
		return nil, err
	}
	return serial.Open(cfg)
}

func serialConfig(address string) (*serial.Config, error) {
	baud := DefaultBaudRate
	if i := strings.LastIndex(address, "@"); i >= 0 {
		n, err := strconv.Atoi(address[i+1:])
		if err != nil || n <= 0 {
			return nil, errors.Errorf("conn: invalid baud rate in %q", address)
		}
		address, baud = address[:i], n
	}
	if address == "" {
		return nil, errors.New("conn: serial device path required")
	}
	return &serial.Config{
		Address:  address,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  dialTimeout,
	}, nil
}

// openTCP dials a networked printer, on port 9100 unless address names one.
func openTCP(address string) (io.ReadWriteCloser, error) {
	return net.DialTimeout("tcp", tcpAddress(address), dialTimeout)
}

func tcpAddress(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(strings.Trim(address, "[]"), DefaultPort)
}
