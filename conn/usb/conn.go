// Package usb registers the "usb" driver talking to Zebra printers through libusb.
package usb

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/gousb"
	"github.com/ka2n/zplgraphic/conn"
)

const zebraVendorID gousb.ID = 0x0a5f

type USBSerial struct {
	mu     sync.Mutex
	readm  sync.Mutex
	writem sync.Mutex
	input  *gousb.InEndpoint
	output *gousb.OutEndpoint
	done   func()
}

func init() {
	conn.Register("usb", conn.DriverFunc(OpenUSB))
}

// parseProductID reads an address formatted like "0x0185".
func parseProductID(address string) (gousb.ID, error) {
	if !strings.HasPrefix(address, "0x") || len(address) != 6 {
		return 0, fmt.Errorf("invalid device address. address should \"0x0000\" form")
	}
	productID, err := hex.DecodeString(address[2:])
	if err != nil {
		return 0, err
	}
	return gousb.ID(binary.BigEndian.Uint16(productID)), nil
}

// OpenUSB open usb connection to device. if address is empty string, the first
// Zebra device found is used, otherwise address selects the product id.
func OpenUSB(address string) (io.ReadWriteCloser, error) {
	var err error
	var ctx *gousb.Context
	var done func()
	var dev *gousb.Device
	var devs []*gousb.Device
	var usbif *gousb.Interface
	var input *gousb.InEndpoint
	var output *gousb.OutEndpoint
	var productID gousb.ID

	ctx = gousb.NewContext()

	if address != "" {
		productID, err = parseProductID(address)
		if err != nil {
			goto handleError
		}
	}

	devs, err = ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == zebraVendorID && (productID == 0 || desc.Product == productID)
	})
	for i, d := range devs {
		if i == 0 {
			dev = d
			continue
		}
		d.Close()
	}
	if dev == nil {
		if err == nil {
			err = fmt.Errorf("USB device not found")
		}
		goto handleError
	}

	err = dev.SetAutoDetach(true)
	if err != nil {
		err = fmt.Errorf("set auto detach kernel driver: %w", err)
		goto handleError
	}

	usbif, done, err = dev.DefaultInterface()
	if err != nil {
		err = fmt.Errorf("get default interface: %w", err)
		goto handleError
	}

	for _, ep := range usbif.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch {
		case ep.Direction == gousb.EndpointDirectionIn && input == nil:
			input, err = usbif.InEndpoint(ep.Number)
		case ep.Direction == gousb.EndpointDirectionOut && output == nil:
			output, err = usbif.OutEndpoint(ep.Number)
		}
		if err != nil {
			err = fmt.Errorf("open endpoint %s: %w", ep, err)
			goto handleError
		}
	}
	if output == nil {
		err = fmt.Errorf("no bulk out endpoint on %s", dev)
		goto handleError
	}

	return &USBSerial{
		input:  input,
		output: output,
		done: func() {
			done()
			dev.Close()
			ctx.Close()
		},
	}, nil

handleError:
	if done != nil {
		done()
	}
	if dev != nil {
		dev.Close()
	}
	if ctx != nil {
		ctx.Close()
	}
	return nil, err
}

func (s *USBSerial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := s.done
	if done == nil {
		return nil
	}
	s.done = nil
	s.input = nil
	s.output = nil
	done()
	return nil
}

func (s *USBSerial) Write(b []byte) (int, error) {
	s.writem.Lock()
	defer s.writem.Unlock()
	if s.output == nil {
		return 0, io.ErrClosedPipe
	}
	return s.output.Write(b)
}

func (s *USBSerial) Read(b []byte) (int, error) {
	s.readm.Lock()
	defer s.readm.Unlock()
	if s.input == nil {
		return 0, io.EOF
	}
	return s.input.Read(b)
}
