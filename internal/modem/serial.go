package modem

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate matches the ESP8266 AT firmware default.
	DefaultBaudRate = 115200

	// pollInterval bounds how long Available blocks on an idle link.
	pollInterval = 5 * time.Millisecond
)

// SerialPort is a Port backed by a serial device.
type SerialPort struct {
	name string
	port serial.Port
	buf  [256]byte
	r, w int
	err  error
}

// OpenSerial opens device at baud, 8N1.
func OpenSerial(device string, baud int) (*SerialPort, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}

	if err := port.SetReadTimeout(pollInterval); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", device, err)
	}

	return &SerialPort{name: device, port: port}, nil
}

// Name returns the device path.
func (s *SerialPort) Name() string { return s.name }

// fill reads whatever the driver has, waiting at most pollInterval.
func (s *SerialPort) fill() {
	n, err := s.port.Read(s.buf[:])
	s.r, s.w = 0, n
	if err != nil {
		s.err = fmt.Errorf("serial read on %s: %w", s.name, err)
	}
}

// Available implements Port.
func (s *SerialPort) Available() bool {
	if s.r < s.w || s.err != nil {
		return true
	}
	s.fill()
	return s.r < s.w || s.err != nil
}

// ReadByte implements Port.
func (s *SerialPort) ReadByte() (byte, error) {
	for s.r >= s.w {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	b := s.buf[s.r]
	s.r++
	return b, nil
}

// Write implements io.Writer.
func (s *SerialPort) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write on %s: %w", s.name, err)
	}
	return n, nil
}

// Close releases the device.
func (s *SerialPort) Close() error {
	s.err = ErrPortClosed
	return s.port.Close()
}

// PortInfo describes a serial device found on the host.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// ListPorts enumerates serial devices.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}
