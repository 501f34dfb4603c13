package dial

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// DefaultBaudRate matches the dial firmware's USB CDC console.
const DefaultBaudRate = 115200

// SerialPort wraps the serial connection to the dial.
type SerialPort struct {
	port serial.Port
	path string

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens the dial's serial port, 8N1. A zero baud rate uses DefaultBaudRate.
func OpenSerial(portPath string, baud int) (*SerialPort, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portPath, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portPath, err)
	}

	// The firmware only writes events once the host asserts DTR.
	if err := port.SetDTR(true); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set DTR: %w", err)
	}

	log.Info().Str("port", portPath).Int("baud", baud).Msg("Dial serial port opened")

	return &SerialPort{port: port, path: portPath}, nil
}

// Path returns the device path the port was opened on.
func (s *SerialPort) Path() string {
	return s.path
}

// Read reads raw bytes from the serial port. It unblocks with an error once
// the port is closed.
func (s *SerialPort) Read(buf []byte) (int, error) {
	return s.port.Read(buf)
}

// Close closes the serial port. Closing twice is a no-op.
func (s *SerialPort) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

// Ports lists serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
