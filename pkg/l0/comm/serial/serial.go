// Package serial is the serial port transport of the vendor protocol.
package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// ErrTimeout indicates no data arrived within the read timeout.
var ErrTimeout = errors.New("serial read timeout")

// Config defines the serial port settings.
type Config struct {
	Device   string
	BaudRate int
	// ReadTimeout bounds a single read. 0 blocks forever, which the
	// device side needs: a read error ends the host attachment.
	ReadTimeout time.Duration
	// DrainSilence is how long the input must stay quiet to be
	// considered drained.
	DrainSilence time.Duration
}

// Defaults
const (
	DefaultBaudRate     = 115200
	DefaultDrainSilence = 50 * time.Millisecond
	drainLimit          = time.Second
)

// Port wraps an opened serial port.
type Port struct {
	serial.Port
	Config Config
}

// Open opens the serial port in 8N1 mode.
func Open(conf Config) (*Port, error) {
	if conf.BaudRate == 0 {
		conf.BaudRate = DefaultBaudRate
	}
	if conf.DrainSilence == 0 {
		conf.DrainSilence = DefaultDrainSilence
	}
	mode := &serial.Mode{
		BaudRate: conf.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(conf.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Device, err)
	}
	p := &Port{Port: port, Config: conf}
	if err := p.setTimeout(conf.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set timeout %s: %w", conf.Device, err)
	}
	return p, nil
}

func (p *Port) setTimeout(d time.Duration) error {
	if d <= 0 {
		return p.Port.SetReadTimeout(serial.NoTimeout)
	}
	return p.Port.SetReadTimeout(d)
}

// Read reports ErrTimeout instead of an empty read.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && err == nil {
		return 0, ErrTimeout
	}
	return n, err
}

// DiscardInput discards pending input until the line stays quiet for
// DrainSilence.
func (p *Port) DiscardInput() error {
	if err := p.Port.ResetInputBuffer(); err != nil {
		return err
	}
	if err := p.Port.SetReadTimeout(p.Config.DrainSilence); err != nil {
		return err
	}
	defer p.setTimeout(p.Config.ReadTimeout)
	buf := make([]byte, 256)
	total, deadline := 0, time.Now().Add(drainLimit)
	for time.Now().Before(deadline) {
		n, err := p.Port.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		total += n
	}
	if total > 0 {
		glog.V(2).Infof("serial %s: drained %d bytes", p.Config.Device, total)
	}
	return nil
}

// Ports lists the serial ports of the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
