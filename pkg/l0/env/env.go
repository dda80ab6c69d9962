// Package env sets up the connection to a DRO device from flags and
// environment.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/gousb"

	"github.com/robotalks/dro.go/pkg/l0/comm"
	"github.com/robotalks/dro.go/pkg/l0/comm/serial"
	"github.com/robotalks/dro.go/pkg/l0/comm/usb"
)

// Schemes of device URLs.
const (
	SchemeTCP    = "tcp"
	SchemeSerial = "serial"
	SchemeUSB    = "usb"
)

// Endpoint is a parsed device URL:
//
//	tcp://host:port
//	serial:///dev/ttyACM0?baud=115200
//	usb://[vid:pid][?serial=...]
type Endpoint struct {
	Scheme  string
	Address string
	Baud    int
	Vendor  gousb.ID
	Product gousb.ID
	Serial  string
}

// ParseEndpoint parses a device URL.
func ParseEndpoint(s string) (ep Endpoint, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return ep, fmt.Errorf("invalid device URL: %w", err)
	}
	ep.Scheme = u.Scheme
	switch u.Scheme {
	case SchemeTCP:
		if u.Host == "" {
			return ep, fmt.Errorf("invalid device URL %q: missing host", s)
		}
		ep.Address = u.Host
	case SchemeSerial:
		ep.Address = u.Path
		if ep.Address == "" {
			ep.Address = u.Opaque
		}
		if ep.Address == "" {
			return ep, fmt.Errorf("invalid device URL %q: missing device", s)
		}
		ep.Baud = serial.DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if ep.Baud, err = strconv.Atoi(val); err != nil {
				return ep, fmt.Errorf("invalid baud rate %q: %w", val, err)
			}
		}
	case SchemeUSB:
		ep.Vendor, ep.Product = usb.VendorID, usb.ProductID
		if u.Host != "" {
			if ep.Vendor, ep.Product, err = parseVIDPID(u.Host); err != nil {
				return ep, err
			}
		}
		ep.Serial = u.Query().Get("serial")
	default:
		return ep, fmt.Errorf("unknown device URL scheme: %q", u.Scheme)
	}
	return ep, nil
}

func parseVIDPID(s string) (vid, pid gousb.ID, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid usb id %q, expect vid:pid", s)
	}
	v, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid vendor id %q: %w", parts[0], err)
	}
	p, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid product id %q: %w", parts[1], err)
	}
	return gousb.ID(v), gousb.ID(p), nil
}

// Config provides common options to open a device.
type Config struct {
	// DeviceURL specifies the device, see Endpoint.
	DeviceURL string
	// Timeout bounds dialing and waiting for a response.
	Timeout time.Duration
}

var defaultConfig = Config{
	DeviceURL: "usb://",
	Timeout:   time.Second,
}

func init() {
	if val := os.Getenv("DRO_DEVICE"); val != "" {
		defaultConfig.DeviceURL = val
	}
	if val := os.Getenv("DRO_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.Timeout = d
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.DeviceURL, "device", defaultConfig.DeviceURL, "DRO device URL (usb://, serial:///dev/ttyACM0, tcp://host:port).")
	flag.DurationVar(&defaultConfig.Timeout, "device-timeout", defaultConfig.Timeout, "DRO device response timeout.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Device is a connected DRO.
type Device struct {
	*comm.Client
	Endpoint Endpoint

	closer io.Closer
}

// Close closes the transport.
func (d *Device) Close() error {
	return d.closer.Close()
}

// Open opens the transport of the device URL.
func (c *Config) Open() (io.ReadWriteCloser, Endpoint, error) {
	ep, err := ParseEndpoint(c.DeviceURL)
	if err != nil {
		return nil, ep, err
	}
	switch ep.Scheme {
	case SchemeTCP:
		conn, err := net.DialTimeout("tcp", ep.Address, c.Timeout)
		if err != nil {
			return nil, ep, err
		}
		return &timeoutConn{Conn: conn, timeout: c.Timeout}, ep, nil
	case SchemeSerial:
		port, err := serial.Open(serial.Config{
			Device:      ep.Address,
			BaudRate:    ep.Baud,
			ReadTimeout: c.Timeout,
		})
		if err != nil {
			return nil, ep, err
		}
		return port, ep, nil
	default:
		conf := usb.DefaultConfig()
		conf.VendorID, conf.ProductID, conf.Serial = ep.Vendor, ep.Product, ep.Serial
		conf.Timeout = c.Timeout
		dev, err := usb.Open(conf)
		if err != nil {
			return nil, ep, err
		}
		return dev, ep, nil
	}
}

// Connect opens the device and wraps it with a protocol client.
func (c *Config) Connect() (*Device, error) {
	rw, ep, err := c.Open()
	if err != nil {
		return nil, err
	}
	return &Device{Client: comm.NewClient(rw), Endpoint: ep, closer: rw}, nil
}

// MustConnect connects to the device or fails.
func (c *Config) MustConnect() *Device {
	dev, err := c.Connect()
	if err != nil {
		log.Fatalln(err)
	}
	return dev
}

// timeoutConn bounds every read of a TCP connection.
type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		c.Conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	return c.Conn.Read(p)
}

// DiscardInput implements comm.InputDiscarder.
func (c *timeoutConn) DiscardInput() error {
	buf := make([]byte, 256)
	for {
		c.Conn.SetReadDeadline(time.Now().Add(comm.DefaultDrainTimeout))
		if n, err := c.Conn.Read(buf); err != nil || n == 0 {
			break
		}
	}
	return c.Conn.SetReadDeadline(time.Time{})
}
