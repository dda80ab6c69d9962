// Package usb is the host side USB vendor bulk transport of the vendor
// protocol.
package usb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

// Device identity and endpoints.
const (
	VendorID    gousb.ID = 0x2E8A
	ProductID   gousb.ID = 0xC0DE
	Interface            = 0
	EndpointOut          = 0x01
	EndpointIn           = 0x81
)

// Defaults
const (
	DefaultTimeout      = time.Second
	DefaultDrainSilence = 50 * time.Millisecond
	packetSize          = 64
)

// ErrNotFound indicates no matching device is connected.
var ErrNotFound = errors.New("usb device not found")

// Config selects the device.
type Config struct {
	VendorID  gousb.ID
	ProductID gousb.ID
	// Serial picks a device by serial number when several are connected.
	Serial       string
	Timeout      time.Duration
	DrainSilence time.Duration
}

// DefaultConfig matches the DRO firmware.
func DefaultConfig() Config {
	return Config{
		VendorID:     VendorID,
		ProductID:    ProductID,
		Timeout:      DefaultTimeout,
		DrainSilence: DefaultDrainSilence,
	}
}

// Device is an opened DRO over USB.
type Device struct {
	Config Config

	ctx  *gousb.Context
	dev  *gousb.Device
	done func()
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint

	pending []byte
	buf     [packetSize]byte
}

// Open finds and claims the device.
func Open(conf Config) (*Device, error) {
	ctx := gousb.NewContext()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == conf.VendorID && desc.Product == conf.ProductID
	})
	if err != nil && len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("enumerate usb devices: %w", err)
	}
	dev := pick(devs, conf.Serial)
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, conf.VendorID, conf.ProductID)
	}
	if err := dev.SetAutoDetach(true); err != nil {
		glog.Warningf("usb auto detach: %v", err)
	}
	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("claim interface %d: %w", Interface, err)
	}
	d := &Device{Config: conf, ctx: ctx, dev: dev, done: done}
	if d.out, err = intf.OutEndpoint(EndpointOut); err == nil {
		d.in, err = intf.InEndpoint(EndpointIn)
	}
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open endpoints: %w", err)
	}
	return d, nil
}

func pick(devs []*gousb.Device, serial string) (found *gousb.Device) {
	for _, dev := range devs {
		if found == nil && serial != "" {
			if s, err := dev.SerialNumber(); err != nil || s != serial {
				dev.Close()
				continue
			}
		}
		if found == nil {
			found = dev
			continue
		}
		dev.Close()
	}
	return
}

func (d *Device) timeout(def time.Duration) time.Duration {
	if d.Config.Timeout > 0 {
		return d.Config.Timeout
	}
	return def
}

// Write sends a request.
func (d *Device) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout(DefaultTimeout))
	defer cancel()
	return d.out.WriteContext(ctx, p)
}

// Read returns response bytes. A bulk transfer may carry more than p
// holds; the rest is kept for the next Read.
func (d *Device) Read(p []byte) (int, error) {
	if len(d.pending) == 0 {
		if err := d.fill(d.timeout(DefaultTimeout)); err != nil {
			return 0, err
		}
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *Device) fill(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := d.in.ReadContext(ctx, d.buf[:])
	d.pending = d.buf[:n]
	return err
}

// DiscardInput reads and drops transfers until none arrives within
// DrainSilence.
func (d *Device) DiscardInput() error {
	silence := d.Config.DrainSilence
	if silence <= 0 {
		silence = DefaultDrainSilence
	}
	total := len(d.pending)
	d.pending = nil
	for d.fill(silence) == nil && len(d.pending) > 0 {
		total += len(d.pending)
		d.pending = nil
	}
	d.pending = nil
	if total > 0 {
		glog.V(2).Infof("usb: drained %d bytes", total)
	}
	return nil
}

// Close releases the interface, the device and the context.
func (d *Device) Close() error {
	if d.done != nil {
		d.done()
		d.done = nil
	}
	if d.dev != nil {
		d.dev.Close()
		d.dev = nil
	}
	if d.ctx != nil {
		err := d.ctx.Close()
		d.ctx = nil
		return err
	}
	return nil
}
