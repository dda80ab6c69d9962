package env

import (
	"net"
	"testing"
	"time"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/comm"
)

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		url    string
		expect Endpoint
	}{
		{"tcp://localhost:7070", Endpoint{Scheme: SchemeTCP, Address: "localhost:7070"}},
		{"serial:///dev/ttyACM0", Endpoint{Scheme: SchemeSerial, Address: "/dev/ttyACM0", Baud: 115200}},
		{"serial:COM3?baud=9600", Endpoint{Scheme: SchemeSerial, Address: "COM3", Baud: 9600}},
		{"usb://", Endpoint{Scheme: SchemeUSB, Vendor: 0x2e8a, Product: 0xc0de}},
		{"usb://1234:abcd?serial=E66", Endpoint{Scheme: SchemeUSB, Vendor: gousb.ID(0x1234), Product: gousb.ID(0xabcd), Serial: "E66"}},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			ep, err := ParseEndpoint(tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, ep)
		})
	}
}

func TestParseEndpointErrors(t *testing.T) {
	for _, s := range []string{
		"tcp://",
		"serial://",
		"serial:///dev/ttyS0?baud=fast",
		"usb://2e8a",
		"usb://xyz:1",
		"mqtt://localhost",
	} {
		_, err := ParseEndpoint(s)
		assert.Error(t, err, s)
	}
}

func TestConnectTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, comm.MaxRequestSize)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		f := comm.PositionFrame(axis.Vector{1, 2, 3, 4})
		f.WriteTo(conn)
		conn.Read(buf)
		<-stop
	}()

	conf := NewConfig()
	conf.DeviceURL = "tcp://" + ln.Addr().String()
	conf.Timeout = 200 * time.Millisecond
	dev, err := conf.Connect()
	require.NoError(t, err)
	defer dev.Close()
	require.Equal(t, SchemeTCP, dev.Endpoint.Scheme)
	pos, err := dev.Positions()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{1, 2, 3, 4}, pos)

	_, err = dev.Scales()
	require.Error(t, err)
	netErr, ok := err.(net.Error)
	require.True(t, ok)
	require.True(t, netErr.Timeout())
}
