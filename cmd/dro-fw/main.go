// dro-fw runs the DRO firmware core against simulated encoders and
// serves the binary protocol over TCP or a serial port.
package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/comm/serial"
	"github.com/robotalks/dro.go/pkg/l0/encoder"
	"github.com/robotalks/dro.go/pkg/l0/firmware"
)

var (
	listenAddr = ":7878"
	serialDev  string
	channels   = axis.NumAxes
	velocity   string
	strict     bool
)

func init() {
	if val := os.Getenv("DRO_FW_LISTEN"); val != "" {
		listenAddr = val
	}
	firmware.SetupFlags()
	flag.StringVar(&listenAddr, "listen", listenAddr, "TCP address serving the protocol, empty to disable.")
	flag.StringVar(&serialDev, "serial", serialDev, "Serial device serving the protocol.")
	flag.IntVar(&channels, "channels", channels, "Number of counting channels available to axes.")
	flag.StringVar(&velocity, "velocity", velocity, "Simulated encoder velocity in counts/s, x,y,z,a.")
	flag.BoolVar(&strict, "strict", strict, "Exit when any axis fails to initialize.")
}

func parseVelocity(s string) (v axis.Vector, err error) {
	if s == "" {
		return
	}
	items := strings.Split(s, ",")
	if len(items) != axis.NumAxes {
		return v, fmt.Errorf("velocity: expect %d values, got %d", axis.NumAxes, len(items))
	}
	for n, item := range items {
		if v[n], err = strconv.ParseFloat(strings.TrimSpace(item), 64); err != nil {
			return v, fmt.Errorf("velocity %q: %w", item, err)
		}
		if math.IsNaN(v[n]) || math.IsInf(v[n], 0) {
			return v, fmt.Errorf("velocity %q: not finite", item)
		}
	}
	return
}

func serveTCP(ctx context.Context, rt *firmware.Runtime) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	glog.Infof("serving on %s", ln.Addr())
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		glog.Infof("host attached: %s", conn.RemoteAddr())
		rt.Task.Attach(conn)
	}
}

func main() {
	flag.Parse()

	vel, err := parseVelocity(velocity)
	if err != nil {
		log.Fatalln(err)
	}
	counters := encoder.NewCounters(channels)
	rt, err := firmware.Default().NewRuntime(counters, nil)
	if err != nil {
		log.Fatalln(err)
	}
	if err := rt.Init(); err != nil {
		var initErr *encoder.InitError
		if strict || !errors.As(err, &initErr) {
			log.Fatalln(err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if serialDev != "" {
		port, err := serial.Open(serial.Config{Device: serialDev})
		if err != nil {
			log.Fatalln(err)
		}
		rt.NewHostTask().Attach(port)
	}

	loop := rt.NewLoop()
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return loop.Run(ctx)
	})
	grp.Go(func() error {
		return encoder.NewSimulator(counters, vel).Run(ctx)
	})
	if listenAddr != "" {
		grp.Go(func() error {
			return serveTCP(ctx, rt)
		})
	}
	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}
