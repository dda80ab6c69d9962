package dro

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dro.go/pkg/cli/sh"
	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/firmware"
	"github.com/robotalks/dro.go/pkg/l1/msgs"
	"github.com/robotalks/dro.go/pkg/monitor"
)

var (
	// PositionsCmd exposes DROPositionsQuery.
	PositionsCmd = ishell.Cmd{
		Name:    "dro.pos",
		Aliases: []string{"pos", "p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.DROPositionsQuery{})
		}),
	}

	// ScalesCmd exposes DROScalesQuery.
	ScalesCmd = ishell.Cmd{
		Name:    "dro.scales",
		Aliases: []string{"scales"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.DROScalesQuery{})
		}),
	}

	// SetScaleCmd exposes DROSetScale.
	SetScaleCmd = ishell.Cmd{
		Name:    "dro.scale",
		Aliases: []string{"scale"},
		Help:    "AXIS SCALE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseSetScale(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// ResetCmd exposes DROResetAxis.
	ResetCmd = ishell.Cmd{
		Name:    "dro.reset",
		Aliases: []string{"zero"},
		Help:    "AXIS...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("AXIS required"))
				return
			}
			for _, arg := range c.Args {
				a, err := axis.Parse(arg)
				if err != nil {
					c.Err(err)
					return
				}
				if sh.DoCommand(c, &msgs.DROResetAxis{Axis: uint32(a)}) != nil {
					return
				}
			}
		}),
	}

	// TestModeCmd exposes DROSetTestMode.
	TestModeCmd = ishell.Cmd{
		Name:    "dro.test",
		Aliases: []string{"test"},
		Help:    "off|sine|circular|ramp|walk",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("MODE required"))
				return
			}
			var mode firmware.TestMode
			if err := mode.Set(c.Args[0]); err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.DROSetTestMode{Mode: uint32(mode)})
		}),
	}

	// StatsCmd exposes DROStatsQuery.
	StatsCmd = ishell.Cmd{
		Name:    "dro.stats",
		Aliases: []string{"stats"},
		Help:    "[clear]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			clear := len(c.Args) > 0 && c.Args[0] == "clear"
			sh.DoCommand(c, &msgs.DROStatsQuery{Clear: clear})
		}),
	}

	// WatchCmd prints position events.
	WatchCmd = ishell.Cmd{
		Name:    "dro.watch",
		Aliases: []string{"watch", "w"},
		Help:    "[COUNT] [TIMEOUT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count, timeout := 10, 5*time.Second
			var err error
			if len(c.Args) > 0 {
				if count, err = strconv.Atoi(c.Args[0]); err != nil {
					c.Err(fmt.Errorf("invalid COUNT: %v", err))
					return
				}
			}
			if len(c.Args) > 1 {
				if timeout, err = time.ParseDuration(c.Args[1]); err != nil {
					c.Err(fmt.Errorf("invalid TIMEOUT: %v", err))
					return
				}
			}
			s := sh.ShellFrom(c)
			expire := time.After(timeout)
			for n := 0; n < count; {
				select {
				case ev := <-s.Loop.Events:
					if _, ok := ev.(*msgs.DROPositionEvent); ok {
						n++
					}
					if err := s.PrintMessage(c, ev); err != nil {
						c.Err(err)
						return
					}
				case <-expire:
					return
				}
			}
		}),
	}
)

// ParseSetScale parses "AXIS SCALE".
func ParseSetScale(args []string) (*msgs.DROSetScale, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("AXIS and SCALE required")
	}
	a, err := axis.Parse(args[0])
	if err != nil {
		return nil, err
	}
	scale, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SCALE: %v", err)
	}
	return &msgs.DROSetScale{Axis: uint32(a), Scale: scale}, nil
}

// Format formats DRO messages for display.
func Format(msg fx.Message) (string, bool) {
	switch m := msg.(type) {
	case *msgs.DROPositions:
		return monitor.FormatPositions(m.Vector()), true
	case *msgs.DROPositionEvent:
		return time.Unix(0, m.Timestamp).Format("15:04:05.000") + " " + monitor.FormatPositions(m.Vector()), true
	case *msgs.DROScales:
		var items []string
		for _, a := range axis.All {
			items = append(items, fmt.Sprintf("%s:%g", a, m.Vector()[a]))
		}
		return strings.Join(items, " "), true
	case *msgs.DROStats:
		var b strings.Builder
		now := time.Now()
		monitor.FromMessage(m, now).WriteSummary(&b, now)
		return strings.TrimRight(b.String(), "\n"), true
	case *msgs.DROStatus:
		if m.Connected {
			return "device " + m.Device + " connected", true
		}
		return "device " + m.Device + " disconnected: " + m.Error, true
	}
	return "", false
}

func init() {
	sh.AddCmds(
		&PositionsCmd,
		&ScalesCmd,
		&SetScaleCmd,
		&ResetCmd,
		&TestModeCmd,
		&StatsCmd,
		&WatchCmd,
	)
	sh.AddFormatters(Format)
}
