package firmware

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/encoder"
	"github.com/robotalks/dro.go/pkg/l0/pattern"
)

// TestMode is the SET_TEST_MODE value: 0 is off, n selects pattern n-1.
// It parses from "off" or a pattern name.
type TestMode byte

// TestModeOff disables test mode.
const TestModeOff TestMode = 0

// TestModeOf returns the mode selecting a pattern.
func TestModeOf(id pattern.ID) TestMode {
	return TestMode(id + 1)
}

// String implements flag.Value.
func (m TestMode) String() string {
	if m == TestModeOff {
		return "off"
	}
	return pattern.ID(m - 1).String()
}

// Set implements flag.Value.
func (m *TestMode) Set(s string) error {
	if strings.EqualFold(strings.TrimSpace(s), "off") {
		*m = TestModeOff
		return nil
	}
	id, err := pattern.ParseID(s)
	if err != nil {
		return err
	}
	*m = TestModeOf(id)
	return nil
}

// Config defines the firmware parameters. All of them have compiled-in
// defaults; scales can be changed at runtime with SET_SCALE.
type Config struct {
	Encoder encoder.Config
	Pattern pattern.Config
	// Scales are the boot scale factors.
	Scales axis.Vector
	// BootMode is the test mode entered at boot.
	BootMode TestMode
	// LoopInterval is the main loop period.
	LoopInterval time.Duration
}

var defaultConfig = Config{
	Encoder:      encoder.DefaultConfig(),
	Pattern:      pattern.DefaultConfig(),
	Scales:       axis.Vector{0.001, 0.001, 0.001, 0.1},
	BootMode:     TestModeOf(pattern.SineWave),
	LoopInterval: time.Millisecond,
}

func init() {
	applyEnv(&defaultConfig, os.Getenv, os.Stderr)
}

func applyEnv(conf *Config, getenv func(string) string, errOut io.Writer) {
	if val := getenv("DRO_BOOT_MODE"); val != "" {
		if err := conf.BootMode.Set(val); err != nil {
			fmt.Fprintf(errOut, "DRO_BOOT_MODE: %v\n", err)
		}
	}
	if val := getenv("DRO_LOOP_INTERVAL"); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil && d <= 0 {
			err = fmt.Errorf("non-positive interval %v", d)
		}
		if err != nil {
			fmt.Fprintf(errOut, "DRO_LOOP_INTERVAL: %v\n", err)
		} else {
			conf.LoopInterval = d
		}
	}
}

type thresholdFlag struct {
	val *int32
}

func (f thresholdFlag) String() string {
	if f.val == nil {
		return ""
	}
	return fmt.Sprintf("0x%x", *f.val)
}

func (f thresholdFlag) Set(s string) error {
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	*f.val = int32(v)
	return nil
}

type vectorFlag struct {
	val *axis.Vector
}

func (f vectorFlag) String() string {
	if f.val == nil {
		return ""
	}
	items := make([]string, axis.NumAxes)
	for n, v := range f.val {
		items[n] = fmt.Sprint(v)
	}
	return strings.Join(items, ",")
}

func (f vectorFlag) Set(s string) error {
	items := strings.Split(s, ",")
	if len(items) != axis.NumAxes {
		return fmt.Errorf("expect %d values, got %d", axis.NumAxes, len(items))
	}
	var v axis.Vector
	for n, item := range items {
		val, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", item, err)
		}
		v[n] = val
	}
	*f.val = v
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.Var(thresholdFlag{&defaultConfig.Encoder.Threshold}, "threshold", "Overflow detection threshold.")
	flag.Int64Var(&defaultConfig.Encoder.MaxStepRate, "max-step-rate", defaultConfig.Encoder.MaxStepRate, "Maximum counts per second of any axis, validated against threshold.")
	flag.DurationVar(&defaultConfig.Encoder.CheckInterval, "check-interval", defaultConfig.Encoder.CheckInterval, "Overflow check interval.")
	flag.Var(vectorFlag{&defaultConfig.Scales}, "scales", "Boot scale factors x,y,z,a.")
	flag.Var(&defaultConfig.BootMode, "boot-mode", "Test mode at boot: off, sine, circular, ramp, walk.")
	flag.DurationVar(&defaultConfig.LoopInterval, "loop-interval", defaultConfig.LoopInterval, "Main loop interval.")
	flag.Var(vectorFlag{&defaultConfig.Pattern.WalkScales}, "walk-scales", "Random walk step scales x,y,z,a.")
	flag.DurationVar(&defaultConfig.Pattern.WalkInterval, "walk-interval", defaultConfig.Pattern.WalkInterval, "Random walk step interval.")
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
