package dro

import (
	"flag"
	"os"
	"time"

	devenv "github.com/robotalks/dro.go/pkg/l0/env"
	"github.com/robotalks/dro.go/pkg/l1"
	env "github.com/robotalks/dro.go/pkg/l1/env/controller"
)

// ControllerType is the L1 controller type of DRO controllers.
const ControllerType = "dro"

// Config defines the configurations for the controller.
type Config struct {
	Device *devenv.Config
	// PollInterval is the period of position events.
	PollInterval time.Duration
	// ReconnectInterval is the wait between connection attempts.
	ReconnectInterval time.Duration
	// ProfileFile is an optional YAML profile.
	ProfileFile string
	// OnChange only publishes positions which changed.
	OnChange bool

	profile *Profile
}

var defaultConfig = Config{
	Device:            devenv.Default(),
	PollInterval:      50 * time.Millisecond,
	ReconnectInterval: time.Second,
}

func init() {
	if val := os.Getenv("DRO_PROFILE"); val != "" {
		defaultConfig.ProfileFile = val
	}
	env.SetControllerType(ControllerType, l1.ControllerMeta{
		Description: "Digital readout",
	})
}

// SetupFlags sets command line flags.
func SetupFlags() {
	devenv.SetupFlags()
	flag.DurationVar(&defaultConfig.PollInterval, "poll-interval", defaultConfig.PollInterval, "Position polling interval.")
	flag.DurationVar(&defaultConfig.ReconnectInterval, "reconnect", defaultConfig.ReconnectInterval, "Device reconnect interval.")
	flag.StringVar(&defaultConfig.ProfileFile, "profile", defaultConfig.ProfileFile, "YAML machine profile.")
	flag.BoolVar(&defaultConfig.OnChange, "on-change", defaultConfig.OnChange, "Only publish changed positions.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController(e *env.Env) (*Controller, error) {
	ctl := NewController(e, DeviceOpener(c.Device))
	ctl.PollInterval = c.PollInterval
	ctl.ReconnectInterval = c.ReconnectInterval
	ctl.OnChange = c.OnChange
	p, err := c.LoadProfile()
	if err != nil {
		return nil, err
	}
	ctl.Profile = p
	return ctl, nil
}

// LoadProfile loads ProfileFile once, nil without a file.
func (c *Config) LoadProfile() (*Profile, error) {
	if c.profile != nil || c.ProfileFile == "" {
		return c.profile, nil
	}
	p, err := LoadProfile(c.ProfileFile)
	if err != nil {
		return nil, err
	}
	c.profile = p
	return p, nil
}

// ApplyMeta adds profile labels to the controller meta. It must be
// called before the env is created.
func (c *Config) ApplyMeta(meta *l1.ControllerMeta) error {
	p, err := c.LoadProfile()
	if err != nil || p == nil {
		return err
	}
	if meta.Labels == nil {
		meta.Labels = make(map[string]string)
	}
	for k, v := range p.Labels() {
		meta.Labels[k] = v
	}
	return nil
}

// DeviceOpener opens devices using the device config.
func DeviceOpener(conf *devenv.Config) Opener {
	return func() (Device, string, error) {
		dev, err := conf.Connect()
		if err != nil {
			return nil, conf.DeviceURL, err
		}
		return dev, conf.DeviceURL, nil
	}
}
