package dro

import (
	"fmt"
	"io/ioutil"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/comm"
	"github.com/robotalks/dro.go/pkg/l0/firmware"
)

// Profile describes the machine a DRO is fitted to:
//
//	name: bench-mill
//	test_mode: off
//	axes:
//	  x: {label: Table, unit: mm, scale: 0.005}
//	  a: {unit: deg, scale: 0.1}
//
// Scales and the test mode are pushed to the device on every connect.
type Profile struct {
	Name     string                 `yaml:"name"`
	TestMode string                 `yaml:"test_mode"`
	Axes     map[string]AxisProfile `yaml:"axes"`
}

// AxisProfile describes one axis.
type AxisProfile struct {
	Label string   `yaml:"label"`
	Unit  string   `yaml:"unit"`
	Scale *float64 `yaml:"scale"`
}

// ParseProfile parses a YAML profile and validates it.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if _, err := p.Commands(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfile reads a profile from file.
func LoadProfile(fn string) (*Profile, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return ParseProfile(data)
}

// Commands returns the device commands applying the profile, scales
// in axis order followed by the test mode.
func (p *Profile) Commands() ([]comm.Command, error) {
	var cmds []comm.Command
	keys := make([]string, 0, len(p.Axes))
	for key := range p.Axes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	byAxis := make(map[axis.Axis]comm.Command)
	for _, key := range keys {
		a, err := axis.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("profile: %w", err)
		}
		if _, dup := byAxis[a]; dup {
			return nil, fmt.Errorf("profile: axis %s defined twice", a)
		}
		if scale := p.Axes[key].Scale; scale != nil {
			byAxis[a] = comm.SetScale(a, *scale)
		} else {
			byAxis[a] = comm.Command{}
		}
	}
	for _, a := range axis.All {
		if cmd, ok := byAxis[a]; ok && cmd.Op != 0 {
			cmds = append(cmds, cmd)
		}
	}
	if p.TestMode != "" {
		var mode firmware.TestMode
		if err := mode.Set(p.TestMode); err != nil {
			return nil, fmt.Errorf("profile: test_mode: %w", err)
		}
		cmds = append(cmds, comm.SetTestMode(byte(mode)))
	}
	return cmds, nil
}

// Axis returns the profile of an axis.
func (p *Profile) Axis(a axis.Axis) (AxisProfile, bool) {
	for key, ap := range p.Axes {
		if parsed, err := axis.Parse(key); err == nil && parsed == a {
			return ap, true
		}
	}
	return AxisProfile{}, false
}

// Labels are published as controller meta labels.
func (p *Profile) Labels() map[string]string {
	labels := make(map[string]string)
	if p.Name != "" {
		labels["profile"] = p.Name
	}
	for _, a := range axis.All {
		if ap, ok := p.Axis(a); ok && ap.Unit != "" {
			labels["unit."+a.String()] = ap.Unit
		}
	}
	return labels
}
