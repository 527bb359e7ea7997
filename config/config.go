// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/virt-netsetup/libvirt"
	"github.com/hashicorp/virt-netsetup/virt/net/address"
	"sigs.k8s.io/yaml"
)

const (
	DefaultRunningConfigPath = "/var/lib/netsetup/running-config.yaml"
	DefaultVsctlPath         = "ovs-vsctl"
	DefaultVsctlTimeout      = 30 * time.Second
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the agent configuration.
type Config struct {
	LogLevel          string          `json:"log_level,omitempty"`
	RunningConfigPath string          `json:"running_config_path,omitempty"`
	Libvirt           *libvirt.Config `json:"libvirt,omitempty"`
	Switches          *Switches       `json:"switches,omitempty"`
}

// Switches enables the switch backends. A nil entry disables the backend.
type Switches struct {
	Legacy *Legacy `json:"legacy,omitempty"`
	OVS    *OVS    `json:"ovs,omitempty"`
}

type Legacy struct {
	// Firewall accepts forwarded traffic on the legacy bridges through a
	// dedicated iptables chain.
	Firewall bool `json:"firewall,omitempty"`
}

type OVS struct {
	// VsctlPath is the ovs-vsctl binary, looked up in PATH when relative.
	VsctlPath string `json:"vsctl_path,omitempty"`

	// Timeout bounds every ovs-vsctl transaction.
	Timeout Duration `json:"timeout,omitempty"`

	// Manager is an optional OVSDB manager given as host:port.
	Manager string `json:"manager,omitempty"`
}

// Duration is a time.Duration which decodes from strings like "30s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no file is provided. Both
// switch backends are enabled.
func Default() *Config {
	return &Config{
		LogLevel:          hclog.Info.String(),
		RunningConfigPath: DefaultRunningConfigPath,
		Libvirt:           libvirt.DefaultConfig(),
		Switches: &Switches{
			Legacy: &Legacy{},
			OVS: &OVS{
				VsctlPath: DefaultVsctlPath,
				Timeout:   Duration{DefaultVsctlTimeout},
			},
		},
	}
}

// Load reads the configuration file at path. Both YAML and JSON are
// accepted.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes the configuration document and validates the result. Unset
// fields take their default value. When the document names any switch, only
// the named switches are enabled.
func Parse(b []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}
	c.fillDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.RunningConfigPath == "" {
		c.RunningConfigPath = def.RunningConfigPath
	}
	if c.Libvirt == nil {
		c.Libvirt = def.Libvirt
	}
	if c.Switches == nil {
		c.Switches = def.Switches
	}
	if ovs := c.Switches.OVS; ovs != nil {
		if ovs.VsctlPath == "" {
			ovs.VsctlPath = DefaultVsctlPath
		}
		if ovs.Timeout.Duration == 0 {
			ovs.Timeout = Duration{DefaultVsctlTimeout}
		}
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var mErr *multierror.Error

	if c.LogLevel != "" && hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		mErr = multierror.Append(mErr, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel))
	}

	if c.Switches == nil || (c.Switches.Legacy == nil && c.Switches.OVS == nil) {
		mErr = multierror.Append(mErr, fmt.Errorf("%w: no switches enabled", ErrInvalidConfig))
	}

	if c.Switches != nil && c.Switches.OVS != nil {
		ovs := c.Switches.OVS
		if ovs.Timeout.Duration < 0 {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: ovs timeout must not be negative", ErrInvalidConfig))
		}
		if ovs.Manager != "" {
			if _, _, err := address.HosttailSplit(ovs.Manager); err != nil {
				mErr = multierror.Append(mErr, fmt.Errorf("%w: ovs manager: %w", ErrInvalidConfig, err))
			}
		}
	}

	return mErr.ErrorOrNil()
}

// Logger builds the root logger for the configured level.
func (c *Config) Logger(name string) hclog.Logger {
	level := hclog.LevelFromString(c.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: level,
	})
}
