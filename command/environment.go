// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/config"
	"github.com/hashicorp/virt-netsetup/firewall"
	"github.com/hashicorp/virt-netsetup/internal/linkshim"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/libvirt"
	"github.com/hashicorp/virt-netsetup/libvirt/metadata"
	"github.com/hashicorp/virt-netsetup/netinfo"
	"github.com/hashicorp/virt-netsetup/netsetup"
	"github.com/hashicorp/virt-netsetup/runningconfig"
	"github.com/hashicorp/virt-netsetup/switches"
	"github.com/hashicorp/virt-netsetup/switches/legacy"
	"github.com/hashicorp/virt-netsetup/switches/ovs"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/safchain/ethtool"
	kexec "k8s.io/utils/exec"
)

// ManagedNetworks lists and fingerprints the libvirt networks defined by the
// agent. It is satisfied by *libvirt.Networks.
type ManagedNetworks interface {
	Managed() (map[string]*metadata.ManagedNetwork, error)
	Fingerprint(map[string]*structs.Attribute)
}

// Environment holds the components a command operates on.
type Environment struct {
	Service  *netsetup.Service
	Registry *switches.Registry
	Networks ManagedNetworks

	closers []func() error
}

// EnvironmentFactory builds the environment from the agent configuration.
type EnvironmentFactory func(*config.Config, hclog.Logger) (*Environment, error)

// OnClose registers fn to run when the environment is closed. Functions run
// in reverse registration order.
func (e *Environment) OnClose(fn func() error) {
	e.closers = append(e.closers, fn)
}

func (e *Environment) Close() error {
	var mErr *multierror.Error
	if e.Service != nil {
		e.Service.Shutdown()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	e.closers = nil
	return mErr.ErrorOrNil()
}

// NewHostEnvironment wires the components operating on the local host:
// libvirt, netlink, ethtool, iptables and ovs-vsctl.
func NewHostEnvironment(cfg *config.Config, logger hclog.Logger) (*Environment, error) {
	env := &Environment{}

	networks, err := libvirt.New(logger, cfg.Libvirt)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to libvirt: %w", err)
	}
	env.Networks = networks
	env.OnClose(networks.Close)

	links := linkshim.New()

	registry := switches.NewRegistry(logger)
	err = registry.Register(shared.SwitchLegacy, func(c *config.Config) (virtnet.Switch, error) {
		sw := legacy.New(logger, links, networks)
		if c.Switches.Legacy.Firewall {
			ipt, err := firewall.New()
			if err != nil {
				return nil, fmt.Errorf("unable to open iptables: %w", err)
			}
			sw.WithFirewall(firewall.NewFirewall(logger, ipt))
		}
		return sw, nil
	})
	if err != nil {
		env.Close()
		return nil, err
	}
	err = registry.Register(shared.SwitchOVS, func(c *config.Config) (virtnet.Switch, error) {
		opts := c.Switches.OVS
		runner, err := ovs.NewRunner(kexec.New(), opts.VsctlPath, opts.Timeout.Duration)
		if err != nil {
			return nil, err
		}
		return ovs.New(logger, runner, networks, opts.Manager), nil
	})
	if err != nil {
		env.Close()
		return nil, err
	}
	if err := registry.Setup(cfg); err != nil {
		env.Close()
		return nil, err
	}
	env.Registry = registry

	drivers, err := ethtool.NewEthtool()
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("unable to open ethtool: %w", err)
	}
	env.OnClose(func() error {
		drivers.Close()
		return nil
	})

	cache := netinfo.NewCache(netinfo.NewReader(logger, links, drivers))
	store := runningconfig.NewFileStore(logger, cfg.RunningConfigPath)
	env.Service = netsetup.New(logger, registry, store, cache)

	return env, nil
}
