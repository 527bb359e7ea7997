// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package legacy implements the Linux bridge switch backend, built with
// kernel bridges, bonds and VLAN devices through netlink.
package legacy

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/internal/linkshim"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/vishvananda/netlink"
)

// Firewall opens the forward path of the bridges built by the switch.
type Firewall interface {
	Init() error
	Allow(bridge string) error
	Revoke(bridge string) error
}

// Switch is the legacy switch backend.
type Switch struct {
	logger   hclog.Logger
	links    linkshim.Shim
	networks virtnet.LibvirtNetworks
	firewall Firewall
}

// New returns the legacy backend operating on the host through links and
// exposing networks to guests through networks.
func New(logger hclog.Logger, links linkshim.Shim, networks virtnet.LibvirtNetworks) *Switch {
	return &Switch{
		logger:   logger.Named(string(shared.SwitchLegacy)),
		links:    links,
		networks: networks,
	}
}

// WithFirewall makes the switch accept forwarded traffic on the bridges it
// builds.
func (s *Switch) WithFirewall(fw Firewall) *Switch {
	s.firewall = fw
	return s
}

func (s *Switch) Type() shared.SwitchType {
	return shared.SwitchLegacy
}

// Init checks that netlink is usable and prepares the firewall, if any.
func (s *Switch) Init() error {
	if _, err := s.links.LinkList(); err != nil {
		return fmt.Errorf("legacy switch: unable to list links: %w", err)
	}
	if s.firewall != nil {
		if err := s.firewall.Init(); err != nil {
			return fmt.Errorf("legacy switch: %w", err)
		}
	}
	return nil
}

// Fingerprint reports the number of Linux bridges on the host:
//
//	driver.virt.network.switch.legacy.bridges = 2
func (s *Switch) Fingerprint(attrs map[string]*structs.Attribute) {
	links, err := s.links.LinkList()
	if err != nil {
		s.logger.Warn("failed to list links for fingerprint", "error", err)
		return
	}

	var bridges int64
	for _, link := range links {
		if _, ok := link.(*netlink.Bridge); ok {
			bridges++
		}
	}

	key := fmt.Sprintf("%sswitch.%s.bridges", virtnet.FingerprintAttributeKeyPrefix, shared.SwitchLegacy)
	attrs[key] = structs.NewIntAttribute(bridges, "")
}

var _ virtnet.Switch = (*Switch)(nil)
