// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package libvirt

import (
	"errors"
	"fmt"

	"github.com/hashicorp/virt-netsetup/libvirt/metadata"

	"libvirt.org/go/libvirtxml"
)

const (
	ForwardModeBridge      = "bridge"
	ForwardModePassthrough = "passthrough"

	virtualPortOpenVSwitch = "openvswitch"
)

var ErrInvalidDefinition = errors.New("invalid network definition")

// NetworkDefinition describes a libvirt network that exposes a host network
// to guests.
type NetworkDefinition struct {
	// Name is the libvirt network name, including any prefix.
	Name string

	// Switch is the switch type that owns the network and is recorded in
	// the network metadata.
	Switch string

	// Bridge is the host bridge guests attach to. It is empty for
	// bridgeless networks, which use passthrough forwarding to Iface.
	Bridge string

	// Iface is the host device used for passthrough forwarding.
	Iface string

	// VirtualPortOVS marks the bridge as an Open vSwitch bridge.
	VirtualPortOVS bool

	// VLAN is an optional tag applied on the guest ports.
	VLAN *int

	MTU int
}

func (n *NetworkDefinition) validate() error {
	if n.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}
	if n.Bridge == "" && n.Iface == "" {
		return fmt.Errorf("%w: network %s needs a bridge or an interface", ErrInvalidDefinition, n.Name)
	}
	if n.Bridge != "" && n.Iface != "" {
		return fmt.Errorf("%w: network %s sets both bridge and interface", ErrInvalidDefinition, n.Name)
	}
	if n.VirtualPortOVS && n.Bridge == "" {
		return fmt.Errorf("%w: openvswitch network %s needs a bridge", ErrInvalidDefinition, n.Name)
	}
	return nil
}

// XML renders the definition into the libvirt network XML format.
func (n *NetworkDefinition) XML() (string, error) {
	if err := n.validate(); err != nil {
		return "", err
	}

	md := &metadata.ManagedNetwork{
		Name:   n.Name,
		Switch: n.Switch,
		Bridge: n.Bridge,
	}
	mdXML, err := md.XMLString()
	if err != nil {
		return "", fmt.Errorf("libvirt: unable to render metadata: %w", err)
	}

	nx := &libvirtxml.Network{
		Name:     n.Name,
		Metadata: &libvirtxml.NetworkMetadata{XML: mdXML},
	}

	if n.Bridge != "" {
		nx.Forward = &libvirtxml.NetworkForward{Mode: ForwardModeBridge}
		nx.Bridge = &libvirtxml.NetworkBridge{Name: n.Bridge}
	} else {
		nx.Forward = &libvirtxml.NetworkForward{
			Mode: ForwardModePassthrough,
			Interfaces: []libvirtxml.NetworkForwardInterface{
				{Dev: n.Iface},
			},
		}
	}

	if n.VirtualPortOVS {
		nx.VirtualPort = &libvirtxml.NetworkVirtualPort{
			Params: &libvirtxml.NetworkVirtualPortParams{
				OpenVSwitch: &libvirtxml.NetworkVirtualPortParamsOpenVSwitch{},
			},
		}
		if n.VLAN != nil {
			nx.VLAN = &libvirtxml.NetworkVLAN{
				Tags: []libvirtxml.NetworkVLANTag{{ID: uint(*n.VLAN)}},
			}
		}
	}

	if n.MTU > 0 {
		nx.MTU = &libvirtxml.NetworkMTU{Size: uint(n.MTU)}
	}

	return nx.Marshal()
}

// describe parses a libvirt network XML description into its managed
// metadata, if any.
func describe(xml string) (*metadata.ManagedNetwork, error) {
	nx := &libvirtxml.Network{}
	if err := nx.Unmarshal(xml); err != nil {
		return nil, fmt.Errorf("libvirt: unable to parse network xml: %w", err)
	}
	if nx.Metadata == nil {
		return nil, nil
	}
	md, ok := metadata.Parse(nx.Metadata.XML)
	if !ok {
		return nil, nil
	}
	return md, nil
}
