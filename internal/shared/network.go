// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package shared

import (
	"maps"
	"slices"
)

// Entry is implemented by both network and bonding attributes, allowing the
// switch partitioning logic to operate on either mapping.
type Entry interface {
	NetworkAttrs | BondAttrs

	// IsRemoval reports whether the entry is a request to remove the device.
	IsRemoval() bool

	// SwitchType returns the switch attribute verbatim.
	SwitchType() SwitchType
}

// NetworkAttrs describes one logical network as requested by the caller or
// as recorded in the running configuration.
type NetworkAttrs struct {
	Remove bool       `json:"remove,omitempty"`
	Switch SwitchType `json:"switch,omitempty"`

	// South-bound device. At most one of Nic and Bonding is expected.
	Bonding string `json:"bonding,omitempty"`
	Nic     string `json:"nic,omitempty"`

	// VLAN is a pointer as tag 0 is a valid value.
	VLAN *int `json:"vlan,omitempty"`

	// Bridged defaults to true when not provided.
	Bridged *bool `json:"bridged,omitempty"`
	MTU     int   `json:"mtu,omitempty"`
	STP     bool  `json:"stp,omitempty"`

	BootProto    string   `json:"bootproto,omitempty"`
	IPAddr       string   `json:"ipaddr,omitempty"`
	Netmask      string   `json:"netmask,omitempty"`
	Prefix       *int     `json:"prefix,omitempty"`
	Gateway      string   `json:"gateway,omitempty"`
	IPv6Addr     string   `json:"ipv6addr,omitempty"`
	IPv6Gateway  string   `json:"ipv6gateway,omitempty"`
	IPv6Autoconf bool     `json:"ipv6autoconf,omitempty"`
	DHCPv6       bool     `json:"dhcpv6,omitempty"`
	DefaultRoute bool     `json:"defaultRoute,omitempty"`
	Nameservers  []string `json:"nameservers,omitempty"`

	Custom map[string]any `json:"custom,omitempty"`
}

func (n NetworkAttrs) IsRemoval() bool        { return n.Remove }
func (n NetworkAttrs) SwitchType() SwitchType { return n.Switch }

// IsBridged returns the bridged attribute, defaulting to true.
func (n NetworkAttrs) IsBridged() bool {
	return n.Bridged == nil || *n.Bridged
}

// HasVLAN reports whether a VLAN tag was requested.
func (n NetworkAttrs) HasVLAN() bool { return n.VLAN != nil }

// SouthBound returns the name of the device the network is built on top of,
// preferring the bonding when both are set.
func (n NetworkAttrs) SouthBound() string {
	if n.Bonding != "" {
		return n.Bonding
	}
	return n.Nic
}

// Copy returns a deep copy of the attributes.
func (n NetworkAttrs) Copy() NetworkAttrs {
	c := n
	if n.VLAN != nil {
		v := *n.VLAN
		c.VLAN = &v
	}
	if n.Bridged != nil {
		b := *n.Bridged
		c.Bridged = &b
	}
	if n.Prefix != nil {
		p := *n.Prefix
		c.Prefix = &p
	}
	c.Nameservers = slices.Clone(n.Nameservers)
	c.Custom = maps.Clone(n.Custom)
	return c
}

// BondAttrs describes one bonding device.
type BondAttrs struct {
	Remove  bool       `json:"remove,omitempty"`
	Nics    []string   `json:"nics,omitempty"`
	Switch  SwitchType `json:"switch,omitempty"`
	Options string     `json:"options,omitempty"`
}

func (b BondAttrs) IsRemoval() bool        { return b.Remove }
func (b BondAttrs) SwitchType() SwitchType { return b.Switch }

// Copy returns a deep copy of the attributes.
func (b BondAttrs) Copy() BondAttrs {
	c := b
	c.Nics = slices.Clone(b.Nics)
	return c
}

// Networks maps a network name to its attributes.
type Networks map[string]NetworkAttrs

// Bondings maps a bonding name to its attributes.
type Bondings map[string]BondAttrs

// Copy returns a deep copy of the mapping. A nil mapping copies to an empty
// one.
func (n Networks) Copy() Networks {
	out := make(Networks, len(n))
	for name, attrs := range n {
		out[name] = attrs.Copy()
	}
	return out
}

// Names returns the network names in sorted order.
func (n Networks) Names() []string { return slices.Sorted(maps.Keys(n)) }

// Copy returns a deep copy of the mapping. A nil mapping copies to an empty
// one.
func (b Bondings) Copy() Bondings {
	out := make(Bondings, len(b))
	for name, attrs := range b {
		out[name] = attrs.Copy()
	}
	return out
}

// Names returns the bonding names in sorted order.
func (b Bondings) Names() []string { return slices.Sorted(maps.Keys(b)) }
