// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package shared

// NetInfo is a snapshot of the devices currently present on the host. It is
// only consumed by the backend validators.
type NetInfo struct {
	Nics     map[string]NicInfo    `json:"nics"`
	Bondings map[string]BondInfo   `json:"bondings"`
	Vlans    map[string]VlanInfo   `json:"vlans"`
	Bridges  map[string]BridgeInfo `json:"bridges"`
}

// NicInfo describes a physical network interface.
type NicInfo struct {
	HWAddr string            `json:"hwaddr,omitempty"`
	MTU    int               `json:"mtu,omitempty"`
	Master string            `json:"master,omitempty"`
	Driver string            `json:"driver,omitempty"`
	PCI    map[string]string `json:"pci,omitempty"`
}

// BondInfo describes a bonding device.
type BondInfo struct {
	Slaves []string `json:"slaves"`
	Mode   string   `json:"mode,omitempty"`
	MTU    int      `json:"mtu,omitempty"`
}

// VlanInfo describes a VLAN device.
type VlanInfo struct {
	Device string `json:"iface"`
	VLANID int    `json:"vlanid"`
	MTU    int    `json:"mtu,omitempty"`
}

// BridgeInfo describes a Linux bridge.
type BridgeInfo struct {
	Ports []string `json:"ports"`
	MTU   int      `json:"mtu,omitempty"`
}

// NewNetInfo returns an empty, initialized snapshot.
func NewNetInfo() *NetInfo {
	return &NetInfo{
		Nics:     map[string]NicInfo{},
		Bondings: map[string]BondInfo{},
		Vlans:    map[string]VlanInfo{},
		Bridges:  map[string]BridgeInfo{},
	}
}

// HasNic reports whether the named physical interface exists.
func (n *NetInfo) HasNic(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.Nics[name]
	return ok
}

// HasBonding reports whether the named bonding device exists.
func (n *NetInfo) HasBonding(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.Bondings[name]
	return ok
}
