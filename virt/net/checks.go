// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"github.com/hashicorp/virt-netsetup/internal/shared"
)

// MaxVLANID is the highest usable 802.1Q tag.
const MaxVLANID = 4094

// ResultingConfig returns the running configuration as it will be once the
// whole request has been applied.
func ResultingConfig(req *ValidateRequest) *shared.RunningConfig {
	rc := req.RunningConfig.Copy()
	rc.Apply(req.AllNetworks, req.AllBondings)
	return rc
}

// ValidateVLANRange checks that every VLAN tag of the networks is in range.
func ValidateVLANRange(nets shared.Networks) error {
	for _, name := range nets.Names() {
		attrs := nets[name]
		if attrs.Remove || attrs.VLAN == nil {
			continue
		}
		if tag := *attrs.VLAN; tag < 0 || tag > MaxVLANID {
			return shared.NewConfigNetworkError(shared.ErrCodeBadVlan,
				"vlan id %d of network %s is out of range 0-%d", tag, name, MaxVLANID)
		}
	}
	return nil
}

// ValidateNics checks the physical interfaces referenced by the partition:
// they must exist on the host, and a nic may not be both enslaved to a
// bonding and used directly by a network, nor enslaved to two bondings.
func ValidateNics(req *ValidateRequest) error {
	resulting := ResultingConfig(req)

	slaveOf := map[string]string{}
	for _, bond := range resulting.Bonds.Names() {
		for _, nic := range resulting.Bonds[bond].Nics {
			if other, ok := slaveOf[nic]; ok {
				if _, inPartition := req.Bondings[bond]; inPartition {
					return shared.NewConfigNetworkError(shared.ErrCodeUsedNic,
						"nic %s is already enslaved to bonding %s", nic, other)
				}
				if _, inPartition := req.Bondings[other]; inPartition {
					return shared.NewConfigNetworkError(shared.ErrCodeUsedNic,
						"nic %s is already enslaved to bonding %s", nic, bond)
				}
				continue
			}
			slaveOf[nic] = bond
		}
	}

	for _, name := range req.Networks.Names() {
		attrs := req.Networks[name]
		if attrs.Remove || attrs.Nic == "" {
			continue
		}
		if !req.NetInfo.HasNic(attrs.Nic) {
			return shared.NewConfigNetworkError(shared.ErrCodeBadNic,
				"nic %s of network %s does not exist", attrs.Nic, name)
		}
		if bond, ok := slaveOf[attrs.Nic]; ok {
			return shared.NewConfigNetworkError(shared.ErrCodeUsedNic,
				"nic %s of network %s is enslaved to bonding %s", attrs.Nic, name, bond)
		}
	}

	usedBy := map[string]string{}
	for _, name := range resulting.Networks.Names() {
		if nic := resulting.Networks[name].Nic; nic != "" {
			usedBy[nic] = name
		}
	}

	for _, name := range req.Bondings.Names() {
		attrs := req.Bondings[name]
		if attrs.Remove {
			continue
		}
		for _, nic := range attrs.Nics {
			if !req.NetInfo.HasNic(nic) {
				return shared.NewConfigNetworkError(shared.ErrCodeBadNic,
					"slave nic %s of bonding %s does not exist", nic, name)
			}
			if network, ok := usedBy[nic]; ok {
				return shared.NewConfigNetworkError(shared.ErrCodeUsedNic,
					"slave nic %s of bonding %s is used by network %s", nic, name, network)
			}
		}
	}

	return nil
}

// ValidateBondingReferences checks that every bonding used by a network of
// the partition will exist, and that removed bondings exist and are no
// longer used.
func ValidateBondingReferences(req *ValidateRequest) error {
	running := req.RunningConfig.Copy()

	for _, name := range req.Networks.Names() {
		attrs := req.Networks[name]
		if attrs.Remove || attrs.Bonding == "" {
			continue
		}

		if bond, ok := req.AllBondings[attrs.Bonding]; ok {
			if bond.Remove {
				return shared.NewConfigNetworkError(shared.ErrCodeBadBonding,
					"network %s uses bonding %s which is being removed", name, attrs.Bonding)
			}
			continue
		}

		_, known := running.Bonds[attrs.Bonding]
		if !known && !req.NetInfo.HasBonding(attrs.Bonding) {
			return shared.NewConfigNetworkError(shared.ErrCodeBadBonding,
				"bonding %s of network %s does not exist", attrs.Bonding, name)
		}
	}

	resulting := ResultingConfig(req)
	for _, name := range req.Bondings.Names() {
		if !req.Bondings[name].Remove {
			continue
		}

		_, known := running.Bonds[name]
		if !known && !req.NetInfo.HasBonding(name) {
			return shared.NewConfigNetworkError(shared.ErrCodeBadBonding,
				"cannot remove bonding %s: it does not exist", name)
		}

		for _, network := range resulting.Networks.Names() {
			if resulting.Networks[network].Bonding == name {
				return shared.NewConfigNetworkError(shared.ErrCodeBadBonding,
					"cannot remove bonding %s: it is used by network %s", name, network)
			}
		}
	}

	return nil
}
