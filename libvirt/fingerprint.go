// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package libvirt

import (
	"maps"
	"slices"

	"github.com/hashicorp/nomad/plugins/shared/structs"
)

const (
	// FingerprintAttributeKeyPrefix is the key prefix to use when creating and
	// adding attributes during the fingerprint process.
	FingerprintAttributeKeyPrefix = "driver.virt.network."

	// NetworkStateActive is string representation to declare a network is in
	// active state. This is translated from "true" using the go-libvirt SDK
	// and 1 from the raw libvirt API when query if the network is active.
	NetworkStateActive = "active"

	// NetworkStateInactive is string representation to declare a network is in
	// inactive state. This is translated from "false" using the go-libvirt SDK
	// and 0 from the raw libvirt API when query if the network is active.
	NetworkStateInactive = "inactive"
)

// IsActiveString converts the boolean response from the IsActive call of
// libvirt network to a human-readable string. This string copies the
// vocabulary used by virsh for consistency.
func IsActiveString(active bool) string {
	if active {
		return NetworkStateActive
	}
	return NetworkStateInactive
}

// Fingerprint reports the state and bridge of every managed network:
//
//	driver.virt.network.vdsm-net1.state = active
//	driver.virt.network.vdsm-net1.bridge_name = net1
//
// Networks which cannot be queried are logged and skipped.
func (n *Networks) Fingerprint(attrs map[string]*structs.Attribute) {
	managed, err := n.Managed()
	if err != nil {
		n.logger.Error("failed to list managed networks", "error", err)
		return
	}

	for _, name := range slices.Sorted(maps.Keys(managed)) {
		net, err := n.lookup(name)
		if err != nil {
			n.logger.Error("failed to lookup network", "network", name, "error", err)
			continue
		}

		active, err := net.IsActive()
		if err != nil {
			net.Free()
			n.logger.Error("failed to check network state", "network", name, "error", err)
			continue
		}
		attrs[FingerprintAttributeKeyPrefix+name+".state"] = structs.NewStringAttribute(IsActiveString(active))

		bridge, err := net.GetBridgeName()
		net.Free()
		if err != nil {
			n.logger.Error("failed to get network bridge name", "network", name, "error", err)
			continue
		}
		attrs[FingerprintAttributeKeyPrefix+name+".bridge_name"] = structs.NewStringAttribute(bridge)
	}
}
