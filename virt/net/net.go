// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"strings"

	"github.com/hashicorp/virt-netsetup/libvirt"
)

const (
	// FingerprintAttributeKeyPrefix is the key prefix to use when creating and
	// adding attributes during the fingerprint process.
	FingerprintAttributeKeyPrefix = libvirt.FingerprintAttributeKeyPrefix

	// LibvirtNetworkPrefix is prepended to a network name to build the name
	// of the libvirt network definition exposing it to virtual machines.
	LibvirtNetworkPrefix = "vdsm-"
)

// LibvirtNetworkName returns the libvirt network name for the named network.
func LibvirtNetworkName(network string) string {
	return LibvirtNetworkPrefix + network
}

// NetworkFromLibvirtName is the inverse of LibvirtNetworkName. The boolean
// is false when the libvirt network is not managed by the agent.
func NetworkFromLibvirtName(name string) (string, bool) {
	return strings.CutPrefix(name, LibvirtNetworkPrefix)
}
