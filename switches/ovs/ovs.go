// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package ovs implements the Open vSwitch switch backend. Every change is
// applied as a single ovs-vsctl transaction.
package ovs

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/hashicorp/virt-netsetup/virt/net/address"
)

// BridgePrefix starts the name of every bridge created by the backend.
const BridgePrefix = "vdsmbr_"

// Switch is the ovs switch backend.
type Switch struct {
	logger   hclog.Logger
	vsctl    Vsctl
	networks virtnet.LibvirtNetworks

	// manager is the optional OVSDB manager as host:port.
	manager string
}

// New returns the ovs backend. When manager is set, Init points the OVSDB
// manager at it.
func New(logger hclog.Logger, vsctl Vsctl, networks virtnet.LibvirtNetworks, manager string) *Switch {
	return &Switch{
		logger:   logger.Named(string(shared.SwitchOVS)),
		vsctl:    vsctl,
		networks: networks,
		manager:  manager,
	}
}

func (s *Switch) Type() shared.SwitchType {
	return shared.SwitchOVS
}

// BridgeName returns the name of the ovs bridge built on top of the device.
// Kernel interface names are limited to 15 characters, so the device name
// is hashed.
func BridgeName(device string) string {
	h := fnv.New32a()
	h.Write([]byte(device))
	return fmt.Sprintf("%s%08x", BridgePrefix, h.Sum32())
}

// Init checks that the OVS database is reachable and configures the
// manager.
func (s *Switch) Init() error {
	ctx := context.Background()

	if _, err := s.vsctl.Run(ctx, "list-br"); err != nil {
		return fmt.Errorf("ovs switch: database unavailable: %w", err)
	}

	if s.manager == "" {
		return nil
	}

	host, port, err := address.HosttailSplit(s.manager)
	if err != nil {
		return fmt.Errorf("ovs switch: invalid manager: %w", err)
	}
	target := "tcp:" + address.HosttailJoin(host, port)
	if _, err := s.vsctl.Run(ctx, "set-manager", target); err != nil {
		return fmt.Errorf("ovs switch: unable to set manager: %w", err)
	}

	s.logger.Debug("ovsdb manager configured", "target", target)
	return nil
}

// Fingerprint reports the Open vSwitch version and the number of bridges
// managed by the backend:
//
//	driver.virt.network.switch.ovs.version = 3.1.0
//	driver.virt.network.switch.ovs.bridges = 2
func (s *Switch) Fingerprint(attrs map[string]*structs.Attribute) {
	ctx := context.Background()
	prefix := fmt.Sprintf("%sswitch.%s.", virtnet.FingerprintAttributeKeyPrefix, shared.SwitchOVS)

	output, err := s.vsctl.Run(ctx, "--version")
	if err != nil {
		s.logger.Warn("failed to read ovs version", "error", err)
	} else if version := parseVersion(output); version != "" {
		attrs[prefix+"version"] = structs.NewStringAttribute(version)
	}

	output, err = s.vsctl.Run(ctx, "list-br")
	if err != nil {
		s.logger.Warn("failed to list ovs bridges", "error", err)
		return
	}

	var bridges int64
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, BridgePrefix) {
			bridges++
		}
	}
	attrs[prefix+"bridges"] = structs.NewIntAttribute(bridges, "")
}

// parseVersion extracts the version from the first line of
// "ovs-vsctl --version", for example "ovs-vsctl (Open vSwitch) 3.1.0".
func parseVersion(output string) string {
	line, _, _ := strings.Cut(output, "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

var _ virtnet.Switch = (*Switch)(nil)
