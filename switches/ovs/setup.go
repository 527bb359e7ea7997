// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ovs

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/hashicorp/go-set/v2"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/libvirt"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
)

// NetworkBridge returns the ovs bridge carrying the network. Networks
// sharing a south-bound device share its bridge; a network without one gets
// a bridge of its own.
func NetworkBridge(name string, attrs shared.NetworkAttrs) string {
	if sb := attrs.SouthBound(); sb != "" {
		return BridgeName(sb)
	}
	return BridgeName("net:" + name)
}

// Setup applies the ovs partition. Libvirt networks of edited and removed
// networks are undefined first, then every host change runs as one
// ovs-vsctl transaction, and finally libvirt networks are defined.
func (s *Switch) Setup(ctx context.Context, req *virtnet.SetupRequest) error {
	running := req.RunningConfig.Copy()
	resulting := running.Copy()
	resulting.Apply(req.Networks, req.Bondings)

	stale := set.New[string](0)
	for _, name := range req.Networks.Names() {
		previous, ok := running.Networks[name]
		if !ok {
			continue
		}
		if err := s.networks.Remove(virtnet.LibvirtNetworkName(name)); err != nil {
			return fmt.Errorf("ovs switch: unable to remove network %s: %w", name, err)
		}
		stale.Insert(NetworkBridge(name, previous))
	}
	for _, name := range req.Bondings.Names() {
		if _, ok := running.Bonds[name]; ok {
			stale.Insert(BridgeName(name))
		}
	}

	tx, err := s.transaction(req, resulting, stale)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if !tx.empty() {
		if _, err := s.vsctl.Run(ctx, tx.args()...); err != nil {
			return fmt.Errorf("ovs switch: transaction failed: %w", err)
		}
	}

	for _, name := range req.Networks.Names() {
		attrs := req.Networks[name]
		if attrs.Remove {
			continue
		}

		def := &libvirt.NetworkDefinition{
			Name:           virtnet.LibvirtNetworkName(name),
			Switch:         string(shared.SwitchOVS),
			Bridge:         NetworkBridge(name, attrs),
			VirtualPortOVS: true,
			VLAN:           attrs.Copy().VLAN,
			MTU:            attrs.MTU,
		}
		if err := s.networks.Define(def); err != nil {
			return fmt.Errorf("ovs switch: network %s: %w", name, err)
		}
		s.logger.Info("network configured", "network", name, "bridge", def.Bridge)
	}

	return nil
}

// transaction builds the ovs-vsctl commands for the request. Ports of every
// requested entry are deleted and recreated, and bridges left without users
// are deleted.
func (s *Switch) transaction(req *virtnet.SetupRequest, resulting *shared.RunningConfig, stale *set.Set[string]) (*transaction, error) {
	tx := &transaction{}

	for _, name := range req.Networks.Names() {
		tx.add("--if-exists", "del-port", name)
	}
	for _, name := range req.Bondings.Names() {
		tx.add("--if-exists", "del-port", name)
	}

	inUse := set.New[string](0)
	for name, attrs := range resulting.Networks {
		if attrs.Switch == shared.SwitchOVS {
			inUse.Insert(NetworkBridge(name, attrs))
		}
	}
	for name, attrs := range resulting.Bonds {
		if attrs.Switch == shared.SwitchOVS {
			inUse.Insert(BridgeName(name))
		}
	}

	unused := stale.Difference(inUse).Slice()
	slices.Sort(unused)
	for _, bridge := range unused {
		tx.add("--if-exists", "del-br", bridge)
	}

	for _, name := range req.Bondings.Names() {
		attrs := req.Bondings[name]
		if attrs.Remove {
			continue
		}
		opts, err := ParseBondOptions(attrs.Options)
		if err != nil {
			return nil, fmt.Errorf("ovs switch: bonding %s: %w", name, err)
		}

		bridge := BridgeName(name)
		tx.add("--may-exist", "add-br", bridge)

		cmd := append([]string{"add-bond", bridge, name}, attrs.Nics...)
		tx.add(append(cmd, opts...)...)
	}

	for _, name := range req.Networks.Names() {
		attrs := req.Networks[name]
		if attrs.Remove {
			continue
		}

		bridge := NetworkBridge(name, attrs)
		tx.add("--may-exist", "add-br", bridge)
		if attrs.Nic != "" {
			tx.add("--may-exist", "add-port", bridge, attrs.Nic)
		}

		port := []string{"add-port", bridge, name}
		if attrs.VLAN != nil {
			port = append(port, "tag="+strconv.Itoa(*attrs.VLAN))
		}
		tx.add(port...)

		iface := []string{"set", "Interface", name, "type=internal"}
		if attrs.MTU > 0 {
			iface = append(iface, "mtu_request="+strconv.Itoa(attrs.MTU))
		}
		tx.add(iface...)
	}

	return tx, nil
}
