// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package legacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/virt-netsetup/internal/linkshim"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/libvirt"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/vishvananda/netlink"
)

// VLANDeviceName returns the name of the VLAN device created on top of the
// south-bound device.
func VLANDeviceName(southBound string, tag int) string {
	return fmt.Sprintf("%s.%d", southBound, tag)
}

// Setup applies the legacy partition. Networks being removed or edited are
// torn down first, then bondings are removed, created or edited, and finally
// networks are built on top of them.
func (s *Switch) Setup(ctx context.Context, req *virtnet.SetupRequest) error {
	running := req.RunningConfig.Copy()

	for _, name := range req.Networks.Names() {
		previous, ok := running.Networks[name]
		if !ok {
			continue
		}
		if err := s.removeNetwork(name, previous); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, name := range req.Bondings.Names() {
		if !req.Bondings[name].Remove {
			continue
		}
		if err := s.removeBond(name); err != nil {
			return err
		}
	}

	for _, name := range req.Bondings.Names() {
		attrs := req.Bondings[name]
		if attrs.Remove {
			continue
		}
		previous, existed := running.Bonds[name]
		if err := s.configureBond(name, attrs, previous, existed); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, name := range req.Networks.Names() {
		attrs := req.Networks[name]
		if attrs.Remove {
			continue
		}
		if err := s.addNetwork(name, attrs); err != nil {
			return err
		}
	}

	return nil
}

// removeNetwork tears down everything built for the network. It keeps going
// after a failure so that as much as possible is cleaned up.
func (s *Switch) removeNetwork(name string, attrs shared.NetworkAttrs) error {
	var mErr *multierror.Error

	if err := s.networks.Remove(virtnet.LibvirtNetworkName(name)); err != nil {
		mErr = multierror.Append(mErr, err)
	}

	if attrs.IsBridged() {
		if err := s.deleteLink(name); err != nil {
			mErr = multierror.Append(mErr, err)
		}
		if s.firewall != nil {
			if err := s.firewall.Revoke(name); err != nil {
				mErr = multierror.Append(mErr, err)
			}
		}
	}

	if sb := attrs.SouthBound(); sb != "" && attrs.VLAN != nil {
		if err := s.deleteLink(VLANDeviceName(sb, *attrs.VLAN)); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}

	if err := mErr.ErrorOrNil(); err != nil {
		return fmt.Errorf("legacy switch: unable to remove network %s: %w", name, err)
	}

	s.logger.Info("network removed", "network", name)
	return nil
}

func (s *Switch) removeBond(name string) error {
	if err := s.deleteLink(name); err != nil {
		return fmt.Errorf("legacy switch: unable to remove bonding %s: %w", name, err)
	}
	s.logger.Info("bonding removed", "bonding", name)
	return nil
}

// configureBond creates the bonding or edits it in place. A change of options
// recreates the device, as the bonding driver refuses most changes while
// slaves are attached.
func (s *Switch) configureBond(name string, attrs, previous shared.BondAttrs, existed bool) error {
	opts, err := ParseBondOptions(attrs.Options)
	if err != nil {
		return fmt.Errorf("legacy switch: bonding %s: %w", name, err)
	}

	bond, err := s.links.LinkByName(name)
	switch {
	case linkshim.IsLinkNotFound(err):
		bond = nil
	case err != nil:
		return fmt.Errorf("legacy switch: unable to lookup bonding %s: %w", name, err)
	}

	if bond != nil && existed && previous.Options != attrs.Options {
		s.logger.Debug("bonding options changed, recreating", "bonding", name)
		if err := s.links.LinkDel(bond); err != nil {
			return fmt.Errorf("legacy switch: unable to recreate bonding %s: %w", name, err)
		}
		bond = nil
	}

	if bond == nil {
		link := opts.Link(name, 0)
		if err := s.links.LinkAdd(link); err != nil {
			return fmt.Errorf("legacy switch: unable to create bonding %s: %w", name, err)
		}
		bond = link
	} else {
		for _, nic := range previous.Nics {
			if slices.Contains(attrs.Nics, nic) {
				continue
			}
			if err := s.release(nic); err != nil {
				return fmt.Errorf("legacy switch: bonding %s: %w", name, err)
			}
		}
	}

	for _, nic := range attrs.Nics {
		if err := s.enslave(nic, bond); err != nil {
			return fmt.Errorf("legacy switch: bonding %s: %w", name, err)
		}
	}

	if err := s.links.LinkSetUp(bond); err != nil {
		return fmt.Errorf("legacy switch: unable to set bonding %s up: %w", name, err)
	}

	s.logger.Info("bonding configured", "bonding", name, "nics", attrs.Nics)
	return nil
}

func (s *Switch) enslave(nic string, master netlink.Link) error {
	link, err := s.links.LinkByName(nic)
	if err != nil {
		return fmt.Errorf("unable to lookup nic %s: %w", nic, err)
	}
	if link.Attrs().MasterIndex == master.Attrs().Index {
		return nil
	}

	// The bonding driver only accepts slaves which are down.
	if err := s.links.LinkSetDown(link); err != nil {
		return fmt.Errorf("unable to set nic %s down: %w", nic, err)
	}
	if err := s.links.LinkSetMaster(link, master); err != nil {
		return fmt.Errorf("unable to enslave nic %s: %w", nic, err)
	}
	if err := s.links.LinkSetUp(link); err != nil {
		return fmt.Errorf("unable to set nic %s up: %w", nic, err)
	}
	return nil
}

func (s *Switch) release(nic string) error {
	link, err := s.links.LinkByName(nic)
	if linkshim.IsLinkNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to lookup nic %s: %w", nic, err)
	}
	if err := s.links.LinkSetNoMaster(link); err != nil {
		return fmt.Errorf("unable to release nic %s: %w", nic, err)
	}
	return nil
}

// addNetwork builds the devices of the network and defines the libvirt
// network exposing it.
func (s *Switch) addNetwork(name string, attrs shared.NetworkAttrs) error {
	var dev netlink.Link

	if sb := attrs.SouthBound(); sb != "" {
		link, err := s.links.LinkByName(sb)
		if err != nil {
			return fmt.Errorf("legacy switch: network %s: unable to lookup %s: %w", name, sb, err)
		}
		if attrs.MTU > link.Attrs().MTU {
			if err := s.links.LinkSetMTU(link, attrs.MTU); err != nil {
				return fmt.Errorf("legacy switch: network %s: unable to set mtu on %s: %w", name, sb, err)
			}
		}
		if err := s.links.LinkSetUp(link); err != nil {
			return fmt.Errorf("legacy switch: network %s: unable to set %s up: %w", name, sb, err)
		}
		dev = link

		if attrs.VLAN != nil {
			vlan := &netlink.Vlan{
				LinkAttrs: netlink.LinkAttrs{
					Name:        VLANDeviceName(sb, *attrs.VLAN),
					ParentIndex: link.Attrs().Index,
					MTU:         attrs.MTU,
				},
				VlanId: *attrs.VLAN,
			}
			if err := s.createLink(vlan); err != nil {
				return fmt.Errorf("legacy switch: network %s: %w", name, err)
			}
			dev = vlan
		}
	}

	def := &libvirt.NetworkDefinition{
		Name:   virtnet.LibvirtNetworkName(name),
		Switch: string(shared.SwitchLegacy),
		MTU:    attrs.MTU,
	}

	if attrs.IsBridged() {
		bridge := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: name, MTU: attrs.MTU}}
		if err := s.createLink(bridge); err != nil {
			return fmt.Errorf("legacy switch: network %s: %w", name, err)
		}
		if dev != nil {
			if err := s.links.LinkSetMaster(dev, bridge); err != nil {
				return fmt.Errorf("legacy switch: network %s: unable to attach %s: %w", name, dev.Attrs().Name, err)
			}
		}
		if err := s.links.BridgeSetSTP(name, attrs.STP); err != nil {
			s.logger.Warn("unable to configure stp", "network", name, "error", err)
		}
		if err := s.links.LinkSetUp(bridge); err != nil {
			return fmt.Errorf("legacy switch: network %s: unable to set bridge up: %w", name, err)
		}
		if s.firewall != nil {
			if err := s.firewall.Allow(name); err != nil {
				return fmt.Errorf("legacy switch: network %s: %w", name, err)
			}
		}
		def.Bridge = name
	} else {
		def.Iface = dev.Attrs().Name
	}

	if err := s.networks.Define(def); err != nil {
		return fmt.Errorf("legacy switch: network %s: %w", name, err)
	}

	s.logger.Info("network configured", "network", name, "bridged", attrs.IsBridged())
	return nil
}

// createLink adds the link, replacing any stale device with the same name,
// and sets it up.
func (s *Switch) createLink(link netlink.Link) error {
	name := link.Attrs().Name
	if err := s.deleteLink(name); err != nil {
		return err
	}
	if err := s.links.LinkAdd(link); err != nil {
		return fmt.Errorf("unable to create %s: %w", name, err)
	}
	if err := s.links.LinkSetUp(link); err != nil {
		return fmt.Errorf("unable to set %s up: %w", name, err)
	}
	return nil
}

// deleteLink removes the named link if it exists.
func (s *Switch) deleteLink(name string) error {
	link, err := s.links.LinkByName(name)
	if linkshim.IsLinkNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to lookup %s: %w", name, err)
	}
	if err := s.links.LinkDel(link); err != nil {
		return fmt.Errorf("unable to delete %s: %w", name, err)
	}
	return nil
}
