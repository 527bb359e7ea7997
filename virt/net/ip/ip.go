// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package ip validates the IP level attributes of the networks in a setup
// request.
package ip

import (
	"math/bits"
	"net/netip"

	"github.com/hashicorp/virt-netsetup/internal/shared"
)

const (
	BootProtoNone = "none"
	BootProtoDHCP = "dhcp"
)

// Validate checks the IP configuration of every network which is not being
// removed, returning the first failure. The running configuration is used to
// determine which network ends up holding the default route.
func Validate(nets shared.Networks, running *shared.RunningConfig) error {
	for _, name := range nets.Names() {
		attrs := nets[name]
		if attrs.Remove {
			continue
		}
		if err := validateIPv4(name, attrs); err != nil {
			return err
		}
		if err := validateIPv6(name, attrs); err != nil {
			return err
		}
		if err := validateNameservers(name, attrs); err != nil {
			return err
		}
	}
	return validateDefaultRoute(nets, running)
}

func validateIPv4(name string, attrs shared.NetworkAttrs) error {
	switch attrs.BootProto {
	case "", BootProtoNone, BootProtoDHCP:
	default:
		return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
			"network %s: unsupported bootproto %q", name, attrs.BootProto)
	}

	if attrs.IPAddr == "" {
		if attrs.Netmask != "" || attrs.Prefix != nil {
			return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
				"network %s: netmask or prefix given without ipaddr", name)
		}
		if attrs.Gateway != "" {
			return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
				"network %s: gateway given without ipaddr", name)
		}
		return nil
	}

	if attrs.BootProto == BootProtoDHCP {
		return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
			"network %s: static and dynamic ipv4 configuration are mutually exclusive", name)
	}

	if !isIPv4(attrs.IPAddr) {
		return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
			"network %s: bad ipv4 address %q", name, attrs.IPAddr)
	}

	switch {
	case attrs.Netmask != "" && attrs.Prefix != nil:
		return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
			"network %s: netmask and prefix are mutually exclusive", name)
	case attrs.Netmask != "":
		if !isNetmask(attrs.Netmask) {
			return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
				"network %s: bad netmask %q", name, attrs.Netmask)
		}
	case attrs.Prefix != nil:
		if *attrs.Prefix < 0 || *attrs.Prefix > 32 {
			return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
				"network %s: bad prefix %d", name, *attrs.Prefix)
		}
	default:
		return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
			"network %s: ipaddr requires a netmask or prefix", name)
	}

	if attrs.Gateway != "" && !isIPv4(attrs.Gateway) {
		return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
			"network %s: bad ipv4 gateway %q", name, attrs.Gateway)
	}
	return nil
}

func validateIPv6(name string, attrs shared.NetworkAttrs) error {
	if attrs.IPv6Addr != "" {
		prefix, err := netip.ParsePrefix(attrs.IPv6Addr)
		if err != nil || !prefix.Addr().Is6() || prefix.Addr().Is4In6() {
			return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
				"network %s: bad ipv6 address %q, expected address/prefix", name, attrs.IPv6Addr)
		}
	}

	if attrs.IPv6Gateway == "" {
		return nil
	}
	if attrs.IPv6Addr == "" && !attrs.IPv6Autoconf && !attrs.DHCPv6 {
		return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
			"network %s: ipv6gateway requires an ipv6 configuration", name)
	}
	if addr, err := netip.ParseAddr(attrs.IPv6Gateway); err != nil || !addr.Is6() {
		return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
			"network %s: bad ipv6 gateway %q", name, attrs.IPv6Gateway)
	}
	return nil
}

func validateNameservers(name string, attrs shared.NetworkAttrs) error {
	if len(attrs.Nameservers) == 0 {
		return nil
	}
	if !attrs.DefaultRoute {
		return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
			"network %s: name servers may only be defined on the default route network", name)
	}
	for _, ns := range attrs.Nameservers {
		if _, err := netip.ParseAddr(ns); err != nil {
			return shared.NewConfigNetworkError(shared.ErrCodeBadAddr,
				"network %s: bad name server %q", name, ns)
		}
	}
	return nil
}

// validateDefaultRoute ensures at most one network holds the default route
// once the request is applied on top of the running configuration.
func validateDefaultRoute(nets shared.Networks, running *shared.RunningConfig) error {
	result := running.Copy()
	result.Apply(nets, nil)

	var holder string
	for _, name := range result.Networks.Names() {
		if !result.Networks[name].DefaultRoute {
			continue
		}
		if holder != "" {
			return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
				"only a single default route network is allowed, found %s and %s", holder, name)
		}
		holder = name
	}
	return nil
}

func isIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// isNetmask reports whether s is a dotted quad with contiguous leading ones.
func isNetmask(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return false
	}
	b := addr.As4()
	mask := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return bits.LeadingZeros32(^mask)+bits.TrailingZeros32(mask) >= 32
}
