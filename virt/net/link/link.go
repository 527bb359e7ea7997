// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package link performs the structural validation of the link layer of a
// setup request: bond names, bond membership and VLAN south-bound devices.
// It operates purely on the request mappings and never inspects the host.
package link

import (
	"regexp"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/hashicorp/virt-netsetup/internal/shared"
)

// bondNameRe matches the only accepted bond naming scheme. \w is ASCII
// only, so bond names are limited to [0-9A-Za-z_] after the prefix, which
// is what kernel interface names use in practice.
var bondNameRe = regexp.MustCompile(`^bond\w+$`)

// Validate runs every link validation in a fixed order, returning the first
// failure.
func Validate(nets shared.Networks, bonds shared.Bondings) error {
	if err := ValidateBondNames(nets, bonds); err != nil {
		return err
	}
	if err := ValidateBondConfiguration(bonds); err != nil {
		return err
	}
	return ValidateVLANConfiguration(nets)
}

// ValidateBondNames checks every bond name used by the request, either as a
// bonding key or as a network's bonding attribute. All offending names are
// reported in a single error.
func ValidateBondNames(nets shared.Networks, bonds shared.Bondings) error {
	names := set.New[string](len(bonds))
	for name := range bonds {
		names.Insert(name)
	}
	for _, attrs := range nets {
		if attrs.Bonding != "" {
			names.Insert(attrs.Bonding)
		}
	}

	bad := set.New[string](0)
	for _, name := range names.Slice() {
		if !bondNameRe.MatchString(name) {
			bad.Insert(name)
		}
	}

	if bad.Empty() {
		return nil
	}

	badNames := bad.Slice()
	slices.Sort(badNames)
	return shared.NewConfigNetworkError(shared.ErrCodeBadBonding,
		"bad bond name(s): %s", strings.Join(badNames, ", "))
}

// ValidateBondConfiguration checks that every bond which is not being removed
// has at least one slave.
func ValidateBondConfiguration(bonds shared.Bondings) error {
	for _, name := range bonds.Names() {
		attrs := bonds[name]
		if attrs.Remove {
			continue
		}
		if len(attrs.Nics) == 0 {
			return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
				"missing required nics on bonding %s", name)
		}
	}
	return nil
}

// ValidateVLANConfiguration checks that every VLAN network which is not being
// removed is built on top of a nic or a bonding.
func ValidateVLANConfiguration(nets shared.Networks) error {
	for _, name := range nets.Names() {
		attrs := nets[name]
		if attrs.Remove || !attrs.HasVLAN() {
			continue
		}
		if attrs.Nic == "" && attrs.Bonding == "" {
			return shared.NewConfigNetworkError(shared.ErrCodeBadVlan,
				"vlan network %s requires a south-bound nic or bonding", name)
		}
	}
	return nil
}
