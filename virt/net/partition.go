// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"maps"
	"slices"

	"github.com/hashicorp/virt-netsetup/internal/shared"
)

// SplitSwitchType partitions the desired entries between the OVS and legacy
// switches. Removal requests are classified using the running configuration,
// all other entries by their own switch attribute, with a missing switch
// defaulting to legacy. An unsupported switch fails the whole split.
//
// On success, the key sets of the two results are disjoint and their union is
// the key set of desired.
func SplitSwitchType[M ~map[string]T, T shared.Entry](desired, running M) (M, M, error) {
	ovs := make(M)
	legacy := make(M)

	for _, name := range slices.Sorted(maps.Keys(desired)) {
		attrs := desired[name]

		switchType, err := resolveSwitchType(name, attrs, running)
		if err != nil {
			return nil, nil, err
		}

		switch switchType {
		case shared.SwitchOVS:
			ovs[name] = attrs
		case shared.SwitchLegacy:
			legacy[name] = attrs
		}
	}

	return ovs, legacy, nil
}

// SwitchPartition is the part of a request handled by a single switch.
type SwitchPartition struct {
	Networks shared.Networks `json:"networks"`
	Bondings shared.Bondings `json:"bondings"`
}

// IsEmpty reports whether the partition holds no entries.
func (p *SwitchPartition) IsEmpty() bool {
	return p == nil || (len(p.Networks) == 0 && len(p.Bondings) == 0)
}

// SwitchPartitions is a request split between the two switches.
type SwitchPartitions struct {
	OVS    *SwitchPartition `json:"ovs"`
	Legacy *SwitchPartition `json:"legacy"`
}

// Get returns the partition for the switch type.
func (s *SwitchPartitions) Get(switchType shared.SwitchType) *SwitchPartition {
	switch switchType {
	case shared.SwitchOVS:
		return s.OVS
	case shared.SwitchLegacy:
		return s.Legacy
	default:
		return nil
	}
}

// Partition splits both the networks and bondings of a request and checks
// that every network is handled by the same switch as the bonding it is
// built on. An entry of the running configuration cannot be moved to
// another switch in place; it has to be removed first.
func Partition(nets shared.Networks, bonds shared.Bondings, running *shared.RunningConfig) (*SwitchPartitions, error) {
	if running == nil {
		running = shared.NewRunningConfig()
	}

	ovsNets, legacyNets, err := SplitSwitchType(nets, running.Networks)
	if err != nil {
		return nil, err
	}
	ovsBonds, legacyBonds, err := SplitSwitchType(bonds, running.Bonds)
	if err != nil {
		return nil, err
	}

	if err := validateSwitchUnchanged("network", nets, running.Networks); err != nil {
		return nil, err
	}
	if err := validateSwitchUnchanged("bonding", bonds, running.Bonds); err != nil {
		return nil, err
	}

	partitions := &SwitchPartitions{
		OVS:    &SwitchPartition{Networks: ovsNets, Bondings: ovsBonds},
		Legacy: &SwitchPartition{Networks: legacyNets, Bondings: legacyBonds},
	}

	if err := validateBondSwitchConsistency(partitions, running); err != nil {
		return nil, err
	}
	return partitions, nil
}

func validateBondSwitchConsistency(p *SwitchPartitions, running *shared.RunningConfig) error {
	for _, switchType := range shared.SwitchTypes {
		part := p.Get(switchType)

		for _, name := range part.Networks.Names() {
			attrs := part.Networks[name]
			if attrs.Remove || attrs.Bonding == "" {
				continue
			}

			bondSwitch, ok := bondSwitchType(p, running, attrs.Bonding)
			if !ok || bondSwitch == switchType {
				continue
			}

			return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
				"network %s on switch %s cannot use bonding %s on switch %s",
				name, switchType, attrs.Bonding, bondSwitch)
		}
	}
	return nil
}

// bondSwitchType returns the switch the named bond will be handled by once
// the request is applied. Bonds that are being removed or are unknown are
// reported as not found and left for the backend validators.
func bondSwitchType(p *SwitchPartitions, running *shared.RunningConfig, bond string) (shared.SwitchType, bool) {
	for _, switchType := range shared.SwitchTypes {
		if attrs, ok := p.Get(switchType).Bondings[bond]; ok {
			return switchType, !attrs.Remove
		}
	}

	if attrs, ok := running.Bonds[bond]; ok {
		if attrs.Switch == "" {
			return shared.SwitchLegacy, true
		}
		return attrs.Switch, true
	}
	return "", false
}

// validateSwitchUnchanged rejects entries which are edited with a switch other
// than the one they run on. Only one backend would be called for them, so the
// devices built by the previous one would be left behind.
func validateSwitchUnchanged[M ~map[string]T, T shared.Entry](kind string, desired, running M) error {
	for _, name := range slices.Sorted(maps.Keys(desired)) {
		attrs := desired[name]
		if attrs.IsRemoval() {
			continue
		}
		if _, ok := running[name]; !ok {
			continue
		}

		current := ResolveRemovalSwitchType(name, running)
		requested := GetSwitchType(attrs)
		if requested == "" {
			requested = shared.SwitchLegacy
		}
		if requested != current {
			return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
				"%s %s runs on switch %s and cannot be moved to switch %s, remove it first",
				kind, name, current, requested)
		}
	}
	return nil
}
