// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"github.com/hashicorp/go-set/v2"
	"github.com/hashicorp/virt-netsetup/internal/shared"
)

// Canonicalize returns copies of the request mappings with defaults applied.
// Networks default to the legacy switch and to being bridged. A bonding
// without a switch inherits it from the networks built on top of it, either
// in the request or in the running configuration, then from its own running
// entry, and finally defaults to legacy. Removal entries are copied as-is.
func Canonicalize(nets shared.Networks, bonds shared.Bondings, running *shared.RunningConfig) (shared.Networks, shared.Bondings, error) {
	if running == nil {
		running = shared.NewRunningConfig()
	}

	outNets := nets.Copy()
	for name, attrs := range outNets {
		if attrs.Remove {
			continue
		}
		if attrs.Switch == "" {
			attrs.Switch = shared.SwitchLegacy
		}
		if attrs.Bridged == nil {
			bridged := true
			attrs.Bridged = &bridged
		}
		outNets[name] = attrs
	}

	outBonds := bonds.Copy()
	for _, name := range outBonds.Names() {
		attrs := outBonds[name]
		if attrs.Remove || attrs.Switch != "" {
			continue
		}

		switchType, err := impliedBondSwitchType(name, outNets, running)
		if err != nil {
			return nil, nil, err
		}
		attrs.Switch = switchType
		outBonds[name] = attrs
	}

	return outNets, outBonds, nil
}

func impliedBondSwitchType(bond string, nets shared.Networks, running *shared.RunningConfig) (shared.SwitchType, error) {
	implied := set.New[shared.SwitchType](1)

	for _, attrs := range nets {
		if !attrs.Remove && attrs.Bonding == bond {
			implied.Insert(attrs.Switch)
		}
	}

	// Networks that are not part of the request keep using the bond.
	for name, attrs := range running.Networks {
		if _, ok := nets[name]; ok {
			continue
		}
		if attrs.Bonding == bond {
			implied.Insert(ResolveRemovalSwitchType(name, running.Networks))
		}
	}

	switch implied.Size() {
	case 0:
	case 1:
		return implied.Slice()[0], nil
	default:
		return "", shared.NewConfigNetworkError(shared.ErrCodeBadParams,
			"networks using bonding %s are configured with different switch types", bond)
	}

	if attrs, ok := running.Bonds[bond]; ok && attrs.Switch != "" {
		return attrs.Switch, nil
	}
	return shared.SwitchLegacy, nil
}
