// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package netsetup

import (
	"errors"

	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/switches"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/hashicorp/virt-netsetup/virt/net/ip"
	"github.com/hashicorp/virt-netsetup/virt/net/link"
)

// Switches provides the enabled switch backends. It is satisfied by
// *switches.Registry.
type Switches interface {
	Get(shared.SwitchType) (virtnet.Switch, error)
}

// Validate checks a request against the host state and the running
// configuration and returns it split between the switches. The link
// checks run first, then the IP checks, then each backend validates its own
// partition. The first failure is returned unmodified and nothing is
// mutated.
func Validate(sw Switches, nets shared.Networks, bonds shared.Bondings, info *shared.NetInfo, running *shared.RunningConfig) (*virtnet.SwitchPartitions, error) {
	if running == nil {
		running = shared.NewRunningConfig()
	}

	// The link checks need no defaults, so they run on the request as given.
	if err := link.Validate(nets, bonds); err != nil {
		return nil, err
	}

	nets, bonds, err := virtnet.Canonicalize(nets, bonds, running)
	if err != nil {
		return nil, err
	}

	if err := ip.Validate(nets, running); err != nil {
		return nil, err
	}

	partitions, err := virtnet.Partition(nets, bonds, running)
	if err != nil {
		return nil, err
	}

	for _, switchType := range shared.SwitchTypes {
		part := partitions.Get(switchType)
		if part.IsEmpty() {
			continue
		}

		backend, err := backendFor(sw, switchType)
		if err != nil {
			return nil, err
		}

		err = backend.Validate(&virtnet.ValidateRequest{
			Networks:      part.Networks,
			Bondings:      part.Bondings,
			AllNetworks:   nets,
			AllBondings:   bonds,
			NetInfo:       info,
			RunningConfig: running,
		})
		if err != nil {
			return nil, err
		}
	}

	return partitions, nil
}

// backendFor returns the enabled backend for the switch type. A request
// needing a disabled switch is a caller error.
func backendFor(sw Switches, switchType shared.SwitchType) (virtnet.Switch, error) {
	backend, err := sw.Get(switchType)
	if errors.Is(err, switches.ErrUnavailableSwitch) {
		return nil, shared.WrapConfigNetworkError(shared.ErrCodeBadParams, err,
			"switch %s is not enabled on this host", switchType)
	}
	return backend, err
}
