// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ovs

import (
	"github.com/hashicorp/virt-netsetup/internal/shared"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
)

// minBondSlaves is the smallest bond ovs-vsctl add-bond accepts.
const minBondSlaves = 2

// Validate checks the ovs partition against the host state.
func (s *Switch) Validate(req *virtnet.ValidateRequest) error {
	for _, name := range req.Networks.Names() {
		attrs := req.Networks[name]
		if attrs.Remove {
			continue
		}
		if _, ok := attrs.Custom["bridge_opts"]; ok {
			return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
				"network %s: custom bridge_opts are not supported by ovs", name)
		}
		if !attrs.IsBridged() {
			return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
				"network %s: ovs networks must be bridged", name)
		}
	}

	if err := virtnet.ValidateVLANRange(req.Networks); err != nil {
		return err
	}

	for _, name := range req.Bondings.Names() {
		attrs := req.Bondings[name]
		if attrs.Remove {
			continue
		}
		if len(attrs.Nics) < minBondSlaves {
			return shared.NewConfigNetworkError(shared.ErrCodeBadBonding,
				"ovs bonding %s requires at least %d slaves", name, minBondSlaves)
		}
		if _, err := ParseBondOptions(attrs.Options); err != nil {
			return shared.WrapConfigNetworkError(shared.ErrCodeBadBonding, err,
				"invalid options for bonding %s: %v", name, err)
		}
	}

	if err := virtnet.ValidateNics(req); err != nil {
		return err
	}
	return virtnet.ValidateBondingReferences(req)
}
