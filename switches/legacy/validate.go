// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package legacy

import (
	"strings"
	"unicode"

	"github.com/hashicorp/virt-netsetup/internal/shared"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
)

// maxBridgeNameLen is IFNAMSIZ without the terminating NUL.
const maxBridgeNameLen = 15

// Validate checks the legacy partition against the host state.
func (s *Switch) Validate(req *virtnet.ValidateRequest) error {
	for _, name := range req.Networks.Names() {
		attrs := req.Networks[name]
		if attrs.Remove {
			continue
		}

		if attrs.IsBridged() {
			if err := validateBridgeName(name); err != nil {
				return err
			}
		} else if attrs.SouthBound() == "" {
			return shared.NewConfigNetworkError(shared.ErrCodeBadParams,
				"bridgeless network %s requires a nic or bonding", name)
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

// validateBridgeName checks that the network name can be used as the name of
// a Linux bridge.
func validateBridgeName(name string) error {
	if name == "" || len(name) > maxBridgeNameLen {
		return shared.NewConfigNetworkError(shared.ErrCodeBadBridge,
			"bridge name %q must be between 1 and %d characters", name, maxBridgeNameLen)
	}
	if strings.ContainsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':' || r == '.' || r == '/'
	}) {
		return shared.NewConfigNetworkError(shared.ErrCodeBadBridge,
			"bridge name %q contains invalid characters", name)
	}
	return nil
}
