// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package link

import (
	"errors"
	"testing"

	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/shoenig/test/must"
)

func intPtr(i int) *int { return &i }

func requireCode(t *testing.T, err error, code shared.ErrorCode) *shared.ConfigNetworkError {
	t.Helper()

	var cErr *shared.ConfigNetworkError
	must.True(t, errors.As(err, &cErr), must.Sprintf("expected ConfigNetworkError, got %v", err))
	must.Eq(t, code, cErr.Code)
	return cErr
}

func TestValidateBondNames(t *testing.T) {
	testCases := []struct {
		name        string
		nets        shared.Networks
		bonds       shared.Bondings
		expectedErr string
	}{
		{
			name: "network reference",
			nets: shared.Networks{"net1": {Bonding: "bond1"}},
		},
		{
			name:  "bonding key",
			bonds: shared.Bondings{"bond_lan0": {Nics: []string{"eth0"}}},
		},
		{
			name: "no bonds",
			nets: shared.Networks{"net1": {Nic: "eth0"}},
		},
		{
			name:        "space in name",
			nets:        shared.Networks{"net1": {Bonding: "bondbad name"}},
			expectedErr: "bad bond name(s): bondbad name",
		},
		{
			name:        "missing suffix",
			bonds:       shared.Bondings{"bond": {Nics: []string{"eth0"}}},
			expectedErr: "bad bond name(s): bond",
		},
		{
			name:        "wrong prefix",
			bonds:       shared.Bondings{"team0": {Nics: []string{"eth0"}}},
			expectedErr: "bad bond name(s): team0",
		},
		{
			name:        "non ascii suffix",
			bonds:       shared.Bondings{"bondé": {Nics: []string{"eth0"}}},
			expectedErr: "bad bond name(s): bondé",
		},
		{
			name: "all offenders reported once",
			nets: shared.Networks{
				"net1": {Bonding: "bond.1"},
				"net2": {Bonding: "bond.1"},
				"net3": {Bonding: "bond0"},
			},
			bonds: shared.Bondings{
				"xbond":  {Nics: []string{"eth0"}},
				"bond-2": {Remove: true},
			},
			expectedErr: "bad bond name(s): bond-2, bond.1, xbond",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBondNames(tc.nets, tc.bonds)
			if tc.expectedErr == "" {
				must.NoError(t, err)
				return
			}
			cErr := requireCode(t, err, shared.ErrCodeBadBonding)
			must.Eq(t, tc.expectedErr, cErr.Message)
		})
	}
}

func TestValidateBondConfiguration(t *testing.T) {
	must.NoError(t, ValidateBondConfiguration(shared.Bondings{
		"bond1": {Nics: []string{"eth0", "eth1"}},
	}))
	must.NoError(t, ValidateBondConfiguration(shared.Bondings{
		"bond1": {Remove: true},
	}))
	must.NoError(t, ValidateBondConfiguration(nil))

	err := ValidateBondConfiguration(shared.Bondings{"bond1": {Nics: []string{}}})
	cErr := requireCode(t, err, shared.ErrCodeBadParams)
	must.StrContains(t, cErr.Message, "bond1")

	err = ValidateBondConfiguration(shared.Bondings{"bond2": {}})
	requireCode(t, err, shared.ErrCodeBadParams)
}

func TestValidateVLANConfiguration(t *testing.T) {
	must.NoError(t, ValidateVLANConfiguration(shared.Networks{
		"net1": {VLAN: intPtr(10), Nic: "eth0"},
		"net2": {VLAN: intPtr(20), Bonding: "bond0"},
		"net3": {VLAN: intPtr(30), Remove: true},
		"net4": {Nic: "eth1"},
	}))

	err := ValidateVLANConfiguration(shared.Networks{"net1": {VLAN: intPtr(10)}})
	cErr := requireCode(t, err, shared.ErrCodeBadVlan)
	must.StrContains(t, cErr.Message, "net1")

	// A zero tag is still a VLAN.
	err = ValidateVLANConfiguration(shared.Networks{"net1": {VLAN: intPtr(0)}})
	requireCode(t, err, shared.ErrCodeBadVlan)
}

func TestValidate_Order(t *testing.T) {
	// Every validation would fail; the bond name check runs first.
	nets := shared.Networks{
		"net1": {Bonding: "bad bond"},
		"net2": {VLAN: intPtr(10)},
	}
	bonds := shared.Bondings{"bond1": {}}
	requireCode(t, Validate(nets, bonds), shared.ErrCodeBadBonding)

	// Then the bond configuration.
	nets["net1"] = shared.NetworkAttrs{Bonding: "bond1"}
	requireCode(t, Validate(nets, bonds), shared.ErrCodeBadParams)

	// And finally the VLAN configuration.
	bonds["bond1"] = shared.BondAttrs{Nics: []string{"eth0"}}
	requireCode(t, Validate(nets, bonds), shared.ErrCodeBadVlan)

	nets["net2"] = shared.NetworkAttrs{VLAN: intPtr(10), Nic: "eth1"}
	must.NoError(t, Validate(nets, bonds))
}
