// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ovs

import (
	"fmt"
	"slices"
	"strings"
)

var (
	bondModes = []string{"active-backup", "balance-slb", "balance-tcp"}
	lacpModes = []string{"active", "passive", "off"}
)

// ParseBondOptions converts the space separated key=value bonding options
// into the Port column settings passed to add-bond. Only bond_mode and lacp
// are supported; the result is sorted by key.
func ParseBondOptions(options string) ([]string, error) {
	settings := map[string]string{}

	for _, field := range strings.Fields(options) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("invalid option %q", field)
		}
		if _, dup := settings[key]; dup {
			return nil, fmt.Errorf("option %s set more than once", key)
		}

		switch key {
		case "bond_mode":
			if !slices.Contains(bondModes, value) {
				return nil, fmt.Errorf("unknown bond_mode %q", value)
			}
		case "lacp":
			if !slices.Contains(lacpModes, value) {
				return nil, fmt.Errorf("unknown lacp mode %q", value)
			}
		default:
			return nil, fmt.Errorf("unsupported option %s", key)
		}
		settings[key] = value
	}

	if settings["bond_mode"] == "balance-tcp" && settings["lacp"] != "active" && settings["lacp"] != "passive" {
		return nil, fmt.Errorf("bond_mode balance-tcp requires lacp")
	}

	out := make([]string, 0, len(settings))
	for _, key := range []string{"bond_mode", "lacp"} {
		if value, ok := settings[key]; ok {
			out = append(out, key+"="+value)
		}
	}
	return out, nil
}
