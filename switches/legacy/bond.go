// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package legacy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vishvananda/netlink"
)

const (
	defaultBondMode   = netlink.BOND_MODE_BALANCE_RR
	defaultBondMiimon = 100
)

var (
	bondModes = map[string]netlink.BondMode{
		"balance-rr":    netlink.BOND_MODE_BALANCE_RR,
		"active-backup": netlink.BOND_MODE_ACTIVE_BACKUP,
		"balance-xor":   netlink.BOND_MODE_BALANCE_XOR,
		"broadcast":     netlink.BOND_MODE_BROADCAST,
		"802.3ad":       netlink.BOND_MODE_802_3AD,
		"balance-tlb":   netlink.BOND_MODE_BALANCE_TLB,
		"balance-alb":   netlink.BOND_MODE_BALANCE_ALB,
	}

	// Numeric modes follow the kernel bonding driver numbering.
	bondModeNumbers = []string{
		"balance-rr", "active-backup", "balance-xor", "broadcast",
		"802.3ad", "balance-tlb", "balance-alb",
	}

	xmitHashPolicies = map[string]netlink.BondXmitHashPolicy{
		"layer2":   netlink.BOND_XMIT_HASH_POLICY_LAYER2,
		"layer3+4": netlink.BOND_XMIT_HASH_POLICY_LAYER3_4,
		"layer2+3": netlink.BOND_XMIT_HASH_POLICY_LAYER2_3,
		"encap2+3": netlink.BOND_XMIT_HASH_POLICY_ENCAP2_3,
		"encap3+4": netlink.BOND_XMIT_HASH_POLICY_ENCAP3_4,
	}

	lacpRates = map[string]netlink.BondLacpRate{
		"slow": netlink.BOND_LACP_RATE_SLOW,
		"0":    netlink.BOND_LACP_RATE_SLOW,
		"fast": netlink.BOND_LACP_RATE_FAST,
		"1":    netlink.BOND_LACP_RATE_FAST,
	}
)

// BondOptions are the bonding driver options supported by the legacy
// switch, parsed from a "key=value key=value" string.
type BondOptions struct {
	Mode           netlink.BondMode
	Miimon         int
	UpDelay        int
	DownDelay      int
	XmitHashPolicy *netlink.BondXmitHashPolicy
	LacpRate       *netlink.BondLacpRate
}

// ParseBondOptions parses the options attribute of a bonding.
func ParseBondOptions(options string) (*BondOptions, error) {
	opts := &BondOptions{
		Mode:      defaultBondMode,
		Miimon:    defaultBondMiimon,
		UpDelay:   -1,
		DownDelay: -1,
	}

	for _, field := range strings.Fields(options) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("malformed bonding option %q", field)
		}

		switch key {
		case "mode":
			mode, err := parseBondMode(value)
			if err != nil {
				return nil, err
			}
			opts.Mode = mode
		case "miimon":
			v, err := parseNonNegative(key, value)
			if err != nil {
				return nil, err
			}
			opts.Miimon = v
		case "updelay":
			v, err := parseNonNegative(key, value)
			if err != nil {
				return nil, err
			}
			opts.UpDelay = v
		case "downdelay":
			v, err := parseNonNegative(key, value)
			if err != nil {
				return nil, err
			}
			opts.DownDelay = v
		case "xmit_hash_policy":
			policy, ok := xmitHashPolicies[value]
			if !ok {
				return nil, fmt.Errorf("unknown xmit_hash_policy %q", value)
			}
			opts.XmitHashPolicy = &policy
		case "lacp_rate":
			rate, ok := lacpRates[value]
			if !ok {
				return nil, fmt.Errorf("unknown lacp_rate %q", value)
			}
			opts.LacpRate = &rate
		default:
			return nil, fmt.Errorf("unsupported bonding option %q", key)
		}
	}

	if opts.LacpRate != nil && opts.Mode != netlink.BOND_MODE_802_3AD {
		return nil, fmt.Errorf("lacp_rate requires mode 802.3ad")
	}

	return opts, nil
}

func parseBondMode(value string) (netlink.BondMode, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 || n >= len(bondModeNumbers) {
			return netlink.BOND_MODE_UNKNOWN, fmt.Errorf("unknown bonding mode %q", value)
		}
		value = bondModeNumbers[n]
	}

	mode, ok := bondModes[value]
	if !ok {
		return netlink.BOND_MODE_UNKNOWN, fmt.Errorf("unknown bonding mode %q", value)
	}
	return mode, nil
}

func parseNonNegative(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("bonding option %s must be a non-negative integer, got %q", key, value)
	}
	return v, nil
}

// Link returns a bond link carrying the options.
func (o *BondOptions) Link(name string, mtu int) *netlink.Bond {
	bond := netlink.NewLinkBond(netlink.LinkAttrs{Name: name, MTU: mtu})
	bond.Mode = o.Mode
	bond.Miimon = o.Miimon
	bond.UpDelay = o.UpDelay
	bond.DownDelay = o.DownDelay
	if o.XmitHashPolicy != nil {
		bond.XmitHashPolicy = *o.XmitHashPolicy
	}
	if o.LacpRate != nil {
		bond.LacpRate = *o.LacpRate
	}
	return bond
}
