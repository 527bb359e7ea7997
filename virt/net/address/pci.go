// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package address

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMixedBase is returned when the PCI address components do not share
	// the same base.
	ErrMixedBase = errors.New("pci address components must all be hex (0x) or all be decimal")

	// ErrInvalidPCIAddress is returned when a component cannot be parsed.
	ErrInvalidPCIAddress = errors.New("invalid pci address")

	// bdfRe matches the sysfs representation, e.g. "0000:04:00.0".
	bdfRe = regexp.MustCompile(`^([0-9a-fA-F]{4}):([0-9a-fA-F]{2}):([0-9a-fA-F]{2})\.([0-7])$`)
)

// PCIAddress is a normalized PCI address. Each component is a zero-padded,
// 0x-prefixed hex string.
type PCIAddress struct {
	Domain   string `json:"domain"`
	Bus      string `json:"bus"`
	Slot     string `json:"slot"`
	Function string `json:"function"`
}

// Map returns the address as a dictionary keyed by component name.
func (p PCIAddress) Map() map[string]string {
	return map[string]string{
		"domain":   p.Domain,
		"bus":      p.Bus,
		"slot":     p.Slot,
		"function": p.Function,
	}
}

// String returns the address in the sysfs BDF form.
func (p PCIAddress) String() string {
	return fmt.Sprintf("%s:%s:%s.%s",
		strings.TrimPrefix(p.Domain, "0x"),
		strings.TrimPrefix(p.Bus, "0x"),
		strings.TrimPrefix(p.Slot, "0x"),
		strings.TrimPrefix(p.Function, "0x"))
}

// NormalizePCIAddress normalizes the four PCI address components. The inputs
// must be uniformly either 0x-prefixed hex or bare decimal strings.
func NormalizePCIAddress(domain, bus, slot, function string) (PCIAddress, error) {
	components := []string{domain, bus, slot, function}

	hex := isHex(domain)
	for _, c := range components[1:] {
		if isHex(c) != hex {
			return PCIAddress{}, fmt.Errorf("%w: %s", ErrMixedBase, strings.Join(components, ", "))
		}
	}

	values := make([]uint64, len(components))
	for i, c := range components {
		v, err := parseComponent(c, hex)
		if err != nil {
			return PCIAddress{}, err
		}
		values[i] = v
	}

	return PCIAddress{
		Domain:   fmt.Sprintf("0x%04x", values[0]),
		Bus:      fmt.Sprintf("0x%02x", values[1]),
		Slot:     fmt.Sprintf("0x%02x", values[2]),
		Function: fmt.Sprintf("0x%x", values[3]),
	}, nil
}

// ParsePCIBDF parses a sysfs style "dddd:bb:ss.f" address and normalizes it.
func ParsePCIBDF(bdf string) (PCIAddress, error) {
	m := bdfRe.FindStringSubmatch(strings.TrimSpace(bdf))
	if m == nil {
		return PCIAddress{}, fmt.Errorf("%w: %q", ErrInvalidPCIAddress, bdf)
	}
	return NormalizePCIAddress("0x"+m[1], "0x"+m[2], "0x"+m[3], "0x"+m[4])
}

func isHex(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

func parseComponent(s string, hex bool) (uint64, error) {
	var (
		v   uint64
		err error
	)
	if hex {
		v, err = strconv.ParseUint(s[2:], 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: component %q", ErrInvalidPCIAddress, s)
	}
	return v, nil
}
