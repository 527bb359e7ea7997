// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package address converts between the textual address representations used
// across the agent: host:tail pairs with optional IPv6 literals, and PCI
// bus/device/function addresses.
package address

import (
	"fmt"
	"strings"
)

// HosttailError is returned when a host:tail string cannot be split.
type HosttailError struct {
	Hosttail string
}

func (e *HosttailError) Error() string {
	return fmt.Sprintf("%q is not a valid hosttail address", e.Hosttail)
}

// HosttailSplit splits a "host:tail" string on the first unbracketed colon.
// A leading "[" marks an IPv6 literal host, which runs until "]:".
func HosttailSplit(hosttail string) (string, string, error) {
	var host, tail string
	var found bool

	if strings.HasPrefix(hosttail, "[") {
		host, tail, found = strings.Cut(hosttail, "]:")
		host = strings.TrimPrefix(host, "[")
	} else {
		host, tail, found = strings.Cut(hosttail, ":")
	}

	if !found || host == "" || tail == "" {
		return "", "", &HosttailError{Hosttail: hosttail}
	}
	return host, tail, nil
}

// HosttailJoin is the inverse of HosttailSplit. Any host containing a colon
// is treated as an IPv6 literal and bracketed; no further validation is
// performed.
func HosttailJoin(host, tail string) string {
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host + ":" + tail
}

// NormalizeLiteralAddr brackets a bare IPv6 address so it can be embedded in
// a URI or host:port string. Anything else is returned unchanged.
func NormalizeLiteralAddr(addr string) string {
	if strings.Count(addr, ":") > 1 && !strings.HasPrefix(addr, "[") {
		return "[" + addr + "]"
	}
	return addr
}
