// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package shared

import (
	"errors"
)

// SwitchType identifies the backend responsible for configuring a network or
// bonding on the host.
type SwitchType string

const (
	// SwitchLegacy is the traditional Linux bridge backend.
	SwitchLegacy SwitchType = "legacy"

	// SwitchOVS is the Open vSwitch backend.
	SwitchOVS SwitchType = "ovs"
)

// ErrUnsupportedSwitchType is returned, wrapped in a ConfigNetworkError, when
// an entry names a switch that is neither legacy nor ovs.
var ErrUnsupportedSwitchType = errors.New("unsupported switch type")

// SwitchTypes lists every supported switch type in dispatch order.
var SwitchTypes = []SwitchType{SwitchOVS, SwitchLegacy}

// Valid reports whether the switch type is one of the supported backends.
// The empty value is not valid; callers default it to SwitchLegacy.
func (s SwitchType) Valid() bool {
	return s == SwitchLegacy || s == SwitchOVS
}

func (s SwitchType) String() string { return string(s) }
