// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"github.com/hashicorp/virt-netsetup/internal/shared"
)

// GetSwitchType returns the switch attribute of the entry verbatim. Defaults
// are applied by the caller.
func GetSwitchType[T shared.Entry](attrs T) shared.SwitchType {
	return attrs.SwitchType()
}

// ResolveRemovalSwitchType returns the switch type of an entry being removed.
// A removal request may omit the switch, so it is looked up in the running
// configuration. Removing something that was never configured is targeted at
// the legacy switch, where it is a no-op.
func ResolveRemovalSwitchType[M ~map[string]T, T shared.Entry](name string, running M) shared.SwitchType {
	attrs, ok := running[name]
	if !ok {
		return shared.SwitchLegacy
	}
	if switchType := GetSwitchType(attrs); switchType != "" {
		return switchType
	}
	return shared.SwitchLegacy
}

// resolveSwitchType classifies a single entry, defaulting a missing switch to
// legacy and rejecting any unsupported value.
func resolveSwitchType[M ~map[string]T, T shared.Entry](name string, attrs T, running M) (shared.SwitchType, error) {
	var switchType shared.SwitchType

	if attrs.IsRemoval() {
		switchType = ResolveRemovalSwitchType(name, running)
	} else {
		switchType = GetSwitchType(attrs)
	}

	if switchType == "" {
		return shared.SwitchLegacy, nil
	}
	if !switchType.Valid() {
		return "", shared.WrapConfigNetworkError(shared.ErrCodeBadParams, shared.ErrUnsupportedSwitchType,
			"%s %q on %s", shared.ErrUnsupportedSwitchType, switchType, name)
	}
	return switchType, nil
}
