// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package shared

// RunningConfig is the record of the networks and bondings currently
// configured on the host. It is keyed identically to the desired state
// mappings.
type RunningConfig struct {
	Networks Networks `json:"networks"`
	Bonds    Bondings `json:"bonds"`
}

// NewRunningConfig returns an empty, initialized running configuration.
func NewRunningConfig() *RunningConfig {
	return &RunningConfig{
		Networks: Networks{},
		Bonds:    Bondings{},
	}
}

// Copy returns a deep copy. Copying a nil config returns an empty one.
func (r *RunningConfig) Copy() *RunningConfig {
	if r == nil {
		return NewRunningConfig()
	}
	return &RunningConfig{
		Networks: r.Networks.Copy(),
		Bonds:    r.Bonds.Copy(),
	}
}

// Apply merges a successfully configured request into the running config.
// Removal entries delete the named device, every other entry replaces the
// recorded attributes.
func (r *RunningConfig) Apply(nets Networks, bonds Bondings) {
	if r.Networks == nil {
		r.Networks = Networks{}
	}
	if r.Bonds == nil {
		r.Bonds = Bondings{}
	}

	for name, attrs := range nets {
		if attrs.Remove {
			delete(r.Networks, name)
			continue
		}
		r.Networks[name] = attrs.Copy()
	}

	for name, attrs := range bonds {
		if attrs.Remove {
			delete(r.Bonds, name)
			continue
		}
		r.Bonds[name] = attrs.Copy()
	}
}
