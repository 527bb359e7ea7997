// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package libvirt

const defaultURI = "qemu:///system"

// Config is the libvirt connection configuration.
type Config struct {
	URI      string `json:"uri"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() *Config {
	return &Config{URI: defaultURI}
}
