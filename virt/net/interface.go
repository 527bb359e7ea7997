// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"context"

	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/libvirt"
)

// Switch is the interface that defines a network switch backend. Each backend
// only ever receives the partition of a request that was classified to it,
// and must not mutate the host from Validate.
type Switch interface {
	// Type returns the switch type the backend is responsible for.
	Type() shared.SwitchType

	// Init performs any initialization work needed by the backend prior to
	// being used. It should be idempotent. Any error returned is considered
	// fatal to the backend.
	Init() error

	// Fingerprint interrogates the host system and populates the attribute
	// mapping with relevant backend information. Any errors performing this
	// should be logged by the implementor, but not considered terminal, which
	// explains the lack of error response. Each entry should use
	// FingerprintAttributeKeyPrefix as a base.
	Fingerprint(map[string]*structs.Attribute)

	// Validate checks the backend specific constraints of its partition. It
	// must return a *shared.ConfigNetworkError on invalid input.
	Validate(*ValidateRequest) error

	// Setup applies the partition to the host. It is only ever called once
	// every backend has successfully validated its partition.
	Setup(context.Context, *SetupRequest) error
}

// ValidateRequest is the input to Switch.Validate.
type ValidateRequest struct {
	// Networks and Bondings are the entries of the request classified to the
	// backend.
	Networks shared.Networks
	Bondings shared.Bondings

	// AllNetworks and AllBondings are the complete canonicalized request,
	// which some checks need to reason across backends.
	AllNetworks shared.Networks
	AllBondings shared.Bondings

	NetInfo       *shared.NetInfo
	RunningConfig *shared.RunningConfig
}

// SetupRequest is the input to Switch.Setup.
type SetupRequest struct {
	Networks      shared.Networks
	Bondings      shared.Bondings
	RunningConfig *shared.RunningConfig
}

// IsEmpty reports whether the request holds no entries and can therefore be
// skipped.
func (s *SetupRequest) IsEmpty() bool {
	return s == nil || (len(s.Networks) == 0 && len(s.Bondings) == 0)
}

// LibvirtNetworks defines and removes the libvirt networks which expose host
// networks to virtual machines. It is satisfied by *libvirt.Networks.
type LibvirtNetworks interface {
	Define(*libvirt.NetworkDefinition) error
	Remove(name string) error
}
