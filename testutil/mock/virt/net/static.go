// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"context"
	"maps"

	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/virt/net"
)

// NewStatic returns a switch backend which accepts everything.
func NewStatic(switchType shared.SwitchType) *StaticSwitch {
	return &StaticSwitch{SwitchType: switchType}
}

type StaticSwitch struct {
	SwitchType        shared.SwitchType
	FingerprintResult map[string]*structs.Attribute
	ValidateErr       error
	SetupErr          error

	// Applied holds every request passed to Setup.
	Applied []*net.SetupRequest
}

func (s *StaticSwitch) Type() shared.SwitchType {
	return s.SwitchType
}

func (s *StaticSwitch) Init() error {
	return nil
}

func (s *StaticSwitch) Fingerprint(attrs map[string]*structs.Attribute) {
	if s.FingerprintResult == nil {
		return
	}

	maps.Copy(attrs, s.FingerprintResult)
}

func (s *StaticSwitch) Validate(*net.ValidateRequest) error {
	return s.ValidateErr
}

func (s *StaticSwitch) Setup(_ context.Context, req *net.SetupRequest) error {
	if s.SetupErr != nil {
		return s.SetupErr
	}
	s.Applied = append(s.Applied, req)
	return nil
}
