// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package netsetup validates network setup requests and applies them to
// the host through the enabled switch backends.
package netsetup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/runningconfig"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
)

// ErrShutdown is returned by Setup once Shutdown has been called.
var ErrShutdown = errors.New("network setup service is shut down")

// NetInfo provides the snapshot of the host devices. It is satisfied by
// *netinfo.Cache.
type NetInfo interface {
	Get(context.Context) (*shared.NetInfo, error)
	Invalidate()
}

// Request is a setup networks request.
type Request struct {
	Networks shared.Networks `json:"networks,omitempty"`
	Bondings shared.Bondings `json:"bondings,omitempty"`
}

// Service validates and applies setup networks requests. Only one request
// is applied at a time.
type Service struct {
	logger   hclog.Logger
	switches Switches
	store    runningconfig.Store
	netinfo  NetInfo

	l        sync.Mutex
	shutdown bool
}

// New returns a Service applying requests through the given switches and
// recording the outcome in store.
func New(logger hclog.Logger, switches Switches, store runningconfig.Store, netinfo NetInfo) *Service {
	return &Service{
		logger:   logger.Named("netsetup"),
		switches: switches,
		store:    store,
		netinfo:  netinfo,
	}
}

// Validate checks the request without applying it and returns the
// partitions each switch would receive.
func (s *Service) Validate(ctx context.Context, req *Request) (*virtnet.SwitchPartitions, error) {
	partitions, _, err := s.validate(ctx, req)
	return partitions, err
}

func (s *Service) validate(ctx context.Context, req *Request) (*virtnet.SwitchPartitions, *shared.RunningConfig, error) {
	running, err := s.store.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to load running config: %w", err)
	}

	info, err := s.netinfo.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read host networks: %w", err)
	}

	partitions, err := Validate(s.switches, req.Networks, req.Bondings, info, running)
	if err != nil {
		return nil, nil, err
	}
	return partitions, running, nil
}

// Setup validates the request and applies it, the ovs partition first. The
// running config records every partition which was applied, even when a
// later one fails.
func (s *Service) Setup(ctx context.Context, req *Request) error {
	s.l.Lock()
	defer s.l.Unlock()

	if s.shutdown {
		return ErrShutdown
	}

	partitions, running, err := s.validate(ctx, req)
	if err != nil {
		return err
	}

	applied := running.Copy()
	var changed bool
	var mErr *multierror.Error

	for _, switchType := range shared.SwitchTypes {
		part := partitions.Get(switchType)
		if part.IsEmpty() {
			continue
		}

		backend, err := backendFor(s.switches, switchType)
		if err != nil {
			mErr = multierror.Append(mErr, err)
			break
		}

		s.logger.Debug("applying partition", "switch", switchType,
			"networks", part.Networks.Names(), "bondings", part.Bondings.Names())

		changed = true
		err = backend.Setup(ctx, &virtnet.SetupRequest{
			Networks:      part.Networks,
			Bondings:      part.Bondings,
			RunningConfig: running,
		})
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("%s switch setup failed: %w", switchType, err))
			break
		}

		applied.Apply(part.Networks, part.Bondings)
		s.logger.Info("partition applied", "switch", switchType)
	}

	if changed {
		s.netinfo.Invalidate()
	}

	if err := s.store.Save(applied); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to save running config: %w", err))
	}

	// A single failure is returned as is so its code is preserved.
	if mErr != nil && len(mErr.Errors) == 1 {
		return mErr.Errors[0]
	}
	return mErr.ErrorOrNil()
}

// RunningConfig returns the persisted running configuration.
func (s *Service) RunningConfig() (*shared.RunningConfig, error) {
	return s.store.Load()
}

// NetInfo returns the current snapshot of the host devices.
func (s *Service) NetInfo(ctx context.Context) (*shared.NetInfo, error) {
	return s.netinfo.Get(ctx)
}

// Shutdown waits for any running setup to finish. Later setups fail with
// ErrShutdown.
func (s *Service) Shutdown() {
	s.l.Lock()
	defer s.l.Unlock()

	s.shutdown = true
	s.logger.Debug("shut down")
}
