// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package switches

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/config"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
)

var (
	ErrUnavailableSwitch = errors.New("requested switch is not available")
	ErrNoSwitchesEnabled = errors.New("no switches enabled in configuration")
)

// Factory builds a switch backend from the agent configuration.
type Factory func(*config.Config) (virtnet.Switch, error)

// Registry is the explicit table of switch backends. Backends are registered
// by type and instantiated by Setup for every switch enabled in the
// configuration.
type Registry struct {
	logger    hclog.Logger
	factories map[shared.SwitchType]Factory
	enabled   map[shared.SwitchType]virtnet.Switch
	l         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry(logger hclog.Logger) *Registry {
	return &Registry{
		logger:    logger.Named("switches"),
		factories: make(map[shared.SwitchType]Factory),
		enabled:   make(map[shared.SwitchType]virtnet.Switch),
	}
}

// Register adds the factory for the switch type, replacing any previous one.
func (r *Registry) Register(switchType shared.SwitchType, factory Factory) error {
	if !switchType.Valid() {
		return fmt.Errorf("%w: %q", shared.ErrUnsupportedSwitchType, switchType)
	}

	r.l.Lock()
	defer r.l.Unlock()

	r.factories[switchType] = factory
	return nil
}

// Setup instantiates and initializes every switch enabled in the
// configuration. Previously enabled backends are dropped.
func (r *Registry) Setup(cfg *config.Config) error {
	r.l.Lock()
	defer r.l.Unlock()

	if cfg == nil || cfg.Switches == nil {
		return ErrNoSwitchesEnabled
	}

	wanted := map[shared.SwitchType]bool{
		shared.SwitchLegacy: cfg.Switches.Legacy != nil,
		shared.SwitchOVS:    cfg.Switches.OVS != nil,
	}

	enabled := make(map[shared.SwitchType]virtnet.Switch)
	for _, switchType := range shared.SwitchTypes {
		if !wanted[switchType] {
			continue
		}

		factory, ok := r.factories[switchType]
		if !ok {
			return fmt.Errorf("%w: %s has no registered backend", ErrUnavailableSwitch, switchType)
		}

		sw, err := factory(cfg)
		if err != nil {
			return fmt.Errorf("unable to create %s switch: %w", switchType, err)
		}
		if err := sw.Init(); err != nil {
			return fmt.Errorf("unable to initialize %s switch: %w", switchType, err)
		}

		r.logger.Debug("switch enabled", "switch", switchType)
		enabled[switchType] = sw
	}

	if len(enabled) == 0 {
		return ErrNoSwitchesEnabled
	}

	r.enabled = enabled
	return nil
}

// Get returns the backend for the switch type if it is enabled.
func (r *Registry) Get(switchType shared.SwitchType) (virtnet.Switch, error) {
	r.l.RLock()
	defer r.l.RUnlock()

	sw, ok := r.enabled[switchType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnavailableSwitch, switchType)
	}
	return sw, nil
}

// Enabled returns the enabled switch types in application order.
func (r *Registry) Enabled() []shared.SwitchType {
	r.l.RLock()
	defer r.l.RUnlock()

	enabled := make([]shared.SwitchType, 0, len(r.enabled))
	for _, switchType := range shared.SwitchTypes {
		if _, ok := r.enabled[switchType]; ok {
			enabled = append(enabled, switchType)
		}
	}
	return enabled
}

// Fingerprint marks each enabled switch and collects the backend attributes:
//
//	driver.virt.network.switch.ovs = true
func (r *Registry) Fingerprint() map[string]*structs.Attribute {
	r.l.RLock()
	defer r.l.RUnlock()

	attrs := map[string]*structs.Attribute{}
	for _, switchType := range slices.Sorted(maps.Keys(r.enabled)) {
		key := fmt.Sprintf("%sswitch.%s", virtnet.FingerprintAttributeKeyPrefix, switchType)
		attrs[key] = structs.NewBoolAttribute(true)
		r.enabled[switchType].Fingerprint(attrs)
	}
	return attrs
}
