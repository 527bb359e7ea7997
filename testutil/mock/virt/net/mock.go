// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/shoenig/test/must"
)

// NewMock returns a mock switch backend of the given type.
func NewMock(t must.T, switchType shared.SwitchType) *MockSwitch {
	return &MockSwitch{t: t, switchType: switchType}
}

type Init struct {
	Err error
}

type Fingerprint struct {
	Attrs   map[string]*structs.Attribute       // Expected attributes to receive (nil value prevents check)
	AttrsFn func(map[string]*structs.Attribute) // Allows for modifications
}

type Validate struct {
	Networks []string // Expected network names (nil value prevents check)
	Bondings []string // Expected bonding names (nil value prevents check)
	Err      error
}

type Setup struct {
	Networks []string // Expected network names (nil value prevents check)
	Bondings []string // Expected bonding names (nil value prevents check)
	Err      error
}

// Recorder collects the calls made across several mocks so the order of
// invocations can be asserted.
type Recorder struct {
	l     sync.Mutex
	calls []string
}

func (r *Recorder) record(call string) {
	if r == nil {
		return
	}
	r.l.Lock()
	defer r.l.Unlock()
	r.calls = append(r.calls, call)
}

// Calls returns the recorded calls formatted as "<type>.<method>".
func (r *Recorder) Calls() []string {
	r.l.Lock()
	defer r.l.Unlock()
	return slices.Clone(r.calls)
}

type MockSwitch struct {
	t           must.T
	switchType  shared.SwitchType
	recorder    *Recorder
	init        []Init
	fingerprint []Fingerprint
	validate    []Validate
	setup       []Setup
}

// WithRecorder records every call on the mock into r.
func (m *MockSwitch) WithRecorder(r *Recorder) *MockSwitch {
	m.recorder = r
	return m
}

func (m *MockSwitch) Expect(calls ...any) *MockSwitch {
	for _, call := range calls {
		switch c := call.(type) {
		case Init:
			m.ExpectInit(c)
		case Fingerprint:
			m.ExpectFingerprint(c)
		case Validate:
			m.ExpectValidate(c)
		case Setup:
			m.ExpectSetup(c)
		default:
			m.t.Fatalf("unsupported type for mock expectation: %T", c)
		}
	}

	return m
}

func (m *MockSwitch) ExpectInit(c Init) *MockSwitch {
	m.init = append(m.init, c)
	return m
}

func (m *MockSwitch) ExpectFingerprint(c Fingerprint) *MockSwitch {
	m.fingerprint = append(m.fingerprint, c)
	return m
}

func (m *MockSwitch) ExpectValidate(c Validate) *MockSwitch {
	m.validate = append(m.validate, c)
	return m
}

func (m *MockSwitch) ExpectSetup(c Setup) *MockSwitch {
	m.setup = append(m.setup, c)
	return m
}

func (m *MockSwitch) Type() shared.SwitchType {
	return m.switchType
}

func (m *MockSwitch) Init() error {
	m.t.Helper()
	m.recorder.record(fmt.Sprintf("%s.Init", m.switchType))

	must.SliceNotEmpty(m.t, m.init,
		must.Sprint("Unexpected call to Init"))
	call := m.init[0]
	m.init = m.init[1:]

	return call.Err
}

func (m *MockSwitch) Fingerprint(attrs map[string]*structs.Attribute) {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.fingerprint,
		must.Sprint("Unexpected call to Fingerprint"))
	call := m.fingerprint[0]
	m.fingerprint = m.fingerprint[1:]

	expectedKeys := slices.Sorted(maps.Keys(call.Attrs))
	actualKeys := slices.Sorted(maps.Keys(attrs))

	must.SliceContainsAll(m.t, expectedKeys, actualKeys,
		must.Sprint("Fingerprint received incorrect argument (map keys do not match)"))

	if call.Attrs != nil {
		for expectedKey, expectedValue := range call.Attrs {
			val, ok := attrs[expectedKey]
			if !ok {
				m.t.Fatalf("Fingerprint unexpected comparision error (missing value for key %s)", expectedKey)
			}

			if _, ok = expectedValue.Compare(val); !ok {
				m.t.Fatalf("Fingerprint received incorrect argument - key: %s - %v != %v", expectedKey, expectedValue, val)
			}
		}
	}

	if call.AttrsFn != nil {
		call.AttrsFn(attrs)
	}
}

func (m *MockSwitch) Validate(request *net.ValidateRequest) error {
	m.t.Helper()
	m.recorder.record(fmt.Sprintf("%s.Validate", m.switchType))

	must.SliceNotEmpty(m.t, m.validate,
		must.Sprint("Unexpected call to Validate"))
	call := m.validate[0]
	m.validate = m.validate[1:]

	must.NotNil(m.t, request, must.Sprint("Validate received incorrect arguments"))
	if call.Networks != nil {
		must.Eq(m.t, call.Networks, request.Networks.Names(),
			must.Sprint("Validate received incorrect arguments (networks)"))
	}
	if call.Bondings != nil {
		must.Eq(m.t, call.Bondings, request.Bondings.Names(),
			must.Sprint("Validate received incorrect arguments (bondings)"))
	}

	return call.Err
}

func (m *MockSwitch) Setup(_ context.Context, request *net.SetupRequest) error {
	m.t.Helper()
	m.recorder.record(fmt.Sprintf("%s.Setup", m.switchType))

	must.SliceNotEmpty(m.t, m.setup,
		must.Sprint("Unexpected call to Setup"))
	call := m.setup[0]
	m.setup = m.setup[1:]

	must.NotNil(m.t, request, must.Sprint("Setup received incorrect arguments"))
	if call.Networks != nil {
		must.Eq(m.t, call.Networks, request.Networks.Names(),
			must.Sprint("Setup received incorrect arguments (networks)"))
	}
	if call.Bondings != nil {
		must.Eq(m.t, call.Bondings, request.Bondings.Names(),
			must.Sprint("Setup received incorrect arguments (bondings)"))
	}

	return call.Err
}

// AssertExpectations verifies that all expected invocations
// have been called.
func (m *MockSwitch) AssertExpectations() {
	m.t.Helper()

	must.SliceEmpty(m.t, m.init,
		must.Sprintf("Init expecting %d more invocations", len(m.init)))
	must.SliceEmpty(m.t, m.fingerprint,
		must.Sprintf("Fingerprint expecting %d more invocations", len(m.fingerprint)))
	must.SliceEmpty(m.t, m.validate,
		must.Sprintf("Validate expecting %d more invocations", len(m.validate)))
	must.SliceEmpty(m.t, m.setup,
		must.Sprintf("Setup expecting %d more invocations", len(m.setup)))
}
