// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package net

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/virt-netsetup/libvirt"
	"github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/shoenig/test/must"
)

type Define struct {
	Definition *libvirt.NetworkDefinition // Expected definition (nil value prevents check)
	Err        error
}

type Remove struct {
	Name string
	Err  error
}

// NewMockLibvirtNetworks returns a mock compatible with net.LibvirtNetworks.
func NewMockLibvirtNetworks(t must.T) *MockLibvirtNetworks {
	return &MockLibvirtNetworks{t: t}
}

type MockLibvirtNetworks struct {
	t       must.T
	defines []Define
	removes []Remove
}

func (m *MockLibvirtNetworks) Expect(calls ...any) *MockLibvirtNetworks {
	for _, call := range calls {
		switch c := call.(type) {
		case Define:
			m.defines = append(m.defines, c)
		case Remove:
			m.removes = append(m.removes, c)
		default:
			m.t.Fatalf("unsupported type for mock expectation: %T", c)
		}
	}

	return m
}

func (m *MockLibvirtNetworks) Define(def *libvirt.NetworkDefinition) error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.defines,
		must.Sprintf("Unexpected call to Define - Define(%q)", def.Name))
	call := m.defines[0]
	m.defines = m.defines[1:]

	if call.Definition != nil {
		must.Eq(m.t, call.Definition, def,
			must.Sprint("Define received incorrect arguments"))
	}

	return call.Err
}

func (m *MockLibvirtNetworks) Remove(name string) error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.removes,
		must.Sprintf("Unexpected call to Remove - Remove(%q)", name))
	call := m.removes[0]
	m.removes = m.removes[1:]

	must.Eq(m.t, call.Name, name,
		must.Sprint("Remove received incorrect arguments"))

	return call.Err
}

// AssertExpectations verifies that all expected invocations
// have been called.
func (m *MockLibvirtNetworks) AssertExpectations() {
	m.t.Helper()

	must.SliceEmpty(m.t, m.defines,
		must.Sprintf("Define expecting %d more invocations", len(m.defines)))
	must.SliceEmpty(m.t, m.removes,
		must.Sprintf("Remove expecting %d more invocations", len(m.removes)))
}

// NewStaticLibvirtNetworks returns an in-memory set of libvirt networks.
func NewStaticLibvirtNetworks() *StaticLibvirtNetworks {
	return &StaticLibvirtNetworks{
		Defined: map[string]*libvirt.NetworkDefinition{},
		Errs:    map[string]error{},
	}
}

type StaticLibvirtNetworks struct {
	l sync.Mutex

	Defined map[string]*libvirt.NetworkDefinition

	// Errs injects errors keyed by "<Method>:<network name>".
	Errs map[string]error

	// Ops records every call as "<Method>:<network name>".
	Ops []string
}

func (s *StaticLibvirtNetworks) Define(def *libvirt.NetworkDefinition) error {
	s.l.Lock()
	defer s.l.Unlock()

	key := fmt.Sprintf("Define:%s", def.Name)
	s.Ops = append(s.Ops, key)
	if err := s.Errs[key]; err != nil {
		return err
	}
	if _, err := def.XML(); err != nil {
		return err
	}
	s.Defined[def.Name] = def
	return nil
}

func (s *StaticLibvirtNetworks) Remove(name string) error {
	s.l.Lock()
	defer s.l.Unlock()

	key := fmt.Sprintf("Remove:%s", name)
	s.Ops = append(s.Ops, key)
	if err := s.Errs[key]; err != nil {
		return err
	}
	delete(s.Defined, name)
	return nil
}

// Names returns the defined network names in sorted order.
func (s *StaticLibvirtNetworks) Names() []string {
	s.l.Lock()
	defer s.l.Unlock()

	names := make([]string, 0, len(s.Defined))
	for name := range s.Defined {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var (
	_ net.LibvirtNetworks = (*MockLibvirtNetworks)(nil)
	_ net.LibvirtNetworks = (*StaticLibvirtNetworks)(nil)
)
