// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package libvirt

import (
	"fmt"

	iface "github.com/hashicorp/virt-netsetup/libvirt"
	"github.com/shoenig/test/must"
	"libvirt.org/go/libvirt"
)

type IsActive struct {
	Result bool
	Err    error
}

type GetBridgeName struct {
	Result string
	Err    error
}

type GetXMLDesc struct {
	Flags  libvirt.NetworkXMLFlags
	Result string
	Err    error
}

type Create struct {
	Err error
}

type Destroy struct {
	Err error
}

type Undefine struct {
	Err error
}

type SetAutostart struct {
	Autostart bool
	Err       error
}

type Free struct {
	Err error
}

type MockNetwork struct {
	isActives      []IsActive
	getBridgeNames []GetBridgeName
	getXMLDescs    []GetXMLDesc
	creates        []Create
	destroys       []Destroy
	undefines      []Undefine
	setAutostarts  []SetAutostart
	frees          []Free
	t              must.T
}

// NewNetwork returns a new mock compatible with libvirt.ConnectNetworkShim
func NewNetwork(t must.T) *MockNetwork {
	return &MockNetwork{t: t}
}

// Expect adds a list of expected calls.
func (m *MockNetwork) Expect(calls ...any) *MockNetwork {
	for _, call := range calls {
		switch c := call.(type) {
		case IsActive:
			m.ExpectIsActive(c)
		case GetBridgeName:
			m.ExpectGetBridgeName(c)
		case GetXMLDesc:
			m.ExpectGetXMLDesc(c)
		case Create:
			m.ExpectCreate(c)
		case Destroy:
			m.ExpectDestroy(c)
		case Undefine:
			m.ExpectUndefine(c)
		case SetAutostart:
			m.ExpectSetAutostart(c)
		case Free:
			m.ExpectFree(c)
		default:
			panic(fmt.Sprintf("unsupported type for mock expectation: %T", c))
		}
	}

	return m
}

// ExpectIsActive adds an expected IsActive call.
func (m *MockNetwork) ExpectIsActive(act IsActive) *MockNetwork {
	m.isActives = append(m.isActives, act)
	return m
}

// ExpectGetBridgeName adds an expected GetBridgeName call.
func (m *MockNetwork) ExpectGetBridgeName(get GetBridgeName) *MockNetwork {
	m.getBridgeNames = append(m.getBridgeNames, get)
	return m
}

// ExpectGetXMLDesc adds an expected GetXMLDesc call.
func (m *MockNetwork) ExpectGetXMLDesc(get GetXMLDesc) *MockNetwork {
	m.getXMLDescs = append(m.getXMLDescs, get)
	return m
}

// ExpectCreate adds an expected Create call.
func (m *MockNetwork) ExpectCreate(c Create) *MockNetwork {
	m.creates = append(m.creates, c)
	return m
}

// ExpectDestroy adds an expected Destroy call.
func (m *MockNetwork) ExpectDestroy(d Destroy) *MockNetwork {
	m.destroys = append(m.destroys, d)
	return m
}

// ExpectUndefine adds an expected Undefine call.
func (m *MockNetwork) ExpectUndefine(u Undefine) *MockNetwork {
	m.undefines = append(m.undefines, u)
	return m
}

// ExpectSetAutostart adds an expected SetAutostart call.
func (m *MockNetwork) ExpectSetAutostart(s SetAutostart) *MockNetwork {
	m.setAutostarts = append(m.setAutostarts, s)
	return m
}

// ExpectFree adds an expected Free call.
func (m *MockNetwork) ExpectFree(f Free) *MockNetwork {
	m.frees = append(m.frees, f)
	return m
}

func (m *MockNetwork) IsActive() (bool, error) {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.isActives,
		must.Sprint("Unexpected call to IsActive"))
	call := m.isActives[0]
	m.isActives = m.isActives[1:]

	return call.Result, call.Err
}

func (m *MockNetwork) GetBridgeName() (string, error) {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.getBridgeNames,
		must.Sprint("Unexpected call to GetBridgeName"))
	call := m.getBridgeNames[0]
	m.getBridgeNames = m.getBridgeNames[1:]

	return call.Result, call.Err
}

func (m *MockNetwork) GetXMLDesc(flags libvirt.NetworkXMLFlags) (string, error) {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.getXMLDescs,
		must.Sprintf("Unexpected call to GetXMLDesc - GetXMLDesc(%d)", flags))
	call := m.getXMLDescs[0]
	m.getXMLDescs = m.getXMLDescs[1:]
	must.Eq(m.t, call.Flags, flags,
		must.Sprint("GetXMLDesc received incorrect arguments"))

	return call.Result, call.Err
}

func (m *MockNetwork) Create() error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.creates,
		must.Sprint("Unexpected call to Create"))
	call := m.creates[0]
	m.creates = m.creates[1:]

	return call.Err
}

func (m *MockNetwork) Destroy() error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.destroys,
		must.Sprint("Unexpected call to Destroy"))
	call := m.destroys[0]
	m.destroys = m.destroys[1:]

	return call.Err
}

func (m *MockNetwork) Undefine() error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.undefines,
		must.Sprint("Unexpected call to Undefine"))
	call := m.undefines[0]
	m.undefines = m.undefines[1:]

	return call.Err
}

func (m *MockNetwork) SetAutostart(autostart bool) error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.setAutostarts,
		must.Sprintf("Unexpected call to SetAutostart - SetAutostart(%t)", autostart))
	call := m.setAutostarts[0]
	m.setAutostarts = m.setAutostarts[1:]
	must.Eq(m.t, call.Autostart, autostart,
		must.Sprint("SetAutostart received incorrect arguments"))

	return call.Err
}

func (m *MockNetwork) Free() error {
	m.t.Helper()

	must.SliceNotEmpty(m.t, m.frees,
		must.Sprint("Unexpected call to Free"))
	call := m.frees[0]
	m.frees = m.frees[1:]

	return call.Err
}

// AssertExpectations verifies that all expected invocations
// have been called.
func (m *MockNetwork) AssertExpectations() {
	m.t.Helper()

	must.SliceEmpty(m.t, m.isActives,
		must.Sprintf("IsActive expecting %d more invocations", len(m.isActives)))
	must.SliceEmpty(m.t, m.getBridgeNames,
		must.Sprintf("GetBridgeName expecting %d more invocations", len(m.getBridgeNames)))
	must.SliceEmpty(m.t, m.getXMLDescs,
		must.Sprintf("GetXMLDesc expecting %d more invocations", len(m.getXMLDescs)))
	must.SliceEmpty(m.t, m.creates,
		must.Sprintf("Create expecting %d more invocations", len(m.creates)))
	must.SliceEmpty(m.t, m.destroys,
		must.Sprintf("Destroy expecting %d more invocations", len(m.destroys)))
	must.SliceEmpty(m.t, m.undefines,
		must.Sprintf("Undefine expecting %d more invocations", len(m.undefines)))
	must.SliceEmpty(m.t, m.setAutostarts,
		must.Sprintf("SetAutostart expecting %d more invocations", len(m.setAutostarts)))
	must.SliceEmpty(m.t, m.frees,
		must.Sprintf("Free expecting %d more invocations", len(m.frees)))
}

var _ iface.ConnectNetworkShim = (*MockNetwork)(nil)
