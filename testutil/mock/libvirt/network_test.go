// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package libvirt

import (
	"testing"

	"github.com/hashicorp/virt-netsetup/testutil/mock"
	"github.com/shoenig/test/must"
	"libvirt.org/go/libvirt"
)

func TestNetwork_IsActive(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		net := NewNetwork(t)
		net.ExpectIsActive(IsActive{Result: true})

		active, err := net.IsActive()
		must.NoError(t, err)
		must.True(t, active)
	})

	t.Run("unexpected", func(t *testing.T) {
		net := NewNetwork(mock.MockT())
		defer mock.AssertUnexpectedCall(t, "IsActive")

		net.IsActive()
	})
}

func TestNetwork_GetXMLDesc(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		net := NewNetwork(t)
		net.ExpectGetXMLDesc(GetXMLDesc{Result: "<network/>"})

		xml, err := net.GetXMLDesc(0)
		must.NoError(t, err)
		must.Eq(t, "<network/>", xml)
	})

	t.Run("incorrect arguments", func(t *testing.T) {
		net := NewNetwork(mock.MockT())
		net.ExpectGetXMLDesc(GetXMLDesc{})
		defer mock.AssertIncorrectArguments(t, "GetXMLDesc")

		net.GetXMLDesc(libvirt.NETWORK_XML_INACTIVE)
	})
}

func TestNetwork_Lifecycle(t *testing.T) {
	net := NewNetwork(t)
	net.Expect(
		SetAutostart{Autostart: true},
		Create{},
		Destroy{Err: mock.MockTestErr},
		Undefine{},
		Free{},
	)

	must.NoError(t, net.SetAutostart(true))
	must.NoError(t, net.Create())
	must.ErrorIs(t, net.Destroy(), mock.MockTestErr)
	must.NoError(t, net.Undefine())
	must.NoError(t, net.Free())
	net.AssertExpectations()
}

func TestNetwork_SetAutostart(t *testing.T) {
	t.Run("incorrect arguments", func(t *testing.T) {
		net := NewNetwork(mock.MockT())
		net.ExpectSetAutostart(SetAutostart{Autostart: true})
		defer mock.AssertIncorrectArguments(t, "SetAutostart")

		net.SetAutostart(false)
	})

	t.Run("unexpected", func(t *testing.T) {
		net := NewNetwork(mock.MockT())
		defer mock.AssertUnexpectedCall(t, "SetAutostart")

		net.SetAutostart(true)
	})
}

func TestNetwork_AssertExpectations(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		net := NewNetwork(t)
		net.AssertExpectations()
	})

	for name, call := range map[string]any{
		"Create":   Create{},
		"Destroy":  Destroy{},
		"Undefine": Undefine{},
		"Free":     Free{},
	} {
		t.Run("missing "+name, func(t *testing.T) {
			net := NewNetwork(mock.MockT())
			net.Expect(call)
			defer mock.AssertExpectations(t, name)

			net.AssertExpectations()
		})
	}
}
