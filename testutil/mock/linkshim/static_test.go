// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package linkshim

import (
	"testing"

	"github.com/hashicorp/virt-netsetup/internal/linkshim"
	"github.com/hashicorp/virt-netsetup/testutil/mock"
	"github.com/shoenig/test/must"
	"github.com/vishvananda/netlink"
)

func TestStaticLinks(t *testing.T) {
	s := NewStatic(Device("eth0"), Device("eth1"))
	must.Eq(t, []string{"eth0", "eth1"}, s.Names())

	br := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: "br0"}}
	must.NoError(t, s.LinkAdd(br))
	must.Eq(t, 3, br.Index)
	must.Error(t, s.LinkAdd(&netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: "br0"}}))

	eth0, err := s.LinkByName("eth0")
	must.NoError(t, err)
	must.NoError(t, s.LinkSetMaster(eth0, br))
	must.Eq(t, br.Index, eth0.Attrs().MasterIndex)

	vlan := &netlink.Vlan{LinkAttrs: netlink.LinkAttrs{Name: "eth1.10", ParentIndex: 2}, VlanId: 10}
	must.NoError(t, s.LinkAdd(vlan))

	must.NoError(t, s.LinkDel(br))
	must.Zero(t, eth0.Attrs().MasterIndex)

	eth1, err := s.LinkByName("eth1")
	must.NoError(t, err)
	must.NoError(t, s.LinkDel(eth1))
	must.Nil(t, s.Link("eth1.10"))

	_, err = s.LinkByName("br0")
	must.True(t, linkshim.IsLinkNotFound(err))

	must.Eq(t, []string{
		"LinkAdd:br0", "LinkAdd:br0", "LinkSetMaster:eth0", "LinkAdd:eth1.10", "LinkDel:br0", "LinkDel:eth1",
	}, s.Ops)
}

func TestStaticLinks_Errs(t *testing.T) {
	s := NewStatic(Device("eth0"))
	s.Errs["LinkSetUp:eth0"] = mock.MockTestErr
	s.Errs["LinkList"] = mock.MockTestErr

	eth0 := s.Link("eth0")
	must.ErrorIs(t, s.LinkSetUp(eth0), mock.MockTestErr)
	_, err := s.LinkList()
	must.ErrorIs(t, err, mock.MockTestErr)

	must.NoError(t, s.BridgeSetSTP("br0", true))
	must.True(t, s.STP["br0"])
}
