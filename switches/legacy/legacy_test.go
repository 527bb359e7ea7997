// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package legacy

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad/plugins/shared/structs"
	"github.com/hashicorp/virt-netsetup/firewall"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/libvirt"
	"github.com/hashicorp/virt-netsetup/testutil/mock"
	mock_iptables "github.com/hashicorp/virt-netsetup/testutil/mock/iptables"
	mock_linkshim "github.com/hashicorp/virt-netsetup/testutil/mock/linkshim"
	mock_net "github.com/hashicorp/virt-netsetup/testutil/mock/virt/net"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/shoenig/test/must"
	"github.com/vishvananda/netlink"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func requireCode(t *testing.T, err error, code shared.ErrorCode) {
	t.Helper()

	var cErr *shared.ConfigNetworkError
	must.True(t, errors.As(err, &cErr), must.Sprintf("expected ConfigNetworkError, got %v", err))
	must.Eq(t, code, cErr.Code)
}

func testNetInfo() *shared.NetInfo {
	info := shared.NewNetInfo()
	for _, nic := range []string{"eth0", "eth1", "eth2", "eth3"} {
		info.Nics[nic] = shared.NicInfo{MTU: 1500}
	}
	return info
}

func testSwitch(t *testing.T) (*Switch, *mock_linkshim.StaticLinks, *mock_net.StaticLibvirtNetworks) {
	links := mock_linkshim.NewStatic(
		mock_linkshim.Device("eth0"),
		mock_linkshim.Device("eth1"),
		mock_linkshim.Device("eth2"),
		mock_linkshim.Device("eth3"),
	)
	networks := mock_net.NewStaticLibvirtNetworks()
	return New(hclog.NewNullLogger(), links, networks), links, networks
}

func TestSwitch_Init(t *testing.T) {
	sw, links, _ := testSwitch(t)
	must.Eq(t, shared.SwitchLegacy, sw.Type())
	must.NoError(t, sw.Init())

	links.Errs["LinkList"] = mock.MockTestErr
	must.ErrorIs(t, sw.Init(), mock.MockTestErr)
}

func TestSwitch_Fingerprint(t *testing.T) {
	sw, links, _ := testSwitch(t)
	must.NoError(t, links.LinkAdd(&netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: "net1"}}))

	attrs := map[string]*structs.Attribute{}
	sw.Fingerprint(attrs)

	val, ok := attrs["driver.virt.network.switch.legacy.bridges"]
	must.True(t, ok)
	i, ok := val.GetInt()
	must.True(t, ok)
	must.Eq(t, int64(1), i)
}

func TestSwitch_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		nets    shared.Networks
		bonds   shared.Bondings
		running *shared.RunningConfig
		code    shared.ErrorCode
	}{
		{
			name: "valid bridged vlan",
			nets: shared.Networks{"net1": {Nic: "eth0", VLAN: intPtr(100)}},
		},
		{
			name: "valid bridge without south-bound",
			nets: shared.Networks{"net1": {}},
		},
		{
			name: "bridge name too long",
			nets: shared.Networks{"averyveryverylongnet": {Nic: "eth0"}},
			code: shared.ErrCodeBadBridge,
		},
		{
			name: "bridge name with dot",
			nets: shared.Networks{"net.1": {Nic: "eth0"}},
			code: shared.ErrCodeBadBridge,
		},
		{
			name: "bridgeless name is not checked",
			nets: shared.Networks{"net.1": {Nic: "eth0", Bridged: boolPtr(false)}},
		},
		{
			name: "bridgeless without south-bound",
			nets: shared.Networks{"net1": {Bridged: boolPtr(false)}},
			code: shared.ErrCodeBadParams,
		},
		{
			name: "vlan out of range",
			nets: shared.Networks{"net1": {Nic: "eth0", VLAN: intPtr(4095)}},
			code: shared.ErrCodeBadVlan,
		},
		{
			name:  "bad bonding options",
			bonds: shared.Bondings{"bond0": {Nics: []string{"eth1"}, Options: "mode=9"}},
			code:  shared.ErrCodeBadBonding,
		},
		{
			name: "missing nic",
			nets: shared.Networks{"net1": {Nic: "eth9"}},
			code: shared.ErrCodeBadNic,
		},
		{
			name: "unknown bonding",
			nets: shared.Networks{"net1": {Bonding: "bond7"}},
			code: shared.ErrCodeBadBonding,
		},
		{
			name:  "remove bonding in use",
			bonds: shared.Bondings{"bond0": {Remove: true}},
			running: &shared.RunningConfig{
				Networks: shared.Networks{"net1": {Bonding: "bond0"}},
				Bonds:    shared.Bondings{"bond0": {Nics: []string{"eth1"}}},
			},
			code: shared.ErrCodeBadBonding,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sw, _, _ := testSwitch(t)
			err := sw.Validate(&virtnet.ValidateRequest{
				Networks:      tc.nets,
				Bondings:      tc.bonds,
				AllNetworks:   tc.nets,
				AllBondings:   tc.bonds,
				NetInfo:       testNetInfo(),
				RunningConfig: tc.running,
			})
			if tc.code == shared.ErrCodeOK {
				must.NoError(t, err)
				return
			}
			requireCode(t, err, tc.code)
		})
	}
}

func TestSwitch_Setup(t *testing.T) {
	ctx := context.Background()

	t.Run("bridged vlan network", func(t *testing.T) {
		sw, links, networks := testSwitch(t)
		err := sw.Setup(ctx, &virtnet.SetupRequest{
			Networks: shared.Networks{"net1": {Nic: "eth0", VLAN: intPtr(100), MTU: 9000, STP: true}},
		})
		must.NoError(t, err)

		vlan, ok := links.Link("eth0.100").(*netlink.Vlan)
		must.True(t, ok)
		must.Eq(t, 100, vlan.VlanId)
		must.Eq(t, links.Link("eth0").Attrs().Index, vlan.ParentIndex)
		must.Eq(t, 9000, links.Link("eth0").Attrs().MTU)

		bridge := links.Link("net1")
		must.NotNil(t, bridge)
		must.Eq(t, bridge.Attrs().Index, vlan.MasterIndex)
		must.True(t, links.STP["net1"])

		must.Eq(t, &libvirt.NetworkDefinition{
			Name:   "vdsm-net1",
			Switch: "legacy",
			Bridge: "net1",
			MTU:    9000,
		}, networks.Defined["vdsm-net1"])
	})

	t.Run("bridgeless network on new bonding", func(t *testing.T) {
		sw, links, networks := testSwitch(t)
		err := sw.Setup(ctx, &virtnet.SetupRequest{
			Networks: shared.Networks{"net2": {Bonding: "bond0", Bridged: boolPtr(false)}},
			Bondings: shared.Bondings{"bond0": {Nics: []string{"eth1", "eth2"}, Options: "mode=active-backup"}},
		})
		must.NoError(t, err)

		bond, ok := links.Link("bond0").(*netlink.Bond)
		must.True(t, ok)
		must.Eq(t, netlink.BOND_MODE_ACTIVE_BACKUP, bond.Mode)
		must.Eq(t, bond.Index, links.Link("eth1").Attrs().MasterIndex)
		must.Eq(t, bond.Index, links.Link("eth2").Attrs().MasterIndex)

		must.Eq(t, "bond0", networks.Defined["vdsm-net2"].Iface)
		must.Eq(t, "", networks.Defined["vdsm-net2"].Bridge)
	})

	t.Run("remove network", func(t *testing.T) {
		sw, links, networks := testSwitch(t)
		net1 := shared.NetworkAttrs{Nic: "eth0", VLAN: intPtr(100)}
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{Networks: shared.Networks{"net1": net1}}))

		err := sw.Setup(ctx, &virtnet.SetupRequest{
			Networks:      shared.Networks{"net1": {Remove: true}},
			RunningConfig: &shared.RunningConfig{Networks: shared.Networks{"net1": net1}},
		})
		must.NoError(t, err)
		must.Nil(t, links.Link("net1"))
		must.Nil(t, links.Link("eth0.100"))
		must.NotNil(t, links.Link("eth0"))
		must.MapEmpty(t, networks.Defined)
	})

	t.Run("edit bonding slaves", func(t *testing.T) {
		sw, links, _ := testSwitch(t)
		bond0 := shared.BondAttrs{Nics: []string{"eth1", "eth2"}}
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{Bondings: shared.Bondings{"bond0": bond0}}))
		index := links.Link("bond0").Attrs().Index

		err := sw.Setup(ctx, &virtnet.SetupRequest{
			Bondings:      shared.Bondings{"bond0": {Nics: []string{"eth2", "eth3"}}},
			RunningConfig: &shared.RunningConfig{Bonds: shared.Bondings{"bond0": bond0}},
		})
		must.NoError(t, err)
		must.Eq(t, index, links.Link("bond0").Attrs().Index)
		must.Zero(t, links.Link("eth1").Attrs().MasterIndex)
		must.Eq(t, index, links.Link("eth2").Attrs().MasterIndex)
		must.Eq(t, index, links.Link("eth3").Attrs().MasterIndex)
	})

	t.Run("bonding options change recreates", func(t *testing.T) {
		sw, links, _ := testSwitch(t)
		bond0 := shared.BondAttrs{Nics: []string{"eth1", "eth2"}}
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{Bondings: shared.Bondings{"bond0": bond0}}))
		index := links.Link("bond0").Attrs().Index

		err := sw.Setup(ctx, &virtnet.SetupRequest{
			Bondings:      shared.Bondings{"bond0": {Nics: []string{"eth1", "eth2"}, Options: "mode=4"}},
			RunningConfig: &shared.RunningConfig{Bonds: shared.Bondings{"bond0": bond0}},
		})
		must.NoError(t, err)
		must.NotEq(t, index, links.Link("bond0").Attrs().Index)
		must.Eq(t, netlink.BOND_MODE_802_3AD, links.Link("bond0").(*netlink.Bond).Mode)
	})

	t.Run("remove bonding", func(t *testing.T) {
		sw, links, _ := testSwitch(t)
		bond0 := shared.BondAttrs{Nics: []string{"eth1", "eth2"}}
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{Bondings: shared.Bondings{"bond0": bond0}}))

		err := sw.Setup(ctx, &virtnet.SetupRequest{
			Bondings:      shared.Bondings{"bond0": {Remove: true}},
			RunningConfig: &shared.RunningConfig{Bonds: shared.Bondings{"bond0": bond0}},
		})
		must.NoError(t, err)
		must.Nil(t, links.Link("bond0"))
		must.Zero(t, links.Link("eth1").Attrs().MasterIndex)
	})

	t.Run("removal collects errors", func(t *testing.T) {
		sw, links, networks := testSwitch(t)
		net1 := shared.NetworkAttrs{Nic: "eth0", VLAN: intPtr(100)}
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{Networks: shared.Networks{"net1": net1}}))

		networks.Errs["Remove:vdsm-net1"] = mock.MockTestErr
		err := sw.Setup(ctx, &virtnet.SetupRequest{
			Networks:      shared.Networks{"net1": {Remove: true}},
			RunningConfig: &shared.RunningConfig{Networks: shared.Networks{"net1": net1}},
		})
		must.ErrorIs(t, err, mock.MockTestErr)

		// Host devices are still removed.
		must.Nil(t, links.Link("net1"))
		must.Nil(t, links.Link("eth0.100"))
	})

	t.Run("cancelled", func(t *testing.T) {
		sw, _, networks := testSwitch(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := sw.Setup(cctx, &virtnet.SetupRequest{
			Networks: shared.Networks{"net1": {Nic: "eth0"}},
		})
		must.ErrorIs(t, err, context.Canceled)
		must.MapEmpty(t, networks.Defined)
	})
}

func TestValidateBridgeName(t *testing.T) {
	must.NoError(t, validateBridgeName("ovirtmgmt"))
	must.NoError(t, validateBridgeName("a23456789012345"))
	for _, name := range []string{"", "a234567890123456", "has space", "col:on", "dot.ted", "sla/sh", "tab\tbed"} {
		requireCode(t, validateBridgeName(name), shared.ErrCodeBadBridge)
	}
}

func TestSwitch_Firewall(t *testing.T) {
	ctx := context.Background()
	fwRule := func(dir string) []string {
		return []string{dir, "net1", "-j", "ACCEPT"}
	}

	t.Run("init", func(t *testing.T) {
		ipt := mock_iptables.NewMock(t).Expect(
			mock_iptables.ListChains{Table: firewall.FilterTable, Result: []string{firewall.ForwardChain}},
		)
		defer ipt.AssertExpectations()

		sw, _, _ := testSwitch(t)
		sw.WithFirewall(firewall.NewFirewall(hclog.NewNullLogger(), ipt))
		must.NoError(t, sw.Init())
	})

	t.Run("init error", func(t *testing.T) {
		ipt := mock_iptables.NewMock(t).Expect(
			mock_iptables.ListChains{Table: firewall.FilterTable, Err: mock.MockTestErr},
		)
		defer ipt.AssertExpectations()

		sw, _, _ := testSwitch(t)
		sw.WithFirewall(firewall.NewFirewall(hclog.NewNullLogger(), ipt))
		must.ErrorIs(t, sw.Init(), mock.MockTestErr)
	})

	t.Run("bridged network lifecycle", func(t *testing.T) {
		ipt := mock_iptables.NewMock(t).Expect(
			mock_iptables.DeleteIfExists{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-i")},
			mock_iptables.Append{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-i")},
			mock_iptables.DeleteIfExists{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-o")},
			mock_iptables.Append{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-o")},
			mock_iptables.DeleteIfExists{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-i")},
			mock_iptables.DeleteIfExists{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-o")},
		)
		defer ipt.AssertExpectations()

		sw, _, _ := testSwitch(t)
		sw.WithFirewall(firewall.NewFirewall(hclog.NewNullLogger(), ipt))

		net1 := shared.NetworkAttrs{Nic: "eth0"}
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{Networks: shared.Networks{"net1": net1}}))
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{
			Networks:      shared.Networks{"net1": {Remove: true}},
			RunningConfig: &shared.RunningConfig{Networks: shared.Networks{"net1": net1}},
		}))
	})

	t.Run("bridgeless network untouched", func(t *testing.T) {
		ipt := mock_iptables.NewMock(t)
		defer ipt.AssertExpectations()

		sw, _, _ := testSwitch(t)
		sw.WithFirewall(firewall.NewFirewall(hclog.NewNullLogger(), ipt))
		must.NoError(t, sw.Setup(ctx, &virtnet.SetupRequest{
			Networks: shared.Networks{"net2": {Nic: "eth1", Bridged: boolPtr(false)}},
		}))
	})

	t.Run("allow error", func(t *testing.T) {
		ipt := mock_iptables.NewMock(t).Expect(
			mock_iptables.DeleteIfExists{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-i")},
			mock_iptables.Append{Table: firewall.FilterTable, Chain: firewall.ForwardChain, RuleSpec: fwRule("-i"), Err: mock.MockTestErr},
		)
		defer ipt.AssertExpectations()

		sw, _, networks := testSwitch(t)
		sw.WithFirewall(firewall.NewFirewall(hclog.NewNullLogger(), ipt))
		err := sw.Setup(ctx, &virtnet.SetupRequest{Networks: shared.Networks{"net1": {Nic: "eth0"}}})
		must.ErrorIs(t, err, mock.MockTestErr)
		must.MapEmpty(t, networks.Defined)
	})
}
