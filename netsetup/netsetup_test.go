// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package netsetup_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/virt-netsetup/config"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/netinfo"
	"github.com/hashicorp/virt-netsetup/netsetup"
	"github.com/hashicorp/virt-netsetup/runningconfig"
	"github.com/hashicorp/virt-netsetup/switches"
	"github.com/hashicorp/virt-netsetup/testutil/mock"
	mock_net "github.com/hashicorp/virt-netsetup/testutil/mock/virt/net"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/shoenig/test/must"
)

// staticSource counts the snapshots read through the cache.
type staticSource struct {
	info  *shared.NetInfo
	reads int
}

func (s *staticSource) Get(context.Context) (*shared.NetInfo, error) {
	s.reads++
	return s.info, nil
}

// switchMap serves backends without a registry.
type switchMap map[shared.SwitchType]virtnet.Switch

func (m switchMap) Get(switchType shared.SwitchType) (virtnet.Switch, error) {
	sw, ok := m[switchType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", switches.ErrUnavailableSwitch, switchType)
	}
	return sw, nil
}

func testNetInfo() *shared.NetInfo {
	info := shared.NewNetInfo()
	for _, nic := range []string{"eth0", "eth1", "eth2"} {
		info.Nics[nic] = shared.NicInfo{MTU: 1500}
	}
	return info
}

func scenarioRequest() *netsetup.Request {
	return &netsetup.Request{
		Networks: shared.Networks{
			"netA": {Nic: "eth0", Switch: shared.SwitchOVS},
			"netB": {Bonding: "bond1"},
		},
		Bondings: shared.Bondings{
			"bond1": {Nics: []string{"eth1", "eth2"}},
		},
	}
}

func requireCode(t *testing.T, err error, code shared.ErrorCode) {
	t.Helper()

	var cErr *shared.ConfigNetworkError
	must.True(t, errors.As(err, &cErr), must.Sprintf("expected ConfigNetworkError, got %v", err))
	must.Eq(t, code, cErr.Code)
}

type testService struct {
	svc      *netsetup.Service
	recorder *mock_net.Recorder
	ovs      *mock_net.MockSwitch
	legacy   *mock_net.MockSwitch
	store    *runningconfig.MemoryStore
	source   *staticSource
}

func newTestService(t *testing.T, running *shared.RunningConfig) *testService {
	ts := &testService{
		recorder: &mock_net.Recorder{},
		store:    runningconfig.NewMemoryStore(running),
		source:   &staticSource{info: testNetInfo()},
	}
	ts.ovs = mock_net.NewMock(t, shared.SwitchOVS).WithRecorder(ts.recorder)
	ts.legacy = mock_net.NewMock(t, shared.SwitchLegacy).WithRecorder(ts.recorder)

	sw := switchMap{shared.SwitchOVS: ts.ovs, shared.SwitchLegacy: ts.legacy}
	ts.svc = netsetup.New(hclog.NewNullLogger(), sw, ts.store, netinfo.NewCache(ts.source))
	return ts
}

func (ts *testService) assertExpectations() {
	ts.ovs.AssertExpectations()
	ts.legacy.AssertExpectations()
}

func TestService_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("mixed switches", func(t *testing.T) {
		ts := newTestService(t, nil)
		ts.ovs.Expect(mock_net.Validate{Networks: []string{"netA"}})
		ts.legacy.Expect(mock_net.Validate{Networks: []string{"netB"}, Bondings: []string{"bond1"}})

		partitions, err := ts.svc.Validate(ctx, scenarioRequest())
		must.NoError(t, err)
		ts.assertExpectations()

		must.Eq(t, []string{"netA"}, partitions.OVS.Networks.Names())
		must.MapEmpty(t, partitions.OVS.Bondings)
		must.Eq(t, []string{"netB"}, partitions.Legacy.Networks.Names())
		must.Eq(t, []string{"bond1"}, partitions.Legacy.Bondings.Names())
		must.Eq(t, shared.SwitchLegacy, partitions.Legacy.Bondings["bond1"].Switch)
		must.Eq(t, []string{"ovs.Validate", "legacy.Validate"}, ts.recorder.Calls())
	})

	t.Run("empty partition skipped", func(t *testing.T) {
		ts := newTestService(t, nil)
		ts.legacy.Expect(mock_net.Validate{Networks: []string{"net1"}})

		_, err := ts.svc.Validate(ctx, &netsetup.Request{
			Networks: shared.Networks{"net1": {Nic: "eth0"}},
		})
		must.NoError(t, err)
		ts.assertExpectations()
	})

	t.Run("link failure stops before backends", func(t *testing.T) {
		ts := newTestService(t, nil)

		_, err := ts.svc.Validate(ctx, &netsetup.Request{
			Networks: shared.Networks{"net1": {Bonding: "team0"}},
		})
		requireCode(t, err, shared.ErrCodeBadBonding)
		must.SliceEmpty(t, ts.recorder.Calls())
	})

	t.Run("link failure wins over defaults", func(t *testing.T) {
		ts := newTestService(t, nil)

		// The bond switch cannot be inferred either, but the bond name is
		// reported.
		_, err := ts.svc.Validate(ctx, &netsetup.Request{
			Networks: shared.Networks{
				"net1": {Bonding: "bad name", Switch: shared.SwitchOVS},
				"net2": {Bonding: "bad name", Switch: shared.SwitchLegacy},
			},
			Bondings: shared.Bondings{"bad name": {Nics: []string{"eth0"}}},
		})
		requireCode(t, err, shared.ErrCodeBadBonding)
		must.SliceEmpty(t, ts.recorder.Calls())
	})

	t.Run("switch change rejected", func(t *testing.T) {
		ts := newTestService(t, &shared.RunningConfig{
			Networks: shared.Networks{"net1": {Nic: "eth0", Switch: shared.SwitchLegacy}},
		})

		_, err := ts.svc.Validate(ctx, &netsetup.Request{
			Networks: shared.Networks{"net1": {Nic: "eth0", Switch: shared.SwitchOVS}},
		})
		requireCode(t, err, shared.ErrCodeBadParams)
		must.SliceEmpty(t, ts.recorder.Calls())
	})

	t.Run("ip failure stops before backends", func(t *testing.T) {
		ts := newTestService(t, nil)

		_, err := ts.svc.Validate(ctx, &netsetup.Request{
			Networks: shared.Networks{"net1": {Nic: "eth0", BootProto: "bootp"}},
		})
		requireCode(t, err, shared.ErrCodeBadParams)
		must.SliceEmpty(t, ts.recorder.Calls())
	})

	t.Run("backend failure propagates unmodified", func(t *testing.T) {
		ts := newTestService(t, nil)
		backendErr := shared.NewConfigNetworkError(shared.ErrCodeBadNic, "nic eth0 is gone")
		ts.ovs.Expect(mock_net.Validate{Err: backendErr})

		_, err := ts.svc.Validate(ctx, scenarioRequest())
		must.Eq(t, error(backendErr), err)
		must.Eq(t, []string{"ovs.Validate"}, ts.recorder.Calls())
	})

	t.Run("disabled switch", func(t *testing.T) {
		ts := newTestService(t, nil)
		ts.svc = netsetup.New(hclog.NewNullLogger(),
			switchMap{shared.SwitchLegacy: ts.legacy}, ts.store, netinfo.NewCache(ts.source))

		_, err := ts.svc.Validate(ctx, scenarioRequest())
		requireCode(t, err, shared.ErrCodeBadParams)
		must.ErrorIs(t, err, switches.ErrUnavailableSwitch)
	})

	t.Run("removal follows running config", func(t *testing.T) {
		ts := newTestService(t, &shared.RunningConfig{
			Networks: shared.Networks{"net1": {Nic: "eth0", Switch: shared.SwitchOVS}},
		})
		ts.ovs.Expect(mock_net.Validate{Networks: []string{"net1"}})

		_, err := ts.svc.Validate(ctx, &netsetup.Request{
			Networks: shared.Networks{"net1": {Remove: true}},
		})
		must.NoError(t, err)
		ts.assertExpectations()
	})
}

func TestService_Setup(t *testing.T) {
	ctx := context.Background()

	t.Run("validate then apply", func(t *testing.T) {
		ts := newTestService(t, nil)
		ts.ovs.Expect(
			mock_net.Validate{Networks: []string{"netA"}},
			mock_net.Setup{Networks: []string{"netA"}},
		)
		ts.legacy.Expect(
			mock_net.Validate{Networks: []string{"netB"}, Bondings: []string{"bond1"}},
			mock_net.Setup{Networks: []string{"netB"}, Bondings: []string{"bond1"}},
		)

		must.NoError(t, ts.svc.Setup(ctx, scenarioRequest()))
		ts.assertExpectations()
		must.Eq(t, []string{"ovs.Validate", "legacy.Validate", "ovs.Setup", "legacy.Setup"}, ts.recorder.Calls())

		running, err := ts.svc.RunningConfig()
		must.NoError(t, err)
		must.Eq(t, []string{"netA", "netB"}, running.Networks.Names())
		must.Eq(t, []string{"bond1"}, running.Bonds.Names())
		must.Eq(t, shared.SwitchOVS, running.Networks["netA"].Switch)

		// The snapshot was dropped after the setup.
		_, err = ts.svc.NetInfo(ctx)
		must.NoError(t, err)
		must.Eq(t, 2, ts.source.reads)
	})

	t.Run("validation failure applies nothing", func(t *testing.T) {
		ts := newTestService(t, nil)
		ts.ovs.Expect(mock_net.Validate{})
		ts.legacy.Expect(mock_net.Validate{Err: shared.NewConfigNetworkError(shared.ErrCodeUsedNic, "used")})

		err := ts.svc.Setup(ctx, scenarioRequest())
		requireCode(t, err, shared.ErrCodeUsedNic)
		ts.assertExpectations()

		running, err := ts.svc.RunningConfig()
		must.NoError(t, err)
		must.MapEmpty(t, running.Networks)
	})

	t.Run("partial failure keeps applied partition", func(t *testing.T) {
		ts := newTestService(t, nil)
		ts.ovs.Expect(mock_net.Validate{}, mock_net.Setup{})
		ts.legacy.Expect(mock_net.Validate{}, mock_net.Setup{Err: mock.MockTestErr})

		err := ts.svc.Setup(ctx, scenarioRequest())
		must.ErrorIs(t, err, mock.MockTestErr)
		ts.assertExpectations()

		running, err := ts.svc.RunningConfig()
		must.NoError(t, err)
		must.Eq(t, []string{"netA"}, running.Networks.Names())
		must.MapEmpty(t, running.Bonds)
	})

	t.Run("removal", func(t *testing.T) {
		ts := newTestService(t, &shared.RunningConfig{
			Networks: shared.Networks{
				"net1": {Nic: "eth0", Switch: shared.SwitchLegacy},
				"net2": {Nic: "eth1", Switch: shared.SwitchLegacy},
			},
		})
		ts.legacy.Expect(
			mock_net.Validate{Networks: []string{"net1"}},
			mock_net.Setup{Networks: []string{"net1"}},
		)

		must.NoError(t, ts.svc.Setup(ctx, &netsetup.Request{
			Networks: shared.Networks{"net1": {Remove: true}},
		}))
		ts.assertExpectations()

		running, err := ts.svc.RunningConfig()
		must.NoError(t, err)
		must.Eq(t, []string{"net2"}, running.Networks.Names())
	})

	t.Run("shutdown", func(t *testing.T) {
		ts := newTestService(t, nil)
		ts.svc.Shutdown()
		must.ErrorIs(t, ts.svc.Setup(ctx, scenarioRequest()), netsetup.ErrShutdown)
		must.SliceEmpty(t, ts.recorder.Calls())
	})
}

func TestService_Registry(t *testing.T) {
	ctx := context.Background()
	legacy := mock_net.NewStatic(shared.SwitchLegacy)

	registry := switches.NewRegistry(hclog.NewNullLogger())
	must.NoError(t, registry.Register(shared.SwitchLegacy, func(*config.Config) (virtnet.Switch, error) {
		return legacy, nil
	}))

	cfg := config.Default()
	cfg.Switches.OVS = nil
	must.NoError(t, registry.Setup(cfg))

	source := &staticSource{info: testNetInfo()}
	svc := netsetup.New(hclog.NewNullLogger(), registry, runningconfig.NewMemoryStore(nil), netinfo.NewCache(source))

	must.NoError(t, svc.Setup(ctx, &netsetup.Request{
		Networks: shared.Networks{"net1": {Nic: "eth0"}},
	}))
	must.Len(t, 1, legacy.Applied)
	must.Eq(t, []string{"net1"}, legacy.Applied[0].Networks.Names())

	err := svc.Setup(ctx, &netsetup.Request{
		Networks: shared.Networks{"net2": {Nic: "eth1", Switch: shared.SwitchOVS}},
	})
	requireCode(t, err, shared.ErrCodeBadParams)
}
