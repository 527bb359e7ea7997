// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package runningconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/shoenig/test/must"
)

func testRunningConfig() *shared.RunningConfig {
	vlan := 100
	return &shared.RunningConfig{
		Networks: shared.Networks{
			"net1": {Nic: "eth0", Switch: shared.SwitchLegacy, VLAN: &vlan},
			"net2": {Bonding: "bond0", Switch: shared.SwitchOVS, BootProto: "dhcp"},
		},
		Bonds: shared.Bondings{
			"bond0": {Nics: []string{"eth1", "eth2"}, Switch: shared.SwitchOVS},
		},
	}
}

func TestFileStore(t *testing.T) {
	logger := hclog.NewNullLogger()

	t.Run("missing file", func(t *testing.T) {
		s := NewFileStore(logger, filepath.Join(t.TempDir(), "running.yaml"))
		rc, err := s.Load()
		must.NoError(t, err)
		must.Eq(t, shared.NewRunningConfig(), rc)
	})

	t.Run("save and load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "running.yaml")
		s := NewFileStore(logger, path)
		must.NoError(t, s.Save(testRunningConfig()))

		rc, err := s.Load()
		must.NoError(t, err)
		must.Eq(t, testRunningConfig(), rc)

		info, err := os.Stat(path)
		must.NoError(t, err)
		must.Eq(t, os.FileMode(filePermissions), info.Mode().Perm())
	})

	t.Run("overwrite", func(t *testing.T) {
		s := NewFileStore(logger, filepath.Join(t.TempDir(), "running.yaml"))
		must.NoError(t, s.Save(testRunningConfig()))
		must.NoError(t, s.Save(shared.NewRunningConfig()))

		rc, err := s.Load()
		must.NoError(t, err)
		must.MapEmpty(t, rc.Networks)
		must.MapEmpty(t, rc.Bonds)
	})

	t.Run("json document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "running.json")
		doc := `{"networks": {"net1": {"nic": "eth0", "switch": "legacy"}}, "bonds": null}`
		must.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		rc, err := NewFileStore(logger, path).Load()
		must.NoError(t, err)
		must.Eq(t, "eth0", rc.Networks["net1"].Nic)
		must.NotNil(t, rc.Bonds)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "running.yaml")
		must.NoError(t, os.WriteFile(path, []byte("networks: [\n"), 0o600))

		_, err := NewFileStore(logger, path).Load()
		must.ErrorContains(t, err, "unable to parse running config")
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(nil)
	rc, err := s.Load()
	must.NoError(t, err)
	must.Eq(t, shared.NewRunningConfig(), rc)

	must.NoError(t, s.Save(testRunningConfig()))
	rc, err = s.Load()
	must.NoError(t, err)
	must.Eq(t, testRunningConfig(), rc)

	// Loaded configs are copies.
	delete(rc.Networks, "net1")
	rc, err = s.Load()
	must.NoError(t, err)
	must.MapContainsKey(t, rc.Networks, "net1")
}
