// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package linkshim

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shoenig/test/must"
)

func TestIsLinkNotFound(t *testing.T) {
	must.True(t, IsLinkNotFound(ErrLinkNotFound))
	must.True(t, IsLinkNotFound(fmt.Errorf("lookup: %w", ErrLinkNotFound)))
	must.False(t, IsLinkNotFound(os.ErrNotExist))
	must.False(t, IsLinkNotFound(nil))
}

func TestNetlink_BridgeSetSTP(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "class", "net", "br0", "bridge")
	must.NoError(t, os.MkdirAll(dir, 0o755))

	n := &Netlink{sysfsRoot: root}
	must.NoError(t, n.BridgeSetSTP("br0", true))

	b, err := os.ReadFile(filepath.Join(dir, "stp_state"))
	must.NoError(t, err)
	must.Eq(t, "1", string(b))

	must.NoError(t, n.BridgeSetSTP("br0", false))
	b, err = os.ReadFile(filepath.Join(dir, "stp_state"))
	must.NoError(t, err)
	must.Eq(t, "0", string(b))

	must.Error(t, n.BridgeSetSTP("missing", true))
}
