// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"

	"github.com/coreos/go-iptables/iptables"
)

// RequireRoot will skip the test if not running as root.
func RequireRoot(t *testing.T) {
	if syscall.Geteuid() != 0 {
		t.Skip("Test requires root")
	}
}

// RequireIPTables will skip the test if not running as
// root or if iptables is not available. The returned handle
// operates on the host rules.
func RequireIPTables(t *testing.T) *iptables.IPTables {
	RequireRoot(t)

	ipt, err := iptables.New()
	if errors.Is(err, exec.ErrNotFound) {
		t.Skip("Test requires iptables")
	}
	if err != nil {
		t.Fatalf("unable to open iptables: %v", err)
	}
	return ipt
}
