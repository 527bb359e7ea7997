// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shoenig/test/must"
)

func TestErrorCodes_Values(t *testing.T) {
	// Callers branch on these values so they must never drift.
	must.Eq(t, 0, int(ErrCodeOK))
	must.Eq(t, 10, int(ErrCodeLostConnection))
	must.Eq(t, 21, int(ErrCodeBadParams))
	must.Eq(t, 22, int(ErrCodeBadAddr))
	must.Eq(t, 23, int(ErrCodeBadNic))
	must.Eq(t, 24, int(ErrCodeUsedNic))
	must.Eq(t, 25, int(ErrCodeBadBonding))
	must.Eq(t, 26, int(ErrCodeBadVlan))
	must.Eq(t, 27, int(ErrCodeBadBridge))
	must.Eq(t, 28, int(ErrCodeUsedBridge))
}

func TestConfigNetworkError(t *testing.T) {
	err := NewConfigNetworkError(ErrCodeBadVlan, "vlan network %s requires a nic or bonding", "net1")
	must.Eq(t, "config network error 26: vlan network net1 requires a nic or bonding", err.Error())
	must.Nil(t, err.Unwrap())

	wrapped := fmt.Errorf("setup failed: %w", err)
	must.Eq(t, ErrCodeBadVlan, ErrorCodeOf(wrapped))

	sErr := WrapConfigNetworkError(ErrCodeBadParams, ErrUnsupportedSwitchType, "network %s: %q", "net1", "foo")
	must.True(t, errors.Is(sErr, ErrUnsupportedSwitchType))
}

func TestErrorCodeOf(t *testing.T) {
	must.Eq(t, ErrCodeOK, ErrorCodeOf(nil))
	must.Eq(t, ErrCodeGeneral, ErrorCodeOf(errors.New("boom")))
	must.Eq(t, ErrCodeBadNic, ErrorCodeOf(NewConfigNetworkError(ErrCodeBadNic, "x")))
}

func TestStatusFromError(t *testing.T) {
	testCases := []struct {
		name     string
		input    error
		expected Status
	}{
		{
			name:     "success",
			input:    nil,
			expected: Status{Code: 0, Message: "Done"},
		},
		{
			name:     "config network error",
			input:    NewConfigNetworkError(ErrCodeBadBonding, "bad bond name(s): bondbad name"),
			expected: Status{Code: 25, Message: "bad bond name(s): bondbad name"},
		},
		{
			name:     "wrapped config network error",
			input:    fmt.Errorf("validate: %w", NewConfigNetworkError(ErrCodeBadParams, "missing nics")),
			expected: Status{Code: 21, Message: "missing nics"},
		},
		{
			name:     "untyped error",
			input:    errors.New("netlink: permission denied"),
			expected: Status{Code: 100, Message: "netlink: permission denied"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			must.Eq(t, tc.expected, StatusFromError(tc.input))
		})
	}
}
