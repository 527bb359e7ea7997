// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package ovs

import (
	"context"
	"strings"

	"github.com/hashicorp/virt-netsetup/switches/ovs"
	"github.com/hashicorp/virt-netsetup/testutil/mock"
	"github.com/shoenig/test/must"
)

type Run struct {
	Args   []string // Expected arguments (nil value prevents check)
	Output string
	Err    error
}

// NewMockVsctl returns a mock compatible with ovs.Vsctl.
func NewMockVsctl(t must.T) *MockVsctl {
	return &MockVsctl{t: t}
}

type MockVsctl struct {
	t     must.T
	calls mock.Calls
}

func (m *MockVsctl) Expect(calls ...any) *MockVsctl {
	for _, call := range calls {
		switch c := call.(type) {
		case Run:
			m.calls = append(m.calls, c)
		default:
			m.t.Fatalf("unsupported type for mock expectation: %T", c)
		}
	}

	return m
}

func (m *MockVsctl) Run(_ context.Context, args ...string) (string, error) {
	m.t.Helper()

	call := mock.Next[Run](m.t, &m.calls, "Run", strings.Join(args, " "))
	if call.Args != nil {
		mock.Match(m.t, "Run", call.Args, args)
	}

	return call.Output, call.Err
}

// AssertExpectations verifies that all expected invocations
// have been called.
func (m *MockVsctl) AssertExpectations() {
	m.t.Helper()

	mock.Remaining(m.t, m.calls)
}

var _ ovs.Vsctl = (*MockVsctl)(nil)
