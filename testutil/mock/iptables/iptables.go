// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package iptables

import (
	"github.com/hashicorp/virt-netsetup/firewall"
	"github.com/hashicorp/virt-netsetup/testutil/mock"
	"github.com/shoenig/test/must"
)

var _ firewall.IPTables = (*MockIPTables)(nil)

type Append struct {
	Table, Chain string
	RuleSpec     []string
	Err          error
}

type DeleteIfExists struct {
	Table, Chain string
	RuleSpec     []string
	Err          error
}

type Insert struct {
	Table, Chain string
	Pos          int
	RuleSpec     []string
	Err          error
}

type ListChains struct {
	Table  string
	Result []string
	Err    error
}

type NewChain struct {
	Table, Chain string
	Err          error
}

// MockIPTables is a mock of the iptables rules manipulated by the firewall.
// Calls must happen in the order they were expected, across all methods, so
// tests can check that a rule is deleted before it is added back.
type MockIPTables struct {
	t     must.T
	calls mock.Calls
}

func NewMock(t must.T) *MockIPTables {
	return &MockIPTables{t: t}
}

// Expect queues calls, which must be values of the call structs of this
// package.
func (m *MockIPTables) Expect(calls ...any) *MockIPTables {
	m.t.Helper()

	for _, call := range calls {
		switch call.(type) {
		case Append, DeleteIfExists, Insert, ListChains, NewChain:
			m.calls = append(m.calls, call)
		default:
			m.t.Fatalf("unsupported type for mock expectation: %T", call)
		}
	}
	return m
}

func (m *MockIPTables) Append(table, chain string, rulespec ...string) error {
	m.t.Helper()

	call := mock.Next[Append](m.t, &m.calls, "Append", table, chain, rulespec)
	mock.Match(m.t, "Append",
		Append{Table: call.Table, Chain: call.Chain, RuleSpec: call.RuleSpec},
		Append{Table: table, Chain: chain, RuleSpec: rulespec})
	return call.Err
}

func (m *MockIPTables) DeleteIfExists(table, chain string, rulespec ...string) error {
	m.t.Helper()

	call := mock.Next[DeleteIfExists](m.t, &m.calls, "DeleteIfExists", table, chain, rulespec)
	mock.Match(m.t, "DeleteIfExists",
		DeleteIfExists{Table: call.Table, Chain: call.Chain, RuleSpec: call.RuleSpec},
		DeleteIfExists{Table: table, Chain: chain, RuleSpec: rulespec})
	return call.Err
}

func (m *MockIPTables) Insert(table, chain string, pos int, rulespec ...string) error {
	m.t.Helper()

	call := mock.Next[Insert](m.t, &m.calls, "Insert", table, chain, pos, rulespec)
	mock.Match(m.t, "Insert",
		Insert{Table: call.Table, Chain: call.Chain, Pos: call.Pos, RuleSpec: call.RuleSpec},
		Insert{Table: table, Chain: chain, Pos: pos, RuleSpec: rulespec})
	return call.Err
}

func (m *MockIPTables) ListChains(table string) ([]string, error) {
	m.t.Helper()

	call := mock.Next[ListChains](m.t, &m.calls, "ListChains", table)
	mock.Match(m.t, "ListChains", call.Table, table)
	return call.Result, call.Err
}

func (m *MockIPTables) NewChain(table, chain string) error {
	m.t.Helper()

	call := mock.Next[NewChain](m.t, &m.calls, "NewChain", table, chain)
	mock.Match(m.t, "NewChain",
		NewChain{Table: call.Table, Chain: call.Chain},
		NewChain{Table: table, Chain: chain})
	return call.Err
}

// AssertExpectations verifies that all expected calls were made.
func (m *MockIPTables) AssertExpectations() {
	m.t.Helper()

	mock.Remaining(m.t, m.calls)
}
