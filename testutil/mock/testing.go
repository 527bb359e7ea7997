// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package mock

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shoenig/test/must"
)

// MockTestErr is a common error used for testing
var MockTestErr = errors.New("mock testing error")

// MockT provides an implementation of the must.T interface which panics on
// Fatalf, so a failing mock can be recovered from when testing the mock
// itself.
func MockT() *mustT {
	return &mustT{}
}

type mustT struct{}

func (m *mustT) Helper() {}
func (m *mustT) Fatalf(msg string, args ...any) {
	panic(fmt.Sprintf(msg, args...))
}

// Calls is an ordered queue of expected calls. Each entry is one of the call
// structs of a mock, such as ovs.Run or iptables.Append.
type Calls []any

// Next removes the first expected call and returns it as C. It fails t when
// the queue is empty or when the first expectation is for another function,
// so calls have to happen in the order they were expected.
func Next[C any](t must.T, calls *Calls, fnName string, args ...any) C {
	t.Helper()

	must.SliceNotEmpty(t, *calls,
		must.Sprintf("Unexpected call to %s - %s(%s)", fnName, fnName, formatArgs(args)))
	next := (*calls)[0]
	*calls = (*calls)[1:]

	call, ok := next.(C)
	must.True(t, ok,
		must.Sprintf("Unexpected call to %s - %s(%s), expecting %T", fnName, fnName, formatArgs(args), next))
	return call
}

// Match fails t when a call was received with other arguments than the
// expected ones.
func Match[C any](t must.T, fnName string, expected, received C) {
	t.Helper()

	must.Eq(t, expected, received,
		must.Sprintf("%s received incorrect arguments", fnName))
}

// Remaining fails t when expected calls were never made, naming the first of
// them.
func Remaining(t must.T, calls Calls) {
	t.Helper()

	if len(calls) == 0 {
		return
	}
	must.SliceEmpty(t, calls,
		must.Sprintf("%T expecting %d more invocations", calls[0], len(calls)))
}

func formatArgs(args []any) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprintf("%q", arg))
	}
	return strings.Join(parts, ", ")
}

// AssertUnexpectedCall verifies that the function was unexpectedly
// called on a mock.
//
//	func TestMockVsctl(t *testing.T) {
//	    m := NewMockVsctl(MockT())
//	    defer AssertUnexpectedCall(t, "Run")
//	    m.Run(ctx, "list-br")
//	}
func AssertUnexpectedCall(t *testing.T, fnName string) {
	t.Helper()

	r := recover()
	must.NotNil(t, r, must.Sprint("Check that mock was created using MockT()"))
	must.StrContains(t, r.(string), fmt.Sprintf("Unexpected call to %s", fnName))
}

// AssertIncorrectArguments verifies that a function was called on a mock
// with arguments that do not match what was expected.
//
//	func TestMockVsctl(t *testing.T) {
//	    m := NewMockVsctl(MockT()).Expect(Run{Args: []string{"list-br"}})
//	    defer AssertIncorrectArguments(t, "Run")
//	    m.Run(ctx, "show")
//	}
func AssertIncorrectArguments(t *testing.T, fnName string) {
	t.Helper()

	r := recover()
	must.NotNil(t, r, must.Sprint("Check that mock was created using MockT()"))
	must.StrContains(t, r.(string), fmt.Sprintf("%s received incorrect arguments", fnName))
}

// AssertExpectations verifies that a function which was expected on a mock
// was not called.
//
//	func TestMockVsctl(t *testing.T) {
//	    m := NewMockVsctl(MockT()).Expect(Run{})
//	    defer AssertExpectations(t, "Run")
//	    m.AssertExpectations()
//	}
func AssertExpectations(t *testing.T, fnName string) {
	t.Helper()

	r := recover()
	must.NotNil(t, r, must.Sprint("Check that mock was created using MockT()"))
	must.StrContains(t, r.(string), fmt.Sprintf("%s expecting", fnName))
}
