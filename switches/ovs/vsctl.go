// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ovs

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	kexec "k8s.io/utils/exec"
)

// Vsctl runs ovs-vsctl commands. The arguments of a multi command
// transaction are separated by "--".
type Vsctl interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// Runner is the Vsctl implementation executing the ovs-vsctl binary.
type Runner struct {
	exec    kexec.Interface
	path    string
	timeout time.Duration
}

// NewRunner resolves the ovs-vsctl binary and returns a runner applying the
// timeout to every invocation. A zero timeout disables it.
func NewRunner(exec kexec.Interface, path string, timeout time.Duration) (*Runner, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("unable to find %s: %w", path, err)
	}

	return &Runner{
		exec:    exec,
		path:    resolved,
		timeout: timeout,
	}, nil
}

func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	if r.timeout > 0 {
		secs := int(math.Ceil(r.timeout.Seconds()))
		args = append([]string{fmt.Sprintf("--timeout=%d", secs)}, args...)
	}

	output, err := r.exec.CommandContext(ctx, r.path, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to run 'ovs-vsctl %s': %w: %q",
			strings.Join(args, " "), err, string(output))
	}
	return strings.TrimSuffix(string(output), "\n"), nil
}

// transaction accumulates ovs-vsctl commands executed atomically.
type transaction struct {
	cmds [][]string
}

func (t *transaction) add(cmd ...string) {
	t.cmds = append(t.cmds, cmd)
}

func (t *transaction) empty() bool {
	return len(t.cmds) == 0
}

// args joins the commands with "--".
func (t *transaction) args() []string {
	var args []string
	for i, cmd := range t.cmds {
		if i > 0 {
			args = append(args, "--")
		}
		args = append(args, cmd...)
	}
	return args
}
