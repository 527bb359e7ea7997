// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package firewall keeps the host iptables FORWARD chain open for traffic
// on the bridges of legacy networks.
package firewall

import (
	"errors"
	"fmt"
	"slices"

	"github.com/coreos/go-iptables/iptables"
	"github.com/hashicorp/go-hclog"
)

const (
	// FilterTable is the iptables table holding the forward rules.
	FilterTable = "filter"

	// ForwardChain is the chain holding one pair of rules per bridge. It is
	// jumped to from the first rule of FORWARD.
	ForwardChain = "NETSETUP_FW"
)

// IPTables is the subset of go-iptables used to manage the rules.
type IPTables interface {
	Append(table, chain string, rulespec ...string) error
	DeleteIfExists(table, chain string, rulespec ...string) error
	Insert(table, chain string, pos int, rulespec ...string) error
	ListChains(table string) ([]string, error)
	NewChain(table, chain string) error
}

// New returns a handle on the host iptables.
func New() (IPTables, error) {
	ipt, err := iptables.New()
	if err != nil {
		return nil, err
	}
	return ipt, nil
}

// Firewall accepts forwarded traffic entering or leaving the managed
// bridges.
type Firewall struct {
	logger hclog.Logger
	ipt    IPTables
}

func NewFirewall(logger hclog.Logger, ipt IPTables) *Firewall {
	return &Firewall{
		logger: logger.Named("firewall"),
		ipt:    ipt,
	}
}

// Init creates ForwardChain and its jump rule when the chain does not exist
// yet.
func (f *Firewall) Init() error {
	created, err := f.ensureChain()
	if err != nil {
		return fmt.Errorf("failed to create iptables chain %q: %w", ForwardChain, err)
	}
	if !created {
		return nil
	}

	if err := f.ipt.Insert(FilterTable, "FORWARD", 1, "-j", ForwardChain); err != nil {
		return fmt.Errorf("failed to add jump to iptables chain %q: %w", ForwardChain, err)
	}
	f.logger.Info("created forward iptables chain", "name", ForwardChain)
	return nil
}

func (f *Firewall) ensureChain() (bool, error) {
	chains, err := f.ipt.ListChains(FilterTable)
	if err != nil {
		return false, err
	}
	if slices.Contains(chains, ForwardChain) {
		return false, nil
	}

	err = f.ipt.NewChain(FilterTable, ForwardChain)

	// Exit status 1 means another process created the chain in between.
	var e *iptables.Error
	if errors.As(err, &e) && e.ExitStatus() == 1 {
		return false, nil
	}
	return err == nil, err
}

func bridgeRules(bridge string) [][]string {
	return [][]string{
		{"-i", bridge, "-j", "ACCEPT"},
		{"-o", bridge, "-j", "ACCEPT"},
	}
}

// Allow accepts forwarded traffic on the bridge. Existing rules for the
// bridge are replaced.
func (f *Firewall) Allow(bridge string) error {
	for _, rule := range bridgeRules(bridge) {
		if err := f.ipt.DeleteIfExists(FilterTable, ForwardChain, rule...); err != nil {
			return fmt.Errorf("failed to replace forward rule for %s: %w", bridge, err)
		}
		if err := f.ipt.Append(FilterTable, ForwardChain, rule...); err != nil {
			return fmt.Errorf("failed to add forward rule for %s: %w", bridge, err)
		}
	}
	f.logger.Debug("forwarding allowed", "bridge", bridge)
	return nil
}

// Revoke removes the rules of the bridge, if any.
func (f *Firewall) Revoke(bridge string) error {
	for _, rule := range bridgeRules(bridge) {
		if err := f.ipt.DeleteIfExists(FilterTable, ForwardChain, rule...); err != nil {
			return fmt.Errorf("failed to remove forward rule for %s: %w", bridge, err)
		}
	}
	f.logger.Debug("forwarding revoked", "bridge", bridge)
	return nil
}
