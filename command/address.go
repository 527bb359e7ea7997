// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"

	"github.com/hashicorp/virt-netsetup/virt/net/address"
	"github.com/spf13/cobra"
)

// newAddressCommand groups the address conversions. They need neither the
// configuration nor the host.
func newAddressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Convert network and PCI addresses",
		// Overrides the root hook, address commands do not load the
		// configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "split HOST:TAIL",
			Short: "Split a host:tail address, IPv6 hosts are bracketed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				host, tail, err := address.HosttailSplit(args[0])
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), map[string]string{"host": host, "tail": tail})
			},
		},
		&cobra.Command{
			Use:   "join HOST TAIL",
			Short: "Join a host and a tail into a host:tail address",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), address.HosttailJoin(args[0], args[1]))
				return err
			},
		},
		&cobra.Command{
			Use:   "normalize ADDRESS",
			Short: "Bracket a bare IPv6 address",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), address.NormalizeLiteralAddr(args[0]))
				return err
			},
		},
		&cobra.Command{
			Use:   "pci DOMAIN:BUS:SLOT.FUNCTION | DOMAIN BUS SLOT FUNCTION",
			Short: "Normalize a PCI address",
			Args: func(_ *cobra.Command, args []string) error {
				if len(args) != 1 && len(args) != 4 {
					return fmt.Errorf("accepts 1 or 4 arg(s), received %d", len(args))
				}
				return nil
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				var pci address.PCIAddress
				var err error
				if len(args) == 4 {
					pci, err = address.NormalizePCIAddress(args[0], args[1], args[2], args[3])
				} else {
					pci, err = address.ParsePCIBDF(args[0])
				}
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), pci.Map())
			},
		},
	)
	return cmd
}
