// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"strconv"

	"github.com/hashicorp/nomad/plugins/shared/structs"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/spf13/cobra"
)

func newRunningConfigCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "running-config",
		Short: "Show the networks and bondings configured by netsetup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.environment(func(env *Environment) error {
				rc, err := env.Service.RunningConfig()
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), rc)
			})
		},
	}
}

func newNetInfoCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "net-info",
		Short: "Show the network devices found on the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.environment(func(env *Environment) error {
				info, err := env.Service.NetInfo(cmd.Context())
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), info)
			})
		},
	}
}

func newFingerprintCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Show the attributes of the enabled switches and managed networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.environment(func(env *Environment) error {
				attrs := env.Registry.Fingerprint()
				if env.Networks != nil {
					env.Networks.Fingerprint(attrs)
				}

				out := map[string]string{}
				for key, attr := range attrs {
					out[key] = attributeString(attr)
				}
				return writeYAML(cmd.OutOrStdout(), out)
			})
		},
	}
}

// attributeString formats an attribute value the way it is shown in the
// node attributes.
func attributeString(a *structs.Attribute) string {
	switch {
	case a.Bool != nil:
		return strconv.FormatBool(*a.Bool)
	case a.Int != nil:
		return strconv.FormatInt(*a.Int, 10) + a.Unit
	case a.Float != nil:
		return strconv.FormatFloat(*a.Float, 'f', -1, 64) + a.Unit
	case a.String != nil:
		return *a.String
	default:
		return ""
	}
}

type managedNetwork struct {
	Network string `json:"network"`
	Switch  string `json:"switch"`
	Bridge  string `json:"bridge,omitempty"`
}

func newNetworksCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "Show the libvirt networks defined by netsetup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.environment(func(env *Environment) error {
				if env.Networks == nil {
					return errors.New("libvirt is not available")
				}
				managed, err := env.Networks.Managed()
				if err != nil {
					return err
				}

				out := make(map[string]managedNetwork, len(managed))
				for name, md := range managed {
					network, _ := virtnet.NetworkFromLibvirtName(md.Name)
					out[name] = managedNetwork{Network: network, Switch: md.Switch, Bridge: md.Bridge}
				}
				return writeYAML(cmd.OutOrStdout(), out)
			})
		},
	}
}
