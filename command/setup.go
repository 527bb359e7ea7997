// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/netsetup"
	virtnet "github.com/hashicorp/virt-netsetup/virt/net"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// validateResponse is the status envelope extended with the partitions.
type validateResponse struct {
	shared.Response
	Partitions *virtnet.SwitchPartitions `json:"partitions,omitempty"`
}

func newValidateCommand(s *state) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a setup request and show how it is split between switches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readRequest(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			return s.environment(func(env *Environment) error {
				partitions, err := env.Service.Validate(cmd.Context(), req)
				resp := validateResponse{
					Response:   shared.Response{Status: shared.StatusFromError(err)},
					Partitions: partitions,
				}
				return report(cmd.OutOrStdout(), resp, err)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "request file in YAML or JSON, - reads standard input")
	return cmd
}

func newSetupCommand(s *state) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Validate a setup request and apply it to the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readRequest(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			return s.environment(func(env *Environment) error {
				err := env.Service.Setup(cmd.Context(), req)
				if err != nil {
					s.logger.Error("setup failed", "error", err)
				}
				resp := shared.Response{Status: shared.StatusFromError(err)}
				return report(cmd.OutOrStdout(), resp, err)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "request file in YAML or JSON, - reads standard input")
	return cmd
}

// report writes the response and turns a failure into ErrFailed, as the
// envelope already carries the message.
func report(w io.Writer, resp any, err error) error {
	if werr := writeYAML(w, resp); werr != nil {
		return werr
	}
	if err != nil {
		return fmt.Errorf("%w: status %d", ErrFailed, shared.ErrorCodeOf(err))
	}
	return nil
}

func readRequest(stdin io.Reader, file string) (*netsetup.Request, error) {
	var b []byte
	var err error
	if file == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read request: %w", err)
	}

	req := &netsetup.Request{}
	if err := yaml.UnmarshalStrict(b, req); err != nil {
		return nil, fmt.Errorf("unable to parse request: %w", err)
	}
	return req, nil
}
