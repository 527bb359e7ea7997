// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package command implements the netsetup command line interface.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/virt-netsetup/config"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// ErrFailed is returned when the result was already reported through the
// status envelope.
var ErrFailed = errors.New("command failed")

// Options configures the command tree.
type Options struct {
	In  io.Reader
	Out io.Writer

	// Logger overrides the logger built from the configuration.
	Logger hclog.Logger

	// NewEnvironment defaults to NewHostEnvironment.
	NewEnvironment EnvironmentFactory
}

type globalFlags struct {
	configPath string
	logLevel   string
}

// state is shared by every command of a tree.
type state struct {
	opts  *Options
	flags globalFlags

	config *config.Config
	logger hclog.Logger
}

// NewRootCommand builds the netsetup command tree.
func NewRootCommand(opts *Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.NewEnvironment == nil {
		opts.NewEnvironment = NewHostEnvironment
	}

	s := &state{opts: opts}

	root := &cobra.Command{
		Use:           "netsetup",
		Short:         "Configure host networks for virtual machines",
		Long:          "netsetup validates and applies host network configurations on Linux bridge and Open vSwitch switches, and exposes them to virtual machines as libvirt networks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.load()
		},
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)

	root.PersistentFlags().StringVarP(&s.flags.configPath, "config", "c", "", "path to the agent configuration file")
	root.PersistentFlags().StringVar(&s.flags.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newValidateCommand(s),
		newSetupCommand(s),
		newRunningConfigCommand(s),
		newNetInfoCommand(s),
		newFingerprintCommand(s),
		newNetworksCommand(s),
		newAddressCommand(),
	)
	return root
}

// Execute runs the command tree against the process arguments. An
// interrupt cancels the running command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return NewRootCommand(&Options{}).ExecuteContext(ctx)
}

func (s *state) load() error {
	cfg := config.Default()
	if s.flags.configPath != "" {
		var err error
		if cfg, err = config.Load(s.flags.configPath); err != nil {
			return err
		}
	}
	if s.flags.logLevel != "" {
		cfg.LogLevel = s.flags.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	s.config = cfg

	s.logger = s.opts.Logger
	if s.logger == nil {
		s.logger = cfg.Logger("netsetup")
	}
	return nil
}

// environment builds the environment and runs fn with it.
func (s *state) environment(fn func(*Environment) error) error {
	env, err := s.opts.NewEnvironment(s.config, s.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			s.logger.Warn("failed to close environment", "error", err)
		}
	}()
	return fn(env)
}

func writeYAML(w io.Writer, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("unable to encode output: %w", err)
	}
	_, err = w.Write(out)
	return err
}
