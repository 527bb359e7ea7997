// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package libvirt

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/virt-netsetup/libvirt/metadata"

	"github.com/hashicorp/go-hclog"
	"libvirt.org/go/libvirt"
)

var ErrNetworkNotFound = errors.New("the network does not exist")

// Networks manages the libvirt networks that expose host networks to guests.
type Networks struct {
	logger hclog.Logger
	conn   ConnectShim
	closer func() error
}

func newConnection(uri string, user string, pass string) (*libvirt.Connect, error) {
	if user == "" {
		return libvirt.NewConnect(uri)
	}

	callback := func(creds []*libvirt.ConnectCredential) {
		for _, cred := range creds {
			if cred.Type == libvirt.CRED_AUTHNAME {
				cred.Result = user
				cred.ResultLen = len(cred.Result)
			} else if cred.Type == libvirt.CRED_PASSPHRASE {
				cred.Result = pass
				cred.ResultLen = len(cred.Result)
			}
		}
	}

	auth := &libvirt.ConnectAuth{
		CredType: []libvirt.ConnectCredentialType{
			libvirt.CRED_AUTHNAME, libvirt.CRED_PASSPHRASE,
		},
		Callback: callback,
	}
	virConn, err := libvirt.NewConnectWithAuth(uri, auth, 0)

	return virConn, err
}

// New opens a connection to libvirt using the provided configuration.
func New(logger hclog.Logger, config *Config) (*Networks, error) {
	if config == nil {
		config = DefaultConfig()
	}
	uri := config.URI
	if uri == "" {
		uri = defaultURI
	}

	conn, err := newConnection(uri, config.User, config.Password)
	if err != nil {
		return nil, fmt.Errorf("libvirt: unable to connect to %s: %w", uri, err)
	}

	c := NewConnect(conn)
	n := NewWithShim(logger, c)
	n.closer = c.Close

	return n, nil
}

// NewWithShim returns a network manager on top of an existing connection.
func NewWithShim(logger hclog.Logger, conn ConnectShim) *Networks {
	return &Networks{
		logger: logger.Named("libvirt"),
		conn:   conn,
	}
}

// Define replaces any network with the same name by the given definition,
// then starts it and marks it for autostart.
func (n *Networks) Define(def *NetworkDefinition) error {
	xml, err := def.XML()
	if err != nil {
		return err
	}

	if err := n.Remove(def.Name); err != nil {
		return err
	}

	net, err := n.conn.NetworkDefineXML(xml)
	if err != nil {
		return fmt.Errorf("libvirt: unable to define network %s: %w", def.Name, err)
	}
	defer net.Free()

	if err := net.SetAutostart(true); err != nil {
		return fmt.Errorf("libvirt: unable to set autostart on network %s: %w", def.Name, err)
	}

	if err := net.Create(); err != nil {
		return fmt.Errorf("libvirt: unable to start network %s: %w", def.Name, err)
	}

	n.logger.Debug("network defined", "network", def.Name, "bridge", def.Bridge, "iface", def.Iface)
	return nil
}

// Remove stops and undefines the named network. Removing a network which
// does not exist is not an error.
func (n *Networks) Remove(name string) error {
	net, err := n.lookup(name)
	if errors.Is(err, ErrNetworkNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	defer net.Free()

	active, err := net.IsActive()
	if err != nil {
		return fmt.Errorf("libvirt: unable to get state of network %s: %w", name, err)
	}

	if active {
		if err := net.Destroy(); err != nil {
			return fmt.Errorf("libvirt: unable to stop network %s: %w", name, err)
		}
	}

	if err := net.Undefine(); err != nil {
		return fmt.Errorf("libvirt: unable to undefine network %s: %w", name, err)
	}

	n.logger.Debug("network removed", "network", name)
	return nil
}

// Managed returns the metadata of every active network which was defined by
// this package, keyed by the libvirt network name.
func (n *Networks) Managed() (map[string]*metadata.ManagedNetwork, error) {
	names, err := n.conn.ListNetworks()
	if err != nil {
		return nil, fmt.Errorf("libvirt: unable to list networks: %w", err)
	}
	slices.Sort(names)

	managed := map[string]*metadata.ManagedNetwork{}
	for _, name := range names {
		net, err := n.lookup(name)
		if errors.Is(err, ErrNetworkNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		xml, err := net.GetXMLDesc(0)
		net.Free()
		if err != nil {
			return nil, fmt.Errorf("libvirt: unable to describe network %s: %w", name, err)
		}

		md, err := describe(xml)
		if err != nil {
			n.logger.Warn("skipping network with unreadable description", "network", name, "error", err)
			continue
		}
		if md != nil {
			managed[name] = md
		}
	}

	return managed, nil
}

// Close closes the underlying connection if it was opened by New.
func (n *Networks) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}

func (n *Networks) lookup(name string) (ConnectNetworkShim, error) {
	net, err := n.conn.LookupNetworkByName(name)
	if err != nil {
		var lvErr libvirt.Error
		if errors.As(err, &lvErr) && lvErr.Code == libvirt.ERR_NO_NETWORK {
			return nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, name)
		}
		return nil, fmt.Errorf("libvirt: unable to lookup network %s: %w", name, err)
	}
	return net, nil
}
