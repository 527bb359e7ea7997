// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package libvirt

import (
	"libvirt.org/go/libvirt"
)

// Connect is the "real" shim to the libvirt backend that implements the
// ConnectShim interface.
type Connect struct {
	conn *libvirt.Connect
}

func NewConnect(conn *libvirt.Connect) *Connect {
	return &Connect{conn: conn}
}

func (c *Connect) ListNetworks() ([]string, error) {
	return c.conn.ListNetworks()
}

func (c *Connect) LookupNetworkByName(name string) (ConnectNetworkShim, error) {
	network, err := c.conn.LookupNetworkByName(name)
	if err != nil {
		return nil, err
	}
	return network, nil
}

func (c *Connect) NetworkDefineXML(xml string) (ConnectNetworkShim, error) {
	network, err := c.conn.NetworkDefineXML(xml)
	if err != nil {
		return nil, err
	}
	return network, nil
}

// Close closes the underlying libvirt connection.
func (c *Connect) Close() error {
	_, err := c.conn.Close()
	return err
}
