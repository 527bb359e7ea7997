// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

// Package linkshim wraps the netlink calls made against the host so that
// callers can be tested with a mock implementation.
package linkshim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vishvananda/netlink"
)

// Shim is the shim interface that wraps netlink. Functions should be added
// as required and match only those provided by the netlink package.
//
// Each implementation should be lightweight and not include any business
// logic.
type Shim interface {
	LinkList() ([]netlink.Link, error)
	LinkByName(name string) (netlink.Link, error)
	LinkAdd(link netlink.Link) error
	LinkDel(link netlink.Link) error
	LinkSetUp(link netlink.Link) error
	LinkSetDown(link netlink.Link) error
	LinkSetMTU(link netlink.Link, mtu int) error
	LinkSetMaster(link netlink.Link, master netlink.Link) error
	LinkSetNoMaster(link netlink.Link) error

	// BridgeSetSTP toggles the spanning tree protocol on the named bridge.
	// netlink does not expose this attribute, so it is written via sysfs.
	BridgeSetSTP(bridge string, enabled bool) error
}

// ErrLinkNotFound is returned by LinkByName when the link does not exist.
var ErrLinkNotFound = errors.New("link not found")

// IsLinkNotFound reports whether err was returned because a link does not
// exist.
func IsLinkNotFound(err error) bool {
	return errors.Is(err, ErrLinkNotFound)
}

// Netlink is the "real" shim to the kernel.
type Netlink struct {
	sysfsRoot string
}

func New() *Netlink {
	return &Netlink{sysfsRoot: "/sys"}
}

func (n *Netlink) LinkList() ([]netlink.Link, error) {
	return netlink.LinkList()
}

func (n *Netlink) LinkByName(name string) (netlink.Link, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, name)
		}
		return nil, err
	}
	return link, nil
}

func (n *Netlink) LinkAdd(link netlink.Link) error {
	return netlink.LinkAdd(link)
}

func (n *Netlink) LinkDel(link netlink.Link) error {
	return netlink.LinkDel(link)
}

func (n *Netlink) LinkSetUp(link netlink.Link) error {
	return netlink.LinkSetUp(link)
}

func (n *Netlink) LinkSetDown(link netlink.Link) error {
	return netlink.LinkSetDown(link)
}

func (n *Netlink) LinkSetMTU(link netlink.Link, mtu int) error {
	return netlink.LinkSetMTU(link, mtu)
}

func (n *Netlink) LinkSetMaster(link netlink.Link, master netlink.Link) error {
	return netlink.LinkSetMaster(link, master)
}

func (n *Netlink) LinkSetNoMaster(link netlink.Link) error {
	return netlink.LinkSetNoMaster(link)
}

func (n *Netlink) BridgeSetSTP(bridge string, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	path := filepath.Join(n.sysfsRoot, "class", "net", bridge, "bridge", "stp_state")
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("unable to set stp on bridge %s: %w", bridge, err)
	}
	return nil
}

var _ Shim = (*Netlink)(nil)
