// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package netinfo reads a snapshot of the network devices present on the
// host.
package netinfo

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"github.com/hashicorp/virt-netsetup/virt/net/address"
	"github.com/vishvananda/netlink"
)

const defaultSysfsRoot = "/sys"

// Source provides a snapshot of the host network devices.
type Source interface {
	Get(ctx context.Context) (*shared.NetInfo, error)
}

// LinkLister is the subset of the netlink shim used to enumerate links.
type LinkLister interface {
	LinkList() ([]netlink.Link, error)
}

// DriverReader resolves the kernel driver of an interface. It is satisfied
// by *ethtool.Ethtool.
type DriverReader interface {
	DriverName(intf string) (string, error)
}

// Reader builds NetInfo snapshots from netlink, ethtool and sysfs.
type Reader struct {
	logger    hclog.Logger
	links     LinkLister
	drivers   DriverReader
	sysfsRoot string
}

// NewReader returns a reader. A nil driver reader skips driver detection.
func NewReader(logger hclog.Logger, links LinkLister, drivers DriverReader) *Reader {
	return &Reader{
		logger:    logger.Named("netinfo"),
		links:     links,
		drivers:   drivers,
		sysfsRoot: defaultSysfsRoot,
	}
}

// Get reads a fresh snapshot.
func (r *Reader) Get(ctx context.Context) (*shared.NetInfo, error) {
	links, err := r.links.LinkList()
	if err != nil {
		return nil, fmt.Errorf("unable to list links: %w", err)
	}

	names := make(map[int]string, len(links))
	for _, link := range links {
		names[link.Attrs().Index] = link.Attrs().Name
	}

	info := shared.NewNetInfo()
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attrs := link.Attrs()
		switch l := link.(type) {
		case *netlink.Bond:
			bond := info.Bondings[attrs.Name]
			bond.Mode = l.Mode.String()
			bond.MTU = attrs.MTU
			info.Bondings[attrs.Name] = bond
		case *netlink.Vlan:
			info.Vlans[attrs.Name] = shared.VlanInfo{
				Device: names[l.ParentIndex],
				VLANID: l.VlanId,
				MTU:    attrs.MTU,
			}
		case *netlink.Bridge:
			br := info.Bridges[attrs.Name]
			br.MTU = attrs.MTU
			info.Bridges[attrs.Name] = br
		case *netlink.Device, *netlink.Dummy:
			if attrs.Flags&net.FlagLoopback != 0 {
				continue
			}
			info.Nics[attrs.Name] = r.nicInfo(attrs)
		}
	}

	// Relationships are resolved once every device is known, as links are not
	// listed in dependency order.
	for _, link := range links {
		attrs := link.Attrs()
		if attrs.MasterIndex == 0 {
			continue
		}
		master, ok := names[attrs.MasterIndex]
		if !ok {
			continue
		}

		if nic, ok := info.Nics[attrs.Name]; ok {
			nic.Master = master
			info.Nics[attrs.Name] = nic
		}
		if bond, ok := info.Bondings[master]; ok {
			bond.Slaves = append(bond.Slaves, attrs.Name)
			info.Bondings[master] = bond
		}
		if br, ok := info.Bridges[master]; ok {
			br.Ports = append(br.Ports, attrs.Name)
			info.Bridges[master] = br
		}
	}

	for name, bond := range info.Bondings {
		slices.Sort(bond.Slaves)
		info.Bondings[name] = bond
	}
	for name, br := range info.Bridges {
		slices.Sort(br.Ports)
		info.Bridges[name] = br
	}

	r.logger.Trace("read net info", "nics", len(info.Nics), "bondings", len(info.Bondings),
		"vlans", len(info.Vlans), "bridges", len(info.Bridges))
	return info, nil
}

func (r *Reader) nicInfo(attrs *netlink.LinkAttrs) shared.NicInfo {
	nic := shared.NicInfo{MTU: attrs.MTU}
	if attrs.HardwareAddr != nil {
		nic.HWAddr = attrs.HardwareAddr.String()
	}

	if r.drivers != nil {
		driver, err := r.drivers.DriverName(attrs.Name)
		if err != nil {
			r.logger.Debug("unable to read nic driver", "nic", attrs.Name, "error", err)
		} else {
			nic.Driver = driver
		}
	}

	if pci, err := r.pciAddress(attrs.Name); err == nil {
		nic.PCI = pci.Map()
	}

	return nic
}

// pciAddress resolves the PCI address of the nic from the sysfs device
// symlink, e.g. "../../../0000:04:00.0".
func (r *Reader) pciAddress(nic string) (address.PCIAddress, error) {
	target, err := os.Readlink(filepath.Join(r.sysfsRoot, "class", "net", nic, "device"))
	if err != nil {
		return address.PCIAddress{}, err
	}
	return address.ParsePCIBDF(filepath.Base(target))
}

// Cache keeps the last snapshot read from a Source until it is invalidated.
type Cache struct {
	source Source
	info   *shared.NetInfo
	l      sync.Mutex
}

func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Get returns the cached snapshot, reading it from the source when the
// cache is empty.
func (c *Cache) Get(ctx context.Context) (*shared.NetInfo, error) {
	c.l.Lock()
	defer c.l.Unlock()

	if c.info != nil {
		return c.info, nil
	}

	info, err := c.source.Get(ctx)
	if err != nil {
		return nil, err
	}
	c.info = info
	return info, nil
}

// Invalidate drops the cached snapshot so the next Get reads the host again.
func (c *Cache) Invalidate() {
	c.l.Lock()
	defer c.l.Unlock()
	c.info = nil
}

var (
	_ Source = (*Reader)(nil)
	_ Source = (*Cache)(nil)
)
