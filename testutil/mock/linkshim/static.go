// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package linkshim

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/virt-netsetup/internal/linkshim"
	"github.com/vishvananda/netlink"
)

// NewStatic returns an in-memory link table seeded with the given links.
// Links without an index are assigned one.
func NewStatic(links ...netlink.Link) *StaticLinks {
	s := &StaticLinks{
		links: map[string]netlink.Link{},
		Errs:  map[string]error{},
		STP:   map[string]bool{},
	}
	for _, link := range links {
		s.insert(link)
	}
	return s
}

// StaticLinks is a stateful fake of the netlink shim.
type StaticLinks struct {
	l         sync.Mutex
	links     map[string]netlink.Link
	lastIndex int

	// Errs injects errors keyed by "<Method>:<link name>".
	Errs map[string]error

	// STP records the state set through BridgeSetSTP.
	STP map[string]bool

	// Ops records every mutating call as "<Method>:<link name>".
	Ops []string
}

func (s *StaticLinks) insert(link netlink.Link) {
	attrs := link.Attrs()
	if attrs.Index == 0 {
		s.lastIndex++
		attrs.Index = s.lastIndex
	} else if attrs.Index > s.lastIndex {
		s.lastIndex = attrs.Index
	}
	s.links[attrs.Name] = link
}

func (s *StaticLinks) op(method string, link netlink.Link) error {
	name := link.Attrs().Name
	key := fmt.Sprintf("%s:%s", method, name)
	s.Ops = append(s.Ops, key)
	return s.Errs[key]
}

func (s *StaticLinks) get(link netlink.Link) (netlink.Link, error) {
	existing, ok := s.links[link.Attrs().Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", linkshim.ErrLinkNotFound, link.Attrs().Name)
	}
	return existing, nil
}

// Link returns the named link or nil.
func (s *StaticLinks) Link(name string) netlink.Link {
	s.l.Lock()
	defer s.l.Unlock()
	return s.links[name]
}

// Names returns the names of all links in sorted order.
func (s *StaticLinks) Names() []string {
	s.l.Lock()
	defer s.l.Unlock()

	names := make([]string, 0, len(s.links))
	for name := range s.links {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *StaticLinks) LinkList() ([]netlink.Link, error) {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.Errs["LinkList"]; err != nil {
		return nil, err
	}

	links := make([]netlink.Link, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, link)
	}
	slices.SortFunc(links, func(a, b netlink.Link) int {
		return a.Attrs().Index - b.Attrs().Index
	})
	return links, nil
}

func (s *StaticLinks) LinkByName(name string) (netlink.Link, error) {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.Errs["LinkByName:"+name]; err != nil {
		return nil, err
	}
	link, ok := s.links[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", linkshim.ErrLinkNotFound, name)
	}
	return link, nil
}

func (s *StaticLinks) LinkAdd(link netlink.Link) error {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.op("LinkAdd", link); err != nil {
		return err
	}
	if _, ok := s.links[link.Attrs().Name]; ok {
		return fmt.Errorf("file exists: %s", link.Attrs().Name)
	}
	if vlan, ok := link.(*netlink.Vlan); ok && vlan.ParentIndex == 0 {
		return fmt.Errorf("vlan %s has no parent", vlan.Name)
	}
	s.insert(link)
	return nil
}

func (s *StaticLinks) LinkDel(link netlink.Link) error {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.op("LinkDel", link); err != nil {
		return err
	}
	existing, err := s.get(link)
	if err != nil {
		return err
	}

	index := existing.Attrs().Index
	delete(s.links, existing.Attrs().Name)
	for _, other := range s.links {
		attrs := other.Attrs()
		if attrs.MasterIndex == index {
			attrs.MasterIndex = 0
		}
		// VLAN devices go away with their parent.
		if vlan, ok := other.(*netlink.Vlan); ok && vlan.ParentIndex == index {
			delete(s.links, attrs.Name)
		}
	}
	return nil
}

func (s *StaticLinks) LinkSetUp(link netlink.Link) error {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.op("LinkSetUp", link); err != nil {
		return err
	}
	existing, err := s.get(link)
	if err != nil {
		return err
	}
	existing.Attrs().OperState = netlink.OperUp
	return nil
}

func (s *StaticLinks) LinkSetDown(link netlink.Link) error {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.op("LinkSetDown", link); err != nil {
		return err
	}
	existing, err := s.get(link)
	if err != nil {
		return err
	}
	existing.Attrs().OperState = netlink.OperDown
	return nil
}

func (s *StaticLinks) LinkSetMTU(link netlink.Link, mtu int) error {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.op("LinkSetMTU", link); err != nil {
		return err
	}
	existing, err := s.get(link)
	if err != nil {
		return err
	}
	existing.Attrs().MTU = mtu
	return nil
}

func (s *StaticLinks) LinkSetMaster(link netlink.Link, master netlink.Link) error {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.op("LinkSetMaster", link); err != nil {
		return err
	}
	existing, err := s.get(link)
	if err != nil {
		return err
	}
	m, err := s.get(master)
	if err != nil {
		return err
	}
	existing.Attrs().MasterIndex = m.Attrs().Index
	return nil
}

func (s *StaticLinks) LinkSetNoMaster(link netlink.Link) error {
	s.l.Lock()
	defer s.l.Unlock()

	if err := s.op("LinkSetNoMaster", link); err != nil {
		return err
	}
	existing, err := s.get(link)
	if err != nil {
		return err
	}
	existing.Attrs().MasterIndex = 0
	return nil
}

func (s *StaticLinks) BridgeSetSTP(bridge string, enabled bool) error {
	s.l.Lock()
	defer s.l.Unlock()

	key := "BridgeSetSTP:" + bridge
	s.Ops = append(s.Ops, key)
	if err := s.Errs[key]; err != nil {
		return err
	}
	s.STP[bridge] = enabled
	return nil
}

// Device returns a physical device link for seeding.
func Device(name string) *netlink.Device {
	return &netlink.Device{LinkAttrs: netlink.LinkAttrs{Name: name, MTU: 1500}}
}

var _ linkshim.Shim = (*StaticLinks)(nil)
