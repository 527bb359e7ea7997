// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"encoding/xml"
	"strings"
)

const netsetupNamespace = "http://hashicorp.com/xmlns/1.0/netsetup"

// ManagedNetwork is stored in the metadata element of every libvirt network
// defined by netsetup so that managed networks can be told apart from
// networks created by other tools.
type ManagedNetwork struct {
	XMLName xml.Name `xml:"http://hashicorp.com/xmlns/1.0/netsetup netsetup:network"`
	Name    string   `xml:"netsetup:name,omitempty"`
	Switch  string   `xml:"netsetup:switch,omitempty"`
	Bridge  string   `xml:"netsetup:bridge,omitempty"`
}

func (m *ManagedNetwork) XMLString() (string, error) {
	out, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	x := string(out)

	// Stdlib cannot create `<foo:thing xmlns:foo="URI">` start elements, so fix it
	x = strings.Replace(x, ` xmlns="`, ` xmlns:netsetup="`, 1)

	return x, nil
}

// Parse reads the managed network element out of the inner XML of a libvirt
// metadata element. The second return is false when the metadata does not
// carry a netsetup element.
func Parse(innerXML string) (*ManagedNetwork, bool) {
	if !strings.Contains(innerXML, netsetupNamespace) {
		return nil, false
	}

	var m struct {
		XMLName xml.Name `xml:"network"`
		Name    string   `xml:"name"`
		Switch  string   `xml:"switch"`
		Bridge  string   `xml:"bridge"`
	}
	if err := xml.Unmarshal([]byte(strings.TrimSpace(innerXML)), &m); err != nil {
		return nil, false
	}
	if m.XMLName.Space != netsetupNamespace {
		return nil, false
	}

	return &ManagedNetwork{Name: m.Name, Switch: m.Switch, Bridge: m.Bridge}, true
}
