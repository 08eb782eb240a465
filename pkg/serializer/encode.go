/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package serializer

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/inventory"
)

// Reserved node map keys. Every other key in a serialized node map is a
// free-form attribute.
const (
	keyNodename    = "nodename"
	keyHostname    = "hostname"
	keyUsername    = "username"
	keyOSFamily    = "osFamily"
	keyDescription = "description"
	keyTags        = "tags"
)

// flatPairs flattens a record into the ordered key/value pairs of its node
// map: the reserved keys first, then every attribute in record order.
func flatPairs(rec inventory.NodeRecord) []inventory.Attribute {
	pairs := make([]inventory.Attribute, 0, 6+len(rec.Attributes))
	pairs = append(pairs,
		inventory.Attribute{Key: keyNodename, Value: rec.Name},
		inventory.Attribute{Key: keyHostname, Value: rec.Hostname},
		inventory.Attribute{Key: keyUsername, Value: rec.Username},
		inventory.Attribute{Key: keyOSFamily, Value: rec.OSFamily},
	)
	if rec.Description != "" {
		pairs = append(pairs, inventory.Attribute{Key: keyDescription, Value: rec.Description})
	}
	pairs = append(pairs, inventory.Attribute{Key: keyTags, Value: strings.Join(rec.Tags, ",")})
	return append(pairs, rec.Attributes...)
}

func encodeYAML(w io.Writer, inv *inventory.Inventory) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, rec := range inv.Nodes {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range flatPairs(rec) {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Value},
			)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return errors.Wrap(errors.ErrCodeSerializationFailed, "failed to serialize to YAML", err)
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeSerializationFailed, "failed to flush YAML document", err)
	}
	return nil
}

// encodeJSON writes the node objects by hand so that key order matches
// record order. encoding/json marshals maps sorted and structs cannot
// carry free-form attribute keys.
func encodeJSON(w io.Writer, inv *inventory.Inventory) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, rec := range inv.Nodes {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for j, p := range flatPairs(rec) {
			if j > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n    ")
			buf.Write(jsonString(p.Key))
			buf.WriteString(": ")
			buf.Write(jsonString(p.Value))
		}
		buf.WriteString("\n  }")
	}
	if len(inv.Nodes) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeSerializationFailed, "failed to serialize to JSON", err)
	}
	return nil
}

// jsonString escapes s as a JSON string literal. Marshaling a plain string
// cannot fail.
func jsonString(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

type xmlAttribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlNode struct {
	Name        string         `xml:"name,attr"`
	Hostname    string         `xml:"hostname,attr"`
	Username    string         `xml:"username,attr"`
	OSFamily    string         `xml:"osFamily,attr"`
	Description string         `xml:"description,attr,omitempty"`
	Tags        string         `xml:"tags,attr"`
	Attributes  []xmlAttribute `xml:"attribute"`
}

type xmlProject struct {
	XMLName xml.Name  `xml:"project"`
	Nodes   []xmlNode `xml:"node"`
}

func encodeXML(w io.Writer, inv *inventory.Inventory) error {
	project := xmlProject{Nodes: make([]xmlNode, 0, len(inv.Nodes))}
	for _, rec := range inv.Nodes {
		node := xmlNode{
			Name:        rec.Name,
			Hostname:    rec.Hostname,
			Username:    rec.Username,
			OSFamily:    rec.OSFamily,
			Description: rec.Description,
			Tags:        strings.Join(rec.Tags, ","),
			Attributes:  make([]xmlAttribute, 0, len(rec.Attributes)),
		}
		for _, a := range rec.Attributes {
			node.Attributes = append(node.Attributes, xmlAttribute{Name: a.Key, Value: a.Value})
		}
		project.Nodes = append(project.Nodes, node)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(errors.ErrCodeSerializationFailed, "failed to write XML header", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(project); err != nil {
		return errors.Wrap(errors.ErrCodeSerializationFailed, "failed to serialize to XML", err)
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeSerializationFailed, "failed to flush XML document", err)
	}
	// xml.Encoder does not emit a trailing newline.
	_, err := io.WriteString(w, "\n")
	return err
}
