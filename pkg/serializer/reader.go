/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package serializer

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/inventory"
)

// Decode parses a serialized inventory document back into its in-memory
// form. Node order and per-node attribute order are preserved for the
// formats that carry order (all three do).
func Decode(format Format, data []byte) (*inventory.Inventory, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(data)
	case FormatJSON:
		return decodeJSON(data)
	case FormatXML:
		return decodeXML(data)
	default:
		return nil, errors.Newf(errors.ErrCodeSerializationFailed, "unsupported format: %s", format)
	}
}

func decodeYAML(data []byte) (*inventory.Inventory, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializationFailed, "failed to parse YAML document", err)
	}
	if len(doc.Content) == 0 {
		return &inventory.Inventory{}, nil
	}
	seq := doc.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, errors.New(errors.ErrCodeSerializationFailed, "YAML document is not a node list")
	}

	inv := &inventory.Inventory{}
	for _, m := range seq.Content {
		if m.Kind != yaml.MappingNode {
			return nil, errors.New(errors.ErrCodeSerializationFailed, "YAML node entry is not a map")
		}
		pairs := make([]inventory.Attribute, 0, len(m.Content)/2)
		for i := 0; i+1 < len(m.Content); i += 2 {
			pairs = append(pairs, inventory.Attribute{
				Key:   m.Content[i].Value,
				Value: m.Content[i+1].Value,
			})
		}
		inv.Nodes = append(inv.Nodes, recordFromPairs(pairs))
	}
	return inv, nil
}

// decodeJSON walks the token stream instead of unmarshaling into maps,
// which would lose attribute order.
func decodeJSON(data []byte) (*inventory.Inventory, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializationFailed, "failed to parse JSON document", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errors.New(errors.ErrCodeSerializationFailed, "JSON document is not a node list")
	}

	inv := &inventory.Inventory{}
	for dec.More() {
		if _, err := dec.Token(); err != nil { // opening brace
			return nil, errors.Wrap(errors.ErrCodeSerializationFailed, "failed to parse JSON node entry", err)
		}
		var pairs []inventory.Attribute
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeSerializationFailed, "failed to parse JSON key", err)
			}
			valTok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeSerializationFailed, "failed to parse JSON value", err)
			}
			key, kok := keyTok.(string)
			val, vok := valTok.(string)
			if !kok || !vok {
				return nil, errors.New(errors.ErrCodeSerializationFailed, "JSON node entry has a non-string member")
			}
			pairs = append(pairs, inventory.Attribute{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, errors.Wrap(errors.ErrCodeSerializationFailed, "failed to parse JSON node entry", err)
		}
		inv.Nodes = append(inv.Nodes, recordFromPairs(pairs))
	}
	return inv, nil
}

func decodeXML(data []byte) (*inventory.Inventory, error) {
	var project xmlProject
	if err := xml.Unmarshal(data, &project); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerializationFailed, "failed to parse XML document", err)
	}

	inv := &inventory.Inventory{}
	for _, node := range project.Nodes {
		rec := inventory.NodeRecord{
			Name:        node.Name,
			Hostname:    node.Hostname,
			Username:    node.Username,
			OSFamily:    node.OSFamily,
			Description: node.Description,
			Tags:        splitTags(node.Tags),
		}
		for _, a := range node.Attributes {
			rec.Attributes = append(rec.Attributes, inventory.Attribute{Key: a.Name, Value: a.Value})
		}
		inv.Nodes = append(inv.Nodes, rec)
	}
	return inv, nil
}

// recordFromPairs routes the reserved node map keys to record fields and
// keeps everything else as attributes, in document order.
func recordFromPairs(pairs []inventory.Attribute) inventory.NodeRecord {
	var rec inventory.NodeRecord
	for _, p := range pairs {
		switch p.Key {
		case keyNodename:
			rec.Name = p.Value
		case keyHostname:
			rec.Hostname = p.Value
		case keyUsername:
			rec.Username = p.Value
		case keyOSFamily:
			rec.OSFamily = p.Value
		case keyDescription:
			rec.Description = p.Value
		case keyTags:
			rec.Tags = splitTags(p.Value)
		default:
			rec.Attributes = append(rec.Attributes, p)
		}
	}
	return rec
}

func splitTags(joined string) []string {
	var tags []string
	for _, t := range strings.Split(joined, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
