/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package serializer

import (
	"github.com/rundeck-plugins/proxmox-node-source/pkg/inventory"
)

// Format represents the output document format.
type Format string

const (
	// FormatYAML outputs the inventory as a YAML list of node maps.
	FormatYAML Format = "yaml"
	// FormatJSON outputs the inventory as a JSON array of node objects.
	FormatJSON Format = "json"
	// FormatXML outputs the inventory as a resource-model XML project.
	FormatXML Format = "xml"
)

// SupportedFormats lists the formats Serialize accepts, in preference order.
func SupportedFormats() []Format {
	return []Format{FormatYAML, FormatJSON, FormatXML}
}

func (f Format) IsUnknown() bool {
	switch f {
	case FormatYAML, FormatJSON, FormatXML:
		return false
	default:
		return true
	}
}

// Serializer writes a complete inventory document.
type Serializer interface {
	Serialize(inv *inventory.Inventory) error
}
