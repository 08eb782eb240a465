/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package inventory

// OSFamilyUnix is the Rundeck osFamily value emitted for every record;
// the discovered guests are addressed over SSH regardless of guest OS.
const OSFamilyUnix = "unix"

// SourceTag is the fixed tag marking records produced by this source.
const SourceTag = "proxmox"

// Attribute is one flat key/value pair on a node record. Attributes keep
// insertion order so repeated runs serialize byte-identically.
type Attribute struct {
	Key   string
	Value string
}

// NodeRecord is the normalized per-guest inventory unit consumed by the
// resource-model encoders. Records are immutable after extraction.
type NodeRecord struct {
	// Name is the unique node identifier within the inventory.
	Name string
	// Hostname is the resolved address, or a synthetic {name}.local
	// fallback. Never empty.
	Hostname string
	// Username is the login user the orchestrator should use.
	Username string
	// Description is the guest description or a synthetic summary.
	Description string
	// OSFamily is the coarse Rundeck OS family (always "unix").
	OSFamily string
	// Tags always contains at least the source, kind, type, and hosting
	// node tags, in that order, followed by any custom guest tags.
	Tags []string
	// Attributes is the ordered flat attribute set. Keys are unique.
	Attributes []Attribute
}

// Attribute returns the value for key and whether it is present.
func (r NodeRecord) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// HasTag reports whether the record carries the given tag.
func (r NodeRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Inventory is the complete ordered result of one discovery run. Order
// follows cluster enumeration and is part of the output contract.
type Inventory struct {
	Nodes []NodeRecord
}
