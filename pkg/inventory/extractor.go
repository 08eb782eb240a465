/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package inventory

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/proxmox"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/resolver"
)

// Extraction carries every input the extractor needs. Resolution (IP, OS)
// happens before extraction so Extract stays a pure function: identical
// inputs always produce identical records.
type Extraction struct {
	Guest proxmox.Guest
	// Status is the live status fetch result; nil for guests that were
	// not running or whose fetch failed.
	Status *proxmox.GuestStatus
	// IP is the resolved address; empty when resolution failed.
	IP string
	// OSFields are the ordered OS identification fields.
	OSFields []resolver.Field
	// Username is the default login user for the record.
	Username string
}

// Extract builds the normalized node record for one guest. Attribute keys
// are unique and emitted in a fixed order; a key is present only when the
// underlying data exists, with ip_address as the single present-but-empty
// exception.
func Extract(in Extraction) NodeRecord {
	g := in.Guest
	cfg := g.Config

	name := g.DisplayName()
	hostname := in.IP
	if hostname == "" {
		hostname = name + ".local"
	}

	description := ""
	if cfg != nil {
		description = cfg.Description
	}
	if description == "" {
		if g.Kind == proxmox.GuestKindContainer {
			description = fmt.Sprintf("Proxmox Container %d on node %s", g.VMID, g.Node)
		} else {
			description = fmt.Sprintf("Proxmox VM %d on node %s", g.VMID, g.Node)
		}
	}

	tags := []string{SourceTag, g.Kind.ClassTag(), string(g.Kind), g.Node}
	tags = append(tags, cfg.CustomTags()...)

	attrs := newAttrSet()

	// ip_address is always present; empty means unresolved.
	attrs.set("ip_address", in.IP)

	// Basic identity attributes.
	attrs.set("proxmox_node", g.Node)
	attrs.set("proxmox_vmid", strconv.Itoa(g.VMID))
	attrs.set("proxmox_type", string(g.Kind))
	attrs.set("proxmox_status", g.Status)
	if g.Running() {
		attrs.set("proxmox_running_status", "running")
	} else {
		attrs.set("proxmox_running_status", "stopped")
	}

	// Configuration attributes, only when the source field is populated.
	if cfg != nil {
		if cfg.Cores > 0 {
			attrs.set("proxmox_cores", strconv.FormatInt(cfg.Cores, 10))
		}
		if cfg.Sockets > 0 {
			attrs.set("proxmox_sockets", strconv.FormatInt(cfg.Sockets, 10))
		}
		if cfg.Memory > 0 {
			attrs.set("proxmox_memory_mb", strconv.FormatInt(cfg.Memory, 10))
		}
		if cfg.Swap > 0 {
			attrs.set("proxmox_swap_mb", strconv.FormatInt(cfg.Swap, 10))
		}
		if cfg.Template {
			attrs.set("proxmox_template", "true")
		}
		if cfg.Agent != "" {
			if cfg.AgentEnabled() {
				attrs.set("proxmox_agent", "enabled")
			} else {
				attrs.set("proxmox_agent", "disabled")
			}
		}
		if cfg.OSType != "" {
			attrs.set("proxmox_ostype", cfg.OSType)
		}
		if cfg.Description != "" {
			attrs.set("proxmox_description", cfg.Description)
		}
		if cfg.Hostname != "" {
			attrs.set("proxmox_hostname", cfg.Hostname)
		}
	}
	if g.MaxMem > 0 {
		attrs.set("proxmox_maxmem_bytes", strconv.FormatInt(g.MaxMem, 10))
	}
	if g.MaxDisk > 0 {
		attrs.set("proxmox_maxdisk_bytes", strconv.FormatInt(g.MaxDisk, 10))
	}

	// OS identification fields.
	for _, f := range in.OSFields {
		attrs.set(f.Key, f.Value)
	}

	// Performance metrics, only for guests running at query time. Values
	// pass through source units unchanged (bytes, fractional CPU, seconds);
	// memory is additionally exposed rounded to megabytes.
	if g.Running() && in.Status != nil {
		st := in.Status
		if st.Uptime != nil {
			attrs.set("proxmox_uptime_seconds", strconv.FormatInt(*st.Uptime, 10))
		}
		if st.CPU != nil {
			attrs.set("proxmox_cpu_usage", formatFloat(*st.CPU))
		}
		if st.Mem != nil {
			attrs.set("proxmox_mem_used_bytes", strconv.FormatInt(*st.Mem, 10))
			attrs.set("proxmox_mem_used_mb", strconv.FormatInt(roundMB(*st.Mem), 10))
		}
		if st.MaxMem != nil {
			attrs.set("proxmox_maxmem_bytes", strconv.FormatInt(*st.MaxMem, 10))
		}
		if st.CPUs != nil {
			attrs.set("proxmox_cpus", formatFloat(*st.CPUs))
		}
		if st.MaxCPU != nil {
			attrs.set("proxmox_maxcpu", formatFloat(*st.MaxCPU))
		}
		if st.NetIn != nil {
			attrs.set("proxmox_netin_bytes", strconv.FormatInt(*st.NetIn, 10))
		}
		if st.NetOut != nil {
			attrs.set("proxmox_netout_bytes", strconv.FormatInt(*st.NetOut, 10))
		}
		if st.DiskRead != nil {
			attrs.set("proxmox_diskread_bytes", strconv.FormatInt(*st.DiskRead, 10))
		}
		if st.DiskWrite != nil {
			attrs.set("proxmox_diskwrite_bytes", strconv.FormatInt(*st.DiskWrite, 10))
		}
		if st.Disk != nil {
			attrs.set("proxmox_disk_used_bytes", strconv.FormatInt(*st.Disk, 10))
		}
	}

	return NodeRecord{
		Name:        name,
		Hostname:    hostname,
		Username:    in.Username,
		Description: description,
		OSFamily:    OSFamilyUnix,
		Tags:        tags,
		Attributes:  attrs.list(),
	}
}

// attrSet is an ordered attribute collection with last-write-wins value
// semantics: setting an existing key replaces its value in place, keeping
// the original position, so keys stay unique.
type attrSet struct {
	attrs []Attribute
	index map[string]int
}

func newAttrSet() *attrSet {
	return &attrSet{index: make(map[string]int)}
}

func (s *attrSet) set(key, value string) {
	if i, ok := s.index[key]; ok {
		s.attrs[i].Value = value
		return
	}
	s.index[key] = len(s.attrs)
	s.attrs = append(s.attrs, Attribute{Key: key, Value: value})
}

func (s *attrSet) list() []Attribute {
	return s.attrs
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundMB(bytes int64) int64 {
	return int64(math.Round(float64(bytes) / (1024 * 1024)))
}
