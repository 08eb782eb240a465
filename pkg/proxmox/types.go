/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package proxmox

import (
	"encoding/json"
	"strconv"
	"strings"
)

// VersionInfo is the response of GET /version, used as a post-auth
// connection check.
type VersionInfo struct {
	Version string `json:"version"`
	Release string `json:"release"`
	RepoID  string `json:"repoid"`
}

// Node is a cluster member as returned by GET /nodes.
type Node struct {
	Node   string `json:"node"`
	Status string `json:"status"`
}

// GuestSummary is one entry of a per-node guest listing
// (GET /nodes/{node}/qemu or /nodes/{node}/lxc).
type GuestSummary struct {
	VMID    FlexInt `json:"vmid"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	MaxMem  int64   `json:"maxmem"`
	MaxDisk int64   `json:"maxdisk"`
	Uptime  int64   `json:"uptime"`
}

// GuestStatus holds live metrics from GET /nodes/{node}/{type}/{vmid}/status/current.
// Pointer fields distinguish absent metrics from zero values; a field the API
// did not return stays nil and its attribute is omitted downstream.
type GuestStatus struct {
	Status    string   `json:"status"`
	Uptime    *int64   `json:"uptime,omitempty"`
	CPU       *float64 `json:"cpu,omitempty"`
	CPUs      *float64 `json:"cpus,omitempty"`
	MaxCPU    *float64 `json:"maxcpu,omitempty"`
	Mem       *int64   `json:"mem,omitempty"`
	MaxMem    *int64   `json:"maxmem,omitempty"`
	Disk      *int64   `json:"disk,omitempty"`
	NetIn     *int64   `json:"netin,omitempty"`
	NetOut    *int64   `json:"netout,omitempty"`
	DiskRead  *int64   `json:"diskread,omitempty"`
	DiskWrite *int64   `json:"diskwrite,omitempty"`
}

// OSInfo is the QEMU guest agent get-osinfo payload.
type OSInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	VersionID     string `json:"version-id"`
	PrettyName    string `json:"pretty-name"`
	ID            string `json:"id"`
	KernelRelease string `json:"kernel-release"`
	KernelVersion string `json:"kernel-version"`
}

// NetworkInterface is one interface from the QEMU guest agent
// network-get-interfaces command.
type NetworkInterface struct {
	Name            string           `json:"name"`
	HardwareAddress string           `json:"hardware-address"`
	IPAddresses     []GuestIPAddress `json:"ip-addresses"`
}

// GuestIPAddress is an address reported by the QEMU guest agent.
type GuestIPAddress struct {
	IPAddressType string `json:"ip-address-type"` // "ipv4" or "ipv6"
	IPAddress     string `json:"ip-address"`
	Prefix        int    `json:"prefix"`
}

// FlexInt decodes JSON values the Proxmox API returns inconsistently as
// either a number or a quoted string (vmid in older LXC listings).
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// GuestConfig is the configuration snapshot of a VM or container
// (GET /nodes/{node}/{type}/{vmid}/config). Known fields are typed; all
// net*/ipconfig* entries are preserved verbatim for address resolution.
type GuestConfig struct {
	Name        string
	Hostname    string
	OSType      string
	Description string
	Tags        string
	Cores       int64
	Sockets     int64
	Memory      int64
	Swap        int64
	Template    bool
	Agent       string

	// Net holds raw net*/ipconfig* config entries keyed by config key.
	Net map[string]string
}

// UnmarshalJSON decodes the loosely-typed config map the API returns.
// Proxmox encodes several numeric fields as strings depending on version,
// so every field goes through tolerant conversion.
func (c *GuestConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Name = asString(raw["name"])
	c.Hostname = asString(raw["hostname"])
	c.OSType = asString(raw["ostype"])
	c.Description = asString(raw["description"])
	c.Tags = asString(raw["tags"])
	c.Cores = asInt64(raw["cores"])
	c.Sockets = asInt64(raw["sockets"])
	c.Memory = asInt64(raw["memory"])
	c.Swap = asInt64(raw["swap"])
	c.Template = asInt64(raw["template"]) == 1
	c.Agent = asString(raw["agent"])

	c.Net = make(map[string]string)
	for k, v := range raw {
		if strings.HasPrefix(k, "net") || strings.HasPrefix(k, "ipconfig") {
			c.Net[k] = asString(v)
		}
	}
	return nil
}

// AgentEnabled reports whether the QEMU guest agent option is turned on.
// The agent value may be "1", "enabled=1", or carry trailing options like
// "1,fstrim_cloned_disks=1"; only the leading token decides.
func (c *GuestConfig) AgentEnabled() bool {
	if c == nil || c.Agent == "" {
		return false
	}
	first, _, _ := strings.Cut(c.Agent, ",")
	first = strings.TrimPrefix(first, "enabled=")
	return first == "1"
}

// CustomTags splits the comma-separated guest tag string into clean tokens.
func (c *GuestConfig) CustomTags() []string {
	if c == nil || c.Tags == "" {
		return nil
	}
	parts := strings.Split(c.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
