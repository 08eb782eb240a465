/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package resolver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/proxmox"
)

// Field is one resolved OS attribute. Fields keep emission order so
// downstream serialization stays deterministic.
type Field struct {
	Key   string
	Value string
}

// containerOSNames maps LXC ostype values to display names. This is a
// fixed table mirroring the template set Proxmox ships; unlisted values
// take the capitalization fallback, never a guessed entry.
var containerOSNames = map[string]string{
	"ubuntu":    "Ubuntu",
	"debian":    "Debian",
	"centos":    "CentOS",
	"fedora":    "Fedora",
	"archlinux": "Arch Linux",
	"alpine":    "Alpine Linux",
	"opensuse":  "openSUSE",
	"gentoo":    "Gentoo",
}

// osFamilies maps QEMU ostype codes to coarse family names. Windows
// sub-codes distinguish releases; unlisted values are passed through
// upper-cased.
var osFamilies = map[string]string{
	"l26":    "Linux",
	"win7":   "Windows 7",
	"win8":   "Windows 8",
	"win10":  "Windows 10",
	"win11":  "Windows 11",
	"w2k":    "Windows 2000",
	"w2k3":   "Windows 2003",
	"w2k8":   "Windows 2008",
	"wvista": "Windows Vista",
	"winxp":  "Windows XP",
	"other":  "Other",
}

var titleCaser = cases.Title(language.English)

// OSDetector produces OS identification fields for a guest. Detailed
// agent-based detection and the coarse ostype fallback are mutually
// exclusive: the fallback family is emitted only when no os_name could be
// determined.
type OSDetector struct {
	// Agent queries the guest agent; nil disables agent detection.
	Agent AgentQuerier
	// AgentTimeout bounds the agent query. Zero means 3s.
	AgentTimeout time.Duration
}

// Detect returns the ordered OS fields for one guest. Absent source data
// means absent fields; nothing is defaulted to a placeholder.
func (d *OSDetector) Detect(ctx context.Context, g proxmox.Guest) []Field {
	var fields []Field

	switch g.Kind {
	case proxmox.GuestKindVM:
		fields = d.agentOSInfo(ctx, g)
	case proxmox.GuestKindContainer:
		fields = containerOSInfo(g)
	}

	if !hasField(fields, "os_name") {
		if family := familyOf(g); family != "" {
			fields = append(fields, Field{Key: "os_family", Value: family})
		}
	}
	return fields
}

// agentOSInfo maps the guest agent get-osinfo response onto os_* fields.
// Applies only to running VMs with the agent enabled; each absent agent
// field is simply omitted.
func (d *OSDetector) agentOSInfo(ctx context.Context, g proxmox.Guest) []Field {
	if d.Agent == nil || !g.Running() || !g.Config.AgentEnabled() {
		return nil
	}

	timeout := d.AgentTimeout
	if timeout == 0 {
		timeout = defaultAgentTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	info, err := d.Agent.AgentOSInfo(actx, g)
	if err != nil {
		slog.Debug("agent OS query failed, falling back",
			"node", g.Node, "vmid", g.VMID, "error", err)
		return nil
	}

	pairs := []Field{
		{"os_name", info.Name},
		{"os_version", info.Version},
		{"os_version_id", info.VersionID},
		{"os_pretty_name", info.PrettyName},
		{"os_id", info.ID},
		{"os_kernel", info.KernelRelease},
		{"os_kernel_version", info.KernelVersion},
	}

	fields := make([]Field, 0, len(pairs))
	for _, p := range pairs {
		if p.Value != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

// containerOSInfo derives OS fields from container configuration: os_name
// from the ostype table and os_hostname from the configured hostname.
func containerOSInfo(g proxmox.Guest) []Field {
	if g.Config == nil {
		return nil
	}

	var fields []Field
	if ostype := g.Config.OSType; ostype != "" {
		name, ok := containerOSNames[strings.ToLower(ostype)]
		if !ok {
			name = titleCaser.String(ostype)
		}
		fields = append(fields, Field{Key: "os_name", Value: name})
	}
	if g.Config.Hostname != "" {
		fields = append(fields, Field{Key: "os_hostname", Value: g.Config.Hostname})
	}
	return fields
}

func familyOf(g proxmox.Guest) string {
	if g.Config == nil || g.Config.OSType == "" {
		return ""
	}
	if family, ok := osFamilies[strings.ToLower(g.Config.OSType)]; ok {
		return family
	}
	return strings.ToUpper(g.Config.OSType)
}

func hasField(fields []Field, key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}
