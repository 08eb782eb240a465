/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package proxmox

import "fmt"

// GuestKind is the technical guest type tag used by the Proxmox API.
type GuestKind string

const (
	// GuestKindVM is a QEMU virtual machine.
	GuestKindVM GuestKind = "qemu"
	// GuestKindContainer is an LXC container.
	GuestKindContainer GuestKind = "lxc"
)

// ClassTag returns the coarse resource-kind class for the guest type.
func (k GuestKind) ClassTag() string {
	if k == GuestKindContainer {
		return "container"
	}
	return "vm"
}

// Guest is a VM or container discovered on a cluster node. It is the
// tagged-union unit the extraction pipeline operates on: common fields are
// populated from the listing, Config from the per-guest config fetch.
type Guest struct {
	Kind    GuestKind
	Node    string
	VMID    int
	Name    string
	Status  string
	MaxMem  int64
	MaxDisk int64

	// Config is nil when the config fetch failed; extraction degrades.
	Config *GuestConfig
}

// Running reports whether the guest was running at listing time.
func (g Guest) Running() bool {
	return g.Status == "running"
}

// FallbackName is the synthetic identifier used when a guest has no
// configured name: vm-{vmid} for VMs, ct-{vmid} for containers.
func (g Guest) FallbackName() string {
	if g.Kind == GuestKindContainer {
		return fmt.Sprintf("ct-%d", g.VMID)
	}
	return fmt.Sprintf("vm-%d", g.VMID)
}

// DisplayName is the configured guest name, or the synthetic fallback.
func (g Guest) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	return g.FallbackName()
}
