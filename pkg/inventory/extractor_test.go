package inventory

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/proxmox"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/resolver"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func runningVMExtraction() Extraction {
	return Extraction{
		Guest: proxmox.Guest{
			Kind:   proxmox.GuestKindVM,
			Node:   "pve1",
			VMID:   101,
			Name:   "web1",
			Status: "running",
			MaxMem: 2147483648,
			Config: &proxmox.GuestConfig{
				Name:   "web1",
				Cores:  2,
				Memory: 2048,
				OSType: "l26",
				Agent:  "1",
				Tags:   "prod,web",
			},
		},
		Status: &proxmox.GuestStatus{
			Status: "running",
			Uptime: i64(86400),
			CPU:    f64(0.042),
			CPUs:   f64(2),
			Mem:    i64(1610612736),
			MaxMem: i64(2147483648),
			NetIn:  i64(123456),
			NetOut: i64(654321),
		},
		IP:       "10.0.0.5",
		Username: "root",
	}
}

func TestExtractRunningVM(t *testing.T) {
	rec := Extract(runningVMExtraction())

	assert.Equal(t, "web1", rec.Name)
	assert.Equal(t, "10.0.0.5", rec.Hostname)
	assert.Equal(t, "root", rec.Username)
	assert.Equal(t, "unix", rec.OSFamily)
	assert.Equal(t, "Proxmox VM 101 on node pve1", rec.Description)

	// Fixed tag prefix in order, then custom tags.
	assert.Equal(t, []string{"proxmox", "vm", "qemu", "pve1", "prod", "web"}, rec.Tags)

	ip, ok := rec.Attribute("ip_address")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5", ip)

	agent, _ := rec.Attribute("proxmox_agent")
	assert.Equal(t, "enabled", agent)

	uptime, ok := rec.Attribute("proxmox_uptime_seconds")
	assert.True(t, ok)
	assert.Equal(t, "86400", uptime)

	cpu, _ := rec.Attribute("proxmox_cpu_usage")
	assert.Equal(t, "0.042", cpu)

	// Memory in bytes and rounded megabytes, as two attributes.
	memBytes, _ := rec.Attribute("proxmox_mem_used_bytes")
	assert.Equal(t, "1610612736", memBytes)
	memMB, _ := rec.Attribute("proxmox_mem_used_mb")
	assert.Equal(t, "1536", memMB)

	// Status maxmem wins over the listing value, still a single key.
	maxmem, _ := rec.Attribute("proxmox_maxmem_bytes")
	assert.Equal(t, "2147483648", maxmem)
}

func TestExtractStoppedGuestHasNoPerfAttributes(t *testing.T) {
	in := Extraction{
		Guest: proxmox.Guest{
			Kind:   proxmox.GuestKindContainer,
			Node:   "pve1",
			VMID:   200,
			Name:   "db1",
			Status: "stopped",
			Config: &proxmox.GuestConfig{Memory: 512, OSType: "alpine"},
		},
		Username: "root",
	}
	rec := Extract(in)

	for _, a := range rec.Attributes {
		for _, perf := range []string{
			"proxmox_uptime_seconds", "proxmox_cpu_usage", "proxmox_mem_used_bytes",
			"proxmox_mem_used_mb", "proxmox_cpus", "proxmox_maxcpu",
			"proxmox_netin_bytes", "proxmox_netout_bytes",
			"proxmox_diskread_bytes", "proxmox_diskwrite_bytes", "proxmox_disk_used_bytes",
		} {
			assert.NotEqual(t, perf, a.Key, "stopped guest must not carry perf attribute %s", perf)
		}
	}

	running, _ := rec.Attribute("proxmox_running_status")
	assert.Equal(t, "stopped", running)
}

func TestExtractUnresolvedIPFallsBackToSyntheticHostname(t *testing.T) {
	in := Extraction{
		Guest: proxmox.Guest{
			Kind:   proxmox.GuestKindContainer,
			Node:   "pve1",
			VMID:   200,
			Status: "stopped",
			Config: &proxmox.GuestConfig{
				Net: map[string]string{"ipconfig0": "ip=dhcp,gw=10.0.0.1"},
			},
		},
		Username: "root",
	}
	rec := Extract(in)

	// Unnamed guest: synthetic name and hostname.
	assert.Equal(t, "ct-200", rec.Name)
	assert.Equal(t, "ct-200.local", rec.Hostname)

	ip, ok := rec.Attribute("ip_address")
	assert.True(t, ok, "ip_address is present even when unresolved")
	assert.Equal(t, "", ip)
}

func TestExtractNamedGuestUnresolvedIP(t *testing.T) {
	in := Extraction{
		Guest: proxmox.Guest{
			Kind:   proxmox.GuestKindVM,
			Node:   "pve2",
			VMID:   105,
			Name:   "worker3",
			Status: "stopped",
		},
		Username: "deploy",
	}
	rec := Extract(in)
	assert.Equal(t, "worker3", rec.Name)
	assert.Equal(t, "worker3.local", rec.Hostname)
	assert.Equal(t, "deploy", rec.Username)
}

func TestExtractNilConfigDegrades(t *testing.T) {
	in := Extraction{
		Guest: proxmox.Guest{
			Kind:   proxmox.GuestKindVM,
			Node:   "pve1",
			VMID:   300,
			Name:   "ghost",
			Status: "stopped",
		},
		Username: "root",
	}
	rec := Extract(in)

	// Basic attributes survive a failed config fetch.
	vmid, _ := rec.Attribute("proxmox_vmid")
	assert.Equal(t, "300", vmid)
	assert.Equal(t, []string{"proxmox", "vm", "qemu", "pve1"}, rec.Tags)

	// No config-derived attributes appear.
	_, ok := rec.Attribute("proxmox_cores")
	assert.False(t, ok)
	_, ok = rec.Attribute("proxmox_ostype")
	assert.False(t, ok)
}

func TestExtractOSFieldsAppended(t *testing.T) {
	in := runningVMExtraction()
	in.OSFields = []resolver.Field{
		{Key: "os_name", Value: "Ubuntu"},
		{Key: "os_version_id", Value: "24.04"},
	}
	rec := Extract(in)

	name, _ := rec.Attribute("os_name")
	assert.Equal(t, "Ubuntu", name)
	vid, _ := rec.Attribute("os_version_id")
	assert.Equal(t, "24.04", vid)
}

func TestExtractAttributeKeysUnique(t *testing.T) {
	rec := Extract(runningVMExtraction())
	seen := make(map[string]struct{}, len(rec.Attributes))
	for _, a := range rec.Attributes {
		_, dup := seen[a.Key]
		require.False(t, dup, "duplicate attribute key %s", a.Key)
		seen[a.Key] = struct{}{}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	a := Extract(runningVMExtraction())
	b := Extract(runningVMExtraction())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two extractions of identical input differ:\n%+v\n%+v", a, b)
	}
}

func TestExtractTagInvariant(t *testing.T) {
	kinds := []proxmox.GuestKind{proxmox.GuestKindVM, proxmox.GuestKindContainer}
	for _, kind := range kinds {
		rec := Extract(Extraction{
			Guest:    proxmox.Guest{Kind: kind, Node: "pve9", VMID: 1},
			Username: "root",
		})
		require.GreaterOrEqual(t, len(rec.Tags), 4)
		assert.True(t, rec.HasTag("proxmox"))
		assert.True(t, rec.HasTag(kind.ClassTag()))
		assert.True(t, rec.HasTag(string(kind)))
		assert.True(t, rec.HasTag("pve9"))
		assert.NotEmpty(t, rec.Name)
		assert.NotEmpty(t, rec.Hostname)
	}
}

func TestExtractDescriptionFromConfig(t *testing.T) {
	in := runningVMExtraction()
	in.Guest.Config.Description = "primary web frontend"
	rec := Extract(in)

	assert.Equal(t, "primary web frontend", rec.Description)
	desc, _ := rec.Attribute("proxmox_description")
	assert.Equal(t, "primary web frontend", desc)
}

func TestExtractNoEmptyAttributeValues(t *testing.T) {
	rec := Extract(runningVMExtraction())
	for _, a := range rec.Attributes {
		if a.Key == "ip_address" {
			continue // the documented exception
		}
		assert.False(t, strings.TrimSpace(a.Value) == "", "attribute %s must not be empty", a.Key)
	}
}
