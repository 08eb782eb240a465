package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/proxmox"
)

func fieldMap(fields []Field) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func TestDetectAgentOSInfo(t *testing.T) {
	agent := &fakeAgent{osInfo: &proxmox.OSInfo{
		Name:          "Ubuntu",
		Version:       "24.04.1 LTS (Noble Numbat)",
		VersionID:     "24.04",
		PrettyName:    "Ubuntu 24.04.1 LTS",
		ID:            "ubuntu",
		KernelRelease: "6.8.0-45-generic",
		KernelVersion: "#45-Ubuntu SMP",
	}}
	d := &OSDetector{Agent: agent}

	g := runningVM(nil)
	g.Config.OSType = "l26"
	fields := d.Detect(context.Background(), g)

	m := fieldMap(fields)
	assert.Equal(t, "Ubuntu", m["os_name"])
	assert.Equal(t, "24.04", m["os_version_id"])
	assert.Equal(t, "6.8.0-45-generic", m["os_kernel"])
	// Detailed detection excludes the fallback family.
	assert.NotContains(t, m, "os_family")

	// Emission order is fixed.
	assert.Equal(t, "os_name", fields[0].Key)
	assert.Equal(t, "os_kernel_version", fields[len(fields)-1].Key)
}

func TestDetectAgentPartialFields(t *testing.T) {
	agent := &fakeAgent{osInfo: &proxmox.OSInfo{Name: "FreeBSD", KernelRelease: "14.1-RELEASE"}}
	d := &OSDetector{Agent: agent}

	fields := d.Detect(context.Background(), runningVM(nil))
	m := fieldMap(fields)
	assert.Equal(t, "FreeBSD", m["os_name"])
	assert.Equal(t, "14.1-RELEASE", m["os_kernel"])
	// Absent agent fields are omitted, never defaulted.
	assert.NotContains(t, m, "os_version")
	assert.NotContains(t, m, "os_pretty_name")
}

func TestDetectAgentUnavailableFallsBack(t *testing.T) {
	agent := &fakeAgent{err: errors.New(errors.ErrCodeAgentUnavailable, "timeout")}
	d := &OSDetector{Agent: agent}

	g := runningVM(nil)
	g.Config.OSType = "win11"
	m := fieldMap(d.Detect(context.Background(), g))

	assert.Equal(t, "Windows 11", m["os_family"])
	assert.NotContains(t, m, "os_name")
}

func TestDetectStoppedVMFamily(t *testing.T) {
	d := &OSDetector{}
	g := proxmox.Guest{
		Kind:   proxmox.GuestKindVM,
		VMID:   101,
		Status: "stopped",
		Config: &proxmox.GuestConfig{OSType: "l26"},
	}
	m := fieldMap(d.Detect(context.Background(), g))
	assert.Equal(t, "Linux", m["os_family"])
}

func TestDetectWindowsSubCodes(t *testing.T) {
	tests := []struct {
		ostype   string
		expected string
	}{
		{"win10", "Windows 10"},
		{"win11", "Windows 11"},
		{"w2k8", "Windows 2008"},
		{"wvista", "Windows Vista"},
		{"winxp", "Windows XP"},
		{"other", "Other"},
		{"solaris", "SOLARIS"}, // unknown code passes through upper-cased
	}

	d := &OSDetector{}
	for _, tt := range tests {
		t.Run(tt.ostype, func(t *testing.T) {
			g := proxmox.Guest{
				Kind:   proxmox.GuestKindVM,
				Status: "stopped",
				Config: &proxmox.GuestConfig{OSType: tt.ostype},
			}
			m := fieldMap(d.Detect(context.Background(), g))
			assert.Equal(t, tt.expected, m["os_family"])
		})
	}
}

func TestDetectContainer(t *testing.T) {
	d := &OSDetector{}
	g := proxmox.Guest{
		Kind:   proxmox.GuestKindContainer,
		VMID:   200,
		Status: "running",
		Config: &proxmox.GuestConfig{OSType: "alpine", Hostname: "cache1"},
	}
	m := fieldMap(d.Detect(context.Background(), g))

	assert.Equal(t, "Alpine Linux", m["os_name"])
	assert.Equal(t, "cache1", m["os_hostname"])
	// Container with a resolved name takes no fallback family.
	assert.NotContains(t, m, "os_family")
}

func TestDetectContainerUnknownOSType(t *testing.T) {
	d := &OSDetector{}
	g := proxmox.Guest{
		Kind:   proxmox.GuestKindContainer,
		VMID:   200,
		Config: &proxmox.GuestConfig{OSType: "devuan"},
	}
	m := fieldMap(d.Detect(context.Background(), g))
	// Not in the table: capitalized passthrough, no invented entry.
	assert.Equal(t, "Devuan", m["os_name"])
}

func TestDetectNoConfig(t *testing.T) {
	d := &OSDetector{}
	g := proxmox.Guest{Kind: proxmox.GuestKindContainer, VMID: 200}
	assert.Empty(t, d.Detect(context.Background(), g))
}
