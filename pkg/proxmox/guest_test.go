package proxmox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuestKindClassTag(t *testing.T) {
	assert.Equal(t, "vm", GuestKindVM.ClassTag())
	assert.Equal(t, "container", GuestKindContainer.ClassTag())
}

func TestGuestNames(t *testing.T) {
	tests := []struct {
		name     string
		guest    Guest
		fallback string
		display  string
	}{
		{
			name:     "named vm",
			guest:    Guest{Kind: GuestKindVM, VMID: 101, Name: "web1"},
			fallback: "vm-101",
			display:  "web1",
		},
		{
			name:     "unnamed vm",
			guest:    Guest{Kind: GuestKindVM, VMID: 101},
			fallback: "vm-101",
			display:  "vm-101",
		},
		{
			name:     "unnamed container",
			guest:    Guest{Kind: GuestKindContainer, VMID: 200},
			fallback: "ct-200",
			display:  "ct-200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fallback, tt.guest.FallbackName())
			assert.Equal(t, tt.display, tt.guest.DisplayName())
		})
	}
}

func TestGuestRunning(t *testing.T) {
	assert.True(t, Guest{Status: "running"}.Running())
	assert.False(t, Guest{Status: "stopped"}.Running())
	assert.False(t, Guest{}.Running())
}

func TestGuestConfigAgentEnabled(t *testing.T) {
	tests := []struct {
		agent    string
		expected bool
	}{
		{"", false},
		{"0", false},
		{"1", true},
		{"1,fstrim_cloned_disks=1", true},
		{"enabled=1", true},
		{"enabled=0,type=virtio", false},
	}

	for _, tt := range tests {
		t.Run(tt.agent, func(t *testing.T) {
			cfg := &GuestConfig{Agent: tt.agent}
			assert.Equal(t, tt.expected, cfg.AgentEnabled())
		})
	}

	var nilCfg *GuestConfig
	assert.False(t, nilCfg.AgentEnabled())
}

func TestGuestConfigUnmarshal(t *testing.T) {
	raw := `{
		"name": "db1",
		"hostname": "db1.internal",
		"ostype": "alpine",
		"memory": 512,
		"swap": "256",
		"cores": 1,
		"template": 1,
		"tags": "db,, prod ",
		"net0": "name=eth0,bridge=vmbr0,ip=dhcp",
		"rootfs": "local-lvm:vm-200-disk-0,size=8G"
	}`

	var cfg GuestConfig
	assert.NoError(t, json.Unmarshal([]byte(raw), &cfg))

	assert.Equal(t, "db1", cfg.Name)
	assert.Equal(t, "db1.internal", cfg.Hostname)
	assert.Equal(t, "alpine", cfg.OSType)
	assert.Equal(t, int64(512), cfg.Memory)
	assert.Equal(t, int64(256), cfg.Swap)
	assert.True(t, cfg.Template)
	assert.Equal(t, []string{"db", "prod"}, cfg.CustomTags())
	assert.Equal(t, "name=eth0,bridge=vmbr0,ip=dhcp", cfg.Net["net0"])
	assert.NotContains(t, cfg.Net, "rootfs")
}
