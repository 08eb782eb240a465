/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package resolver

import (
	"context"
	"log/slog"
	"net/netip"
	"sort"
	"strings"
	"time"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/proxmox"
)

// sentinel ipconfig values that look like addresses but are not.
var ipSentinels = map[string]struct{}{
	"":       {},
	"dhcp":   {},
	"auto":   {},
	"manual": {},
}

// AgentQuerier is the subset of the cluster client the resolvers need to
// talk to the QEMU guest agent. A nil querier disables agent strategies.
type AgentQuerier interface {
	AgentNetworkInterfaces(ctx context.Context, g proxmox.Guest) ([]proxmox.NetworkInterface, error)
	AgentOSInfo(ctx context.Context, g proxmox.Guest) (*proxmox.OSInfo, error)
}

// Strategy is one address resolution attempt. It returns the resolved
// address and true on success; false means the chain moves on.
type Strategy func(ctx context.Context, g proxmox.Guest) (string, bool)

// Chain combines strategies with first-success-wins semantics.
func Chain(strategies ...Strategy) Strategy {
	return func(ctx context.Context, g proxmox.Guest) (string, bool) {
		for _, s := range strategies {
			if ip, ok := s(ctx, g); ok {
				return ip, true
			}
		}
		return "", false
	}
}

// IPResolver produces a best-effort guest address through an ordered
// fallback chain: guest agent first (running VMs), then static network
// configuration. An unresolvable guest yields the empty string, never a
// fabricated address.
type IPResolver struct {
	// Agent queries the guest agent; nil disables the agent strategy.
	Agent AgentQuerier
	// AgentTimeout bounds each agent query so an unresponsive agent
	// cannot stall the run. Zero means 3s.
	AgentTimeout time.Duration
}

const defaultAgentTimeout = 3 * time.Second

// Resolve runs the strategy chain for one guest. The returned string is
// empty when no strategy produced a usable address.
func (r *IPResolver) Resolve(ctx context.Context, g proxmox.Guest) string {
	chain := Chain(
		r.agentInterfaces,
		configAddress,
	)
	ip, ok := chain(ctx, g)
	if !ok {
		slog.Debug("no address resolved for guest", "node", g.Node, "vmid", g.VMID)
		return ""
	}
	return ip
}

// agentInterfaces asks the QEMU guest agent for interface addresses and
// picks the first usable one. Applies only to running VMs with the agent
// option enabled.
func (r *IPResolver) agentInterfaces(ctx context.Context, g proxmox.Guest) (string, bool) {
	if r.Agent == nil || g.Kind != proxmox.GuestKindVM || !g.Running() || !g.Config.AgentEnabled() {
		return "", false
	}

	timeout := r.AgentTimeout
	if timeout == 0 {
		timeout = defaultAgentTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ifaces, err := r.Agent.AgentNetworkInterfaces(actx, g)
	if err != nil {
		slog.Debug("agent interface query failed, falling back",
			"node", g.Node, "vmid", g.VMID, "error", err)
		return "", false
	}

	// IPv4 wins over IPv6; the first usable IPv6 is kept as fallback.
	var fallback string
	for _, iface := range ifaces {
		if strings.HasPrefix(iface.Name, "lo") {
			continue
		}
		for _, addr := range iface.IPAddresses {
			ip, ok := usableAddress(addr.IPAddress)
			if !ok {
				continue
			}
			if ip.Is4() {
				return ip.String(), true
			}
			if fallback == "" {
				fallback = ip.String()
			}
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// configAddress extracts an address from the static network configuration
// (ipconfig*/net* entries). Works for containers and for VMs with
// cloud-init style ipconfig. ipconfig0 is checked first, then the
// remaining entries in sorted key order for determinism.
func configAddress(_ context.Context, g proxmox.Guest) (string, bool) {
	if g.Config == nil || len(g.Config.Net) == 0 {
		return "", false
	}

	if v, ok := g.Config.Net["ipconfig0"]; ok {
		if ip, ok := addressFromEntry(v); ok {
			return ip, true
		}
	}

	keys := make([]string, 0, len(g.Config.Net))
	for k := range g.Config.Net {
		if k == "ipconfig0" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if ip, ok := addressFromEntry(g.Config.Net[k]); ok {
			return ip, true
		}
	}
	return "", false
}

// addressFromEntry parses one key=value config entry like
// "name=eth0,bridge=vmbr0,ip=10.0.0.8/24,gw=10.0.0.1" and returns the ip
// sub-key value. Sentinel tokens (dhcp, auto, manual) are rejected even
// when embedded among other tokens.
func addressFromEntry(entry string) (string, bool) {
	for _, token := range strings.Split(entry, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(token), "=")
		if !found || key != "ip" {
			continue
		}
		value, _, _ = strings.Cut(value, "/")
		value = strings.TrimSpace(value)
		if _, sentinel := ipSentinels[strings.ToLower(value)]; sentinel {
			return "", false
		}
		if ip, ok := usableAddress(value); ok {
			return ip.String(), true
		}
		return "", false
	}
	return "", false
}

// usableAddress validates the string syntactically and rejects loopback
// and link-local addresses of either family.
func usableAddress(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	if addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return netip.Addr{}, false
	}
	return addr, true
}
