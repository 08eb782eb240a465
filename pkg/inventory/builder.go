/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/proxmox"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/resolver"
)

const defaultConcurrency = 8

// ClusterAPI is the cluster client surface the builder consumes. The
// concrete implementation is proxmox.Client; tests substitute a fake.
type ClusterAPI interface {
	Authenticate(ctx context.Context) (*proxmox.Session, error)
	ListNodes(ctx context.Context, s *proxmox.Session) ([]proxmox.Node, error)
	ListVMs(ctx context.Context, s *proxmox.Session, node string) ([]proxmox.GuestSummary, error)
	ListContainers(ctx context.Context, s *proxmox.Session, node string) ([]proxmox.GuestSummary, error)
	GuestConfig(ctx context.Context, s *proxmox.Session, g proxmox.Guest) (*proxmox.GuestConfig, error)
	GuestStatus(ctx context.Context, s *proxmox.Session, g proxmox.Guest) (*proxmox.GuestStatus, error)
	AgentOSInfo(ctx context.Context, s *proxmox.Session, g proxmox.Guest) (*proxmox.OSInfo, error)
	AgentNetworkInterfaces(ctx context.Context, s *proxmox.Session, g proxmox.Guest) ([]proxmox.NetworkInterface, error)
}

// Builder orchestrates one discovery run: authenticate, enumerate guests
// across all cluster nodes, extract a record per included guest, and
// assemble the ordered inventory. Authentication and enumeration failures
// abort the run; per-guest failures degrade the affected record.
type Builder struct {
	// Client issues the cluster API queries.
	Client ClusterAPI
	// IncludeVMs includes QEMU guests in the inventory.
	IncludeVMs bool
	// IncludeContainers includes LXC guests in the inventory.
	IncludeContainers bool
	// Username is the default login user stamped on every record.
	Username string
	// AgentTimeout bounds each guest agent query.
	AgentTimeout time.Duration
	// Concurrency caps parallel per-guest extraction. Zero means 8.
	Concurrency int
}

// sessionAgent binds the cluster client and the run session into the
// resolver-facing agent interface.
type sessionAgent struct {
	api     ClusterAPI
	session *proxmox.Session
}

func (a sessionAgent) AgentNetworkInterfaces(ctx context.Context, g proxmox.Guest) ([]proxmox.NetworkInterface, error) {
	return a.api.AgentNetworkInterfaces(ctx, a.session, g)
}

func (a sessionAgent) AgentOSInfo(ctx context.Context, g proxmox.Guest) (*proxmox.OSInfo, error) {
	return a.api.AgentOSInfo(ctx, a.session, g)
}

// Build runs the full discovery pipeline and returns the materialized
// inventory. The returned inventory preserves cluster enumeration order
// regardless of extraction concurrency.
func (b *Builder) Build(ctx context.Context) (*Inventory, error) {
	log := slog.With("run_id", uuid.NewString())

	start := time.Now()
	outcome := "success"
	defer func() {
		discoveryDuration.Observe(time.Since(start).Seconds())
		discoveryTotal.WithLabelValues(outcome).Inc()
	}()

	session, err := b.Client.Authenticate(ctx)
	if err != nil {
		outcome = "auth_error"
		return nil, err
	}
	log.Debug("authenticated against cluster")

	guests, err := b.enumerate(ctx, log, session)
	if err != nil {
		outcome = "enumeration_error"
		return nil, err
	}
	log.Info("guest enumeration complete", "guests", len(guests))

	agent := sessionAgent{api: b.Client, session: session}
	ipResolver := &resolver.IPResolver{Agent: agent, AgentTimeout: b.AgentTimeout}
	osDetector := &resolver.OSDetector{Agent: agent, AgentTimeout: b.AgentTimeout}

	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	// Extraction runs in parallel but records land at their enumeration
	// index: output order is a contract, not a concurrency accident.
	records := make([]NodeRecord, len(guests))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, guest := range guests {
		eg.Go(func() error {
			records[i] = b.extractGuest(gctx, log, session, ipResolver, osDetector, guest)
			return nil
		})
	}
	// Extraction degrades instead of failing, so only cancellation can
	// surface here.
	if err := eg.Wait(); err != nil {
		outcome = "canceled"
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		outcome = "canceled"
		return nil, err
	}

	dedupeNames(records)

	inventoryNodeCount.Set(float64(len(records)))
	log.Info("inventory built", "nodes", len(records), "elapsed", time.Since(start))

	return &Inventory{Nodes: records}, nil
}

// enumerate lists every included guest across all cluster nodes, in node
// order then per-node API order, VMs before containers. Any listing
// failure is fatal: a partial enumeration would silently drop hosts.
func (b *Builder) enumerate(ctx context.Context, log *slog.Logger, s *proxmox.Session) ([]proxmox.Guest, error) {
	nodes, err := b.Client.ListNodes(ctx, s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEnumerationFailed, "failed to list cluster nodes", err)
	}

	var guests []proxmox.Guest
	for _, node := range nodes {
		if b.IncludeVMs {
			vms, err := b.Client.ListVMs(ctx, s, node.Node)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeEnumerationFailed,
					fmt.Sprintf("failed to list VMs on node %s", node.Node), err)
			}
			for _, vm := range vms {
				guests = append(guests, summaryToGuest(proxmox.GuestKindVM, node.Node, vm))
			}
		}
		if b.IncludeContainers {
			cts, err := b.Client.ListContainers(ctx, s, node.Node)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeEnumerationFailed,
					fmt.Sprintf("failed to list containers on node %s", node.Node), err)
			}
			for _, ct := range cts {
				guests = append(guests, summaryToGuest(proxmox.GuestKindContainer, node.Node, ct))
			}
		}
		log.Debug("node enumerated", "node", node.Node)
	}
	return guests, nil
}

// extractGuest fetches per-guest data, resolves address and OS fields, and
// extracts the record. Every failure here is recoverable: the record is
// emitted with the affected fields omitted.
func (b *Builder) extractGuest(ctx context.Context, log *slog.Logger, s *proxmox.Session,
	ipResolver *resolver.IPResolver, osDetector *resolver.OSDetector, guest proxmox.Guest) NodeRecord {

	extractStart := time.Now()
	defer func() {
		guestExtractionDuration.WithLabelValues(string(guest.Kind)).Observe(time.Since(extractStart).Seconds())
	}()

	cfg, err := b.Client.GuestConfig(ctx, s, guest)
	if err != nil {
		log.Debug("guest config fetch failed, degrading record",
			"node", guest.Node, "vmid", guest.VMID, "error", err)
	}
	guest.Config = cfg

	var status *proxmox.GuestStatus
	if guest.Running() {
		status, err = b.Client.GuestStatus(ctx, s, guest)
		if err != nil {
			log.Debug("guest status fetch failed, degrading record",
				"node", guest.Node, "vmid", guest.VMID, "error", err)
			status = nil
		}
	}

	return Extract(Extraction{
		Guest:    guest,
		Status:   status,
		IP:       ipResolver.Resolve(ctx, guest),
		OSFields: osDetector.Detect(ctx, guest),
		Username: b.Username,
	})
}

// dedupeNames makes record names unique by suffixing later collisions
// with the guest's vmid. Guest IDs are unique within a cluster, names are
// only derived, so collisions are possible and must be disambiguated.
func dedupeNames(records []NodeRecord) {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		name := records[i].Name
		if _, dup := seen[name]; dup {
			if vmid, ok := records[i].Attribute("proxmox_vmid"); ok {
				name = fmt.Sprintf("%s-%s", name, vmid)
				records[i].Name = name
			}
		}
		seen[name] = struct{}{}
	}
}

func summaryToGuest(kind proxmox.GuestKind, node string, s proxmox.GuestSummary) proxmox.Guest {
	return proxmox.Guest{
		Kind:    kind,
		Node:    node,
		VMID:    int(s.VMID),
		Name:    s.Name,
		Status:  s.Status,
		MaxMem:  s.MaxMem,
		MaxDisk: s.MaxDisk,
	}
}
