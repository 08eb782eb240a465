// Package proxmox implements a read-only client for the Proxmox VE cluster
// API (/api2/json).
//
// The client authenticates once per run, either through the ticket endpoint
// (username@realm plus password) or with a pre-shared API token
// (user@realm!tokenid), and returns an explicit Session handle that every
// subsequent query takes as an argument. There is no package-level state.
//
// Queries cover exactly what inventory discovery needs: cluster node
// listing, per-node guest listings (QEMU and LXC), per-guest configuration
// and live status, and the two QEMU guest agent commands used for address
// and OS resolution. Nothing in this package mutates cluster state.
//
// All requests pass through a client-side rate limiter so a large cluster
// enumeration does not hammer the control plane.
package proxmox
