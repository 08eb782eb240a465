// Package cli implements the command-line interface for the pvenodes
// node-source tool.
//
// # Overview
//
// pvenodes discovers every QEMU virtual machine and LXC container in a
// Proxmox VE cluster and emits them as a resource-model document. The
// document is written to stdout (or --output) in YAML, JSON, or XML; all
// logs and diagnostics go to stderr so the document stream stays clean.
//
// # Usage
//
//	pvenodes --host pve.example.com --user root@pam --password secret
//	pvenodes --host pve.example.com --user svc@pve'!'rundeck --password-file /etc/token \
//	  --include-vms=false --format json --output nodes.json
//
// # Configuration
//
// Every flag can also be supplied through an RD_CONFIG_* environment
// variable (RD_CONFIG_HOST, RD_CONFIG_USER, ...), matching the variables
// handed to a script-based node-source plugin for its configuration
// properties. Flags win over environment variables.
//
// # Exit Codes
//
//	0  Success
//	1  Any failure (authentication, enumeration, serialization)
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized
// packages:
//   - pkg/proxmox - cluster API client
//   - pkg/inventory - discovery and record extraction
//   - pkg/serializer - output formatting
//   - pkg/logging - structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/rundeck-plugins/proxmox-node-source/pkg/cli.version=1.0.0'"
package cli
