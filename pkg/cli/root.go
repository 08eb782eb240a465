/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/inventory"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/logging"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/proxmox"
	"github.com/rundeck-plugins/proxmox-node-source/pkg/serializer"
)

const (
	name           = "pvenodes"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Run executes the root command with the given arguments.
func Run(ctx context.Context, args []string) error {
	return rootCmd().Run(ctx, args)
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Generate a node inventory from a Proxmox VE cluster",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Description: `Discover all QEMU virtual machines and LXC containers across a Proxmox VE
cluster and emit them as a resource-model document in YAML, JSON, or XML.

The document goes to stdout by default, which makes the tool usable
directly as a script-based node source; all diagnostics go to stderr.
Every flag can also be set through its RD_CONFIG_* environment variable,
matching the variables a node-source plugin receives for its
configuration properties.

# Authentication

Password login uses the ticket endpoint:

  pvenodes --host pve.example.com --user root@pam --password secret

A user containing "!" is treated as an API token id and sent as a
pre-shared token header instead:

  pvenodes --host pve.example.com --user automation@pve'!'rundeck --password <token-secret>

# Examples

Containers only, as XML, into a file:

  pvenodes --host pve.example.com --user root@pam --password-file /etc/pve.secret \
    --include-vms=false --format xml --output nodes.xml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Usage:    "Proxmox cluster hostname or IP",
				Sources:  cli.EnvVars("RD_CONFIG_HOST"),
				Required: true,
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Proxmox API port",
				Sources: cli.EnvVars("RD_CONFIG_PORT"),
				Value:   8006,
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "API user with realm (root@pam) or token id (svc@pve!rundeck)",
				Sources:  cli.EnvVars("RD_CONFIG_USER"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Password, or token secret when --user names a token",
				Sources: cli.EnvVars("RD_CONFIG_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "password-file",
				Usage:   "File holding the password; used when --password is not set",
				Sources: cli.EnvVars("RD_CONFIG_PASSWORD_FILE"),
			},
			&cli.BoolFlag{
				Name:    "verify-ssl",
				Usage:   "Verify the cluster TLS certificate",
				Sources: cli.EnvVars("RD_CONFIG_VERIFY_SSL"),
			},
			&cli.BoolFlag{
				Name:    "include-vms",
				Usage:   "Include QEMU virtual machines",
				Sources: cli.EnvVars("RD_CONFIG_INCLUDE_VMS"),
				Value:   true,
			},
			&cli.BoolFlag{
				Name:    "include-containers",
				Usage:   "Include LXC containers",
				Sources: cli.EnvVars("RD_CONFIG_INCLUDE_CONTAINERS"),
				Value:   true,
			},
			&cli.StringFlag{
				Name:    "username",
				Usage:   "Default login user stamped on every node record",
				Sources: cli.EnvVars("RD_CONFIG_USERNAME"),
				Value:   "root",
			},
			&cli.StringFlag{
				Name:    "format",
				Usage:   "Output format: yaml, json, xml",
				Sources: cli.EnvVars("RD_CONFIG_FORMAT"),
				Value:   string(serializer.FormatYAML),
			},
			&cli.StringFlag{
				Name:    "output",
				Usage:   "Output file path (default: stdout)",
				Sources: cli.EnvVars("RD_CONFIG_OUTPUT"),
			},
			&cli.DurationFlag{
				Name:    "agent-timeout",
				Usage:   "Timeout for each guest agent query",
				Sources: cli.EnvVars("RD_CONFIG_AGENT_TIMEOUT"),
				Value:   3 * time.Second,
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Usage:   "Parallel guest extraction limit",
				Sources: cli.EnvVars("RD_CONFIG_CONCURRENCY"),
				Value:   8,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("RD_CONFIG_LOG_LEVEL", "LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	format := serializer.Format(cmd.String("format"))
	if format.IsUnknown() {
		return errors.Newf(errors.ErrCodeSerializationFailed,
			"unknown output format %q, supported: %v", format, serializer.SupportedFormats())
	}

	secret, err := resolveSecret(cmd.String("password"), cmd.String("password-file"))
	if err != nil {
		return err
	}

	client := proxmox.NewClient(proxmox.Config{
		Host:      cmd.String("host"),
		Port:      int(cmd.Int("port")),
		User:      cmd.String("user"),
		Secret:    secret,
		VerifySSL: cmd.Bool("verify-ssl"),
	})

	builder := &inventory.Builder{
		Client:            client,
		IncludeVMs:        cmd.Bool("include-vms"),
		IncludeContainers: cmd.Bool("include-containers"),
		Username:          cmd.String("username"),
		AgentTimeout:      cmd.Duration("agent-timeout"),
		Concurrency:       int(cmd.Int("concurrency")),
	}

	inv, err := builder.Build(ctx)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeAuthFailed {
			printAuthHints(cmd.String("user"))
		}
		return err
	}

	writer := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			slog.Error("failed to close output", "error", cerr)
		}
	}()
	return writer.Serialize(inv)
}

// resolveSecret returns the API secret: the flag value when set, otherwise
// the trimmed contents of the password file.
func resolveSecret(password, passwordFile string) (string, error) {
	if password != "" {
		return password, nil
	}
	if passwordFile == "" {
		return "", errors.New(errors.ErrCodeAuthFailed, "no password or password file provided")
	}
	data, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAuthFailed, "failed to read password file", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", errors.Newf(errors.ErrCodeAuthFailed, "password file %s is empty", passwordFile)
	}
	return secret, nil
}

// printAuthHints writes troubleshooting guidance to stderr after a failed
// authentication. The hints differ for token and ticket logins.
func printAuthHints(user string) {
	fmt.Fprintln(os.Stderr, "Authentication failed. Check the following:")
	if strings.Contains(user, "!") {
		fmt.Fprintln(os.Stderr, "  - the token id matches user@realm!tokenid exactly")
		fmt.Fprintln(os.Stderr, "  - the secret is the token value shown at creation, not the token id")
		fmt.Fprintln(os.Stderr, "  - the token grants at least Sys.Audit and VM.Audit")
	} else {
		fmt.Fprintln(os.Stderr, "  - the user includes its realm suffix (root@pam, svc@pve)")
		fmt.Fprintln(os.Stderr, "  - the password is valid for that realm")
	}
	fmt.Fprintln(os.Stderr, "  - the host and port point at the cluster API (default 8006)")
}
