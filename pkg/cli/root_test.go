package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
)

func TestResolveSecret(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(secretFile, []byte("s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		password     string
		passwordFile string
		want         string
		wantErr      bool
	}{
		{
			name:     "flag value wins",
			password: "direct",
			want:     "direct",
		},
		{
			name:         "flag value wins over file",
			password:     "direct",
			passwordFile: secretFile,
			want:         "direct",
		},
		{
			name:         "file contents trimmed",
			passwordFile: secretFile,
			want:         "s3cret",
		},
		{
			name:    "neither set",
			wantErr: true,
		},
		{
			name:         "missing file",
			passwordFile: filepath.Join(t.TempDir(), "nope"),
			wantErr:      true,
		},
		{
			name:         "empty file",
			passwordFile: emptyFile,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSecret(tt.password, tt.passwordFile)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.CodeOf(err) != errors.ErrCodeAuthFailed {
					t.Errorf("unexpected error code: %s", errors.CodeOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	err := Run(context.Background(), []string{name,
		"--host", "pve.example.com",
		"--user", "root@pam",
		"--password", "secret",
		"--format", "csv",
	})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "csv") {
		t.Errorf("error should name the rejected format: %v", err)
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := rootCmd()

	for _, flagName := range []string{
		"host", "port", "user", "password", "password-file", "verify-ssl",
		"include-vms", "include-containers", "username", "format", "output",
		"agent-timeout", "concurrency", "log-level",
	} {
		found := false
		for _, f := range cmd.Flags {
			for _, n := range f.Names() {
				if n == flagName {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("flag %q not defined", flagName)
		}
	}
}
