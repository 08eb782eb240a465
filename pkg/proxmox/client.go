/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rundeck-plugins/proxmox-node-source/pkg/errors"
)

const (
	defaultPort      = 8006
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 25 // requests per second against the cluster API
	defaultRateBurst = 50
)

// Config holds the connection settings for a cluster API client.
type Config struct {
	// Host is the cluster hostname or IP.
	Host string
	// Port is the API port; 0 means the Proxmox default 8006.
	Port int
	// User is the API user with realm suffix (root@pam) or a full token id
	// (automation@pve!rundeck).
	User string
	// Secret is the password, or the token value when User names a token.
	Secret string
	// VerifySSL enables TLS certificate verification. Proxmox clusters
	// commonly run with self-signed certificates, so this defaults off.
	VerifySSL bool
	// Timeout bounds each API request; 0 means 30s.
	Timeout time.Duration
	// RateLimit caps requests per second; 0 means 25.
	RateLimit rate.Limit
}

// Client issues read-only queries against the Proxmox cluster API
// (/api2/json). It is safe for concurrent use.
type Client struct {
	baseURL string
	user    string
	secret  string
	http    *http.Client
	limiter *rate.Limiter
}

// Session is the authenticated handle returned by Authenticate. It carries
// either a login ticket plus CSRF token, or a pre-shared API token header.
// A session is created once per run and passed explicitly to every query.
type Session struct {
	ticket string
	csrf   string
	token  string
}

// NewClient creates a cluster API client from the given configuration.
func NewClient(cfg Config) *Client {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = defaultRateLimit
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifySSL}, //nolint:gosec
	}

	return &Client{
		baseURL: fmt.Sprintf("https://%s:%d/api2/json", cfg.Host, port),
		user:    cfg.User,
		secret:  cfg.Secret,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(limit, defaultRateBurst),
	}
}

// Authenticate establishes a session against the cluster API. Users that
// name an API token (user@realm!tokenid) authenticate via header; everyone
// else goes through the ticket endpoint. The session is smoke-tested with
// GET /version so a bad endpoint fails here rather than mid-enumeration.
func (c *Client) Authenticate(ctx context.Context) (*Session, error) {
	var s *Session

	if strings.Contains(c.user, "!") {
		s = &Session{token: fmt.Sprintf("PVEAPIToken=%s=%s", c.user, c.secret)}
	} else {
		form := url.Values{}
		form.Set("username", c.user)
		form.Set("password", c.secret)

		var ticket struct {
			Ticket string `json:"ticket"`
			CSRF   string `json:"CSRFPreventionToken"`
		}
		if err := c.do(ctx, nil, http.MethodPost, "/access/ticket", form, &ticket); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAuthFailed, "failed to obtain API ticket", err)
		}
		s = &Session{ticket: ticket.Ticket, csrf: ticket.CSRF}
	}

	v, err := c.Version(ctx, s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuthFailed, "connection check failed", err)
	}
	slog.Debug("authenticated against cluster API", "version", v.Version, "release", v.Release)

	return s, nil
}

// Version returns the cluster API version.
func (c *Client) Version(ctx context.Context, s *Session) (*VersionInfo, error) {
	var out VersionInfo
	if err := c.do(ctx, s, http.MethodGet, "/version", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNodes returns the cluster members in API order.
func (c *Client) ListNodes(ctx context.Context, s *Session) ([]Node, error) {
	var out []Node
	if err := c.do(ctx, s, http.MethodGet, "/nodes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListVMs returns the QEMU guest summaries on one node in API order.
func (c *Client) ListVMs(ctx context.Context, s *Session, node string) ([]GuestSummary, error) {
	var out []GuestSummary
	if err := c.do(ctx, s, http.MethodGet, "/nodes/"+url.PathEscape(node)+"/qemu", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListContainers returns the LXC guest summaries on one node in API order.
func (c *Client) ListContainers(ctx context.Context, s *Session, node string) ([]GuestSummary, error) {
	var out []GuestSummary
	if err := c.do(ctx, s, http.MethodGet, "/nodes/"+url.PathEscape(node)+"/lxc", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GuestConfig fetches the configuration snapshot for one guest.
func (c *Client) GuestConfig(ctx context.Context, s *Session, g Guest) (*GuestConfig, error) {
	var out GuestConfig
	if err := c.do(ctx, s, http.MethodGet, c.guestPath(g, "/config"), nil, &out); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeGuestFetchFailed,
			"failed to fetch guest config", err,
			map[string]any{"node": g.Node, "vmid": g.VMID})
	}
	return &out, nil
}

// GuestStatus fetches live status for one guest.
func (c *Client) GuestStatus(ctx context.Context, s *Session, g Guest) (*GuestStatus, error) {
	var out GuestStatus
	if err := c.do(ctx, s, http.MethodGet, c.guestPath(g, "/status/current"), nil, &out); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeGuestFetchFailed,
			"failed to fetch guest status", err,
			map[string]any{"node": g.Node, "vmid": g.VMID})
	}
	return &out, nil
}

// AgentOSInfo queries the QEMU guest agent for OS release information.
// Only meaningful for running VMs with the agent enabled.
func (c *Client) AgentOSInfo(ctx context.Context, s *Session, g Guest) (*OSInfo, error) {
	var out struct {
		Result *OSInfo `json:"result"`
	}
	if err := c.do(ctx, s, http.MethodGet, c.guestPath(g, "/agent/get-osinfo"), nil, &out); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeAgentUnavailable,
			"guest agent get-osinfo failed", err,
			map[string]any{"node": g.Node, "vmid": g.VMID})
	}
	if out.Result == nil {
		return nil, errors.New(errors.ErrCodeAgentUnavailable, "guest agent returned no OS info")
	}
	return out.Result, nil
}

// AgentNetworkInterfaces queries the QEMU guest agent for interface
// addresses. Only meaningful for running VMs with the agent enabled.
func (c *Client) AgentNetworkInterfaces(ctx context.Context, s *Session, g Guest) ([]NetworkInterface, error) {
	var out struct {
		Result []NetworkInterface `json:"result"`
	}
	if err := c.do(ctx, s, http.MethodGet, c.guestPath(g, "/agent/network-get-interfaces"), nil, &out); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeAgentUnavailable,
			"guest agent network-get-interfaces failed", err,
			map[string]any{"node": g.Node, "vmid": g.VMID})
	}
	return out.Result, nil
}

func (c *Client) guestPath(g Guest, suffix string) string {
	return fmt.Sprintf("/nodes/%s/%s/%d%s", url.PathEscape(g.Node), g.Kind, g.VMID, suffix)
}

// do performs one rate-limited API request and decodes the {"data": ...}
// envelope every /api2/json response carries.
func (c *Client) do(ctx context.Context, s *Session, method, path string, form url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s != nil {
		switch {
		case s.token != "":
			req.Header.Set("Authorization", s.token)
		case s.ticket != "":
			req.AddCookie(&http.Cookie{Name: "PVEAuthCookie", Value: s.ticket})
			if method != http.MethodGet {
				req.Header.Set("CSRFPreventionToken", s.csrf)
			}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The status line carries the API's reason phrase (e.g.
		// "401 authentication failure"); the body is rarely more useful.
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%s %s: empty response data", method, path)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}
