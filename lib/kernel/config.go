// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/kernel/lib/kernel/wire"
)

// Transport is the socket transport named by a connection file.
type Transport string

const (
	TCP Transport = "tcp"
	IPC Transport = "ipc"
)

// DefaultIP is used when a connection file has no ip field.
const DefaultIP = "127.0.0.1"

// ConnectionConfig describes where each channel listens and how
// messages are signed. It is immutable once loaded.
type ConnectionConfig struct {
	Transport Transport
	// IP is the bind address for tcp, or the path prefix for ipc.
	IP string
	// Ports holds one port per role, indexed by [Role].
	Ports [NumRoles]int
	// SignatureScheme names the HMAC digest, e.g. "hmac-sha256".
	SignatureScheme string
	// Key is the HMAC key. Empty disables signing and verification.
	Key string
	// KernelName is informational and may be empty.
	KernelName string
}

// Port returns the configured port for role.
func (c *ConnectionConfig) Port(role Role) int {
	return c.Ports[role]
}

// Endpoint returns the transport address for role: "tcp://ip:port"
// or "ipc://ip-port".
func (c *ConnectionConfig) Endpoint(role Role) string {
	port := c.Ports[role]
	if c.Transport == IPC {
		return fmt.Sprintf("ipc://%s-%d", c.IP, port)
	}
	return "tcp://" + net.JoinHostPort(c.IP, strconv.Itoa(port))
}

// PortMap returns the port of every role keyed by [Role.PortKey].
func (c *ConnectionConfig) PortMap() map[string]int {
	ports := make(map[string]int, NumRoles)
	for _, role := range Roles {
		ports[role.PortKey()] = c.Ports[role]
	}
	return ports
}

// Signer returns the message signer for this configuration.
func (c *ConnectionConfig) Signer() (*wire.Signer, error) {
	signer, err := wire.NewSigner(c.SignatureScheme, c.Key)
	if err != nil {
		return nil, &ConfigError{Field: "signature_scheme", Err: err}
	}
	return signer, nil
}

// Validate checks the configuration. Every failure is a *ConfigError.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	switch c.Transport {
	case TCP, IPC:
	default:
		errs = append(errs, &ConfigError{
			Field: "transport",
			Err:   fmt.Errorf("must be %q or %q, got %q", TCP, IPC, c.Transport),
		})
	}
	if c.IP == "" {
		errs = append(errs, &ConfigError{Field: "ip", Err: errors.New("is empty")})
	}

	seen := make(map[int]Role, NumRoles)
	for _, role := range Roles {
		port := c.Ports[role]
		if port <= 0 || port > 65535 {
			errs = append(errs, &ConfigError{
				Field: role.PortKey(),
				Err:   fmt.Errorf("port %d out of range 1-65535", port),
			})
			continue
		}
		if other, duplicate := seen[port]; duplicate {
			errs = append(errs, &ConfigError{
				Field: role.PortKey(),
				Err:   fmt.Errorf("port %d already used by %s", port, other),
			})
			continue
		}
		seen[port] = role
	}

	if _, err := c.Signer(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// connectionFile is the on-disk JSON shape. Ports are pointers so a
// missing field is distinguishable from zero.
type connectionFile struct {
	Transport       string `json:"transport"`
	IP              string `json:"ip"`
	ShellPort       *int   `json:"shell_port"`
	IOPubPort       *int   `json:"iopub_port"`
	StdinPort       *int   `json:"stdin_port"`
	ControlPort     *int   `json:"control_port"`
	HeartbeatPort   *int   `json:"hb_port"`
	SignatureScheme string `json:"signature_scheme"`
	Key             string `json:"key"`
	KernelName      string `json:"kernel_name"`
}

// ParseConnectionFile decodes a connection file. Comments and trailing
// commas are accepted. The result is validated.
func ParseConnectionFile(data []byte) (*ConnectionConfig, error) {
	var file connectionFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("parsing connection file: %w", err)}
	}

	if file.Transport == "" {
		return nil, &ConfigError{Field: "transport", Err: errors.New("is required")}
	}
	config := &ConnectionConfig{
		Transport:       Transport(file.Transport),
		IP:              file.IP,
		SignatureScheme: file.SignatureScheme,
		Key:             file.Key,
		KernelName:      file.KernelName,
	}
	if config.IP == "" {
		config.IP = DefaultIP
	}

	ports := [NumRoles]*int{
		Shell:     file.ShellPort,
		IOPub:     file.IOPubPort,
		Stdin:     file.StdinPort,
		Control:   file.ControlPort,
		Heartbeat: file.HeartbeatPort,
	}
	for _, role := range Roles {
		if ports[role] == nil {
			return nil, &ConfigError{Field: role.PortKey(), Err: errors.New("is required")}
		}
		config.Ports[role] = *ports[role]
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConnectionFile reads and parses the connection file at path.
func LoadConnectionFile(path string) (*ConnectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("reading connection file: %w", err)}
	}
	return ParseConnectionFile(data)
}
