// Package config holds nameregistry's internal configuration structures,
// their defaults and validation, following the teacher's
// internal/config/config.go + defaults.go + validator.go split.
package config

import (
	"fmt"
	"time"
)

// Config is the fully-resolved configuration for one node's registrar.
type Config struct {
	// NodeID is this node's identity in the cluster total order.
	NodeID string

	// Registrar holds the mailbox / broadcast tuning knobs.
	Registrar RegistrarConfig

	// Membership holds peer-set and anti-flap tuning.
	Membership MembershipConfig

	// Transport holds the websocket reference transport's settings.
	Transport TransportConfig

	// Metrics holds the Prometheus exporter's settings.
	Metrics MetricsConfig
}

// RegistrarConfig tunes the registrar actor.
type RegistrarConfig struct {
	// MailboxSize bounds the registrar's inbound message channel.
	MailboxSize int

	// BroadcastTimeout is carried in the configuration but not read by
	// the registrar: broadcasts go through Transport.SendTo, a
	// non-blocking enqueue, so no send waits for it.
	BroadcastTimeout time.Duration
}

// MembershipConfig tunes peer-set bookkeeping.
type MembershipConfig struct {
	// RecentlyDisconnectedTTL is how long a departed peer is remembered
	// to protect against a stale notification racing a reconnect,
	// mirroring internal/realm/member's anti-flap window.
	RecentlyDisconnectedTTL time.Duration

	// RecentlyDisconnectedCap bounds the LRU tracking departed peers.
	RecentlyDisconnectedCap int
}

// TransportConfig tunes the reference websocket transport.
type TransportConfig struct {
	// ListenAddr is the local address the websocket listener binds to.
	ListenAddr string

	// DialTimeout bounds connecting to a peer's registrar endpoint.
	DialTimeout time.Duration
}

// MetricsConfig tunes the Prometheus exporter.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	Enabled bool

	// ListenAddr is the address the metrics HTTP server binds to.
	ListenAddr string
}

// DefaultConfig returns a Config with the teacher-style sane defaults
// (see defaults.go) filled in, requiring only NodeID to be set.
func DefaultConfig(nodeID string) *Config {
	return &Config{
		NodeID:     nodeID,
		Registrar:  defaultRegistrarConfig(),
		Membership: defaultMembershipConfig(),
		Transport:  defaultTransportConfig(),
		Metrics:    defaultMetricsConfig(),
	}
}

// Validate reports whether c is well-formed, following the teacher's
// internal/config/validator.go pattern of aggregating field checks.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("config: NodeID must not be empty")
	}
	if c.Registrar.MailboxSize <= 0 {
		return fmt.Errorf("config: Registrar.MailboxSize must be positive")
	}
	if c.Membership.RecentlyDisconnectedCap <= 0 {
		return fmt.Errorf("config: Membership.RecentlyDisconnectedCap must be positive")
	}
	if c.Transport.ListenAddr == "" {
		return fmt.Errorf("config: Transport.ListenAddr must not be empty")
	}
	return nil
}
