package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nameregistry/nameregistry/internal/config"
)

// fileConfig is the JSON-friendly mirror of config.Config, following the
// teacher's cmd/dep2p/config.go split between a wire-shaped file format
// and the internal, fully-resolved Config it produces.
type fileConfig struct {
	NodeID string `json:"node_id"`

	Registrar *struct {
		MailboxSize      int    `json:"mailbox_size"`
		BroadcastTimeout string `json:"broadcast_timeout"`
	} `json:"registrar"`

	Membership *struct {
		RecentlyDisconnectedTTL string `json:"recently_disconnected_ttl"`
		RecentlyDisconnectedCap int    `json:"recently_disconnected_cap"`
	} `json:"membership"`

	Transport *struct {
		ListenAddr  string `json:"listen_addr"`
		DialTimeout string `json:"dial_timeout"`
	} `json:"transport"`

	Metrics *struct {
		Enabled    bool   `json:"enabled"`
		ListenAddr string `json:"listen_addr"`
	} `json:"metrics"`

	Peers []string `json:"peers"`
}

// loadConfigFile reads a JSON config file and merges it onto base,
// the way the teacher's loadConfigFile layers a file over config.NewConfig().
func loadConfigFile(path string, base *config.Config) (*config.Config, []string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is an operator-supplied flag, expected
	if err != nil {
		return nil, nil, err
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.NodeID != "" {
		base.NodeID = fc.NodeID
	}
	if fc.Registrar != nil {
		if fc.Registrar.MailboxSize > 0 {
			base.Registrar.MailboxSize = fc.Registrar.MailboxSize
		}
		if d, err := parseDurationField("registrar.broadcast_timeout", fc.Registrar.BroadcastTimeout); err != nil {
			return nil, nil, err
		} else if d > 0 {
			base.Registrar.BroadcastTimeout = d
		}
	}
	if fc.Membership != nil {
		if fc.Membership.RecentlyDisconnectedCap > 0 {
			base.Membership.RecentlyDisconnectedCap = fc.Membership.RecentlyDisconnectedCap
		}
		if d, err := parseDurationField("membership.recently_disconnected_ttl", fc.Membership.RecentlyDisconnectedTTL); err != nil {
			return nil, nil, err
		} else if d > 0 {
			base.Membership.RecentlyDisconnectedTTL = d
		}
	}
	if fc.Transport != nil {
		if fc.Transport.ListenAddr != "" {
			base.Transport.ListenAddr = fc.Transport.ListenAddr
		}
		if d, err := parseDurationField("transport.dial_timeout", fc.Transport.DialTimeout); err != nil {
			return nil, nil, err
		} else if d > 0 {
			base.Transport.DialTimeout = d
		}
	}
	if fc.Metrics != nil {
		base.Metrics.Enabled = fc.Metrics.Enabled
		if fc.Metrics.ListenAddr != "" {
			base.Metrics.ListenAddr = fc.Metrics.ListenAddr
		}
	}

	return base, fc.Peers, nil
}

func parseDurationField(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return d, nil
}
