package config

import "time"

// Default tuning values, mirroring the teacher's internal/config/defaults.go
// grouping of related constants by concern.
const (
	// DefaultMailboxSize bounds the registrar's inbound channel.
	DefaultMailboxSize = 256

	// DefaultBroadcastTimeout is the default RegistrarConfig.BroadcastTimeout.
	DefaultBroadcastTimeout = 2 * time.Second

	// DefaultRecentlyDisconnectedTTL is the anti-flap protection window.
	DefaultRecentlyDisconnectedTTL = 30 * time.Second

	// DefaultRecentlyDisconnectedCap bounds the anti-flap LRU.
	DefaultRecentlyDisconnectedCap = 1024

	// DefaultDialTimeout bounds outbound websocket dials.
	DefaultDialTimeout = 5 * time.Second

	// DefaultMetricsAddr is the default Prometheus exporter bind address.
	DefaultMetricsAddr = ":9090"
)

func defaultRegistrarConfig() RegistrarConfig {
	return RegistrarConfig{
		MailboxSize:      DefaultMailboxSize,
		BroadcastTimeout: DefaultBroadcastTimeout,
	}
}

func defaultMembershipConfig() MembershipConfig {
	return MembershipConfig{
		RecentlyDisconnectedTTL: DefaultRecentlyDisconnectedTTL,
		RecentlyDisconnectedCap: DefaultRecentlyDisconnectedCap,
	}
}

func defaultTransportConfig() TransportConfig {
	return TransportConfig{
		ListenAddr:  "127.0.0.1:0",
		DialTimeout: DefaultDialTimeout,
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    false,
		ListenAddr: DefaultMetricsAddr,
	}
}
