// Package main provides the registrard command-line entry point: one
// node's registrar, dialed to its peers and left running until signaled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nameregistry/nameregistry"
	"github.com/nameregistry/nameregistry/internal/config"
	"github.com/nameregistry/nameregistry/pkg/lib/log"
)

var logger = log.Logger("registrard")

// Runtime parameters: "this run" overrides. Persistent per-node settings
// (mailbox size, anti-flap window, dial timeout, ...) belong in
// the --config file instead, mirroring the teacher's cmd/dep2p boundary
// between flags and config.json.
var (
	nodeID      = flag.String("node-id", "", "this node's identity (required unless set in --config)")
	listenAddr  = flag.String("listen", "", "address the registrar's websocket transport binds to")
	configFile  = flag.String("config", "", "path to a JSON config file")
	peersFlag   = flag.String("peers", "", "comma-separated addresses of peers to dial at startup")
	metrics     = flag.Bool("metrics", false, "serve /metrics over HTTP")
	metricsAddr = flag.String("metrics-addr", "", "address the metrics server binds to")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "registrard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println("registrard (nameregistry)")
		return nil
	}

	cfg, peers, err := buildConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	reg, err := nameregistry.New(cfg)
	if err != nil {
		return fmt.Errorf("start registrar: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Warn("error during shutdown", "error", err)
		}
	}()

	logger.Info("registrar started", "node_id", cfg.NodeID, "listen", cfg.Transport.ListenAddr)

	dialCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dialed := 0
	for _, addr := range peers {
		if err := reg.Dial(dialCtx, addr); err != nil {
			logger.Warn("failed to dial peer", "addr", addr, "error", err)
			continue
		}
		dialed++
		logger.Info("dialed peer", "addr", addr)
	}

	fmt.Printf("registrar %s listening on %s, %d peer(s) dialed\n", cfg.NodeID, cfg.Transport.ListenAddr, dialed)
	fmt.Println("press Ctrl+C to exit")
	waitForSignal()
	fmt.Println("shutting down...")
	return nil
}

// buildConfig layers flags over an optional --config file over the
// package defaults, following the teacher's priority order: flags win,
// then the config file, then DefaultConfig's baked-in defaults.
func buildConfig() (*config.Config, []string, error) {
	id := *nodeID
	if id == "" && *configFile == "" {
		return nil, nil, fmt.Errorf("--node-id is required (or set node_id in --config)")
	}

	cfg := config.DefaultConfig(id)
	var peers []string

	if *configFile != "" {
		var err error
		cfg, peers, err = loadConfigFile(*configFile, cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	if isFlagSet("node-id") {
		cfg.NodeID = *nodeID
	}
	if isFlagSet("listen") {
		cfg.Transport.ListenAddr = *listenAddr
	}
	if isFlagSet("metrics") {
		cfg.Metrics.Enabled = *metrics
	}
	if isFlagSet("metrics-addr") && *metricsAddr != "" {
		cfg.Metrics.ListenAddr = *metricsAddr
	}
	if isFlagSet("peers") {
		peers = splitAndTrim(*peersFlag, ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, peers, nil
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}
