// Package log provides nameregistry's structured logging front door: a
// thin, subsystem-scoped wrapper around go.uber.org/zap.
//
// Every package that logs calls Logger("<subsystem>") once at init time
// and keeps the returned *Logger as a package-level var, mirroring the
// teacher's `var log = log.Logger("subsystem")` convention used
// throughout internal/core and internal/realm.
package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger wraps a zap.SugaredLogger scoped to one subsystem.
type logger struct {
	s *zap.SugaredLogger
}

func (l *logger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *logger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *logger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *logger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }

// With returns a child logger with additional structured fields attached
// to every subsequent call.
func (l *logger) With(kv ...interface{}) *logger {
	return &logger{s: l.s.With(kv...)}
}

var (
	cfgOnce sync.Once
	envCfg  *subsystemConfig
)

// Logger returns a logger for the named subsystem (e.g. "registrar",
// "membership", "table"), honoring the NAMEREGISTRY_LOG_LEVEL /
// NAMEREGISTRY_LOG_FORMAT environment variables (parsed once, cached).
func Logger(subsystem string) *logger {
	cfg := configFromEnv()
	level := cfg.levelFor(subsystem)

	scoped := zap.New(zapcore.NewCore(
		zapEncoder(cfg),
		zapcore.AddSync(os.Stderr),
		level,
	), zap.Fields(zap.String("subsystem", subsystem)))

	return &logger{s: scoped.Sugar()}
}

func zapEncoder(cfg *subsystemConfig) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	if cfg.format == formatText {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// logFormat mirrors the teacher's internal/util/logger.LogFormat.
type logFormat int

const (
	formatText logFormat = iota
	formatJSON
)

// subsystemConfig mirrors internal/util/logger.Config: a default level
// plus per-subsystem overrides, parsed from NAMEREGISTRY_LOG_LEVEL in the
// form "subsystem=level,subsystem=level,defaultLevel".
type subsystemConfig struct {
	defaultLevel zapcore.Level
	overrides    map[string]zapcore.Level
	format       logFormat
}

func (c *subsystemConfig) levelFor(subsystem string) zapcore.Level {
	if lvl, ok := c.overrides[subsystem]; ok {
		return lvl
	}
	return c.defaultLevel
}

func configFromEnv() *subsystemConfig {
	cfgOnce.Do(func() {
		envCfg = parseEnvConfig()
	})
	return envCfg
}

func parseEnvConfig() *subsystemConfig {
	cfg := &subsystemConfig{
		defaultLevel: zapcore.InfoLevel,
		overrides:    make(map[string]zapcore.Level),
		format:       formatText,
	}

	if strings.EqualFold(os.Getenv("NAMEREGISTRY_LOG_FORMAT"), "json") {
		cfg.format = formatJSON
	}

	raw := os.Getenv("NAMEREGISTRY_LOG_LEVEL")
	if raw == "" {
		return cfg
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			sub, lvlStr := part[:eq], part[eq+1:]
			if lvl, err := zapcore.ParseLevel(lvlStr); err == nil {
				cfg.overrides[sub] = lvl
			}
			continue
		}
		if lvl, err := zapcore.ParseLevel(part); err == nil {
			cfg.defaultLevel = lvl
		}
	}
	return cfg
}
