// Package nameregistry is the top-level entry point: it assembles one
// node's registrar out of the internal modules via go.uber.org/fx,
// mirroring the teacher's top-level dep2p.go/fx.go split between a thin
// public facade and a buildFxApp wiring function.
package nameregistry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/nameregistry/nameregistry/internal/config"
	"github.com/nameregistry/nameregistry/internal/eventbus"
	"github.com/nameregistry/nameregistry/internal/liveness"
	"github.com/nameregistry/nameregistry/internal/membership"
	"github.com/nameregistry/nameregistry/internal/metrics"
	"github.com/nameregistry/nameregistry/internal/registrar"
	"github.com/nameregistry/nameregistry/internal/table"
	"github.com/nameregistry/nameregistry/internal/transport"
	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/types"
)

// Registry is one node's running registrar: the public facade over the
// internal actor, exposing the operations spec §6 names plus Dial,
// ListenAddr, NodeID and Close.
type Registry struct {
	cfg  *config.Config
	app  *fx.App
	reg  *registrar.Registrar
	tr   *transport.WSTransport
}

// Option customizes the fx.App assembled by New, analogous to the
// teacher's functional-option Node construction.
type Option func(*options)

type options struct {
	terminator interfaces.Terminator
}

// WithTerminator supplies the collaborator that forcibly terminates a
// local principal that loses a name clash (spec §4.4). Without one,
// clash losers are logged and left running.
func WithTerminator(t interfaces.Terminator) Option {
	return func(o *options) { o.terminator = t }
}

// New builds and starts a registrar for cfg. Callers must call Close to
// release its resources.
func New(cfg *config.Config, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("nameregistry: %w", err)
	}

	o := &options{}
	for _, apply := range opts {
		apply(o)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
		table.Module(),
		eventbus.Module(),
		membership.Module(),
		liveness.Module(),
		transport.Module(),
		metrics.Module(),
		registrar.Module(),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	}
	if o.terminator != nil {
		modules = append(modules, fx.Provide(func() interfaces.Terminator { return o.terminator }))
	}

	reg := &Registry{cfg: cfg}
	modules = append(modules, fx.Populate(&reg.reg, &reg.tr))
	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("nameregistry: wire app: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, fmt.Errorf("nameregistry: start: %w", err)
	}
	reg.app = app
	return reg, nil
}

// Close stops the registrar and every module it owns, in reverse
// dependency order (fx's OnStop ordering).
func (r *Registry) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.app.Stop(ctx)
}

// Dial connects this node's transport to a peer's registrar endpoint at
// addr. The resulting node-up event drives the sync handshake (spec
// §4.5) without any further action from the caller.
func (r *Registry) Dial(ctx context.Context, addr string) error {
	return r.tr.Dial(ctx, addr)
}

// ListenAddr returns the address this node's transport is listening on,
// for callers (tests, bootstrap code) that need to hand it to a peer
// without having configured a fixed port up front.
func (r *Registry) ListenAddr() (string, error) {
	return r.tr.Addr()
}

// Register publishes a locally-owned binding (spec §6 register_name).
func (r *Registry) Register(name types.Name, p types.Principal) (bool, error) {
	return r.reg.Register(name, p)
}

// Unregister removes a locally-owned binding, advisory otherwise (spec §6
// unregister_name).
func (r *Registry) Unregister(name types.Name) error {
	return r.reg.Unregister(name)
}

// WhereIs resolves name to its bound principal (spec §6 whereis_name).
func (r *Registry) WhereIs(name types.Name) (types.Principal, bool) {
	return r.reg.WhereIs(name)
}

// Send looks up name and, if bound, invokes deliver with its principal
// (spec §6 send).
func (r *Registry) Send(name types.Name, deliver func(types.Principal) error) bool {
	return r.reg.Send(name, deliver)
}

// SetMeta attaches meta to a locally-owned name (spec §6 set_meta).
func (r *Registry) SetMeta(name types.Name, meta types.Meta) (bool, error) {
	return r.reg.SetMeta(name, meta)
}

// SetPriority records a scheduling hint (spec §6 set_priority).
func (r *Registry) SetPriority(priority int) error {
	return r.reg.SetPriority(priority)
}

// LocalRegisteredNames lists names bound locally (spec §6
// local_registered_names).
func (r *Registry) LocalRegisteredNames() []types.Name {
	return r.reg.LocalRegisteredNames()
}

// LocalRegisteredInfo lists (name, principal, meta) triples for every
// locally-bound name (spec §6 local_registered_info).
func (r *Registry) LocalRegisteredInfo() []types.NamedInfo {
	return r.reg.LocalRegisteredInfo()
}

// RegisteredNames lists every known name, local or replicated (spec §6
// registered_names).
func (r *Registry) RegisteredNames() []types.Name {
	return r.reg.RegisteredNames()
}

// RegisteredInfo lists (name, principal) pairs for every known name (spec
// §6 registered_info).
func (r *Registry) RegisteredInfo() []types.NamedInfo {
	return r.reg.RegisteredInfo()
}

// NodeID returns this registry's node identity.
func (r *Registry) NodeID() types.NodeID {
	return types.NodeID(r.cfg.NodeID)
}
