package transport

import (
	"context"

	"go.uber.org/fx"

	"github.com/nameregistry/nameregistry/internal/config"
	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/types"
)

// ModuleOutput exports the websocket transport both behind its interface
// (for the registrar) and as its concrete type (for cmd/registrard, which
// needs Dial to reach peers named on the command line — a capability the
// interface deliberately omits since it's a bootstrapping concern, not
// part of the registrar's contract).
type ModuleOutput struct {
	fx.Out

	Transport   interfaces.Transport
	WSTransport *WSTransport
}

// Module provides the reference websocket transport, starting its
// listener on OnStart and closing every connection on OnStop.
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(provide),
		fx.Invoke(registerLifecycle),
	)
}

func provide(cfg *config.Config) ModuleOutput {
	t := New(types.NodeID(cfg.NodeID), cfg.Transport.DialTimeout)
	return ModuleOutput{Transport: t, WSTransport: t}
}

type lifecycleInput struct {
	fx.In

	LC  fx.Lifecycle
	Cfg *config.Config
	T   *WSTransport
}

func registerLifecycle(in lifecycleInput) {
	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return in.T.Listen(in.Cfg.Transport.ListenAddr)
		},
		OnStop: func(_ context.Context) error {
			return in.T.Close()
		},
	})
}
