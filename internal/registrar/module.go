package registrar

import (
	"context"

	"go.uber.org/fx"

	"github.com/nameregistry/nameregistry/internal/config"
	"github.com/nameregistry/nameregistry/internal/eventbus"
	"github.com/nameregistry/nameregistry/internal/membership"
	"github.com/nameregistry/nameregistry/internal/metrics"
	"github.com/nameregistry/nameregistry/internal/table"
	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/types"
)

// ModuleInput collects the registrar's dependencies. Terminator is
// optional: a caller that never registers local principals needing
// forced termination on a clash loss (or that handles it out-of-band)
// can simply not supply one.
type ModuleInput struct {
	fx.In

	Config    *config.Config
	Table     *table.Table
	Peers     *membership.PeerSet
	Transport interfaces.Transport
	Watcher   interfaces.LivenessWatcher
	Bus       *eventbus.Bus
	Metrics   *metrics.Registry
	Term      interfaces.Terminator `optional:"true"`
}

// Module provides the registrar actor, starting its mailbox loop on
// OnStart and draining it on OnStop.
func Module() fx.Option {
	return fx.Module("registrar",
		fx.Provide(provide),
		fx.Invoke(registerLifecycle),
	)
}

func provide(in ModuleInput) (*Registrar, error) {
	return New(in.Config, types.NodeID(in.Config.NodeID), in.Table, in.Peers, in.Transport, in.Watcher, in.Bus, in.Metrics, in.Term)
}

func registerLifecycle(lc fx.Lifecycle, r *Registrar) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			r.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			return r.Close()
		},
	})
}
