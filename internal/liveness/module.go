package liveness

import (
	"context"

	"go.uber.org/fx"

	"github.com/nameregistry/nameregistry/pkg/interfaces"
)

// ModuleOutput exports the liveness watcher behind its interface, the way
// the teacher exports LivenessService behind pkg/interfaces/liveness.
type ModuleOutput struct {
	fx.Out

	Watcher interfaces.LivenessWatcher
}

// Module provides the liveness watcher and closes it on shutdown.
func Module() fx.Option {
	return fx.Module("liveness",
		fx.Provide(provide),
		fx.Invoke(registerLifecycle),
	)
}

func provide() ModuleOutput {
	return ModuleOutput{Watcher: New()}
}

type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Watcher interfaces.LivenessWatcher
}

func registerLifecycle(in lifecycleInput) {
	in.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return in.Watcher.Close()
		},
	})
}
