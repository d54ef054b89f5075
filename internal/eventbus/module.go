package eventbus

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the event bus as an fx singleton, closed on shutdown.
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(New),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleInput struct {
	fx.In

	LC  fx.Lifecycle
	Bus *Bus
}

func registerLifecycle(in lifecycleInput) {
	in.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			in.Bus.Close()
			return nil
		},
	})
}
