package table

import "go.uber.org/fx"

// Module provides the local binding table as an fx singleton.
func Module() fx.Option {
	return fx.Module("table",
		fx.Provide(New),
	)
}
