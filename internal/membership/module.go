package membership

import (
	"go.uber.org/fx"

	"github.com/nameregistry/nameregistry/internal/config"
)

// Module provides the registrar's peer set as an fx singleton, sized and
// timed from the resolved configuration.
func Module() fx.Option {
	return fx.Module("membership",
		fx.Provide(provide),
	)
}

func provide(cfg *config.Config) *PeerSet {
	return New(cfg.Membership.RecentlyDisconnectedCap, cfg.Membership.RecentlyDisconnectedTTL, nil)
}
