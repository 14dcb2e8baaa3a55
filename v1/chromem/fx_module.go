package chromem

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
	"github.com/piercefreeman/vectordb-orm/v1/observability"
)

// AdapterParams collects the adapter's dependencies for fx injection.
// Logger and Observer are optional; a missing one falls back to a no-op.
type AdapterParams struct {
	fx.In

	Config   *Config
	Logger   *zap.Logger            `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// FXModule wires the chromem adapter into an fx application and binds it
// to the backend.Adapter interface. A *chromem.Config must be available in
// the container.
var FXModule = fx.Module("chromem",
	fx.Provide(
		func(lc fx.Lifecycle, p AdapterParams) (*Adapter, error) {
			var opts []Option
			if p.Logger != nil {
				opts = append(opts, WithLogger(p.Logger))
			}
			if p.Observer != nil {
				opts = append(opts, WithObserver(p.Observer))
			}
			a, err := NewAdapter(p.Config, opts...)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error { return a.Close() },
			})
			return a, nil
		},
		func(a *Adapter) backend.Adapter { return a },
	),
)
