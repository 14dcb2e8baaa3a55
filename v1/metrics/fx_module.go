package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/piercefreeman/vectordb-orm/v1/observability"
)

// FXModule provides the Prometheus observer on the default registerer and
// binds it to the observability.Observer interface consumed by the session
// and the adapters.
var FXModule = fx.Module("metrics",
	fx.Provide(
		func() *Observer { return NewObserver(prometheus.DefaultRegisterer) },
		func(o *Observer) observability.Observer { return o },
	),
)
