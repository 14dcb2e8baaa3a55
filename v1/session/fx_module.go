package session

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/piercefreeman/vectordb-orm/v1/backend"
)

// SessionParams collects the session's dependencies for fx injection.
// Everything but the adapter is optional.
type SessionParams struct {
	fx.In

	Adapter        backend.Adapter
	Logger         *zap.Logger          `optional:"true"`
	TracerProvider trace.TracerProvider `optional:"true"`
}

// FXModule provides a *Session built on whichever adapter module the
// application installed (milvus, qdrant or chromem).
var FXModule = fx.Module("session",
	fx.Provide(
		func(p SessionParams) *Session {
			var opts []Option
			if p.Logger != nil {
				opts = append(opts, WithLogger(p.Logger))
			}
			if p.TracerProvider != nil {
				opts = append(opts, WithTracerProvider(p.TracerProvider))
			}
			return New(p.Adapter, opts...)
		},
	),
)
