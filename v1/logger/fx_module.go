package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule wires the logger into an fx application. A logger.Config must
// be available in the container.
//
//	app := fx.New(
//	    fx.Supply(logger.Config{Level: logger.Info, ServiceName: "ingest"}),
//	    logger.FXModule,
//	)
var FXModule = fx.Module("logger",
	fx.Provide(NewLogger),
	fx.Invoke(registerLoggerLifecycle),
)

// registerLoggerLifecycle flushes buffered entries on shutdown. Sync can
// legitimately fail on stderr, so its error is ignored.
func registerLoggerLifecycle(lc fx.Lifecycle, zl *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = zl.Sync()
			return nil
		},
	})
}
