// Package logger builds the zap logger used throughout the module:
// structured JSON on stderr with service and pid fields, plus an fx module
// that syncs buffered entries on shutdown.
//
// For tests and small programs construct one directly:
//
//	zl := logger.NewLogger(logger.Config{Level: logger.Debug, Development: true})
package logger
