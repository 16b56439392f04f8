// Package logger builds the structured slog loggers used across grimoire.
//
// New returns a *slog.Logger configured through functional options: output
// format (text or JSON), minimum level, static attributes, and context
// extractors that copy request-scoped values (for example the request id set
// by the admin router) into every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "grimoire"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers (Error, Component, Channel, ItemID, NotificationID, ...)
// keep key names consistent between packages. Error and UserID return an empty
// attribute for nil values so they can be passed unconditionally.
package logger
