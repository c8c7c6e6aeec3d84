// Package logging provides slog loggers with per-module levels.
//
// Initialize once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"display": "debug",
//			"nats":    "warn",
//		},
//	})
//
//	logger := logging.GetLogger("display")
//	logger.Info("Effect selected", "effect", name)
//
// Records go to stdout when it is attached, to the systemd journal when
// journald is running, and always to an in-memory history served by the
// HTTP API. Journal records carry SYSLOG_IDENTIFIER=lightnode:
//
//	journalctl -t lightnode -f
//	journalctl -t lightnode MODULE=strip -p err
//
// Module levels can be changed at runtime with SetLevel.
//
// TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	effects = "debug"
package logging
