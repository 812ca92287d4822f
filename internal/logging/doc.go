// Package logging provides structured logging with per-module log levels.
//
// Every package asks for its own logger once:
//
//	logger := logging.GetLogger("video")
//	logger.Debug("Transfer started", "stream", "still")
//
// Records fan out to stdout (text or JSON), the systemd journal when
// journald is reachable, and an in-memory ring buffer of the last 1000
// entries that backs the /api/logs endpoint.
//
// Module names in use: video, framebuf, capability, sim, api, events,
// metrics, config and main.
//
// # Runtime levels
//
// Each module logger is bound to a [slog.LevelVar]. Calling [Initialize]
// again, for example after the config file changed, updates those levels
// in place so loggers already captured by long-lived objects follow along.
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	video = "debug"
//	api = "warn"
//
// # Journal
//
//	journalctl -t videocore -f
//	journalctl -t videocore MODULE=video STREAM=still
package logging
