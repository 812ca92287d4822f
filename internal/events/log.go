package events

import (
	"time"

	"github.com/smazurov/videocore/internal/logging"
)

// FromLogEntry converts a buffered log entry into a LogEntryEvent.
func FromLogEntry(e logging.LogEntry) LogEntryEvent {
	return LogEntryEvent{
		Seq:        e.Seq,
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:      e.Level,
		Module:     e.Module,
		Message:    e.Message,
		Attributes: e.Attributes,
	}
}

// ForwardLogs publishes every new log entry on bus. It replaces any
// previously installed log callback.
func ForwardLogs(bus *Bus) {
	logging.SetLogCallback(func(e logging.LogEntry) {
		bus.Publish(FromLogEntry(e))
	})
}
