package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for device events.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
// Usage: bus.Publish(BufferDoneEvent{...})
func (b *Bus) Publish(ev Event) {
	// The dispatcher is generic over the concrete type.
	switch e := ev.(type) {
	case StreamStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case BufferDoneEvent:
		event.Publish(b.dispatcher, e)
	case TransferFailedEvent:
		event.Publish(b.dispatcher, e)
	case StillCaptureFinishedEvent:
		event.Publish(b.dispatcher, e)
	case SessionOpenedEvent:
		event.Publish(b.dispatcher, e)
	case SessionClosedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; its parameter type selects the events it
// receives. An unknown handler type subscribes to nothing. The returned
// function unsubscribes.
// Usage: unsub := bus.Subscribe(func(e BufferDoneEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StreamStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BufferDoneEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TransferFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StillCaptureFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionOpenedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionClosedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
