package events

// Event type constants for kelindar/event.
const (
	TypeStreamStateChanged uint32 = iota + 1
	TypeBufferDone
	TypeTransferFailed
	TypeStillCaptureFinished
	TypeSessionOpened
	TypeSessionClosed
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StreamStateChangedEvent is published on every stream state transition.
type StreamStateChangedEvent struct {
	Stream    string `json:"stream" example:"video" doc:"Capture stream (video or still)"`
	From      string `json:"from" example:"armed" doc:"Previous state"`
	To        string `json:"to" example:"transferring" doc:"New state"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StreamStateChangedEvent.
func (e StreamStateChangedEvent) Type() uint32 { return TypeStreamStateChanged }

// BufferDoneEvent is published when a transfer completes into a buffer.
type BufferDoneEvent struct {
	Stream    string `json:"stream" example:"still" doc:"Capture stream"`
	Index     uint32 `json:"index" example:"0" doc:"Client buffer index"`
	Sequence  uint32 `json:"sequence" example:"42" doc:"Per-stream completion sequence number"`
	BytesUsed uint32 `json:"bytes_used" example:"38400" doc:"Bytes written by the transfer"`
	Error     bool   `json:"error" example:"false" doc:"Whether the transfer failed"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Completion timestamp"`
}

// Type returns the event type identifier for BufferDoneEvent.
func (e BufferDoneEvent) Type() uint32 { return TypeBufferDone }

// TransferFailedEvent is published when the transfer engine rejects a
// start or a buffer handover.
type TransferFailedEvent struct {
	Stream    string `json:"stream" example:"video" doc:"Capture stream"`
	Error     string `json:"error" doc:"Engine error"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for TransferFailedEvent.
func (e TransferFailedEvent) Type() uint32 { return TypeTransferFailed }

// StillCaptureFinishedEvent is published when the still stream returns to
// idle, either after its capture count ran out or on an explicit stop.
type StillCaptureFinishedEvent struct {
	Captured  uint64 `json:"captured" example:"3" doc:"Buffers completed since the capture started"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StillCaptureFinishedEvent.
func (e StillCaptureFinishedEvent) Type() uint32 { return TypeStillCaptureFinished }

// SessionOpenedEvent is published when a client opens the device.
type SessionOpenedEvent struct {
	SessionID string `json:"session_id" example:"6f1c2f9e-4b1e-4d43-9f0e-0c7b1d1de2a1" doc:"Session identifier"`
	Handles   int    `json:"handles" example:"1" doc:"Open handles after this one"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionOpenedEvent.
func (e SessionOpenedEvent) Type() uint32 { return TypeSessionOpened }

// SessionClosedEvent is published when a client closes its session.
type SessionClosedEvent struct {
	SessionID string `json:"session_id" doc:"Session identifier"`
	Handles   int    `json:"handles" example:"0" doc:"Open handles remaining"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionClosedEvent.
func (e SessionClosedEvent) Type() uint32 { return TypeSessionClosed }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"video" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
