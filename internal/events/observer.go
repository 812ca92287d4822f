package events

import (
	"sync"
	"time"

	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// DeviceObserver turns device callbacks into bus events.
type DeviceObserver struct {
	bus *Bus
	now func() time.Time

	mu       sync.Mutex
	captured uint64 // still buffers completed in the running capture
}

var _ video.Observer = (*DeviceObserver)(nil)

// NewDeviceObserver creates an observer publishing to bus.
func NewDeviceObserver(bus *Bus) *DeviceObserver {
	return &DeviceObserver{bus: bus, now: time.Now}
}

func (o *DeviceObserver) stamp() string {
	return o.now().UTC().Format(time.RFC3339Nano)
}

func (o *DeviceObserver) StateChanged(stream v4l2.BufType, from, to video.State) {
	o.bus.Publish(StreamStateChangedEvent{
		Stream:    stream.String(),
		From:      from.String(),
		To:        to.String(),
		Timestamp: o.stamp(),
	})

	if stream != v4l2.BufTypeStillCapture {
		return
	}
	o.mu.Lock()
	var finished bool
	var captured uint64
	switch {
	case from == video.StateIdle:
		o.captured = 0
	case to == video.StateIdle:
		finished, captured = true, o.captured
		o.captured = 0
	}
	o.mu.Unlock()

	if finished {
		o.bus.Publish(StillCaptureFinishedEvent{Captured: captured, Timestamp: o.stamp()})
	}
}

func (o *DeviceObserver) BufferDone(stream v4l2.BufType, buf v4l2.Buffer) {
	if stream == v4l2.BufTypeStillCapture && !buf.HasError() {
		o.mu.Lock()
		o.captured++
		o.mu.Unlock()
	}
	ts := buf.Timestamp
	if ts.IsZero() {
		ts = o.now()
	}
	o.bus.Publish(BufferDoneEvent{
		Stream:    stream.String(),
		Index:     buf.Index,
		Sequence:  buf.Sequence,
		BytesUsed: buf.BytesUsed,
		Error:     buf.HasError(),
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
	})
}

func (o *DeviceObserver) TransferFailed(stream v4l2.BufType, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	o.bus.Publish(TransferFailedEvent{Stream: stream.String(), Error: msg, Timestamp: o.stamp()})
}
