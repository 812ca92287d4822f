package metrics

import (
	"sync"
	"time"

	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// Observer records device callbacks as metrics.
type Observer struct {
	mu   sync.Mutex
	last map[v4l2.BufType]time.Time
}

var _ video.Observer = (*Observer)(nil)

// NewObserver creates a metrics observer.
func NewObserver() *Observer {
	return &Observer{last: make(map[v4l2.BufType]time.Time, 2)}
}

func (o *Observer) StateChanged(stream v4l2.BufType, _, to video.State) {
	name := stream.String()
	streamState.WithLabelValues(name).Set(float64(to))
	stateTransitions.WithLabelValues(name, to.String()).Inc()

	// A new run should not report the pause as one long frame interval.
	if to != video.StateTransferring {
		o.mu.Lock()
		delete(o.last, stream)
		o.mu.Unlock()
	}
}

func (o *Observer) BufferDone(stream v4l2.BufType, buf v4l2.Buffer) {
	name := stream.String()
	if buf.HasError() {
		transfersTotal.WithLabelValues(name, "error").Inc()
		return
	}
	transfersTotal.WithLabelValues(name, "ok").Inc()
	bytesTotal.WithLabelValues(name).Add(float64(buf.BytesUsed))

	if buf.Timestamp.IsZero() {
		return
	}
	o.mu.Lock()
	prev, ok := o.last[stream]
	o.last[stream] = buf.Timestamp
	o.mu.Unlock()
	if ok && buf.Timestamp.After(prev) {
		frameInterval.WithLabelValues(name).Observe(buf.Timestamp.Sub(prev).Seconds())
	}
}

func (o *Observer) TransferFailed(stream v4l2.BufType, _ error) {
	engineFailures.WithLabelValues(stream.String()).Inc()
}
