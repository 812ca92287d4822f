package video

import (
	"sync"

	"github.com/smazurov/videocore/internal/framebuf"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// unbounded is the capture limiter value that never stops the stream.
const unbounded = -1

// WakeCause tells a blocked dequeuer why it was released.
type WakeCause int

// Wake causes, ordered by precedence: a cause only replaces a pending one
// of lower precedence, so a delivered buffer is never lost to a later cancel.
const (
	wakeNone WakeCause = iota
	WakePreempted
	WakeCancelled
	WakeClosed
	WakeDone
)

func (c WakeCause) String() string {
	switch c {
	case WakePreempted:
		return "preempted"
	case WakeCancelled:
		return "cancelled"
	case WakeClosed:
		return "closed"
	case WakeDone:
		return "done"
	default:
		return "none"
	}
}

// waiter is the completion rendezvous of one blocked dequeuer.
type waiter struct {
	ch    chan struct{}
	cause WakeCause
	buf   v4l2.Buffer
}

func newWaiter() *waiter {
	return &waiter{ch: make(chan struct{}, 1)}
}

// post records cause and releases the waiter. It reports false when a cause
// of equal or higher precedence is already pending.
func (w *waiter) post(cause WakeCause) bool {
	if cause <= w.cause {
		return false
	}
	w.cause = cause
	select {
	case w.ch <- struct{}{}:
	default:
	}
	return true
}

// stream is the controller of one capture stream. Fields below opMu are
// guarded by the device completion lock.
type stream struct {
	typ v4l2.BufType

	// opMu serializes client operations on the stream, including the
	// collaborator calls they make. Lock order: still, then video.
	opMu sync.Mutex

	state     State
	queue     *framebuf.Queue
	remaining int
	wait      *waiter
	format    v4l2.Format
	sequence  uint32
	completed uint64
}

func newStream(t v4l2.BufType) *stream {
	return &stream{
		typ:       t,
		queue:     framebuf.New(),
		remaining: unbounded,
	}
}

// reset returns the stream to its just-opened condition.
func (s *stream) reset() {
	s.queue.Release()
	s.queue.SetMode(v4l2.BufModeFIFO)
	s.state = StateIdle
	s.remaining = unbounded
	s.wait = nil
	s.format = v4l2.Format{Type: s.typ}
	s.sequence = 0
	s.completed = 0
}
