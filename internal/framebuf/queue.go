// Package framebuf implements the per-stream frame buffer queue: a fixed pool
// of containers holding caller-supplied buffer descriptors, a FIFO of buffers
// waiting for the transfer engine, the single bound buffer and the completed
// buffers waiting to be dequeued.
//
// A container is always in exactly one place: the free list, the pending
// queue, the bound slot or the done queue. Containers handed back to a client
// leave the queue entirely and return through Free.
//
// Queue is not safe for concurrent use; the capture device guards it with its
// completion lock.
package framebuf

import (
	"errors"
	"time"

	"github.com/smazurov/videocore/pkg/v4l2"
)

var (
	// ErrBusy is returned by Allocate while a container is bound to the transfer engine.
	ErrBusy = errors.New("framebuf: container bound to transfer")
	// ErrOutOfContainers is returned by Enqueue when the pool has no free container.
	ErrOutOfContainers = errors.New("framebuf: no free container")
)

type location int

const (
	locFree location = iota
	locPending
	locBound
	locDone
	locClient
)

// Container wraps one buffer descriptor while the queue owns it.
type Container struct {
	Buf v4l2.Buffer

	gen uint64
	loc location
}

// Queue is a frame buffer queue for one stream.
type Queue struct {
	mode       v4l2.BufMode
	gen        uint64
	capacity   int
	free       []*Container
	pending    []*Container
	bound      *Container
	done       []*Container
	overwrites uint64
}

// New creates an empty queue with no containers.
func New() *Queue {
	return &Queue{}
}

// SetMode changes the behavior when the pending queue runs dry.
func (q *Queue) SetMode(mode v4l2.BufMode) {
	q.mode = mode
}

// Mode returns the current buffer mode.
func (q *Queue) Mode() v4l2.BufMode {
	return q.mode
}

// Allocate discards every container and creates count fresh ones.
// A count of zero leaves the queue without containers, which disables queuing.
func (q *Queue) Allocate(count int) error {
	if count < 0 {
		count = 0
	}
	if q.bound != nil {
		return ErrBusy
	}

	q.gen++
	q.capacity = count
	q.pending = nil
	q.done = nil
	q.free = make([]*Container, 0, count)
	for range count {
		q.free = append(q.free, &Container{gen: q.gen, loc: locFree})
	}
	return nil
}

// Release drops all containers, including a bound one. Used on device close.
func (q *Queue) Release() {
	q.gen++
	q.capacity = 0
	q.free = nil
	q.pending = nil
	q.bound = nil
	q.done = nil
	q.overwrites = 0
}

// Enqueue copies buf into a free container and appends it to the pending queue.
func (q *Queue) Enqueue(buf v4l2.Buffer) error {
	n := len(q.free)
	if n == 0 {
		return ErrOutOfContainers
	}

	c := q.free[n-1]
	q.free[n-1] = nil
	q.free = q.free[:n-1]

	c.Buf = buf
	c.Buf.BytesUsed = 0
	c.Buf.Flags = 0
	c.loc = locPending
	q.pending = append(q.pending, c)
	return nil
}

// BindNext moves the head of the pending queue into the bound slot.
// In ring mode an empty pending queue recycles the oldest done container.
// It returns nil when a container is already bound or nothing can be bound.
func (q *Queue) BindNext() *Container {
	if q.bound != nil {
		return nil
	}

	var c *Container
	switch {
	case len(q.pending) > 0:
		c = q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
	case q.mode == v4l2.BufModeRing && len(q.done) > 0:
		c = q.done[0]
		q.done[0] = nil
		q.done = q.done[1:]
		q.overwrites++
	default:
		return nil
	}

	c.Buf.BytesUsed = 0
	c.Buf.Flags = 0
	c.loc = locBound
	q.bound = c
	return c
}

// Unbind puts the bound container back at the head of the pending queue so
// the next BindNext hands the same buffer to the transfer engine again.
func (q *Queue) Unbind() {
	c := q.bound
	if c == nil {
		return
	}
	q.bound = nil
	c.loc = locPending
	q.pending = append([]*Container{c}, q.pending...)
}

// Bound returns the container handed to the transfer engine, or nil.
func (q *Queue) Bound() *Container {
	return q.bound
}

// CompleteBound stamps the bound container and moves it to the tail of the
// done queue. It returns nil when nothing is bound.
func (q *Queue) CompleteBound(bytesUsed uint32, failed bool, seq uint32, ts time.Time) *Container {
	c := q.bound
	if c == nil {
		return nil
	}
	q.bound = nil

	c.Buf.BytesUsed = bytesUsed
	c.Buf.Flags = 0
	if failed {
		c.Buf.Flags |= v4l2.BufFlagError
	}
	c.Buf.Sequence = seq
	c.Buf.Timestamp = ts
	c.loc = locDone
	q.done = append(q.done, c)
	return c
}

// TakeDone removes and returns the oldest completed container, or nil.
func (q *Queue) TakeDone() *Container {
	if len(q.done) == 0 {
		return nil
	}
	c := q.done[0]
	q.done[0] = nil
	q.done = q.done[1:]
	c.loc = locClient
	return c
}

// Free returns a container to the pool. Containers from a previous
// allocation are ignored.
func (q *Queue) Free(c *Container) {
	if c == nil || c.gen != q.gen || c.loc == locFree {
		return
	}
	c.Buf = v4l2.Buffer{}
	c.loc = locFree
	q.free = append(q.free, c)
}

// Stats is a snapshot of queue occupancy.
type Stats struct {
	Mode       v4l2.BufMode
	Capacity   int
	Free       int
	Pending    int
	Bound      bool
	Done       int
	Overwrites uint64
}

// Stats returns the current occupancy.
func (q *Queue) Stats() Stats {
	return Stats{
		Mode:       q.mode,
		Capacity:   q.capacity,
		Free:       len(q.free),
		Pending:    len(q.pending),
		Bound:      q.bound != nil,
		Done:       len(q.done),
		Overwrites: q.overwrites,
	}
}
