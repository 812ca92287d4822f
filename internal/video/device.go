// Package video implements the dual-stream capture device: the video and
// still stream controllers, the arbiter that decides which stream owns the
// shared transfer engine, the queue/dequeue protocol and the completion
// handler.
//
// Locking: client operations take the per-stream operation lock (still
// before video when both are needed), then the device completion lock that
// guards stream state, queues and wait slots. Transfer engine calls decided
// under the completion lock are executed after it is released, in decision
// order, under a dedicated engine lock. Observers are notified last.
package video

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/videocore/internal/capability"
	"github.com/smazurov/videocore/internal/framebuf"
	"github.com/smazurov/videocore/internal/logging"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// Options contains optional configuration for a Device.
type Options struct {
	Logger   *slog.Logger
	Observer Observer
	Clock    func() time.Time // timestamps for completed buffers
}

// Device is the capture device context. All state lives here; there is no
// package-level device.
type Device struct {
	sensor   Sensor
	engine   TransferEngine
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	openMu  sync.Mutex
	handles map[uuid.UUID]*Handle

	video *stream
	still *stream

	engMu sync.Mutex

	mu      sync.Mutex
	open    bool
	neg     *capability.Negotiator
	owner   *stream // stream holding the transfer engine, nil when stopped
	session uint64  // current transfer session; bumped on every start and stop
}

// New creates a closed device on top of the two collaborators.
func New(sensor Sensor, engine TransferEngine, opts *Options) *Device {
	d := &Device{
		sensor:   sensor,
		engine:   engine,
		logger:   logging.GetLogger("video"),
		observer: nopObserver{},
		now:      time.Now,
		handles:  make(map[uuid.UUID]*Handle),
		video:    newStream(v4l2.BufTypeVideoCapture),
		still:    newStream(v4l2.BufTypeStillCapture),
	}
	if opts != nil {
		if opts.Logger != nil {
			d.logger = opts.Logger
		}
		if opts.Observer != nil {
			d.observer = opts.Observer
		}
		if opts.Clock != nil {
			d.now = opts.Clock
		}
	}
	return d
}

// Handle is one open reference to the device.
type Handle struct {
	ID     uuid.UUID
	Opened time.Time

	dev *Device
}

// Close releases the reference. Closing twice is a no-op.
func (h *Handle) Close() error {
	return h.dev.release(h.ID)
}

// Open adds a reference to the device. The first reference opens both
// collaborators, builds the supported format lists and resets both streams.
func (d *Device) Open() (*Handle, error) {
	d.openMu.Lock()
	defer d.openMu.Unlock()

	if len(d.handles) == 0 {
		if err := d.initialize(); err != nil {
			return nil, err
		}
	}

	h := &Handle{ID: uuid.New(), Opened: d.now(), dev: d}
	d.handles[h.ID] = h
	d.logger.Debug("Device handle opened", "handle", h.ID.String(), "refs", len(d.handles))
	return h, nil
}

// Handle looks up an open handle by id.
func (d *Device) Handle(id uuid.UUID) (*Handle, bool) {
	d.openMu.Lock()
	defer d.openMu.Unlock()
	h, ok := d.handles[id]
	return h, ok
}

// CloseHandle closes the handle with the given id.
func (d *Device) CloseHandle(id uuid.UUID) error {
	d.openMu.Lock()
	_, ok := d.handles[id]
	d.openMu.Unlock()
	if !ok {
		return NewError(ErrCodeNotOpen, "close", 0, "unknown handle "+id.String(), nil)
	}
	return d.release(id)
}

func (d *Device) initialize() error {
	if err := d.sensor.Open(); err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	if err := d.engine.Open(); err != nil {
		_ = d.sensor.Close()
		return fmt.Errorf("open transfer engine: %w", err)
	}

	neg := capability.New(d.sensor, d.engine, logging.GetLogger("capability"))

	d.still.opMu.Lock()
	defer d.still.opMu.Unlock()
	d.video.opMu.Lock()
	defer d.video.opMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.streams() {
		s.reset()
		s.format = defaultFormat(neg, s.typ)
	}
	d.neg = neg
	d.owner = nil
	d.session++
	d.open = true

	d.logger.Info("Capture device initialized",
		"video_formats", len(neg.Formats(v4l2.BufTypeVideoCapture)),
		"still_formats", len(neg.Formats(v4l2.BufTypeStillCapture)))
	return nil
}

func (d *Device) release(id uuid.UUID) error {
	d.openMu.Lock()
	defer d.openMu.Unlock()

	if _, ok := d.handles[id]; !ok {
		return nil
	}
	delete(d.handles, id)
	d.logger.Debug("Device handle closed", "handle", id.String(), "refs", len(d.handles))
	if len(d.handles) > 0 {
		return nil
	}

	d.shutdown()

	var errs []error
	if err := d.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transfer engine: %w", err))
	}
	if err := d.sensor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sensor: %w", err))
	}
	d.logger.Info("Capture device closed")
	return errors.Join(errs...)
}

// shutdown stops any transfer, releases blocked dequeuers with WakeClosed
// and drops every buffer.
func (d *Device) shutdown() {
	d.still.opMu.Lock()
	defer d.still.opMu.Unlock()
	d.video.opMu.Lock()
	defer d.video.opMu.Unlock()

	d.mu.Lock()
	fx := &effects{}
	if d.owner != nil {
		d.endTransfer(d.owner, fx)
	}
	for _, s := range d.streams() {
		if s.wait != nil {
			s.wait.post(WakeClosed)
		}
		d.setState(s, StateIdle, fx)
		s.reset()
	}
	d.open = false
	d.neg = nil
	d.commit(fx)
}

func (d *Device) streams() []*stream {
	return []*stream{d.still, d.video}
}

func (d *Device) lookup(op string, t v4l2.BufType) (*stream, error) {
	switch t {
	case v4l2.BufTypeVideoCapture:
		return d.video, nil
	case v4l2.BufTypeStillCapture:
		return d.still, nil
	default:
		return nil, NewError(ErrCodeInvalidArgument, op, 0, fmt.Sprintf("unknown stream type %d", uint32(t)), nil)
	}
}

// checkOpen must be called with d.mu held.
func (d *Device) checkOpen(op string, t v4l2.BufType) error {
	if !d.open {
		return NewError(ErrCodeNotOpen, op, t, "device not open", nil)
	}
	return nil
}

func (d *Device) negotiator(op string, t v4l2.BufType) (*capability.Negotiator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(op, t); err != nil {
		return nil, err
	}
	return d.neg, nil
}

// defaultFormat picks the first supported format at its first frame size.
func defaultFormat(neg *capability.Negotiator, t v4l2.BufType) v4l2.Format {
	f := v4l2.Format{Type: t}
	formats := neg.Formats(t)
	if len(formats) == 0 {
		return f
	}
	f.PixelFormat = formats[0].PixelFormat
	f.SubPixelFormat = formats[0].SubPixelFormat

	fs, err := neg.EnumFrameSize(v4l2.FrameSizeQuery{
		Type:           t,
		PixelFormat:    f.PixelFormat,
		SubPixelFormat: f.SubPixelFormat,
	})
	if err != nil {
		return f
	}
	switch fs.Kind {
	case v4l2.FrameSizeDiscrete:
		f.Width, f.Height = fs.Discrete.Width, fs.Discrete.Height
		f.SubWidth, f.SubHeight = fs.SubDiscrete.Width, fs.SubDiscrete.Height
	default:
		f.Width, f.Height = fs.Stepwise.MaxWidth, fs.Stepwise.MaxHeight
		f.SubWidth, f.SubHeight = fs.SubStepwise.MaxWidth, fs.SubStepwise.MaxHeight
	}
	return f
}

// StreamStatus is a snapshot of one stream.
type StreamStatus struct {
	Type      v4l2.BufType
	State     State
	Remaining int // still capture limiter, -1 when unbounded
	Format    v4l2.Format
	Queue     framebuf.Stats
	Waiting   bool
	Sequence  uint32
	Completed uint64
}

// Status is a snapshot of the device.
type Status struct {
	Open    bool
	Handles int
	Owner   v4l2.BufType // stream holding the transfer engine, 0 when none
	Video   StreamStatus
	Still   StreamStatus
}

// Status returns a consistent snapshot of both streams.
func (d *Device) Status() Status {
	d.openMu.Lock()
	handles := len(d.handles)
	d.openMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{
		Open:    d.open,
		Handles: handles,
		Video:   d.video.status(),
		Still:   d.still.status(),
	}
	if d.owner != nil {
		st.Owner = d.owner.typ
	}
	return st
}

func (s *stream) status() StreamStatus {
	return StreamStatus{
		Type:      s.typ,
		State:     s.state,
		Remaining: s.remaining,
		Format:    s.format,
		Queue:     s.queue.Stats(),
		Waiting:   s.wait != nil,
		Sequence:  s.sequence,
		Completed: s.completed,
	}
}
