package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/videocore/internal/logging"
	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// ErrTransferRunning is returned by StartTransfer while a session is active.
var ErrTransferRunning = errors.New("sim: transfer already running")

// Engine is a simulated transfer engine. Each transfer completes one frame
// period after the buffer was handed over; the generated frame is written
// into the buffer and the done callback runs on a timer goroutine.
type Engine struct {
	profile EngineProfile
	pixfmts []v4l2.PixelFormat
	period  time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	open    bool
	running bool
	gen     uint64 // bumped on start and cancel; stale timers compare against it
	format  v4l2.Format
	cur     []byte
	done    video.TransferDone
	timer   *time.Timer
	frames  uint64
}

// NewEngine creates a transfer engine from the profile.
func NewEngine(p *Profile) (*Engine, error) {
	period, err := p.Engine.period()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		profile: p.Engine,
		period:  period,
		logger:  logging.GetLogger("sim"),
	}
	for _, name := range p.Engine.PixelFormats {
		pix, err := parsePixelFormat(name)
		if err != nil {
			return nil, err
		}
		e.pixfmts = append(e.pixfmts, pix)
	}
	return e, nil
}

// SetFramePeriod changes the time each transfer takes.
func (e *Engine) SetFramePeriod(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.period = d
}

func (e *Engine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = true
	e.frames = 0
	return nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.open = false
	return nil
}

func (e *Engine) CheckPixelFormat(pix, _ v4l2.PixelFormat) error {
	if !slices.Contains(e.pixfmts, pix) {
		return fmt.Errorf("sim: engine cannot transfer %s", pix)
	}
	return nil
}

func (e *Engine) FrameSizeRange(q v4l2.FrameSizeQuery) (v4l2.FrameSize, error) {
	if q.Index > 0 {
		return v4l2.FrameSize{}, ErrNoEntry
	}
	r := v4l2.Stepwise{
		MinWidth: e.profile.MinWidth, MaxWidth: e.profile.MaxWidth, StepWidth: e.profile.StepWidth,
		MinHeight: e.profile.MinHeight, MaxHeight: e.profile.MaxHeight, StepHeight: e.profile.StepHeight,
	}
	if r.MinWidth == r.MaxWidth && r.MinHeight == r.MaxHeight {
		return v4l2.FrameSize{
			Kind:     v4l2.FrameSizeDiscrete,
			Discrete: v4l2.Size{Width: r.MinWidth, Height: r.MinHeight},
		}, nil
	}
	return v4l2.FrameSize{Kind: v4l2.FrameSizeStepwise, Stepwise: r}, nil
}

func (e *Engine) TryFormat(f v4l2.Format) error {
	if err := e.CheckPixelFormat(f.PixelFormat, f.SubPixelFormat); err != nil {
		return err
	}
	fs, _ := e.FrameSizeRange(v4l2.FrameSizeQuery{})
	size := v4l2.Size{Width: f.Width, Height: f.Height}
	if fs.Kind == v4l2.FrameSizeDiscrete {
		if fs.Discrete != size {
			return fmt.Errorf("sim: engine only transfers %s", fs.Discrete)
		}
		return nil
	}
	if !fs.Stepwise.Contains(size) {
		return fmt.Errorf("sim: frame size %s outside engine range", size)
	}
	return nil
}

func (e *Engine) StartTransfer(f v4l2.Format, mem []byte, done video.TransferDone) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return ErrNotOpen
	}
	if e.running {
		return ErrTransferRunning
	}
	if len(mem) == 0 {
		return errors.New("sim: empty buffer")
	}

	e.running = true
	e.gen++
	e.format = f
	e.cur = mem
	e.done = done
	e.scheduleLocked()
	return nil
}

func (e *Engine) SetNextBuffer(mem []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return errors.New("sim: no transfer running")
	}
	if len(mem) == 0 {
		return errors.New("sim: empty buffer")
	}
	e.cur = mem
	e.scheduleLocked()
	return nil
}

func (e *Engine) CancelTransfer() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

// Frames returns the number of transfers completed since Open.
func (e *Engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *Engine) stopLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.running = false
	e.gen++
	e.cur = nil
	e.done = nil
}

func (e *Engine) scheduleLocked() {
	gen := e.gen
	e.timer = time.AfterFunc(e.period, func() { e.fire(gen) })
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.running || e.cur == nil {
		e.mu.Unlock()
		return
	}

	e.frames++
	frame := e.frames
	failed := e.profile.FailEvery > 0 && frame%uint64(e.profile.FailEvery) == 0
	var n uint32
	if !failed {
		n = fillFrame(e.cur, e.format, frame)
	}
	e.cur = nil
	e.timer = nil
	done := e.done
	e.mu.Unlock()

	if failed {
		e.logger.Debug("Simulated transfer error", "frame", frame)
	}
	done(failed, n)
}

// frameBytes is the payload size of one frame in format f.
func frameBytes(f v4l2.Format) int {
	if f.SizeImage != 0 {
		return int(f.SizeImage)
	}
	pixels := int(f.Width) * int(f.Height)
	switch f.PixelFormat {
	case v4l2.PixFmtJPEG, v4l2.PixFmtMJPEG:
		return pixels / 8
	case v4l2.PixFmtNV12:
		return pixels * 3 / 2
	default:
		return pixels * 2
	}
}

// fillFrame writes a recognizable test pattern into mem and returns the
// number of bytes used. JPEG frames carry SOI and EOI markers.
func fillFrame(mem []byte, f v4l2.Format, frame uint64) uint32 {
	n := min(frameBytes(f), len(mem))
	if n <= 0 {
		n = len(mem)
	}
	for i := range n {
		mem[i] = byte(uint64(i) + frame)
	}
	if (f.PixelFormat == v4l2.PixFmtJPEG || f.PixelFormat == v4l2.PixFmtMJPEG) && n >= 4 {
		mem[0], mem[1] = 0xFF, 0xD8
		mem[n-2], mem[n-1] = 0xFF, 0xD9
	}
	return uint32(n)
}
