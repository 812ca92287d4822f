package video

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/videocore/pkg/v4l2"
)

var errNoEntry = errors.New("no entry")

type fakeSensor struct {
	mu         sync.Mutex
	opens      int
	closes     int
	values     map[uint32]int64
	scene      map[v4l2.SceneMode]map[uint32]int64
	failID     uint32
	halfPushed bool
	format     v4l2.Format
	interval   v4l2.Fraction
}

func newFakeSensor() *fakeSensor {
	return &fakeSensor{
		values: map[uint32]int64{v4l2.CIDBrightness: 0, v4l2.CIDContrast: 32, v4l2.CIDHFlip: 0},
		scene:  map[v4l2.SceneMode]map[uint32]int64{v4l2.SceneModeNight: {v4l2.CIDExposure: 10}},
	}
}

var sensorFormats = map[v4l2.BufType][]v4l2.FmtDesc{
	v4l2.BufTypeVideoCapture: {
		{PixelFormat: v4l2.PixFmtUYVY, Description: "UYVY 4:2:2"},
		{PixelFormat: v4l2.PixFmtRGB565, Description: "RGB565"},
	},
	v4l2.BufTypeStillCapture: {
		{PixelFormat: v4l2.PixFmtJPEG, Description: "JPEG", Flags: v4l2.FmtFlagCompressed},
	},
}

func (s *fakeSensor) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	return nil
}

func (s *fakeSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSensor) FormatRange(t v4l2.BufType, index uint32) (v4l2.FmtDesc, error) {
	list := sensorFormats[t]
	if int(index) >= len(list) {
		return v4l2.FmtDesc{}, errNoEntry
	}
	return list[index], nil
}

func (s *fakeSensor) FrameSizeRange(q v4l2.FrameSizeQuery) (v4l2.FrameSize, error) {
	sizes := []v4l2.Size{{Width: 640, Height: 480}, {Width: 320, Height: 240}}
	if int(q.Index) >= len(sizes) {
		return v4l2.FrameSize{}, errNoEntry
	}
	return v4l2.FrameSize{Kind: v4l2.FrameSizeDiscrete, Discrete: sizes[q.Index]}, nil
}

func (s *fakeSensor) FrameIntervalRange(q v4l2.FrameIntervalQuery) (v4l2.FrameInterval, error) {
	if q.Index > 0 {
		return v4l2.FrameInterval{}, errNoEntry
	}
	return v4l2.FrameInterval{Kind: v4l2.FrameIntervalDiscrete, Discrete: v4l2.Fraction{Numerator: 1, Denominator: 30}}, nil
}

func (s *fakeSensor) TryFormat(v4l2.Format) error { return nil }

func (s *fakeSensor) SetFormat(f v4l2.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = f
	return nil
}

func (s *fakeSensor) SetFrameInterval(_ v4l2.BufType, iv v4l2.Fraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = iv
	return nil
}

func (s *fakeSensor) ControlRange(_, id uint32) (v4l2.ControlRange, error) {
	switch id {
	case v4l2.CIDBrightness:
		return v4l2.ControlRange{ID: id, Type: v4l2.CtrlTypeInteger, Name: "Brightness", Minimum: -128, Maximum: 127, Step: 1}, nil
	case v4l2.CIDExposure:
		return v4l2.ControlRange{ID: id, Type: v4l2.CtrlTypeInteger64, Name: "Exposure", Maximum: 1 << 40, Step: 1}, nil
	case v4l2.CIDSceneMode:
		return v4l2.ControlRange{ID: id, Type: v4l2.CtrlTypeMenu, Name: "Scene Mode", Maximum: 11, Step: 1}, nil
	}
	return v4l2.ControlRange{}, errNoEntry
}

func (s *fakeSensor) ControlMenu(_, id, index uint32) (v4l2.MenuItem, error) {
	if id != v4l2.CIDSceneMode || index > 1 {
		return v4l2.MenuItem{}, errNoEntry
	}
	return v4l2.MenuItem{ID: id, Index: index, Name: fmt.Sprintf("mode %d", index)}, nil
}

func (s *fakeSensor) GetControl(_ uint32, c *v4l2.ExtControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[c.ID]
	if !ok || c.ID == s.failID {
		return errNoEntry
	}
	c.Value = v
	return nil
}

func (s *fakeSensor) SetControl(_ uint32, c v4l2.ExtControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[c.ID]; !ok || c.ID == s.failID {
		return errNoEntry
	}
	s.values[c.ID] = c.Value
	return nil
}

func (s *fakeSensor) SceneControlRange(mode v4l2.SceneMode, class, id uint32) (v4l2.ControlRange, error) {
	if _, ok := s.scene[mode]; !ok {
		return v4l2.ControlRange{}, errNoEntry
	}
	return s.ControlRange(class, id)
}

func (s *fakeSensor) SceneControlMenu(mode v4l2.SceneMode, class, id, index uint32) (v4l2.MenuItem, error) {
	if _, ok := s.scene[mode]; !ok {
		return v4l2.MenuItem{}, errNoEntry
	}
	return s.ControlMenu(class, id, index)
}

func (s *fakeSensor) GetSceneControl(mode v4l2.SceneMode, _ uint32, c *v4l2.ExtControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.scene[mode][c.ID]
	if !ok {
		return errNoEntry
	}
	c.Value = v
	return nil
}

func (s *fakeSensor) SetSceneControl(mode v4l2.SceneMode, _ uint32, c v4l2.ExtControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	params, ok := s.scene[mode]
	if !ok {
		return errNoEntry
	}
	if _, ok := params[c.ID]; !ok {
		return errNoEntry
	}
	params[c.ID] = c.Value
	return nil
}

func (s *fakeSensor) DoHalfPush(enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halfPushed = enable
	return nil
}

type engineCall struct {
	kind   string
	mem    []byte
	format v4l2.Format
}

// fakeEngine records calls and lets tests fire completions by hand.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []engineCall
	done     TransferDone
	startErr error
	nextErr  error
	opens    int
	closes   int
}

func (e *fakeEngine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opens++
	return nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closes++
	return nil
}

func (e *fakeEngine) CheckPixelFormat(pix, _ v4l2.PixelFormat) error {
	if pix == v4l2.PixFmtRGB565 {
		return errors.New("rgb565 not supported")
	}
	return nil
}

func (e *fakeEngine) FrameSizeRange(v4l2.FrameSizeQuery) (v4l2.FrameSize, error) {
	return v4l2.FrameSize{Kind: v4l2.FrameSizeStepwise, Stepwise: v4l2.Stepwise{
		MinWidth: 96, MaxWidth: 2592, StepWidth: 1, MinHeight: 64, MaxHeight: 1944, StepHeight: 1,
	}}, nil
}

func (e *fakeEngine) TryFormat(v4l2.Format) error { return nil }

func (e *fakeEngine) StartTransfer(f v4l2.Format, mem []byte, done TransferDone) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, engineCall{kind: "start", mem: mem, format: f})
	if e.startErr != nil {
		return e.startErr
	}
	e.done = done
	return nil
}

func (e *fakeEngine) SetNextBuffer(mem []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, engineCall{kind: "next", mem: mem})
	return e.nextErr
}

func (e *fakeEngine) CancelTransfer() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, engineCall{kind: "cancel"})
	return nil
}

// fire delivers a completion through the callback of the latest session.
func (e *fakeEngine) fire(failed bool, bytesUsed uint32) {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		done(failed, bytesUsed)
	}
}

func (e *fakeEngine) kinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.kind
	}
	return out
}

func (e *fakeEngine) last() engineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return engineCall{}
	}
	return e.calls[len(e.calls)-1]
}

func (e *fakeEngine) setStartErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startErr = err
}

func (e *fakeEngine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

type recordingObserver struct {
	mu     sync.Mutex
	states []string
	done   []v4l2.Buffer
	errs   []error
}

func (r *recordingObserver) StateChanged(t v4l2.BufType, from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, fmt.Sprintf("%s:%s->%s", t, from, to))
}

func (r *recordingObserver) BufferDone(_ v4l2.BufType, buf v4l2.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, buf)
}

func (r *recordingObserver) TransferFailed(_ v4l2.BufType, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

type testRig struct {
	dev    *Device
	sensor *fakeSensor
	engine *fakeEngine
	obs    *recordingObserver
	handle *Handle
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	r := &testRig{sensor: newFakeSensor(), engine: &fakeEngine{}, obs: &recordingObserver{}}
	r.dev = New(r.sensor, r.engine, &Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer: r.obs,
	})
	h, err := r.dev.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.handle = h
	t.Cleanup(func() { _ = h.Close() })
	return r
}

func newBuffer(t v4l2.BufType, index uint32) v4l2.Buffer {
	return v4l2.Buffer{Type: t, Index: index, Mem: make([]byte, 64), Length: 64}
}

// queueBuffers allocates count containers and queues count buffers.
func (r *testRig) queueBuffers(t *testing.T, bt v4l2.BufType, count int, mode v4l2.BufMode) []v4l2.Buffer {
	t.Helper()
	if _, err := r.dev.RequestBuffers(bt, count, mode); err != nil {
		t.Fatalf("RequestBuffers(%s, %d): %v", bt, count, err)
	}
	bufs := make([]v4l2.Buffer, count)
	for i := range bufs {
		bufs[i] = newBuffer(bt, uint32(i))
		if err := r.dev.QueueBuffer(bufs[i]); err != nil {
			t.Fatalf("QueueBuffer(%s, %d): %v", bt, i, err)
		}
	}
	return bufs
}

func (r *testRig) state(t v4l2.BufType) State {
	st := r.dev.Status()
	if t == v4l2.BufTypeStillCapture {
		return st.Still.State
	}
	return st.Video.State
}

func sameMem(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type dqResult struct {
	buf v4l2.Buffer
	err error
}
