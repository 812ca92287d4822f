package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/videocore/internal/logging"
	"github.com/smazurov/videocore/pkg/v4l2"
)

var (
	// ErrNoEntry ends an indexed capability walk.
	ErrNoEntry = errors.New("sim: index out of range")
	// ErrUnknownControl is returned for controls the profile does not define.
	ErrUnknownControl = errors.New("sim: unknown control")
	// ErrOutOfRange is returned for control values outside the profile range.
	ErrOutOfRange = errors.New("sim: value out of range")
	// ErrNotOpen is returned by calls on a closed collaborator.
	ErrNotOpen = errors.New("sim: not open")
)

// Sensor is a simulated sensor control source.
type Sensor struct {
	profile SensorProfile
	logger  *slog.Logger

	mu       sync.Mutex
	open     bool
	values   map[uint32]int64
	scenes   map[v4l2.SceneMode]map[uint32]int64
	formats  map[v4l2.BufType]v4l2.Format
	interval map[v4l2.BufType]v4l2.Fraction
	halfPush bool
}

// NewSensor creates a sensor from the profile.
func NewSensor(p *Profile) *Sensor {
	return &Sensor{
		profile: p.Sensor,
		logger:  logging.GetLogger("sim"),
	}
}

func (s *Sensor) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[uint32]int64, len(s.profile.Controls))
	for _, c := range s.profile.Controls {
		s.values[c.ID] = c.Default
	}
	s.scenes = make(map[v4l2.SceneMode]map[uint32]int64, len(s.profile.Scenes))
	for _, sc := range s.profile.Scenes {
		params := make(map[uint32]int64, len(sc.Values))
		for name, v := range sc.Values {
			if c, ok := s.controlByName(name); ok {
				params[c.ID] = v
			}
		}
		s.scenes[v4l2.SceneMode(sc.Mode)] = params
	}
	s.formats = make(map[v4l2.BufType]v4l2.Format, 2)
	s.interval = make(map[v4l2.BufType]v4l2.Fraction, 2)
	s.halfPush = false
	s.open = true

	s.logger.Debug("Sensor opened", "controls", len(s.values), "scenes", len(s.scenes))
	return nil
}

func (s *Sensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *Sensor) FormatRange(t v4l2.BufType, index uint32) (v4l2.FmtDesc, error) {
	var n uint32
	for _, f := range s.profile.Formats {
		if f.Stream != t.String() {
			continue
		}
		if n == index {
			desc := v4l2.FmtDesc{
				Index:       index,
				Type:        t,
				Description: f.Description,
				PixelFormat: v4l2.ParsePixelFormat(f.PixelFormat),
			}
			if f.SubPixelFormat != "" {
				desc.SubPixelFormat = v4l2.ParsePixelFormat(f.SubPixelFormat)
			}
			if f.Compressed {
				desc.Flags |= v4l2.FmtFlagCompressed
			}
			return desc, nil
		}
		n++
	}
	return v4l2.FmtDesc{}, ErrNoEntry
}

func (s *Sensor) FrameSizeRange(q v4l2.FrameSizeQuery) (v4l2.FrameSize, error) {
	if !s.hasFormat(q.Type, q.PixelFormat) {
		return v4l2.FrameSize{}, fmt.Errorf("%w: pixel format %s", ErrNoEntry, q.PixelFormat)
	}
	if int(q.Index) >= len(s.profile.FrameSizes) {
		return v4l2.FrameSize{}, ErrNoEntry
	}
	fs := s.profile.FrameSizes[q.Index].frameSize()
	fs.Index = q.Index
	return fs, nil
}

func (s *Sensor) FrameIntervalRange(q v4l2.FrameIntervalQuery) (v4l2.FrameInterval, error) {
	if int(q.Index) >= len(s.profile.FrameIntervals) {
		return v4l2.FrameInterval{}, ErrNoEntry
	}
	iv := s.profile.FrameIntervals[q.Index]
	return v4l2.FrameInterval{
		Index:    q.Index,
		Kind:     v4l2.FrameIntervalDiscrete,
		Discrete: v4l2.Fraction{Numerator: iv.Numerator, Denominator: iv.Denominator},
	}, nil
}

func (s *Sensor) TryFormat(f v4l2.Format) error {
	if !s.hasFormat(f.Type, f.PixelFormat) {
		return fmt.Errorf("sim: pixel format %s not available on %s", f.PixelFormat, f.Type)
	}
	size := v4l2.Size{Width: f.Width, Height: f.Height}
	for _, e := range s.profile.FrameSizes {
		if e.contains(size) {
			return nil
		}
	}
	return fmt.Errorf("sim: frame size %s not supported", size)
}

func (s *Sensor) SetFormat(f v4l2.Format) error {
	if err := s.TryFormat(f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	s.formats[f.Type] = f
	return nil
}

// Format returns the format last set for a stream.
func (s *Sensor) Format(t v4l2.BufType) (v4l2.Format, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.formats[t]
	return f, ok
}

func (s *Sensor) SetFrameInterval(t v4l2.BufType, interval v4l2.Fraction) error {
	found := false
	for _, iv := range s.profile.FrameIntervals {
		if iv.Numerator*interval.Denominator == interval.Numerator*iv.Denominator {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("sim: frame interval %d/%d not supported", interval.Numerator, interval.Denominator)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	s.interval[t] = interval
	return nil
}

func (s *Sensor) ControlRange(class, id uint32) (v4l2.ControlRange, error) {
	c, ok := s.control(id)
	if !ok {
		return v4l2.ControlRange{}, fmt.Errorf("%w: %#x", ErrUnknownControl, id)
	}
	return v4l2.ControlRange{
		Class:        class,
		ID:           c.ID,
		Type:         controlTypes[c.Type],
		Name:         c.Name,
		Minimum:      c.Min,
		Maximum:      c.Max,
		Step:         c.Step,
		DefaultValue: c.Default,
	}, nil
}

func (s *Sensor) ControlMenu(class, id, index uint32) (v4l2.MenuItem, error) {
	c, ok := s.control(id)
	if !ok {
		return v4l2.MenuItem{}, fmt.Errorf("%w: %#x", ErrUnknownControl, id)
	}
	if int(index) >= len(c.Menu) {
		return v4l2.MenuItem{}, ErrNoEntry
	}
	return v4l2.MenuItem{Class: class, ID: id, Index: index, Name: c.Menu[index], Value: int64(index)}, nil
}

func (s *Sensor) GetControl(_ uint32, ctrl *v4l2.ExtControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	v, ok := s.values[ctrl.ID]
	if !ok {
		return fmt.Errorf("%w: %#x", ErrUnknownControl, ctrl.ID)
	}
	ctrl.Value = v
	return nil
}

func (s *Sensor) SetControl(_ uint32, ctrl v4l2.ExtControl) error {
	c, ok := s.control(ctrl.ID)
	if !ok {
		return fmt.Errorf("%w: %#x", ErrUnknownControl, ctrl.ID)
	}
	if ctrl.Value < c.Min || ctrl.Value > c.Max {
		return fmt.Errorf("%w: %s=%d not in [%d, %d]", ErrOutOfRange, c.Name, ctrl.Value, c.Min, c.Max)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	s.values[ctrl.ID] = ctrl.Value
	s.logger.Debug("Control set", "control", c.Name, "value", ctrl.Value)
	return nil
}

func (s *Sensor) SceneControlRange(mode v4l2.SceneMode, class, id uint32) (v4l2.ControlRange, error) {
	if !s.hasScene(mode, id) {
		return v4l2.ControlRange{}, fmt.Errorf("%w: %#x in scene %d", ErrUnknownControl, id, mode)
	}
	return s.ControlRange(class, id)
}

func (s *Sensor) SceneControlMenu(mode v4l2.SceneMode, class, id, index uint32) (v4l2.MenuItem, error) {
	if !s.hasScene(mode, id) {
		return v4l2.MenuItem{}, fmt.Errorf("%w: %#x in scene %d", ErrUnknownControl, id, mode)
	}
	return s.ControlMenu(class, id, index)
}

func (s *Sensor) GetSceneControl(mode v4l2.SceneMode, _ uint32, ctrl *v4l2.ExtControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	v, ok := s.scenes[mode][ctrl.ID]
	if !ok {
		return fmt.Errorf("%w: %#x in scene %d", ErrUnknownControl, ctrl.ID, mode)
	}
	ctrl.Value = v
	return nil
}

func (s *Sensor) SetSceneControl(mode v4l2.SceneMode, _ uint32, ctrl v4l2.ExtControl) error {
	c, ok := s.control(ctrl.ID)
	if !ok {
		return fmt.Errorf("%w: %#x", ErrUnknownControl, ctrl.ID)
	}
	if ctrl.Value < c.Min || ctrl.Value > c.Max {
		return fmt.Errorf("%w: %s=%d", ErrOutOfRange, c.Name, ctrl.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	params, ok := s.scenes[mode]
	if !ok {
		return fmt.Errorf("%w: scene %d", ErrUnknownControl, mode)
	}
	if _, ok := params[ctrl.ID]; !ok {
		return fmt.Errorf("%w: %#x in scene %d", ErrUnknownControl, ctrl.ID, mode)
	}
	params[ctrl.ID] = ctrl.Value
	return nil
}

func (s *Sensor) DoHalfPush(enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	s.halfPush = enable
	s.logger.Debug("Half push", "enable", enable)
	return nil
}

// HalfPushed reports whether the 3A lock of a half push is held.
func (s *Sensor) HalfPushed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halfPush
}

func (s *Sensor) hasFormat(t v4l2.BufType, pix v4l2.PixelFormat) bool {
	for _, f := range s.profile.Formats {
		if f.Stream == t.String() && v4l2.ParsePixelFormat(f.PixelFormat) == pix {
			return true
		}
	}
	return false
}

func (s *Sensor) hasScene(mode v4l2.SceneMode, id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scenes[mode][id]
	return ok
}

func (s *Sensor) control(id uint32) (ControlEntry, bool) {
	for _, c := range s.profile.Controls {
		if c.ID == id {
			return c, true
		}
	}
	return ControlEntry{}, false
}

func (s *Sensor) controlByName(name string) (ControlEntry, bool) {
	for _, c := range s.profile.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return ControlEntry{}, false
}
