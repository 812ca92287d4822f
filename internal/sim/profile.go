// Package sim provides simulated capture collaborators: a sensor control
// source and an image data transfer engine, both described by a TOML
// hardware profile.
package sim

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/videocore/pkg/v4l2"
)

//go:embed profiles/default.toml
var defaultProfile []byte

// Profile describes the simulated hardware.
type Profile struct {
	Name   string        `toml:"name"`
	Sensor SensorProfile `toml:"sensor"`
	Engine EngineProfile `toml:"engine"`
}

// SensorProfile lists the sensor capabilities.
type SensorProfile struct {
	Formats        []FormatEntry    `toml:"formats"`
	FrameSizes     []FrameSizeEntry `toml:"frame_sizes"`
	FrameIntervals []IntervalEntry  `toml:"frame_intervals"`
	Controls       []ControlEntry   `toml:"controls"`
	Scenes         []SceneEntry     `toml:"scenes"`
}

// FormatEntry is one sensor format of a stream.
type FormatEntry struct {
	Stream         string `toml:"stream"`
	PixelFormat    string `toml:"pixelformat"`
	SubPixelFormat string `toml:"sub_pixelformat"`
	Description    string `toml:"description"`
	Compressed     bool   `toml:"compressed"`
}

// FrameSizeEntry is a discrete size (Width, Height) or, when MaxWidth is
// set, a stepwise range.
type FrameSizeEntry struct {
	Width      uint32 `toml:"width"`
	Height     uint32 `toml:"height"`
	MinWidth   uint32 `toml:"min_width"`
	MaxWidth   uint32 `toml:"max_width"`
	StepWidth  uint32 `toml:"step_width"`
	MinHeight  uint32 `toml:"min_height"`
	MaxHeight  uint32 `toml:"max_height"`
	StepHeight uint32 `toml:"step_height"`
}

// IntervalEntry is one discrete frame interval in seconds.
type IntervalEntry struct {
	Numerator   uint32 `toml:"numerator"`
	Denominator uint32 `toml:"denominator"`
}

// ControlEntry describes one sensor control.
type ControlEntry struct {
	ID      uint32   `toml:"id"`
	Name    string   `toml:"name"`
	Type    string   `toml:"type"`
	Min     int64    `toml:"min"`
	Max     int64    `toml:"max"`
	Step    uint64   `toml:"step"`
	Default int64    `toml:"default"`
	Menu    []string `toml:"menu"`
}

// SceneEntry holds the control values of one scene mode, keyed by control name.
type SceneEntry struct {
	Mode   uint32           `toml:"mode"`
	Values map[string]int64 `toml:"values"`
}

// EngineProfile describes the transfer engine.
type EngineProfile struct {
	PixelFormats []string `toml:"pixelformats"`
	MinWidth     uint32   `toml:"min_width"`
	MaxWidth     uint32   `toml:"max_width"`
	StepWidth    uint32   `toml:"step_width"`
	MinHeight    uint32   `toml:"min_height"`
	MaxHeight    uint32   `toml:"max_height"`
	StepHeight   uint32   `toml:"step_height"`
	FramePeriod  string   `toml:"frame_period"`
	FailEvery    int      `toml:"fail_every"` // every Nth transfer fails, 0 = never
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() *Profile {
	p, err := ParseProfile(defaultProfile)
	if err != nil {
		panic(fmt.Sprintf("sim: built-in profile: %v", err))
	}
	return p
}

// LoadProfile reads a profile file. An empty path yields the built-in profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a TOML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	for i, f := range p.Sensor.Formats {
		if _, err := v4l2.ParseBufType(f.Stream); err != nil {
			return fmt.Errorf("sensor.formats[%d]: %w", i, err)
		}
		if _, err := parsePixelFormat(f.PixelFormat); err != nil {
			return fmt.Errorf("sensor.formats[%d]: %w", i, err)
		}
	}
	for i, iv := range p.Sensor.FrameIntervals {
		if iv.Denominator == 0 {
			return fmt.Errorf("sensor.frame_intervals[%d]: zero denominator", i)
		}
	}
	for i, c := range p.Sensor.Controls {
		if _, ok := controlTypes[c.Type]; !ok {
			return fmt.Errorf("sensor.controls[%d]: unknown type %q", i, c.Type)
		}
		if c.Min > c.Max {
			return fmt.Errorf("sensor.controls[%d]: min above max", i)
		}
	}
	for _, name := range p.Engine.PixelFormats {
		if _, err := parsePixelFormat(name); err != nil {
			return fmt.Errorf("engine.pixelformats: %w", err)
		}
	}
	if _, err := p.Engine.period(); err != nil {
		return err
	}
	return nil
}

func (e EngineProfile) period() (time.Duration, error) {
	if e.FramePeriod == "" {
		return 33 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(e.FramePeriod)
	if err != nil {
		return 0, fmt.Errorf("engine.frame_period: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("engine.frame_period must be positive")
	}
	return d, nil
}

func parsePixelFormat(s string) (v4l2.PixelFormat, error) {
	if len(s) == 0 || len(s) > 4 {
		return 0, fmt.Errorf("invalid pixel format %q", s)
	}
	return v4l2.ParsePixelFormat(s), nil
}

var controlTypes = map[string]v4l2.ControlType{
	"integer":   v4l2.CtrlTypeInteger,
	"boolean":   v4l2.CtrlTypeBoolean,
	"menu":      v4l2.CtrlTypeMenu,
	"button":    v4l2.CtrlTypeButton,
	"integer64": v4l2.CtrlTypeInteger64,
	"u8":        v4l2.CtrlTypeU8,
	"u16":       v4l2.CtrlTypeU16,
	"u32":       v4l2.CtrlTypeU32,
}

func (e FrameSizeEntry) frameSize() v4l2.FrameSize {
	if e.MaxWidth == 0 {
		return v4l2.FrameSize{
			Kind:     v4l2.FrameSizeDiscrete,
			Discrete: v4l2.Size{Width: e.Width, Height: e.Height},
		}
	}
	return v4l2.FrameSize{
		Kind: v4l2.FrameSizeStepwise,
		Stepwise: v4l2.Stepwise{
			MinWidth: e.MinWidth, MaxWidth: e.MaxWidth, StepWidth: e.StepWidth,
			MinHeight: e.MinHeight, MaxHeight: e.MaxHeight, StepHeight: e.StepHeight,
		},
	}
}

func (e FrameSizeEntry) contains(s v4l2.Size) bool {
	fs := e.frameSize()
	if fs.Kind == v4l2.FrameSizeDiscrete {
		return fs.Discrete == s
	}
	return fs.Stepwise.Contains(s)
}
