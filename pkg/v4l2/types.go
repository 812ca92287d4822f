package v4l2

import (
	"fmt"
	"time"
)

// BufType identifies a capture stream.
type BufType uint32

// Buffer types.
const (
	BufTypeVideoCapture BufType = 1
	BufTypeStillCapture BufType = 0x10
)

// String returns the lowercase stream name used in logs and URLs.
func (t BufType) String() string {
	switch t {
	case BufTypeVideoCapture:
		return "video"
	case BufTypeStillCapture:
		return "still"
	default:
		return fmt.Sprintf("buftype(%d)", uint32(t))
	}
}

// Valid reports whether t names one of the two capture streams.
func (t BufType) Valid() bool {
	return t == BufTypeVideoCapture || t == BufTypeStillCapture
}

// ParseBufType converts a stream name ("video", "still") to a BufType.
func ParseBufType(name string) (BufType, error) {
	switch name {
	case "video":
		return BufTypeVideoCapture, nil
	case "still":
		return BufTypeStillCapture, nil
	default:
		return 0, fmt.Errorf("unknown stream type %q", name)
	}
}

// BufMode selects how the frame buffer queue behaves when it runs dry.
type BufMode int

// Buffer modes.
const (
	// BufModeFIFO stalls the transfer when no queued buffer is left.
	BufModeFIFO BufMode = iota
	// BufModeRing recycles the oldest unclaimed completed buffer.
	BufModeRing
)

// String returns the mode name.
func (m BufMode) String() string {
	switch m {
	case BufModeFIFO:
		return "fifo"
	case BufModeRing:
		return "ring"
	default:
		return fmt.Sprintf("bufmode(%d)", int(m))
	}
}

// ParseBufMode converts a mode name to a BufMode. The empty string is FIFO.
func ParseBufMode(name string) (BufMode, error) {
	switch name {
	case "", "fifo":
		return BufModeFIFO, nil
	case "ring":
		return BufModeRing, nil
	default:
		return 0, fmt.Errorf("unknown buffer mode %q", name)
	}
}

// Buffer flags.
const (
	BufFlagError uint32 = 0x00000040
)

// Buffer is the client-visible buffer descriptor.
type Buffer struct {
	Type      BufType
	Index     uint32
	Mem       []byte // caller-owned memory the transfer writes into
	Length    uint32 // usable bytes of Mem
	BytesUsed uint32
	Flags     uint32
	Sequence  uint32
	Timestamp time.Time
}

// HasError reports whether the transfer that filled the buffer failed.
func (b *Buffer) HasError() bool {
	return b.Flags&BufFlagError != 0
}

// FmtDesc describes one supported pixel format.
type FmtDesc struct {
	Index          uint32
	Type           BufType
	Flags          uint32
	Description    string
	PixelFormat    PixelFormat
	SubPixelFormat PixelFormat
}

// Format flags.
const (
	FmtFlagCompressed uint32 = 0x0001
	FmtFlagEmulated   uint32 = 0x0002
)

// Format is the negotiated capture format of a stream.
type Format struct {
	Type           BufType
	Width          uint32
	Height         uint32
	PixelFormat    PixelFormat
	SubWidth       uint32
	SubHeight      uint32
	SubPixelFormat PixelFormat
	SizeImage      uint32 // minimum buffer length, 0 = unconstrained
}

// Size is a width/height pair.
type Size struct {
	Width  uint32
	Height uint32
}

// String formats the size as WxH.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Stepwise describes a stepped range of frame sizes.
type Stepwise struct {
	MinWidth   uint32
	MaxWidth   uint32
	StepWidth  uint32
	MinHeight  uint32
	MaxHeight  uint32
	StepHeight uint32
}

// Contains reports whether s lies on the stepped grid.
func (r Stepwise) Contains(s Size) bool {
	if s.Width < r.MinWidth || s.Width > r.MaxWidth || s.Height < r.MinHeight || s.Height > r.MaxHeight {
		return false
	}
	if r.StepWidth != 0 && (s.Width-r.MinWidth)%r.StepWidth != 0 {
		return false
	}
	if r.StepHeight != 0 && (s.Height-r.MinHeight)%r.StepHeight != 0 {
		return false
	}
	return true
}

// FrameSizeType distinguishes discrete and stepwise frame sizes.
type FrameSizeType uint32

// Frame size types.
const (
	FrameSizeDiscrete   FrameSizeType = 1
	FrameSizeContinuous FrameSizeType = 2
	FrameSizeStepwise   FrameSizeType = 3
)

// FrameSizeQuery selects the frame size entry to enumerate.
type FrameSizeQuery struct {
	Index          uint32
	Type           BufType
	PixelFormat    PixelFormat
	SubPixelFormat PixelFormat
}

// FrameSize is one enumerated frame size. Either Discrete or Stepwise is
// meaningful depending on Kind; the Sub fields describe the sub image.
type FrameSize struct {
	Index       uint32
	Kind        FrameSizeType
	Discrete    Size
	Stepwise    Stepwise
	SubKind     FrameSizeType
	SubDiscrete Size
	SubStepwise Stepwise
}

// Fraction is a rational number, used for frame intervals.
type Fraction struct {
	Numerator   uint32
	Denominator uint32
}

// FPS returns the frame rate for an interval expressed in seconds.
func (f Fraction) FPS() float64 {
	if f.Numerator == 0 {
		return 0
	}
	return float64(f.Denominator) / float64(f.Numerator)
}

// Duration converts the interval to a time.Duration.
func (f Fraction) Duration() time.Duration {
	if f.Denominator == 0 {
		return 0
	}
	return time.Duration(uint64(f.Numerator) * uint64(time.Second) / uint64(f.Denominator))
}

// FrameIntervalType distinguishes discrete and stepwise intervals.
type FrameIntervalType uint32

// Frame interval types.
const (
	FrameIntervalDiscrete   FrameIntervalType = 1
	FrameIntervalContinuous FrameIntervalType = 2
	FrameIntervalStepwise   FrameIntervalType = 3
)

// FrameIntervalQuery selects the frame interval entry to enumerate.
type FrameIntervalQuery struct {
	Index          uint32
	Type           BufType
	PixelFormat    PixelFormat
	SubPixelFormat PixelFormat
	Width          uint32
	Height         uint32
}

// FrameInterval is one enumerated frame interval.
type FrameInterval struct {
	Index    uint32
	Kind     FrameIntervalType
	Discrete Fraction
	Min      Fraction
	Max      Fraction
	Step     Fraction
}
