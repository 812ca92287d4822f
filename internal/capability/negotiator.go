// Package capability merges the capabilities reported by the sensor control
// source and the image data (transfer) source into the lists a client sees.
//
// The supported format list is built once, when the device is initialized,
// by walking the sensor's indexed format list and keeping the entries the
// image data source accepts. Frame sizes are negotiated per query: discrete
// sensor sizes must be accepted verbatim by the image data source, stepwise
// ranges are intersected (step = LCM, min = larger, max = smaller).
package capability

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/smazurov/videocore/pkg/v4l2"
)

// maxEntries bounds every indexed walk over a capability source.
const maxEntries = 1024

// ErrNotSupported is returned when a query index has no matching entry.
var ErrNotSupported = errors.New("capability: no matching entry")

// SensorSource is the capability surface of the sensor control collaborator.
// Indexed queries return an error once the index runs past the last entry.
type SensorSource interface {
	FormatRange(t v4l2.BufType, index uint32) (v4l2.FmtDesc, error)
	FrameSizeRange(q v4l2.FrameSizeQuery) (v4l2.FrameSize, error)
	FrameIntervalRange(q v4l2.FrameIntervalQuery) (v4l2.FrameInterval, error)
}

// TransferSource is the capability surface of the image data collaborator.
type TransferSource interface {
	CheckPixelFormat(pix, sub v4l2.PixelFormat) error
	FrameSizeRange(q v4l2.FrameSizeQuery) (v4l2.FrameSize, error)
	TryFormat(f v4l2.Format) error
}

// Negotiator holds the merged format lists and answers enumeration queries.
type Negotiator struct {
	sensor   SensorSource
	transfer TransferSource
	formats  map[v4l2.BufType][]v4l2.FmtDesc
	logger   *slog.Logger
}

// New creates a negotiator and builds the supported format lists for both
// capture streams.
func New(sensor SensorSource, transfer TransferSource, logger *slog.Logger) *Negotiator {
	n := &Negotiator{
		sensor:   sensor,
		transfer: transfer,
		formats:  make(map[v4l2.BufType][]v4l2.FmtDesc, 2),
		logger:   logger,
	}
	for _, t := range []v4l2.BufType{v4l2.BufTypeVideoCapture, v4l2.BufTypeStillCapture} {
		n.formats[t] = n.buildFormatList(t)
	}
	return n
}

func (n *Negotiator) buildFormatList(t v4l2.BufType) []v4l2.FmtDesc {
	list := make([]v4l2.FmtDesc, 0, 8)

	for index := uint32(0); index < maxEntries; index++ {
		desc, err := n.sensor.FormatRange(t, index)
		if err != nil {
			break
		}

		if err := n.transfer.CheckPixelFormat(desc.PixelFormat, desc.SubPixelFormat); err != nil {
			n.logger.Debug("Format rejected by image data source",
				"stream", t.String(), "pixelformat", desc.PixelFormat.String(), "error", err)
			continue
		}

		desc.Index = uint32(len(list))
		desc.Type = t
		list = append(list, desc)
	}

	if len(list) == 0 {
		n.logger.Warn("No format supported by both capability sources", "stream", t.String())
	} else {
		n.logger.Debug("Supported format list built", "stream", t.String(), "count", len(list))
	}
	return list
}

// Formats returns a copy of the supported format list for a stream.
func (n *Negotiator) Formats(t v4l2.BufType) []v4l2.FmtDesc {
	list := n.formats[t]
	out := make([]v4l2.FmtDesc, len(list))
	copy(out, list)
	return out
}

// EnumFormat returns the supported format at index.
func (n *Negotiator) EnumFormat(t v4l2.BufType, index uint32) (v4l2.FmtDesc, error) {
	list, ok := n.formats[t]
	if !ok {
		return v4l2.FmtDesc{}, fmt.Errorf("unknown stream type %d", uint32(t))
	}
	if int(index) >= len(list) {
		return v4l2.FmtDesc{}, ErrNotSupported
	}
	return list[index], nil
}

// EnumFrameSize returns the q.Index-th frame size supported by both sources.
func (n *Negotiator) EnumFrameSize(q v4l2.FrameSizeQuery) (v4l2.FrameSize, error) {
	imgQuery := q
	imgQuery.Index = 0
	imgRange, err := n.transfer.FrameSizeRange(imgQuery)
	if err != nil {
		return v4l2.FrameSize{}, fmt.Errorf("%w: image data frame sizes: %v", ErrNotSupported, err)
	}

	var supported uint32
	seen := make(map[[2]v4l2.Size]struct{})

	for index := uint32(0); index < maxEntries; index++ {
		sensQuery := q
		sensQuery.Index = index
		sens, err := n.sensor.FrameSizeRange(sensQuery)
		if err != nil {
			break
		}

		var candidate v4l2.FrameSize
		switch {
		case sens.Kind == v4l2.FrameSizeDiscrete:
			f := v4l2.Format{
				Type:           q.Type,
				PixelFormat:    q.PixelFormat,
				SubPixelFormat: q.SubPixelFormat,
				Width:          sens.Discrete.Width,
				Height:         sens.Discrete.Height,
				SubWidth:       sens.SubDiscrete.Width,
				SubHeight:      sens.SubDiscrete.Height,
			}
			if n.transfer.TryFormat(f) != nil {
				continue
			}
			candidate = v4l2.FrameSize{
				Kind:        v4l2.FrameSizeDiscrete,
				Discrete:    sens.Discrete,
				SubKind:     v4l2.FrameSizeDiscrete,
				SubDiscrete: sens.SubDiscrete,
			}

		case imgRange.Kind == v4l2.FrameSizeDiscrete:
			if !sens.Stepwise.Contains(imgRange.Discrete) {
				continue
			}
			candidate = v4l2.FrameSize{
				Kind:        v4l2.FrameSizeDiscrete,
				Discrete:    imgRange.Discrete,
				SubKind:     v4l2.FrameSizeDiscrete,
				SubDiscrete: imgRange.SubDiscrete,
			}

		default:
			merged, ok := MergeStepwise(sens.Stepwise, imgRange.Stepwise)
			if !ok {
				continue
			}
			subMerged, _ := MergeStepwise(sens.SubStepwise, imgRange.SubStepwise)
			candidate = v4l2.FrameSize{
				Kind:        v4l2.FrameSizeStepwise,
				Stepwise:    merged,
				SubKind:     v4l2.FrameSizeStepwise,
				SubStepwise: subMerged,
			}
			if merged.MinWidth == merged.MaxWidth && merged.MinHeight == merged.MaxHeight {
				candidate.Kind = v4l2.FrameSizeDiscrete
				candidate.Discrete = v4l2.Size{Width: merged.MinWidth, Height: merged.MinHeight}
			}
		}

		if candidate.Kind == v4l2.FrameSizeDiscrete {
			key := [2]v4l2.Size{candidate.Discrete, candidate.SubDiscrete}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		if supported == q.Index {
			candidate.Index = q.Index
			return candidate, nil
		}
		supported++

		// A stepwise range covers every remaining sensor entry.
		if candidate.Kind == v4l2.FrameSizeStepwise {
			break
		}
	}

	return v4l2.FrameSize{}, ErrNotSupported
}

// EnumFrameInterval forwards a frame interval query to the sensor.
func (n *Negotiator) EnumFrameInterval(q v4l2.FrameIntervalQuery) (v4l2.FrameInterval, error) {
	iv, err := n.sensor.FrameIntervalRange(q)
	if err != nil {
		return v4l2.FrameInterval{}, fmt.Errorf("%w: %v", ErrNotSupported, err)
	}
	iv.Index = q.Index
	return iv, nil
}

// MergeStepwise intersects two stepwise ranges. The result steps by the
// least common multiple of both steps, starts at the larger minimum and stops
// at the smaller maximum. ok is false when the intersection is empty.
func MergeStepwise(a, b v4l2.Stepwise) (v4l2.Stepwise, bool) {
	m := v4l2.Stepwise{
		MinWidth:   max(a.MinWidth, b.MinWidth),
		MaxWidth:   min(a.MaxWidth, b.MaxWidth),
		StepWidth:  LCM(a.StepWidth, b.StepWidth),
		MinHeight:  max(a.MinHeight, b.MinHeight),
		MaxHeight:  min(a.MaxHeight, b.MaxHeight),
		StepHeight: LCM(a.StepHeight, b.StepHeight),
	}
	ok := m.MinWidth <= m.MaxWidth && m.MinHeight <= m.MaxHeight
	return m, ok
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b, or 0 if either is 0.
func LCM(a, b uint32) uint32 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / GCD(a, b) * b
}
