package video

import (
	"errors"
	"fmt"

	"github.com/smazurov/videocore/internal/capability"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// EnumFormats returns every supported format of stream t.
func (d *Device) EnumFormats(t v4l2.BufType) ([]v4l2.FmtDesc, error) {
	const op = "enum_fmt"
	if _, err := d.lookup(op, t); err != nil {
		return nil, err
	}
	neg, err := d.negotiator(op, t)
	if err != nil {
		return nil, err
	}
	return neg.Formats(t), nil
}

// EnumFormat returns the supported format of stream t at index.
func (d *Device) EnumFormat(t v4l2.BufType, index uint32) (v4l2.FmtDesc, error) {
	const op = "enum_fmt"
	if _, err := d.lookup(op, t); err != nil {
		return v4l2.FmtDesc{}, err
	}
	neg, err := d.negotiator(op, t)
	if err != nil {
		return v4l2.FmtDesc{}, err
	}
	desc, err := neg.EnumFormat(t, index)
	return desc, wrapErr(op, t, err)
}

// EnumFrameSize returns the q.Index-th frame size both collaborators support.
func (d *Device) EnumFrameSize(q v4l2.FrameSizeQuery) (v4l2.FrameSize, error) {
	const op = "enum_framesizes"
	if _, err := d.lookup(op, q.Type); err != nil {
		return v4l2.FrameSize{}, err
	}
	neg, err := d.negotiator(op, q.Type)
	if err != nil {
		return v4l2.FrameSize{}, err
	}
	fs, err := neg.EnumFrameSize(q)
	return fs, wrapErr(op, q.Type, err)
}

// FrameSizes walks EnumFrameSize until the first unsupported index.
func (d *Device) FrameSizes(t v4l2.BufType, pix, sub v4l2.PixelFormat) ([]v4l2.FrameSize, error) {
	var sizes []v4l2.FrameSize
	for index := uint32(0); ; index++ {
		fs, err := d.EnumFrameSize(v4l2.FrameSizeQuery{
			Index:          index,
			Type:           t,
			PixelFormat:    pix,
			SubPixelFormat: sub,
		})
		if err != nil {
			if IsNotSupported(err) {
				return sizes, nil
			}
			return nil, err
		}
		sizes = append(sizes, fs)
	}
}

// EnumFrameInterval returns the q.Index-th frame interval of the sensor.
func (d *Device) EnumFrameInterval(q v4l2.FrameIntervalQuery) (v4l2.FrameInterval, error) {
	const op = "enum_frameintervals"
	if _, err := d.lookup(op, q.Type); err != nil {
		return v4l2.FrameInterval{}, err
	}
	neg, err := d.negotiator(op, q.Type)
	if err != nil {
		return v4l2.FrameInterval{}, err
	}
	iv, err := neg.EnumFrameInterval(q)
	return iv, wrapErr(op, q.Type, err)
}

// FrameIntervals walks EnumFrameInterval until the first unsupported index.
func (d *Device) FrameIntervals(q v4l2.FrameIntervalQuery) ([]v4l2.FrameInterval, error) {
	var intervals []v4l2.FrameInterval
	for q.Index = 0; ; q.Index++ {
		iv, err := d.EnumFrameInterval(q)
		if err != nil {
			if IsNotSupported(err) {
				return intervals, nil
			}
			return nil, err
		}
		intervals = append(intervals, iv)
	}
}

// IsNotSupported reports whether err ends an enumeration.
func IsNotSupported(err error) bool {
	return err != nil && (errors.Is(err, ErrNotSupported) || errors.Is(err, capability.ErrNotSupported))
}

// TryFormat checks f against the image data collaborator and the sensor
// without changing anything.
func (d *Device) TryFormat(f v4l2.Format) error {
	const op = "try_fmt"
	s, err := d.lookup(op, f.Type)
	if err != nil {
		return err
	}
	if err := d.validateFormat(op, f); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := d.engine.TryFormat(f); err != nil {
		return NewError(ErrCodeInvalidArgument, op, f.Type, "rejected by transfer engine", err)
	}
	if err := d.sensor.TryFormat(f); err != nil {
		return NewError(ErrCodeInvalidArgument, op, f.Type, "rejected by sensor", err)
	}
	return nil
}

// SetFormat applies f to the sensor after the image data collaborator
// accepted it. The format is used by every following transfer of the stream.
func (d *Device) SetFormat(f v4l2.Format) error {
	const op = "s_fmt"
	s, err := d.lookup(op, f.Type)
	if err != nil {
		return err
	}
	if err := d.validateFormat(op, f); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	d.mu.Lock()
	state := s.state
	d.mu.Unlock()
	if state == StateTransferring {
		return NewError(ErrCodeBusy, op, f.Type, "stream is transferring", nil)
	}

	if err := d.engine.TryFormat(f); err != nil {
		return NewError(ErrCodeInvalidArgument, op, f.Type, "rejected by transfer engine", err)
	}
	if err := d.sensor.SetFormat(f); err != nil {
		return NewError(ErrCodeInvalidArgument, op, f.Type, "rejected by sensor", err)
	}

	d.mu.Lock()
	s.format = f
	d.mu.Unlock()

	d.logger.Info("Format set", "stream", f.Type.String(),
		"pixelformat", f.PixelFormat.String(), "width", f.Width, "height", f.Height)
	return nil
}

// GetFormat returns the current format of stream t.
func (d *Device) GetFormat(t v4l2.BufType) (v4l2.Format, error) {
	const op = "g_fmt"
	s, err := d.lookup(op, t)
	if err != nil {
		return v4l2.Format{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(op, t); err != nil {
		return v4l2.Format{}, err
	}
	return s.format, nil
}

// SetFrameInterval passes the frame interval of stream t to the sensor.
func (d *Device) SetFrameInterval(t v4l2.BufType, interval v4l2.Fraction) error {
	const op = "s_parm"
	s, err := d.lookup(op, t)
	if err != nil {
		return err
	}
	if interval.Denominator == 0 {
		return NewError(ErrCodeInvalidArgument, op, t, "zero denominator", nil)
	}
	if _, err := d.negotiator(op, t); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := d.sensor.SetFrameInterval(t, interval); err != nil {
		return NewError(ErrCodeInvalidArgument, op, t, "rejected by sensor", err)
	}
	return nil
}

// validateFormat requires an open device and a pixel format from the
// supported list of the stream.
func (d *Device) validateFormat(op string, f v4l2.Format) error {
	neg, err := d.negotiator(op, f.Type)
	if err != nil {
		return err
	}
	for _, desc := range neg.Formats(f.Type) {
		if desc.PixelFormat == f.PixelFormat && desc.SubPixelFormat == f.SubPixelFormat {
			return nil
		}
	}
	return NewError(ErrCodeInvalidArgument, op, f.Type,
		fmt.Sprintf("unsupported pixel format %s", f.PixelFormat), nil)
}
