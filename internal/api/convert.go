package api

import (
	"strings"
	"time"

	"github.com/smazurov/videocore/internal/api/models"
	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
)

func fourCC(p v4l2.PixelFormat) string {
	if p == 0 {
		return ""
	}
	return strings.TrimRight(p.String(), " ")
}

func parseFourCC(s string) v4l2.PixelFormat {
	if s == "" {
		return 0
	}
	return v4l2.ParsePixelFormat(s)
}

func toFormatData(f v4l2.Format) models.FormatData {
	return models.FormatData{
		Width:          f.Width,
		Height:         f.Height,
		PixelFormat:    fourCC(f.PixelFormat),
		SubWidth:       f.SubWidth,
		SubHeight:      f.SubHeight,
		SubPixelFormat: fourCC(f.SubPixelFormat),
		SizeImage:      f.SizeImage,
	}
}

func fromFormatData(t v4l2.BufType, f models.FormatData) v4l2.Format {
	return v4l2.Format{
		Type:           t,
		Width:          f.Width,
		Height:         f.Height,
		PixelFormat:    parseFourCC(f.PixelFormat),
		SubWidth:       f.SubWidth,
		SubHeight:      f.SubHeight,
		SubPixelFormat: parseFourCC(f.SubPixelFormat),
		SizeImage:      f.SizeImage,
	}
}

func toStreamStatus(s video.StreamStatus) models.StreamStatusData {
	return models.StreamStatusData{
		Stream:    s.Type.String(),
		State:     s.State.String(),
		Remaining: s.Remaining,
		Format:    toFormatData(s.Format),
		Queue: models.QueueData{
			Mode:       s.Queue.Mode.String(),
			Capacity:   s.Queue.Capacity,
			Free:       s.Queue.Free,
			Pending:    s.Queue.Pending,
			Filling:    s.Queue.Bound,
			Done:       s.Queue.Done,
			Overwrites: s.Queue.Overwrites,
		},
		Waiting:   s.Waiting,
		Sequence:  s.Sequence,
		Completed: s.Completed,
	}
}

func toDeviceStatus(st video.Status) models.DeviceStatusData {
	data := models.DeviceStatusData{
		Open:    st.Open,
		Handles: st.Handles,
		Video:   toStreamStatus(st.Video),
		Still:   toStreamStatus(st.Still),
	}
	if st.Owner.Valid() {
		data.Owner = st.Owner.String()
	}
	return data
}

func toBufferData(b v4l2.Buffer, withData bool) models.BufferData {
	data := models.BufferData{
		Stream:    b.Type.String(),
		Index:     b.Index,
		Length:    b.Length,
		BytesUsed: b.BytesUsed,
		Error:     b.HasError(),
		Sequence:  b.Sequence,
	}
	if !b.Timestamp.IsZero() {
		data.Timestamp = b.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	if withData && int(b.BytesUsed) <= len(b.Mem) {
		data.Data = b.Mem[:b.BytesUsed]
	}
	return data
}

func toFormatDesc(d v4l2.FmtDesc) models.FormatDescData {
	return models.FormatDescData{
		Index:          d.Index,
		Description:    d.Description,
		PixelFormat:    fourCC(d.PixelFormat),
		SubPixelFormat: fourCC(d.SubPixelFormat),
		Compressed:     d.Flags&v4l2.FmtFlagCompressed != 0,
	}
}

func frameSizeKind(k v4l2.FrameSizeType) string {
	switch k {
	case v4l2.FrameSizeDiscrete:
		return "discrete"
	case v4l2.FrameSizeContinuous:
		return "continuous"
	default:
		return "stepwise"
	}
}

func toSizeRange(kind v4l2.FrameSizeType, discrete v4l2.Size, step v4l2.Stepwise) models.SizeRangeData {
	r := models.SizeRangeData{Kind: frameSizeKind(kind)}
	if kind == v4l2.FrameSizeDiscrete {
		r.Width, r.Height = discrete.Width, discrete.Height
		return r
	}
	r.MinWidth, r.MaxWidth, r.StepWidth = step.MinWidth, step.MaxWidth, step.StepWidth
	r.MinHeight, r.MaxHeight, r.StepHeight = step.MinHeight, step.MaxHeight, step.StepHeight
	return r
}

func toFrameSize(fs v4l2.FrameSize) models.FrameSizeData {
	data := models.FrameSizeData{
		Index: fs.Index,
		Main:  toSizeRange(fs.Kind, fs.Discrete, fs.Stepwise),
	}
	if fs.SubKind != 0 {
		sub := toSizeRange(fs.SubKind, fs.SubDiscrete, fs.SubStepwise)
		data.Sub = &sub
	}
	return data
}

func toFraction(f v4l2.Fraction) *models.FractionData {
	return &models.FractionData{Numerator: f.Numerator, Denominator: f.Denominator}
}

func toFrameInterval(iv v4l2.FrameInterval) models.FrameIntervalData {
	data := models.FrameIntervalData{Index: iv.Index}
	switch iv.Kind {
	case v4l2.FrameIntervalDiscrete:
		data.Kind = "discrete"
		data.Discrete = toFraction(iv.Discrete)
		data.FPS = iv.Discrete.FPS()
	case v4l2.FrameIntervalContinuous:
		data.Kind = "continuous"
		data.Min, data.Max = toFraction(iv.Min), toFraction(iv.Max)
	default:
		data.Kind = "stepwise"
		data.Min, data.Max, data.Step = toFraction(iv.Min), toFraction(iv.Max), toFraction(iv.Step)
	}
	return data
}

func controlTypeName(t v4l2.ControlType) string {
	switch t {
	case v4l2.CtrlTypeInteger:
		return "integer"
	case v4l2.CtrlTypeBoolean:
		return "boolean"
	case v4l2.CtrlTypeMenu:
		return "menu"
	case v4l2.CtrlTypeButton:
		return "button"
	case v4l2.CtrlTypeInteger64:
		return "integer64"
	case v4l2.CtrlTypeU8:
		return "u8"
	case v4l2.CtrlTypeU16:
		return "u16"
	case v4l2.CtrlTypeU32:
		return "u32"
	default:
		return "unknown"
	}
}

func toControlRange(r v4l2.ControlRange) models.ControlRangeData {
	return models.ControlRangeData{
		Class:        r.Class,
		ID:           r.ID,
		Type:         controlTypeName(r.Type),
		Name:         r.Name,
		Minimum:      r.Minimum,
		Maximum:      r.Maximum,
		Step:         r.Step,
		DefaultValue: r.DefaultValue,
		Flags:        r.Flags,
	}
}

// controlClass returns class, or the class encoded in the upper bits of id.
func controlClass(class, id uint32) uint32 {
	if class != 0 {
		return class
	}
	return id & 0x0fff0000
}

func toExtControls(b models.ControlBatchData) v4l2.ExtControls {
	ctrls := v4l2.ExtControls{Class: b.Class, Controls: make([]v4l2.ExtControl, len(b.Controls))}
	for i, c := range b.Controls {
		ctrls.Controls[i] = v4l2.ExtControl{ID: c.ID, Value: c.Value}
	}
	return ctrls
}

func toControlBatch(ctrls v4l2.ExtControls) models.ControlBatchData {
	b := models.ControlBatchData{Class: ctrls.Class, Controls: make([]models.ControlValueData, len(ctrls.Controls))}
	for i, c := range ctrls.Controls {
		b.Controls[i] = models.ControlValueData{ID: c.ID, Value: c.Value}
	}
	return b
}

func toMenuItem(m v4l2.MenuItem) models.MenuItemData {
	return models.MenuItemData{Index: m.Index, Name: m.Name, Value: m.Value}
}
