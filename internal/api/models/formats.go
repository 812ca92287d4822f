package models

type FormatDescData struct {
	Index          uint32 `json:"index" example:"0" doc:"Format index"`
	Description    string `json:"description" example:"UYVY 4:2:2" doc:"Human-readable description"`
	PixelFormat    string `json:"pixel_format" example:"UYVY" doc:"FourCC of the main image"`
	SubPixelFormat string `json:"sub_pixel_format,omitempty" example:"" doc:"FourCC of the sub image"`
	Compressed     bool   `json:"compressed" example:"false" doc:"Compressed format"`
}

type FormatListResponse struct {
	Body struct {
		Formats []FormatDescData `json:"formats" doc:"Supported formats"`
	}
}

type FrameSizesRequest struct {
	StreamPath
	PixelFormat    string `query:"pixel_format" required:"true" maxLength:"4" example:"UYVY" doc:"FourCC of the main image"`
	SubPixelFormat string `query:"sub_pixel_format" maxLength:"4" doc:"FourCC of the sub image"`
}

type SizeRangeData struct {
	Kind       string `json:"kind" example:"discrete" enum:"discrete,continuous,stepwise" doc:"Size description type"`
	Width      uint32 `json:"width,omitempty" example:"640" doc:"Discrete width"`
	Height     uint32 `json:"height,omitempty" example:"480" doc:"Discrete height"`
	MinWidth   uint32 `json:"min_width,omitempty" doc:"Stepwise minimum width"`
	MaxWidth   uint32 `json:"max_width,omitempty" doc:"Stepwise maximum width"`
	StepWidth  uint32 `json:"step_width,omitempty" doc:"Stepwise width step"`
	MinHeight  uint32 `json:"min_height,omitempty" doc:"Stepwise minimum height"`
	MaxHeight  uint32 `json:"max_height,omitempty" doc:"Stepwise maximum height"`
	StepHeight uint32 `json:"step_height,omitempty" doc:"Stepwise height step"`
}

type FrameSizeData struct {
	Index uint32         `json:"index" example:"0" doc:"Frame size index"`
	Main  SizeRangeData  `json:"main" doc:"Main image size"`
	Sub   *SizeRangeData `json:"sub,omitempty" doc:"Sub image size"`
}

type FrameSizesResponse struct {
	Body struct {
		FrameSizes []FrameSizeData `json:"frame_sizes" doc:"Supported frame sizes"`
	}
}

type FrameIntervalsRequest struct {
	StreamPath
	PixelFormat    string `query:"pixel_format" required:"true" maxLength:"4" example:"UYVY" doc:"FourCC of the main image"`
	SubPixelFormat string `query:"sub_pixel_format" maxLength:"4" doc:"FourCC of the sub image"`
	Width          uint32 `query:"width" required:"true" example:"640" doc:"Frame width"`
	Height         uint32 `query:"height" required:"true" example:"480" doc:"Frame height"`
}

type FractionData struct {
	Numerator   uint32 `json:"numerator" example:"1" doc:"Numerator"`
	Denominator uint32 `json:"denominator" example:"30" doc:"Denominator"`
}

type FrameIntervalData struct {
	Index    uint32        `json:"index" example:"0" doc:"Interval index"`
	Kind     string        `json:"kind" example:"discrete" enum:"discrete,continuous,stepwise" doc:"Interval description type"`
	Discrete *FractionData `json:"discrete,omitempty" doc:"Discrete interval in seconds"`
	Min      *FractionData `json:"min,omitempty" doc:"Shortest interval"`
	Max      *FractionData `json:"max,omitempty" doc:"Longest interval"`
	Step     *FractionData `json:"step,omitempty" doc:"Interval step"`
	FPS      float64       `json:"fps,omitempty" example:"30" doc:"Frame rate of the discrete interval"`
}

type FrameIntervalsResponse struct {
	Body struct {
		FrameIntervals []FrameIntervalData `json:"frame_intervals" doc:"Supported frame intervals"`
	}
}

type FormatData struct {
	Width          uint32 `json:"width" example:"640" doc:"Main image width"`
	Height         uint32 `json:"height" example:"480" doc:"Main image height"`
	PixelFormat    string `json:"pixel_format" maxLength:"4" example:"UYVY" doc:"FourCC of the main image"`
	SubWidth       uint32 `json:"sub_width,omitempty" doc:"Sub image width"`
	SubHeight      uint32 `json:"sub_height,omitempty" doc:"Sub image height"`
	SubPixelFormat string `json:"sub_pixel_format,omitempty" maxLength:"4" doc:"FourCC of the sub image"`
	SizeImage      uint32 `json:"size_image,omitempty" example:"614400" doc:"Minimum buffer length, 0 when unconstrained"`
}

type FormatResponse struct {
	Body FormatData
}

type FormatRequest struct {
	StreamPath
	Body FormatData
}

type FrameIntervalRequest struct {
	StreamPath
	Body FractionData
}
