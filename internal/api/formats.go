package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/videocore/internal/api/models"
	"github.com/smazurov/videocore/pkg/v4l2"
)

func (s *Server) registerFormatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-formats",
		Method:      http.MethodGet,
		Path:        "/api/streams/{stream}/formats",
		Summary:     "List Formats",
		Description: "Pixel formats supported by both the sensor and the transfer engine",
		Tags:        []string{"formats"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.StreamPath) (*models.FormatListResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		descs, err := s.device.EnumFormats(t)
		if err != nil {
			return nil, mapDeviceError(err)
		}

		resp := &models.FormatListResponse{}
		resp.Body.Formats = make([]models.FormatDescData, len(descs))
		for i, d := range descs {
			resp.Body.Formats[i] = toFormatDesc(d)
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-frame-sizes",
		Method:      http.MethodGet,
		Path:        "/api/streams/{stream}/framesizes",
		Summary:     "List Frame Sizes",
		Description: "Frame sizes for a pixel format, merged across sensor and transfer engine",
		Tags:        []string{"formats"},
		Errors:      []int{400, 401, 404, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.FrameSizesRequest) (*models.FrameSizesResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		sizes, err := s.device.FrameSizes(t, parseFourCC(input.PixelFormat), parseFourCC(input.SubPixelFormat))
		if err != nil {
			return nil, mapDeviceError(err)
		}

		resp := &models.FrameSizesResponse{}
		resp.Body.FrameSizes = make([]models.FrameSizeData, len(sizes))
		for i, fs := range sizes {
			resp.Body.FrameSizes[i] = toFrameSize(fs)
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-frame-intervals",
		Method:      http.MethodGet,
		Path:        "/api/streams/{stream}/frameintervals",
		Summary:     "List Frame Intervals",
		Description: "Frame intervals the sensor offers for a format and size",
		Tags:        []string{"formats"},
		Errors:      []int{400, 401, 404, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.FrameIntervalsRequest) (*models.FrameIntervalsResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		intervals, err := s.device.FrameIntervals(v4l2.FrameIntervalQuery{
			Type:           t,
			PixelFormat:    parseFourCC(input.PixelFormat),
			SubPixelFormat: parseFourCC(input.SubPixelFormat),
			Width:          input.Width,
			Height:         input.Height,
		})
		if err != nil {
			return nil, mapDeviceError(err)
		}

		resp := &models.FrameIntervalsResponse{}
		resp.Body.FrameIntervals = make([]models.FrameIntervalData, len(intervals))
		for i, iv := range intervals {
			resp.Body.FrameIntervals[i] = toFrameInterval(iv)
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-format",
		Method:      http.MethodGet,
		Path:        "/api/streams/{stream}/format",
		Summary:     "Get Format",
		Description: "Current capture format of a stream",
		Tags:        []string{"formats"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.StreamPath) (*models.FormatResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		f, err := s.device.GetFormat(t)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.FormatResponse{Body: toFormatData(f)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-format",
		Method:      http.MethodPut,
		Path:        "/api/streams/{stream}/format",
		Summary:     "Set Format",
		Description: "Negotiate and apply a capture format",
		Tags:        []string{"formats"},
		Errors:      []int{400, 401, 409, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.FormatRequest) (*models.FormatResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		if err := s.device.SetFormat(fromFormatData(t, input.Body)); err != nil {
			return nil, mapDeviceError(err)
		}
		f, err := s.device.GetFormat(t)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.FormatResponse{Body: toFormatData(f)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "try-format",
		Method:      http.MethodPost,
		Path:        "/api/streams/{stream}/format/try",
		Summary:     "Try Format",
		Description: "Check a capture format without applying it",
		Tags:        []string{"formats"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.FormatRequest) (*models.FormatResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		if err := s.device.TryFormat(fromFormatData(t, input.Body)); err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.FormatResponse{Body: input.Body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-frame-interval",
		Method:      http.MethodPut,
		Path:        "/api/streams/{stream}/frameinterval",
		Summary:     "Set Frame Interval",
		Description: "Set the sensor frame interval of a stream",
		Tags:        []string{"formats"},
		Errors:      []int{400, 401, 409, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.FrameIntervalRequest) (*struct{}, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		interval := v4l2.Fraction{Numerator: input.Body.Numerator, Denominator: input.Body.Denominator}
		if err := s.device.SetFrameInterval(t, interval); err != nil {
			return nil, mapDeviceError(err)
		}
		return nil, nil
	})
}
