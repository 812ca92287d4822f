package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/videocore/internal/api/models"
	"github.com/smazurov/videocore/pkg/v4l2"
)

func parseStream(name string) (v4l2.BufType, error) {
	t, err := v4l2.ParseBufType(name)
	if err != nil {
		return 0, huma.Error400BadRequest(err.Error())
	}
	return t, nil
}

func (s *Server) stateResponse(t v4l2.BufType) *models.StatusResponse {
	st := s.device.Status()
	resp := &models.StatusResponse{}
	resp.Body.Stream = t.String()
	if t == v4l2.BufTypeStillCapture {
		resp.Body.State = st.Still.State.String()
	} else {
		resp.Body.State = st.Video.State.String()
	}
	return resp
}

func (s *Server) registerBufferRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "request-buffers",
		Method:      http.MethodPost,
		Path:        "/api/streams/{stream}/reqbufs",
		Summary:     "Request Buffers",
		Description: "Replace the buffer pool of a stream",
		Tags:        []string{"buffers"},
		Errors:      []int{400, 401, 409, 503, 507},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.RequestBuffersRequest) (*models.RequestBuffersResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		mode, err := v4l2.ParseBufMode(input.Body.Mode)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		count, err := s.device.RequestBuffers(t, input.Body.Count, mode)
		if err != nil {
			return nil, mapDeviceError(err)
		}

		resp := &models.RequestBuffersResponse{}
		resp.Body.Count = count
		resp.Body.Mode = mode.String()
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "queue-buffer",
		Method:      http.MethodPost,
		Path:        "/api/streams/{stream}/qbuf",
		Summary:     "Queue Buffer",
		Description: "Allocate a buffer of the given length and queue it for capture",
		Tags:        []string{"buffers"},
		Errors:      []int{400, 401, 409, 503, 507},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.QueueBufferRequest) (*models.StatusResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		buf := v4l2.Buffer{
			Type:   t,
			Index:  input.Body.Index,
			Mem:    make([]byte, input.Body.Length),
			Length: input.Body.Length,
		}
		if err := s.device.QueueBuffer(buf); err != nil {
			return nil, mapDeviceError(err)
		}
		return s.stateResponse(t), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "dequeue-buffer",
		Method:      http.MethodPost,
		Path:        "/api/streams/{stream}/dqbuf",
		Summary:     "Dequeue Buffer",
		Description: "Wait for the oldest completed buffer. Disconnecting cancels the wait.",
		Tags:        []string{"buffers"},
		Errors:      []int{400, 401, 409, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.DequeueBufferRequest) (*models.BufferResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		buf, err := s.device.DequeueBuffer(ctx, t)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.BufferResponse{Body: toBufferData(buf, input.IncludeData)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "cancel-dequeue",
		Method:      http.MethodPost,
		Path:        "/api/streams/{stream}/dqbuf/cancel",
		Summary:     "Cancel Dequeue",
		Description: "Wake the client blocked in dequeue with a cancellation",
		Tags:        []string{"buffers"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.StreamPath) (*models.StatusResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		if err := s.device.CancelDequeue(t); err != nil {
			return nil, mapDeviceError(err)
		}
		return s.stateResponse(t), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stream-on",
		Method:      http.MethodPost,
		Path:        "/api/streams/{stream}/streamon",
		Summary:     "Stream On",
		Description: "Start video streaming. Still capture is started through /api/still/start.",
		Tags:        []string{"streaming"},
		Errors:      []int{400, 401, 409, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.StreamPath) (*models.StatusResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		if err := s.device.StreamOn(t); err != nil {
			return nil, mapDeviceError(err)
		}
		return s.stateResponse(t), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stream-off",
		Method:      http.MethodPost,
		Path:        "/api/streams/{stream}/streamoff",
		Summary:     "Stream Off",
		Description: "Stop video streaming",
		Tags:        []string{"streaming"},
		Errors:      []int{400, 401, 409, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.StreamPath) (*models.StatusResponse, error) {
		t, err := parseStream(input.Stream)
		if err != nil {
			return nil, err
		}
		if err := s.device.StreamOff(t); err != nil {
			return nil, mapDeviceError(err)
		}
		return s.stateResponse(t), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "still-start",
		Method:      http.MethodPost,
		Path:        "/api/still/start",
		Summary:     "Start Still Capture",
		Description: "Take count stills, preempting video until the burst ends",
		Tags:        []string{"streaming"},
		Errors:      []int{401, 409, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.StartCaptureRequest) (*models.StatusResponse, error) {
		if err := s.device.StartCapture(input.Body.Count); err != nil {
			return nil, mapDeviceError(err)
		}
		return s.stateResponse(v4l2.BufTypeStillCapture), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "still-stop",
		Method:      http.MethodPost,
		Path:        "/api/still/stop",
		Summary:     "Stop Still Capture",
		Description: "Stop still capture and hand the transfer engine back to video",
		Tags:        []string{"streaming"},
		Errors:      []int{401, 409, 503},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		if err := s.device.StopCapture(); err != nil {
			return nil, mapDeviceError(err)
		}
		return s.stateResponse(v4l2.BufTypeStillCapture), nil
	})
}
