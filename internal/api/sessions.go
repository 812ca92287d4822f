package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/smazurov/videocore/internal/api/models"
	"github.com/smazurov/videocore/internal/events"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "open-session",
		Method:        http.MethodPost,
		Path:          "/api/sessions",
		Summary:       "Open Session",
		Description:   "Open the capture device. The first session powers up the sensor and transfer engine.",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{401, 500},
		Security:      withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.SessionResponse, error) {
		h, err := s.device.Open()
		if err != nil {
			return nil, mapDeviceError(err)
		}
		handles := s.device.Status().Handles
		s.eventBus.Publish(events.SessionOpenedEvent{
			SessionID: h.ID.String(),
			Handles:   handles,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})

		return &models.SessionResponse{
			Body: models.SessionData{
				ID:      h.ID.String(),
				Opened:  h.Opened.UTC().Format(time.RFC3339Nano),
				Handles: handles,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "close-session",
		Method:        http.MethodDelete,
		Path:          "/api/sessions/{id}",
		Summary:       "Close Session",
		Description:   "Close a session. Closing the last one stops every transfer and releases blocked dequeues.",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{400, 401, 404},
		Security:      withAuth(),
	}, func(_ context.Context, input *models.SessionCloseRequest) (*struct{}, error) {
		id, err := uuid.Parse(input.ID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid session id", err)
		}
		if _, ok := s.device.Handle(id); !ok {
			return nil, huma.Error404NotFound("session not found")
		}
		if err := s.device.CloseHandle(id); err != nil {
			return nil, mapDeviceError(err)
		}
		s.eventBus.Publish(events.SessionClosedEvent{
			SessionID: id.String(),
			Handles:   s.device.Status().Handles,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
		return nil, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/device",
		Summary:     "Device Status",
		Description: "Stream states and buffer queue statistics",
		Tags:        []string{"device"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.DeviceStatusResponse, error) {
		return &models.DeviceStatusResponse{Body: toDeviceStatus(s.device.Status())}, nil
	})
}
