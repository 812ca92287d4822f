package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/videocore/internal/events"
)

// registerSSERoutes registers the device event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Device Events",
		Description: "Real-time stream of state changes, completed buffers and session activity",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"stream-state-changed":   events.StreamStateChangedEvent{},
		"buffer-done":            events.BufferDoneEvent{},
		"transfer-failed":        events.TransferFailedEvent{},
		"still-capture-finished": events.StillCaptureFinishedEvent{},
		"session-opened":         events.SessionOpenedEvent{},
		"session-closed":         events.SessionClosedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 64)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.StreamStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.BufferDoneEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.TransferFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.StillCaptureFinishedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SessionOpenedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SessionClosedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Open streams need a first write so clients see the connection.
		if err := send.Data(s.currentStates()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}

// currentStates reports the video stream state as a self transition so a
// new subscriber starts from a known state.
func (s *Server) currentStates() events.StreamStateChangedEvent {
	st := s.device.Status()
	return events.StreamStateChangedEvent{
		Stream:    st.Video.Type.String(),
		From:      st.Video.State.String(),
		To:        st.Video.State.String(),
		Timestamp: nowStamp(),
	}
}
