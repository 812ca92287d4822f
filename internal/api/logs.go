package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/videocore/internal/api/models"
	"github.com/smazurov/videocore/internal/events"
	"github.com/smazurov/videocore/internal/logging"
)

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func toLogEntry(e logging.LogEntry) models.LogEntryData {
	return models.LogEntryData{
		Seq:        e.Seq,
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:      e.Level,
		Module:     e.Module,
		Message:    e.Message,
		Attributes: e.Attributes,
	}
}

// registerLogRoutes registers the buffered log listing and the live log stream.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Entries held in the in-memory log buffer",
		Tags:        []string{"logs"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.LogListRequest) (*models.LogListResponse, error) {
		entries := logging.GetBuffer().ReadSince(input.Since)
		resp := &models.LogListResponse{}
		resp.Body.Entries = make([]models.LogEntryData, len(entries))
		resp.Body.Last = input.Since
		for i, e := range entries {
			resp.Body.Entries[i] = toLogEntry(e)
			resp.Body.Last = e.Seq
		}
		return resp, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Buffered logs followed by live entries via Server-Sent Events",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Subscribe before replaying so nothing is lost in between; the
		// sequence number drops entries already sent.
		eventCh := make(chan any, 256)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		var last uint64
		for _, entry := range logging.GetBuffer().ReadAll() {
			if err := send.Data(events.FromLogEntry(entry)); err != nil {
				return
			}
			last = entry.Seq
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				entry, ok := ev.(events.LogEntryEvent)
				if !ok || entry.Seq <= last {
					continue
				}
				last = entry.Seq
				if err := send.Data(entry); err != nil {
					return
				}
			}
		}
	})
}
