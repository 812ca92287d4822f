package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
)

func TestObserver_BufferDone(t *testing.T) {
	o := NewObserver()
	still := v4l2.BufTypeStillCapture
	okBefore := testutil.ToFloat64(transfersTotal.WithLabelValues("still", "ok"))
	errBefore := testutil.ToFloat64(transfersTotal.WithLabelValues("still", "error"))
	bytesBefore := testutil.ToFloat64(bytesTotal.WithLabelValues("still"))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o.StateChanged(still, video.StateIdle, video.StateTransferring)
	o.BufferDone(still, v4l2.Buffer{BytesUsed: 1000, Timestamp: base})
	o.BufferDone(still, v4l2.Buffer{BytesUsed: 500, Timestamp: base.Add(40 * time.Millisecond)})
	o.BufferDone(still, v4l2.Buffer{Flags: v4l2.BufFlagError, Timestamp: base.Add(80 * time.Millisecond)})

	if got := testutil.ToFloat64(transfersTotal.WithLabelValues("still", "ok")) - okBefore; got != 2 {
		t.Errorf("ok transfers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(transfersTotal.WithLabelValues("still", "error")) - errBefore; got != 1 {
		t.Errorf("failed transfers = %v, want 1", got)
	}
	if got := testutil.ToFloat64(bytesTotal.WithLabelValues("still")) - bytesBefore; got != 1500 {
		t.Errorf("bytes = %v, want 1500", got)
	}
	if got := testutil.CollectAndCount(frameInterval, "videocore_capture_frame_interval_seconds"); got != 1 {
		t.Errorf("frame interval series = %d, want 1", got)
	}
}

func TestObserver_StateChanged(t *testing.T) {
	o := NewObserver()
	vid := v4l2.BufTypeVideoCapture
	before := testutil.ToFloat64(stateTransitions.WithLabelValues("video", "armed"))

	tests := []struct {
		to   video.State
		want float64
	}{
		{video.StateArmed, 1},
		{video.StateTransferring, 2},
		{video.StateIdle, 0},
	}
	from := video.StateIdle
	for _, tt := range tests {
		t.Run(tt.to.String(), func(t *testing.T) {
			o.StateChanged(vid, from, tt.to)
			from = tt.to
			if got := testutil.ToFloat64(streamState.WithLabelValues("video")); got != tt.want {
				t.Errorf("stream_state = %v, want %v", got, tt.want)
			}
		})
	}
	if got := testutil.ToFloat64(stateTransitions.WithLabelValues("video", "armed")) - before; got != 1 {
		t.Errorf("transitions to armed = %v, want 1", got)
	}
}

func TestObserver_TransferFailed(t *testing.T) {
	o := NewObserver()
	before := testutil.ToFloat64(engineFailures.WithLabelValues("video"))
	o.TransferFailed(v4l2.BufTypeVideoCapture, errors.New("no dma channel"))
	if got := testutil.ToFloat64(engineFailures.WithLabelValues("video")) - before; got != 1 {
		t.Errorf("engine failures = %v, want 1", got)
	}
}

func TestSetQueueStats(t *testing.T) {
	SetQueueStats("video", QueueStats{Free: 3, Pending: 1, Bound: true, Done: 0, Overwrites: 4})
	if got := testutil.ToFloat64(queueBuffers.WithLabelValues("video", "free")); got != 3 {
		t.Errorf("free = %v", got)
	}
	if got := testutil.ToFloat64(queueBuffers.WithLabelValues("video", "bound")); got != 1 {
		t.Errorf("bound = %v", got)
	}
	if got := testutil.ToFloat64(ringOverwrites.WithLabelValues("video")); got != 4 {
		t.Errorf("overwrites = %v", got)
	}
}
