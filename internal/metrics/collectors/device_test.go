package collectors

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smazurov/videocore/internal/framebuf"
	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
)

type staticSource struct {
	status video.Status
	polls  atomic.Int32
}

func (s *staticSource) Status() video.Status {
	s.polls.Add(1)
	return s.status
}

func TestDeviceCollector_Collect(t *testing.T) {
	src := &staticSource{status: video.Status{
		Open:    true,
		Handles: 2,
		Video: video.StreamStatus{
			Type:  v4l2.BufTypeVideoCapture,
			Queue: framebuf.Stats{Capacity: 4, Free: 1, Pending: 2, Bound: true, Overwrites: 9},
		},
		Still: video.StreamStatus{
			Type:  v4l2.BufTypeStillCapture,
			Queue: framebuf.Stats{Capacity: 2, Done: 2},
		},
	}}

	NewDeviceCollector(src, time.Hour).Collect()

	expected := `
# HELP videocore_capture_queue_buffers Buffers per queue location (free, pending, bound, done)
# TYPE videocore_capture_queue_buffers gauge
videocore_capture_queue_buffers{location="bound",stream="still"} 0
videocore_capture_queue_buffers{location="bound",stream="video"} 1
videocore_capture_queue_buffers{location="done",stream="still"} 2
videocore_capture_queue_buffers{location="done",stream="video"} 0
videocore_capture_queue_buffers{location="free",stream="still"} 0
videocore_capture_queue_buffers{location="free",stream="video"} 1
videocore_capture_queue_buffers{location="pending",stream="still"} 0
videocore_capture_queue_buffers{location="pending",stream="video"} 2
# HELP videocore_capture_ring_overwrites Completed buffers recycled unclaimed since the last buffer request
# TYPE videocore_capture_ring_overwrites gauge
videocore_capture_ring_overwrites{stream="still"} 0
videocore_capture_ring_overwrites{stream="video"} 9
# HELP videocore_capture_open_handles Open device handles
# TYPE videocore_capture_open_handles gauge
videocore_capture_open_handles 2
`
	err := testutil.GatherAndCompare(prometheus.DefaultGatherer, strings.NewReader(expected),
		"videocore_capture_queue_buffers", "videocore_capture_ring_overwrites", "videocore_capture_open_handles")
	if err != nil {
		t.Error(err)
	}
}

func TestDeviceCollector_StartStop(t *testing.T) {
	src := &staticSource{}
	c := NewDeviceCollector(src, time.Millisecond)
	c.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for src.polls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("collector polled %d times", src.polls.Load())
		}
		time.Sleep(time.Millisecond)
	}
	c.Stop()

	n := src.polls.Load()
	time.Sleep(10 * time.Millisecond)
	if got := src.polls.Load(); got != n {
		t.Errorf("collector kept polling after Stop: %d -> %d", n, got)
	}
}
