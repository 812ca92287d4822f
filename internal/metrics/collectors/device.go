// Package collectors polls device state into metrics.
package collectors

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/videocore/internal/logging"
	"github.com/smazurov/videocore/internal/metrics"
	"github.com/smazurov/videocore/internal/video"
)

// StatusSource is satisfied by *video.Device.
type StatusSource interface {
	Status() video.Status
}

// DeviceCollector periodically publishes queue occupancy and open handles.
type DeviceCollector struct {
	source   StatusSource
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewDeviceCollector creates a collector polling source every interval.
func NewDeviceCollector(source StatusSource, interval time.Duration) *DeviceCollector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &DeviceCollector{
		source:   source,
		logger:   logging.GetLogger("metrics"),
		interval: interval,
	}
}

// Start begins collecting until ctx ends or Stop is called.
func (c *DeviceCollector) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
}

// Stop stops the collector and waits for the poll loop to exit.
func (c *DeviceCollector) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *DeviceCollector) run(ctx context.Context) {
	defer close(c.done)
	c.logger.Debug("Starting device metrics collection", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

// Collect publishes one snapshot.
func (c *DeviceCollector) Collect() {
	st := c.source.Status()
	metrics.SetOpenHandles(st.Handles)
	for _, s := range []video.StreamStatus{st.Video, st.Still} {
		metrics.SetQueueStats(s.Type.String(), metrics.QueueStats{
			Free:       s.Queue.Free,
			Pending:    s.Queue.Pending,
			Bound:      s.Queue.Bound,
			Done:       s.Queue.Done,
			Overwrites: s.Queue.Overwrites,
		})
	}
}
