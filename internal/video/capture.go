package video

import (
	"context"
	"fmt"

	"github.com/smazurov/videocore/pkg/v4l2"
)

// MaxBuffers caps the pool size accepted by RequestBuffers.
const MaxBuffers = 256

// RequestBuffers discards the pool of stream t and allocates count fresh
// containers using the given buffer mode. It returns the allocated count.
func (d *Device) RequestBuffers(t v4l2.BufType, count int, mode v4l2.BufMode) (int, error) {
	const op = "reqbufs"
	s, err := d.lookup(op, t)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, NewError(ErrCodeInvalidArgument, op, t, fmt.Sprintf("negative count %d", count), nil)
	}
	if mode != v4l2.BufModeFIFO && mode != v4l2.BufModeRing {
		return 0, NewError(ErrCodeInvalidArgument, op, t, "unknown buffer mode "+mode.String(), nil)
	}
	count = min(count, MaxBuffers)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(op, t); err != nil {
		return 0, err
	}
	if s.state == StateTransferring {
		return 0, NewError(ErrCodeBusy, op, t, "stream is transferring", nil)
	}

	s.queue.SetMode(mode)
	if err := s.queue.Allocate(count); err != nil {
		return 0, wrapErr(op, t, err)
	}

	d.logger.Debug("Buffers requested", "stream", t.String(), "count", count, "mode", mode.String())
	return count, nil
}

// QueueBuffer hands a client buffer to stream buf.Type. An Armed stream
// starts transferring if the arbiter allows it.
func (d *Device) QueueBuffer(buf v4l2.Buffer) error {
	const op = "qbuf"
	t := buf.Type
	s, err := d.lookup(op, t)
	if err != nil {
		return err
	}
	if len(buf.Mem) == 0 || buf.Length == 0 {
		return NewError(ErrCodeInvalidArgument, op, t, "empty buffer", nil)
	}
	if int(buf.Length) > len(buf.Mem) {
		return NewError(ErrCodeInvalidArgument, op, t,
			fmt.Sprintf("length %d exceeds memory size %d", buf.Length, len(buf.Mem)), nil)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	d.mu.Lock()
	if err := d.checkOpen(op, t); err != nil {
		d.mu.Unlock()
		return err
	}
	if s.format.SizeImage != 0 && buf.Length < s.format.SizeImage {
		d.mu.Unlock()
		return NewError(ErrCodeInvalidArgument, op, t,
			fmt.Sprintf("length %d below image size %d", buf.Length, s.format.SizeImage), nil)
	}
	if err := s.queue.Enqueue(buf); err != nil {
		d.mu.Unlock()
		return wrapErr(op, t, err)
	}

	fx := &effects{}
	if s.state == StateArmed {
		if s == d.video {
			d.applyVideo(CauseVideoStart, fx)
		} else {
			d.changeState(s, StateTransferring, fx)
		}
	}
	d.commit(fx)
	return nil
}

// DequeueBuffer returns the oldest completed buffer of stream t, blocking
// until one is available. The wait ends early with ErrCancelled on
// CancelDequeue or ctx cancellation, and with ErrClosed when the last
// handle closes. Only one caller per stream may wait at a time.
func (d *Device) DequeueBuffer(ctx context.Context, t v4l2.BufType) (v4l2.Buffer, error) {
	const op = "dqbuf"
	s, err := d.lookup(op, t)
	if err != nil {
		return v4l2.Buffer{}, err
	}

	s.opMu.Lock()
	d.mu.Lock()
	if err := d.checkOpen(op, t); err != nil {
		d.mu.Unlock()
		s.opMu.Unlock()
		return v4l2.Buffer{}, err
	}
	if c := s.queue.TakeDone(); c != nil {
		buf := c.Buf
		s.queue.Free(c)
		d.mu.Unlock()
		s.opMu.Unlock()
		return buf, nil
	}
	if s.wait != nil {
		d.mu.Unlock()
		s.opMu.Unlock()
		return v4l2.Buffer{}, NewError(ErrCodeBusy, op, t, "another dequeue is waiting", nil)
	}

	w := newWaiter()
	s.wait = w
	fx := &effects{}
	if s == d.video {
		d.applyVideo(CauseVideoDQBuf, fx)
	}
	d.commit(fx)
	s.opMu.Unlock()

	for {
		var ctxErr error
		select {
		case <-w.ch:
		case <-ctx.Done():
			ctxErr = ctx.Err()
		}

		d.mu.Lock()
		cause := w.cause
		if cause == WakePreempted {
			// Still capture ended; video may own the engine again.
			w.cause = wakeNone
			if ctxErr == nil {
				fx := &effects{}
				if s == d.video && d.open {
					d.applyVideo(CauseVideoDQBuf, fx)
				}
				d.commit(fx)
				continue
			}
			cause = wakeNone
		}

		if s.wait == w {
			s.wait = nil
		}
		d.mu.Unlock()

		switch cause {
		case WakeDone:
			return w.buf, nil
		case WakeClosed:
			return v4l2.Buffer{}, NewError(ErrCodeClosed, op, t, "device closed", nil)
		case WakeCancelled:
			return v4l2.Buffer{}, NewError(ErrCodeCancelled, op, t, "dequeue cancelled", nil)
		default:
			return v4l2.Buffer{}, NewError(ErrCodeCancelled, op, t, "wait aborted", ctxErr)
		}
	}
}

// CancelDequeue releases a caller blocked in DequeueBuffer on stream t with
// ErrCancelled. It is a no-op when nobody waits. A buffer that completed
// before the waiter observed the cancellation is still returned.
func (d *Device) CancelDequeue(t v4l2.BufType) error {
	const op = "dqcancel"
	s, err := d.lookup(op, t)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(op, t); err != nil {
		return err
	}
	if s.wait != nil {
		s.wait.post(WakeCancelled)
	}
	return nil
}

// StreamOn starts the video stream. It is a no-op for the still stream,
// which is driven by StartCapture.
func (d *Device) StreamOn(t v4l2.BufType) error {
	const op = "streamon"
	s, err := d.lookup(op, t)
	if err != nil {
		return err
	}
	if s != d.video {
		return nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	d.mu.Lock()
	if err := d.checkOpen(op, t); err != nil {
		d.mu.Unlock()
		return err
	}
	if s.state != StateIdle {
		d.mu.Unlock()
		return NewError(ErrCodePermissionDenied, op, t, "stream already on", nil)
	}

	fx := &effects{}
	d.applyVideo(CauseVideoStart, fx)
	d.commit(fx)
	return nil
}

// StreamOff stops the video stream. It is a no-op for the still stream.
func (d *Device) StreamOff(t v4l2.BufType) error {
	const op = "streamoff"
	s, err := d.lookup(op, t)
	if err != nil {
		return err
	}
	if s != d.video {
		return nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	d.mu.Lock()
	if err := d.checkOpen(op, t); err != nil {
		d.mu.Unlock()
		return err
	}
	if s.state == StateIdle {
		d.mu.Unlock()
		return NewError(ErrCodePermissionDenied, op, t, "stream already off", nil)
	}

	fx := &effects{}
	d.applyVideo(CauseVideoStop, fx)
	d.commit(fx)
	return nil
}

// StartCapture starts the still stream for count captures, or without limit
// when count <= 0. A transferring video stream is demoted to Armed first.
func (d *Device) StartCapture(count int) error {
	const op = "takepict_start"
	t := v4l2.BufTypeStillCapture

	d.still.opMu.Lock()
	defer d.still.opMu.Unlock()
	d.video.opMu.Lock()
	defer d.video.opMu.Unlock()

	d.mu.Lock()
	if err := d.checkOpen(op, t); err != nil {
		d.mu.Unlock()
		return err
	}
	if d.still.state != StateIdle {
		d.mu.Unlock()
		return NewError(ErrCodePermissionDenied, op, t, "still capture already running", nil)
	}

	if count > 0 {
		d.still.remaining = count
	} else {
		d.still.remaining = unbounded
	}

	fx := &effects{}
	d.applyVideo(CauseStillStart, fx)
	d.changeState(d.still, StateTransferring, fx)
	d.commit(fx)

	d.logger.Debug("Still capture started", "count", count)
	return nil
}

// StopCapture stops the still stream and lets video take the transfer
// engine back. It fails only when still capture is idle and unbounded, so a
// burst that stopped on its own can still be acknowledged.
func (d *Device) StopCapture() error {
	const op = "takepict_stop"
	t := v4l2.BufTypeStillCapture

	d.still.opMu.Lock()
	defer d.still.opMu.Unlock()
	d.video.opMu.Lock()
	defer d.video.opMu.Unlock()

	d.mu.Lock()
	if err := d.checkOpen(op, t); err != nil {
		d.mu.Unlock()
		return err
	}
	if d.still.state == StateIdle && d.still.remaining == unbounded {
		d.mu.Unlock()
		return NewError(ErrCodePermissionDenied, op, t, "still capture not running", nil)
	}

	fx := &effects{}
	d.changeState(d.still, StateIdle, fx)
	d.still.remaining = unbounded
	d.applyVideo(CauseStillStop, fx)
	d.commit(fx)

	d.logger.Debug("Still capture stopped")
	return nil
}
