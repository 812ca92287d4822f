package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/videocore/internal/logging"
	"github.com/smazurov/videocore/internal/metrics"
	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
	"github.com/spf13/cobra"
)

// CaptureOptions describes one capture run.
type CaptureOptions struct {
	Frames      int // video frames to dequeue, 0 runs until the still burst ends
	Buffers     int
	Ring        bool
	VideoFormat v4l2.Format
	Stills      int
	StillFormat v4l2.Format
	StillAfter  time.Duration // delay between stream-on and the still burst
	OutputDir   string        // still images are written here when set
}

// CaptureReport summarizes a capture run.
type CaptureReport struct {
	VideoFrames  int
	VideoErrors  int
	VideoBytes   uint64
	Stills       int
	StillBytes   uint64
	StillFiles   []string
	Overwrites   uint64
	LastSequence uint32
	Elapsed      time.Duration
}

// CreateCaptureCmd creates the capture command.
func CreateCaptureCmd() *cobra.Command {
	var hw hardwareFlags
	var (
		videoSize, stillSize string
		videoPix, stillPix   string
		opts                 CaptureOptions
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run a video session with a still burst against the simulator",
		Long: `Streams video into a pool of buffers, preempts it with a still burst and reports what ` +
			`each stream delivered. Still images can be written to a directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.GetLogger("video")

			var err error
			if opts.VideoFormat, err = parseFormat(v4l2.BufTypeVideoCapture, videoPix, videoSize); err != nil {
				return err
			}
			if opts.StillFormat, err = parseFormat(v4l2.BufTypeStillCapture, stillPix, stillSize); err != nil {
				return err
			}

			hardware, err := hw.open(&video.Options{Logger: logger, Observer: metrics.NewObserver()})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := RunCapture(ctx, hardware.Device, opts, logger)
			if err != nil {
				return err
			}
			return WriteCaptureReport(cmd.OutOrStdout(), report)
		},
	}

	hw.register(cmd)
	cmd.Flags().IntVar(&opts.Frames, "frames", 60, "Video frames to capture")
	cmd.Flags().IntVar(&opts.Buffers, "buffers", 4, "Video buffer pool size")
	cmd.Flags().BoolVar(&opts.Ring, "ring", false, "Recycle unclaimed video buffers instead of stalling")
	cmd.Flags().StringVar(&videoSize, "video-size", "640x480", "Video frame size")
	cmd.Flags().StringVar(&videoPix, "video-format", "UYVY", "Video pixel format")
	cmd.Flags().IntVar(&opts.Stills, "stills", 3, "Stills in the burst, 0 skips the burst")
	cmd.Flags().StringVar(&stillSize, "still-size", "2592x1944", "Still frame size")
	cmd.Flags().StringVar(&stillPix, "still-format", "JPEG", "Still pixel format")
	cmd.Flags().DurationVar(&opts.StillAfter, "still-after", 500*time.Millisecond, "Delay before the still burst")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Directory for still images")
	return cmd
}

func parseFormat(t v4l2.BufType, pix, size string) (v4l2.Format, error) {
	var w, h uint32
	if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil {
		return v4l2.Format{}, fmt.Errorf("invalid %s size %q: %w", t, size, err)
	}
	if len(pix) == 0 || len(pix) > 4 {
		return v4l2.Format{}, fmt.Errorf("invalid %s pixel format %q", t, pix)
	}
	return v4l2.Format{Type: t, Width: w, Height: h, PixelFormat: v4l2.ParsePixelFormat(pix)}, nil
}

// imageSize is the buffer length a format needs; compressed formats get
// the uncompressed 16 bit size as an upper bound.
func imageSize(f v4l2.Format) uint32 {
	if f.SizeImage != 0 {
		return f.SizeImage
	}
	return f.Width * f.Height * 2
}

func queueBuffers(d *video.Device, f v4l2.Format, count int, mode v4l2.BufMode) error {
	n, err := d.RequestBuffers(f.Type, count, mode)
	if err != nil {
		return err
	}
	size := imageSize(f)
	for i := range n {
		buf := v4l2.Buffer{Type: f.Type, Index: uint32(i), Mem: make([]byte, size), Length: size}
		if err := d.QueueBuffer(buf); err != nil {
			return err
		}
	}
	return nil
}

func requeue(d *video.Device, buf v4l2.Buffer) error {
	buf.BytesUsed = 0
	buf.Flags = 0
	return d.QueueBuffer(buf)
}

// RunCapture opens d, streams video and runs one still burst. It returns
// when the requested video frames and stills have been captured or ctx ends.
func RunCapture(ctx context.Context, d *video.Device, opts CaptureOptions, logger *slog.Logger) (CaptureReport, error) {
	var report CaptureReport
	start := time.Now()

	h, err := d.Open()
	if err != nil {
		return report, err
	}
	defer h.Close()

	if err := d.SetFormat(opts.VideoFormat); err != nil {
		return report, err
	}
	mode := v4l2.BufModeFIFO
	if opts.Ring {
		mode = v4l2.BufModeRing
	}
	if err := queueBuffers(d, opts.VideoFormat, max(opts.Buffers, 1), mode); err != nil {
		return report, err
	}
	if opts.Stills > 0 {
		if err := d.SetFormat(opts.StillFormat); err != nil {
			return report, err
		}
		if err := queueBuffers(d, opts.StillFormat, 1, v4l2.BufModeFIFO); err != nil {
			return report, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.StreamOn(v4l2.BufTypeVideoCapture); err != nil {
		return report, err
	}
	logger.Info("Video streaming", "format", opts.VideoFormat.PixelFormat.String(),
		"width", opts.VideoFormat.Width, "height", opts.VideoFormat.Height)

	var (
		wg       sync.WaitGroup
		videoErr error
		stillErr error
	)
	stillsDone := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		videoErr = captureVideo(ctx, d, opts.Frames, stillsDone, &report)
		if videoErr == nil {
			cancel()
		}
	}()

	if opts.Stills > 0 {
		select {
		case <-time.After(opts.StillAfter):
			stillErr = captureStills(ctx, d, opts, &report, logger)
		case <-ctx.Done():
		}
	}
	close(stillsDone)
	wg.Wait()

	if err := d.StreamOff(v4l2.BufTypeVideoCapture); err != nil && !errors.Is(err, video.ErrNotOpen) {
		logger.Warn("Stream off failed", "error", err)
	}
	report.Overwrites = d.Status().Video.Queue.Overwrites
	report.Elapsed = time.Since(start)

	if stillErr != nil {
		return report, stillErr
	}
	if videoErr != nil && !errors.Is(videoErr, video.ErrCancelled) {
		return report, videoErr
	}
	return report, nil
}

// captureVideo dequeues and requeues video buffers until frames buffers
// arrived and the still burst is over, or ctx ends.
func captureVideo(ctx context.Context, d *video.Device, frames int, stillsDone <-chan struct{}, report *CaptureReport) error {
	for {
		if report.VideoFrames >= frames {
			select {
			case <-stillsDone:
				return nil
			default:
			}
		}
		buf, err := d.DequeueBuffer(ctx, v4l2.BufTypeVideoCapture)
		if err != nil {
			return err
		}
		report.VideoFrames++
		report.VideoBytes += uint64(buf.BytesUsed)
		report.LastSequence = buf.Sequence
		if buf.HasError() {
			report.VideoErrors++
		}
		if err := requeue(d, buf); err != nil {
			return err
		}
	}
}

func captureStills(ctx context.Context, d *video.Device, opts CaptureOptions, report *CaptureReport, logger *slog.Logger) error {
	if err := d.StartCapture(opts.Stills); err != nil {
		return err
	}
	logger.Info("Still burst started", "count", opts.Stills)

	for i := range opts.Stills {
		buf, err := d.DequeueBuffer(ctx, v4l2.BufTypeStillCapture)
		if err != nil {
			return err
		}
		report.Stills++
		report.StillBytes += uint64(buf.BytesUsed)

		if opts.OutputDir != "" && !buf.HasError() {
			path, err := writeStill(opts.OutputDir, opts.StillFormat, i, buf)
			if err != nil {
				return err
			}
			report.StillFiles = append(report.StillFiles, path)
		}
		if i < opts.Stills-1 {
			if err := requeue(d, buf); err != nil {
				return err
			}
		}
	}

	if err := d.StopCapture(); err != nil {
		return err
	}
	logger.Info("Still burst finished", "count", report.Stills)
	return nil
}

func writeStill(dir string, f v4l2.Format, i int, buf v4l2.Buffer) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ext := "raw"
	if f.PixelFormat == v4l2.PixFmtJPEG {
		ext = "jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("still-%03d-seq%d.%s", i, buf.Sequence, ext))
	if err := os.WriteFile(path, buf.Mem[:buf.BytesUsed], 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCaptureReport prints a capture summary.
func WriteCaptureReport(w io.Writer, r CaptureReport) error {
	fps := 0.0
	if r.Elapsed > 0 {
		fps = float64(r.VideoFrames) / r.Elapsed.Seconds()
	}
	_, err := fmt.Fprintf(w,
		"video: %d frames (%d failed), %d bytes, last sequence %d, %.1f fps, %d overwrites\n"+
			"still: %d images, %d bytes\n",
		r.VideoFrames, r.VideoErrors, r.VideoBytes, r.LastSequence, fps, r.Overwrites,
		r.Stills, r.StillBytes)
	if err != nil {
		return err
	}
	for _, f := range r.StillFiles {
		if _, err := fmt.Fprintf(w, "  %s\n", f); err != nil {
			return err
		}
	}
	return nil
}
