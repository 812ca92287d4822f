package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/smazurov/videocore/internal/logging"
	"github.com/smazurov/videocore/internal/video"
	"github.com/smazurov/videocore/pkg/v4l2"
	"github.com/spf13/cobra"
)

// FormatEntry is one negotiated pixel format with its sizes.
type FormatEntry struct {
	PixelFormat string   `json:"pixel_format"`
	Description string   `json:"description"`
	Compressed  bool     `json:"compressed"`
	Sizes       []string `json:"sizes"`
	Intervals   []string `json:"intervals,omitempty"`
}

// StreamFormats lists the formats of one stream.
type StreamFormats struct {
	Stream  string        `json:"stream"`
	Formats []FormatEntry `json:"formats"`
}

// CreateFormatsCmd creates the formats command.
func CreateFormatsCmd() *cobra.Command {
	var hw hardwareFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "Print the negotiated capture formats",
		Long: `Opens the capture device and prints, per stream, the pixel formats supported by both ` +
			`the sensor and the transfer engine with their merged frame sizes and sensor frame intervals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.GetLogger("capability")

			hardware, err := hw.open(&video.Options{Logger: logger})
			if err != nil {
				return err
			}
			h, err := hardware.Device.Open()
			if err != nil {
				return err
			}
			defer h.Close()

			report, err := CollectFormats(hardware.Device)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return WriteFormats(cmd.OutOrStdout(), report)
		},
	}

	hw.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// CollectFormats enumerates both streams of an open device.
func CollectFormats(d *video.Device) ([]StreamFormats, error) {
	var report []StreamFormats
	for _, t := range []v4l2.BufType{v4l2.BufTypeVideoCapture, v4l2.BufTypeStillCapture} {
		descs, err := d.EnumFormats(t)
		if err != nil {
			return nil, fmt.Errorf("%s formats: %w", t, err)
		}

		sf := StreamFormats{Stream: t.String(), Formats: make([]FormatEntry, 0, len(descs))}
		for _, desc := range descs {
			entry, err := collectEntry(d, t, desc)
			if err != nil {
				return nil, err
			}
			sf.Formats = append(sf.Formats, entry)
		}
		report = append(report, sf)
	}
	return report, nil
}

func collectEntry(d *video.Device, t v4l2.BufType, desc v4l2.FmtDesc) (FormatEntry, error) {
	entry := FormatEntry{
		PixelFormat: strings.TrimRight(desc.PixelFormat.String(), " "),
		Description: desc.Description,
		Compressed:  desc.Flags&v4l2.FmtFlagCompressed != 0,
	}

	sizes, err := d.FrameSizes(t, desc.PixelFormat, desc.SubPixelFormat)
	if err != nil {
		return entry, fmt.Errorf("%s %s frame sizes: %w", t, entry.PixelFormat, err)
	}
	for _, fs := range sizes {
		entry.Sizes = append(entry.Sizes, describeSize(fs))
	}

	// Intervals are listed for the largest discrete size.
	if len(sizes) == 0 || sizes[0].Kind != v4l2.FrameSizeDiscrete {
		return entry, nil
	}
	intervals, err := d.FrameIntervals(v4l2.FrameIntervalQuery{
		Type:           t,
		PixelFormat:    desc.PixelFormat,
		SubPixelFormat: desc.SubPixelFormat,
		Width:          sizes[0].Discrete.Width,
		Height:         sizes[0].Discrete.Height,
	})
	if err != nil {
		return entry, fmt.Errorf("%s %s frame intervals: %w", t, entry.PixelFormat, err)
	}
	for _, iv := range intervals {
		entry.Intervals = append(entry.Intervals, describeInterval(iv))
	}
	return entry, nil
}

func describeSize(fs v4l2.FrameSize) string {
	if fs.Kind == v4l2.FrameSizeDiscrete {
		return fs.Discrete.String()
	}
	s := fs.Stepwise
	return fmt.Sprintf("%dx%d-%dx%d/%dx%d", s.MinWidth, s.MinHeight, s.MaxWidth, s.MaxHeight, s.StepWidth, s.StepHeight)
}

func describeInterval(iv v4l2.FrameInterval) string {
	if iv.Kind == v4l2.FrameIntervalDiscrete {
		return fmt.Sprintf("%d/%d (%.4g fps)", iv.Discrete.Numerator, iv.Discrete.Denominator, iv.Discrete.FPS())
	}
	return fmt.Sprintf("%d/%d-%d/%d", iv.Min.Numerator, iv.Min.Denominator, iv.Max.Numerator, iv.Max.Denominator)
}

// WriteFormats prints report as an aligned table.
func WriteFormats(w io.Writer, report []StreamFormats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tFORMAT\tDESCRIPTION\tSIZES\tINTERVALS")
	for _, sf := range report {
		for _, f := range sf.Formats {
			desc := f.Description
			if f.Compressed {
				desc += " (compressed)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				sf.Stream, f.PixelFormat, desc, strings.Join(f.Sizes, " "), strings.Join(f.Intervals, ", "))
		}
	}
	return tw.Flush()
}
