package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/smazurov/videocore/internal/sim"
)

func TestCollectFormats(t *testing.T) {
	hw, err := sim.NewHardware(sim.DefaultProfile(), nil)
	if err != nil {
		t.Fatalf("NewHardware: %v", err)
	}
	h, err := hw.Device.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	report, err := CollectFormats(hw.Device)
	if err != nil {
		t.Fatalf("CollectFormats: %v", err)
	}
	if len(report) != 2 || report[0].Stream != "video" || report[1].Stream != "still" {
		t.Fatalf("streams = %+v", report)
	}

	video := report[0]
	if len(video.Formats) != 2 || video.Formats[0].PixelFormat != "UYVY" {
		t.Fatalf("video formats = %+v", video.Formats)
	}
	if got := video.Formats[0].Sizes[0]; got != "2592x1944" {
		t.Errorf("first video size = %q", got)
	}
	if len(video.Formats[0].Intervals) == 0 || !strings.HasPrefix(video.Formats[0].Intervals[0], "1/30") {
		t.Errorf("video intervals = %v", video.Formats[0].Intervals)
	}

	var out bytes.Buffer
	if err := WriteFormats(&out, report); err != nil {
		t.Fatalf("WriteFormats: %v", err)
	}
	table := out.String()
	for _, want := range []string{"STREAM", "video", "still", "JPEG", "(compressed)"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
}

func TestFormatsCommandJSON(t *testing.T) {
	cmd := CreateFormatsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var report []StreamFormats
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(report) != 2 {
		t.Errorf("streams = %d, want 2", len(report))
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		pix, size string
		wantErr   bool
		w, h      uint32
	}{
		{"UYVY", "640x480", false, 640, 480},
		{"JPEG", "2592x1944", false, 2592, 1944},
		{"UYVY", "640", true, 0, 0},
		{"", "640x480", true, 0, 0},
		{"TOOLONG", "640x480", true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.pix+"/"+tt.size, func(t *testing.T) {
			f, err := parseFormat(1, tt.pix, tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (f.Width != tt.w || f.Height != tt.h) {
				t.Errorf("parseFormat() = %dx%d, want %dx%d", f.Width, f.Height, tt.w, tt.h)
			}
		})
	}
}
