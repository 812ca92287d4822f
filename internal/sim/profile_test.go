package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/videocore/pkg/v4l2"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	if p.Name != "sim-5mp" {
		t.Errorf("Name = %q", p.Name)
	}
	if len(p.Sensor.Formats) != 5 || len(p.Sensor.FrameSizes) != 5 {
		t.Errorf("formats = %d, sizes = %d", len(p.Sensor.Formats), len(p.Sensor.FrameSizes))
	}
	if d, err := p.Engine.period(); err != nil || d != 33*time.Millisecond {
		t.Errorf("period = %v, %v", d, err)
	}

	var scene *SceneEntry
	for i := range p.Sensor.Scenes {
		if v4l2.SceneMode(p.Sensor.Scenes[i].Mode) == v4l2.SceneModeNight {
			scene = &p.Sensor.Scenes[i]
		}
	}
	if scene == nil || scene.Values["Exposure"] != 200000 {
		t.Errorf("night scene = %+v", scene)
	}
	for _, c := range p.Sensor.Controls {
		if c.ID == v4l2.CIDBrightness && c.Min != -128 {
			t.Errorf("brightness min = %d", c.Min)
		}
	}
}

func TestParseProfile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "bad stream",
			data:    "[[sensor.formats]]\nstream = \"audio\"\npixelformat = \"UYVY\"\n",
			wantErr: "sensor.formats[0]",
		},
		{
			name:    "bad pixel format",
			data:    "[[sensor.formats]]\nstream = \"video\"\npixelformat = \"TOOLONG\"\n",
			wantErr: "invalid pixel format",
		},
		{
			name:    "zero denominator",
			data:    "[[sensor.frame_intervals]]\nnumerator = 1\ndenominator = 0\n",
			wantErr: "zero denominator",
		},
		{
			name:    "unknown control type",
			data:    "[[sensor.controls]]\nid = 1\ntype = \"float\"\n",
			wantErr: "unknown type",
		},
		{
			name:    "bad period",
			data:    "[engine]\nframe_period = \"soon\"\n",
			wantErr: "frame_period",
		},
		{
			name:    "not toml",
			data:    "[[[",
			wantErr: "failed to parse profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseProfile() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	if p, err := LoadProfile(""); err != nil || p.Name != "sim-5mp" {
		t.Fatalf("LoadProfile(\"\") = %v, %v", p, err)
	}

	path := filepath.Join(t.TempDir(), "cam.toml")
	data := `name = "tiny"
[[sensor.formats]]
stream = "video"
pixelformat = "UYVY"
[[sensor.frame_sizes]]
width = 160
height = 120
[engine]
pixelformats = ["UYVY"]
min_width = 160
max_width = 160
min_height = 120
max_height = 120
frame_period = "5ms"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.Name != "tiny" || p.Engine.FramePeriod != "5ms" {
		t.Errorf("profile = %+v", p)
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadProfile(missing) succeeded")
	}
}
