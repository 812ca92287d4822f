package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	Port        string        `toml:"server.port" env:"SERVER_PORT"`
	Metrics     bool          `toml:"metrics.enabled" env:"METRICS_ENABLED"`
	MaxBuffers  int           `toml:"capture.max_buffers" env:"CAPTURE_MAX_BUFFERS"`
	FramePeriod time.Duration `toml:"sim.frame_period" env:"SIM_FRAME_PERIOD"`
	Scale       float64       `toml:"sim.scale" env:"SIM_SCALE"`
	Streams     []string      `toml:"capture.streams" env:"CAPTURE_STREAMS"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const sampleTOML = `
[server]
port = ":9000"

[metrics]
enabled = true

[capture]
max_buffers = 8
streams = ["video", "still"]

[sim]
frame_period = "10ms"
scale = 2
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:      opts.Config,
		Port:        ":9000",
		Metrics:     true,
		MaxBuffers:  8,
		FramePeriod: 10 * time.Millisecond,
		Scale:       2,
		Streams:     []string{"video", "still"},
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("LoadConfig() = %+v, want %+v", *opts, want)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	t.Setenv("VIDEOCORE_SERVER_PORT", ":7000")
	t.Setenv("VIDEOCORE_SIM_FRAME_PERIOD", "1ms")
	t.Setenv("VIDEOCORE_CAPTURE_STREAMS", " still , video ")

	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != ":7000" {
		t.Errorf("Port = %q, want env override", opts.Port)
	}
	if opts.FramePeriod != time.Millisecond {
		t.Errorf("FramePeriod = %v, want 1ms", opts.FramePeriod)
	}
	if !reflect.DeepEqual(opts.Streams, []string{"still", "video"}) {
		t.Errorf("Streams = %v", opts.Streams)
	}
	if opts.MaxBuffers != 8 {
		t.Errorf("MaxBuffers = %d, want 8 from TOML", opts.MaxBuffers)
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	t.Setenv("VIDEOCORE_SERVER_PORT", ":7000")

	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.Port, "port", ":8090", "")
	cmd.Flags().IntVar(&opts.MaxBuffers, "max-buffers", 4, "")
	if err := cmd.Flags().Parse([]string{"--port", ":6000"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.Port != ":6000" {
		t.Errorf("Port = %q, want CLI value", opts.Port)
	}
	if opts.MaxBuffers != 8 {
		t.Errorf("MaxBuffers = %d, unset flag should not block the file", opts.MaxBuffers)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{name: "invalid toml", toml: "[server\nport ="},
		{name: "wrong type", toml: "[metrics]\nenabled = 3\n"},
		{name: "bad duration", toml: "[sim]\nframe_period = \"soon\"\n"},
		{name: "bad env int", env: map[string]string{"VIDEOCORE_CAPTURE_MAX_BUFFERS": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := &testOptions{Config: writeConfig(t, tt.toml)}
			if err := LoadConfig(opts, nil); err == nil {
				t.Errorf("LoadConfig() succeeded, want error")
			}
		})
	}

	if err := LoadConfig(testOptions{}, nil); err == nil {
		t.Error("LoadConfig(non-pointer) succeeded")
	}
}

func TestLoadConfigStringFields(t *testing.T) {
	path := writeConfig(t, "[auth]\nusername = \"operator\"\n\n[device]\nsim_profile = \"bench.toml\"\n")
	t.Setenv("VIDEOCORE_AUTH_PASSWORD", "s3cret")

	opts := &struct {
		Config     string
		Username   string `toml:"auth.username"`
		SimProfile string `toml:"device.sim_profile"`
		Password   string `toml:"auth.password" env:"AUTH_PASSWORD"`
	}{Config: path, Username: "admin", Password: "password"}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.Username != "operator" || opts.SimProfile != "bench.toml" {
		t.Errorf("file strings = %q, %q", opts.Username, opts.SimProfile)
	}
	if opts.Password != "s3cret" {
		t.Errorf("Password = %q, env override after string fields was skipped", opts.Password)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "nonexistent.toml"), Port: ":8090"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
	if opts.Port != ":8090" {
		t.Errorf("Port = %q, default should survive", opts.Port)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{"value": "nested_value"},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"root.child", nil},
		{"level1.nonexistent", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":         "port",
		"LoggingLevel": "logging-level",
		"SimProfile":   "sim-profile",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
api = "error"

[logging.modules]
video = "debug"
`)
	cfg, err := LoadLoggingConfig(path)
	if err != nil {
		t.Fatalf("LoadLoggingConfig: %v", err)
	}
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("level/format = %q/%q", cfg.Level, cfg.Format)
	}
	want := map[string]string{"api": "error", "video": "debug"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}

	cfg, err = LoadLoggingConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil || cfg.Level != "info" {
		t.Errorf("missing file = %+v, %v", cfg, err)
	}
	if _, err := LoadLoggingConfig(writeConfig(t, "[logging")); err == nil {
		t.Error("invalid TOML accepted")
	}
}
