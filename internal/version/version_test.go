package version

import (
	"runtime/debug"
	"testing"
)

func TestApplyBuildSettings(t *testing.T) {
	tests := []struct {
		name     string
		start    Info
		settings []debug.BuildSetting
		want     Info
	}{
		{
			name:  "fills unknown fields",
			start: Info{GitCommit: "unknown", BuildDate: "unknown"},
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
			want: Info{GitCommit: "0123456789ab", BuildDate: "2026-10-01T12:00:00Z", Modified: true},
		},
		{
			name:  "ldflags win",
			start: Info{GitCommit: "abc1234", BuildDate: "2026-09-30"},
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "ffffffffffffffff"},
				{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			},
			want: Info{GitCommit: "abc1234", BuildDate: "2026-09-30"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start
			applyBuildSettings(&got, tt.settings)
			if got != tt.want {
				t.Errorf("applyBuildSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion == "" || info.Platform == "" {
		t.Errorf("runtime fields empty: %+v", info)
	}
}
