package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState() {
	mutex.Lock()
	defer mutex.Unlock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = NewRingBuffer(defaultBufferSize)
	logCallback = nil
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"video": "debug",
			"api":   "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"video", true, true, true},
		{"api", false, false, true},
		{"framebuf", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestReinitializeKeepsCachedLoggers(t *testing.T) {
	resetState()

	before := GetLogger("sim")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "info", Format: "text", Modules: map[string]string{"sim": "debug"}})
	if GetLogger("sim") != before {
		t.Error("Initialize replaced a cached logger without a format change")
	}
	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("cached logger did not pick up the debug level")
	}

	Initialize(Config{Level: "error", Format: "text"})
	if before.Handler().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("cached logger did not pick up the error level on reload")
	}
	if got := CurrentConfig().Level; got != "error" {
		t.Errorf("CurrentConfig().Level = %q", got)
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	resetState()

	var got []LogEntry
	SetLogCallback(func(e LogEntry) { got = append(got, e) })

	var level slog.LevelVar
	level.Set(slog.LevelDebug)
	logger := slog.New(NewBufferHandler(&level)).With("module", "video")

	logger.Debug("Transfer started", "stream", "still", "err", errors.New("boom"))
	logger.WithGroup("queue").Info("Stats", "pending", 2, "wait", 5*time.Millisecond)

	entries := GetBuffer().ReadAll()
	if len(entries) != 2 || len(got) != 2 {
		t.Fatalf("entries = %d, callbacks = %d", len(entries), len(got))
	}
	first := entries[0]
	if first.Module != "video" || first.Level != "debug" || first.Seq != 1 {
		t.Errorf("first entry = %+v", first)
	}
	if first.Attributes["stream"] != "still" || first.Attributes["err"] != "boom" {
		t.Errorf("first attrs = %v", first.Attributes)
	}
	if entries[1].Attributes["queue.wait"] != "5ms" {
		t.Errorf("group attrs = %v", entries[1].Attributes)
	}
	if got[1].Seq != 2 {
		t.Errorf("callback seq = %d, want 2", got[1].Seq)
	}

	level.Set(slog.LevelWarn)
	logger.Info("dropped")
	if n := GetBuffer().Count(); n != 2 {
		t.Errorf("Count() = %d after level change, want 2", n)
	}
}

func TestRingBufferReadSince(t *testing.T) {
	rb := NewRingBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		rb.Write(LogEntry{Message: msg})
	}

	all := rb.ReadAll()
	if len(all) != 3 || all[0].Message != "c" || all[2].Message != "e" {
		t.Fatalf("ReadAll() = %+v", all)
	}
	since := rb.ReadSince(4)
	if len(since) != 1 || since[0].Message != "e" {
		t.Errorf("ReadSince(4) = %+v", since)
	}
	if rb.ReadSince(5) != nil {
		t.Error("ReadSince(latest) should be empty")
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer
	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	if count := strings.Count(buf.String(), "debug only message"); count != 1 {
		t.Errorf("expected 1 debug message, got %d. Output: %s", count, buf.String())
	}
}

func TestFormatLogLine(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	line := FormatLogLine(LogEntry{
		Timestamp:  ts,
		Level:      "warn",
		Module:     "api",
		Message:    "slow request",
		Attributes: map[string]any{"path": "/api/device", "ms": 120},
	})
	want := "2026-01-02T03:04:05Z [WARN] [api] slow request ms=120 path=/api/device"
	if line != want {
		t.Errorf("FormatLogLine() = %q, want %q", line, want)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}
