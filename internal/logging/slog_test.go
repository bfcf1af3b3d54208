package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_FileOnly_NoStdout(t *testing.T) {
	restore := captureStdout(t)

	var fileBuf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &fileBuf, Level: "info"})
	m.Logger().Info("hello file")

	stdout := restore()

	assert.Contains(t, fileBuf.String(), "hello file", "log should appear in file")
	assert.Empty(t, stdout, "nothing should be written to stdout when file is provided")
}

func TestSetup_NoFile_WritesToStdout(t *testing.T) {
	restore := captureStdout(t)

	m := NewSlogManager()
	m.Setup(Options{Level: "info"})
	m.Logger().Info("hello console")

	stdout := restore()

	assert.Contains(t, stdout, "hello console", "log should appear on stdout")
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "debug"})

	m.Logger().Debug("debug msg")
	m.Logger().Info("info msg")

	output := buf.String()
	assert.Contains(t, output, "debug msg")
	assert.Contains(t, output, "info msg")
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "info"})

	m.Logger().Debug("should be filtered")
	m.Logger().Info("should appear")

	output := buf.String()
	assert.NotContains(t, output, "should be filtered")
	assert.Contains(t, output, "should appear")
}

func TestSetup_RemoteGetsJSON(t *testing.T) {
	var file, remote bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &file, Remote: &remote, Level: "info"})

	m.Logger().Warn("zone list empty", "objects", 8)

	lines := strings.Split(strings.TrimSpace(remote.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "zone list empty", entry["msg"])
	assert.Equal(t, float64(8), entry["objects"])
	assert.Contains(t, file.String(), "zone list empty")
}

func TestSetup_ContextProvider(t *testing.T) {
	var buf bytes.Buffer
	focus := 0
	m := NewSlogManager()
	m.Setup(Options{
		File:  &buf,
		Level: "info",
		Context: func() []slog.Attr {
			return []slog.Attr{slog.Int("focus", focus)}
		},
	})

	focus = 3
	m.Logger().Info("snapped")
	assert.Contains(t, buf.String(), "focus=3")
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	m := NewSlogManager()

	m.Setup(Options{File: &buf1, Level: "info"})
	m.Logger().Info("first")

	m.Setup(Options{File: &buf2, Level: "info"})
	m.Logger().Info("second")

	assert.Contains(t, buf1.String(), "first")
	assert.NotContains(t, buf1.String(), "second", "old file should not receive new logs")
	assert.Contains(t, buf2.String(), "second")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
}

func TestClose_NoRemote(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Close())
}

func TestDialGraylog(t *testing.T) {
	m := NewSlogManager()
	w, err := m.DialGraylog("127.0.0.1:12201")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}

func TestWriteLog_AllLevels(t *testing.T) {
	levels := []struct {
		level    string
		contains string
	}{
		{"debug", "level=DEBUG"},
		{"info", "level=INFO"},
		{"warn", "level=WARN"},
		{"error", "level=ERROR"},
		{"unknown", "level=INFO"},
	}

	for _, tt := range levels {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(Options{File: &buf, Level: "debug"})

			m.WriteLog("testFunc", tt.level+" message", tt.level)

			output := buf.String()
			assert.Contains(t, output, tt.level+" message")
			assert.Contains(t, output, tt.contains)
			assert.Contains(t, output, "testFunc")
		})
	}
}

func TestWriteLog_NilLogger(t *testing.T) {
	m := NewSlogManager()
	m.WriteLog("fn", "data", "info")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := slog.NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(h1, h2))
	logger.Info("fanned out")

	assert.Contains(t, buf1.String(), "fanned out")
	assert.Contains(t, buf2.String(), "fanned out")
}

func TestMultiHandler_FiltersNilHandlers(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(nil, slog.NewTextHandler(&buf, nil), nil)
	require.Len(t, multi.handlers, 1)

	slog.New(multi).Info("works")
	assert.Contains(t, buf.String(), "works")
}

func TestMultiHandler_Enabled(t *testing.T) {
	infoHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})

	infoOnly := NewMultiHandler(infoHandler)
	assert.False(t, infoOnly.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, infoOnly.Enabled(context.Background(), slog.LevelInfo))

	both := NewMultiHandler(infoHandler, debugHandler)
	assert.True(t, both.Enabled(context.Background(), slog.LevelDebug))

	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(slog.NewTextHandler(&buf, nil))

	slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "osc")})).Info("with attrs")
	slog.New(multi.WithGroup("grp")).Info("grouped", "key", "val")

	assert.Contains(t, buf.String(), "component=osc")
	assert.Contains(t, buf.String(), "grp.key=val")
	assert.Equal(t, multi, multi.WithGroup(""), "empty group name should return same handler")
}

type errorHandler struct {
	slog.Handler
}

func (h *errorHandler) Handle(_ context.Context, _ slog.Record) error {
	return errors.New("handler error")
}

func (h *errorHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func TestMultiHandler_HandleError(t *testing.T) {
	var buf bytes.Buffer
	spy := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	multi := NewMultiHandler(&errorHandler{}, spy)
	err := multi.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "should reach spy", 0))

	assert.EqualError(t, err, "handler error")
	assert.Contains(t, buf.String(), "should reach spy")
}

func TestContextHandler_WithAttrsKeepsProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.Int("objects", 8)}
	})

	slog.New(h).With("component", "session").WithGroup("g").Info("tick", "id", 1)
	assert.Contains(t, buf.String(), "component=session")
	assert.Contains(t, buf.String(), "objects=8")
	assert.Same(t, h, h.WithGroup(""))
}

// captureStdout redirects osStdout to a pipe and returns a function
// that restores it and returns what was captured.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)

	orig := osStdout
	osStdout = w

	return func() string {
		w.Close()
		osStdout = orig
		var buf bytes.Buffer
		buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}
