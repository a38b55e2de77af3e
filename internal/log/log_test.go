package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{
		Component: ComponentHTTP,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, slog.LevelInfo).WithComponent(ComponentStorage)
	logger.Info("saved", FieldKey, "svc:list")

	line := buf.String()
	if strings.Count(line, "component=") != 1 {
		t.Fatalf("expected a single component attribute, got %q", line)
	}
	if !strings.Contains(line, "component=storage") || logger.Component() != ComponentStorage {
		t.Fatalf("unexpected component in %q", line)
	}

	if same := logger.WithComponent(ComponentStorage); same != logger {
		t.Fatal("re-tagging with the same component should return the logger unchanged")
	}
}

func TestWithComponentKeepsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	request := newBufferLogger(&buf, slog.LevelInfo).WithComponent(ComponentHTTP).With(FieldRequestID, "req_1")
	export := FromContext(NewContext(context.Background(), request)).WithComponent(ComponentExport)
	export.Info("quote exported")

	line := buf.String()
	if strings.Count(line, "component=") != 1 || !strings.Contains(line, "component="+ComponentExport) {
		t.Fatalf("expected only the export component, got %q", line)
	}
	if !strings.Contains(line, "request_id=req_1") {
		t.Fatalf("request id lost on component switch: %q", line)
	}
	if request.Component() != ComponentHTTP {
		t.Fatal("switching component must not touch the original logger")
	}
}

func TestFromContext(t *testing.T) {
	fallback := FromContext(context.Background())
	if fallback == nil || fallback.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", fallback)
	}

	var buf bytes.Buffer
	logger := newBufferLogger(&buf, slog.LevelInfo)
	if got := FromContext(NewContext(context.Background(), logger)); got != logger {
		t.Fatal("FromContext must return the stored logger")
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		status    int
		wantLevel string
	}{
		{"successful read", "GET", 200, "DEBUG"},
		{"successful write", "POST", 200, "INFO"},
		{"client error", "POST", 422, "WARN"},
		{"server error", "GET", 500, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sl := NewStructuredLogger(newBufferLogger(&buf, slog.LevelDebug))
			r := httptest.NewRequest(tt.method, "/budget?x=1", nil)

			sl.LogHTTPEnd(context.Background(), r, tt.status, 3, "127.0.0.1")

			line := buf.String()
			if !strings.Contains(line, "level="+tt.wantLevel) {
				t.Fatalf("expected level %s in %q", tt.wantLevel, line)
			}
			if !strings.Contains(line, "path=/budget") || !strings.Contains(line, `query="x=1"`) {
				t.Fatalf("missing request fields in %q", line)
			}
		})
	}
}

func TestLogHTTPUsesRequestLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&base, slog.LevelDebug))
	ctx := NewContext(context.Background(), newBufferLogger(&scoped, slog.LevelDebug).With(FieldRequestID, "req_1"))

	sl.LogHTTPStart(ctx, httptest.NewRequest("GET", "/", nil), "127.0.0.1")

	if base.Len() != 0 {
		t.Fatalf("base logger should stay silent, got %q", base.String())
	}
	if !strings.Contains(scoped.String(), "request_id=req_1") {
		t.Fatalf("request id missing: %q", scoped.String())
	}
}

func TestToSliceIsSorted(t *testing.T) {
	got := NewFields().WithClientIP("::1").WithHTTPRequest("GET", "/", "", "", "").ToSlice()
	want := []any{FieldClientIP, "::1", FieldMethod, "GET", FieldPath, "/"}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ToSlice() = %v, want %v", got, want)
		}
	}
}
