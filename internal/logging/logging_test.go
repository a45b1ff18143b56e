package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

// captureLogOutputWithInit captures output through InitLoggerTo so the
// ReplaceAttr logic is exercised.
func captureLogOutputWithInit(level Level, format Format, f func()) string {
	var buf bytes.Buffer
	InitLoggerTo(&buf, level, format)
	f()
	InitLogger(LevelInfo, FormatJSON)
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		format   Format
		logDebug bool
		logInfo  bool
	}{
		{"debug json", LevelDebug, FormatJSON, true, true},
		{"info text", LevelInfo, FormatText, false, true},
		{"warn json", LevelWarn, FormatJSON, false, false},
		{"error text", LevelError, FormatText, false, false},
		{"unknown level defaults to info", Level(42), FormatJSON, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutputWithInit(tt.level, tt.format, func() {
				Debug("debug message")
				Info("info message")
			})
			if got := strings.Contains(output, "debug message"); got != tt.logDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.logDebug)
			}
			if got := strings.Contains(output, "info message"); got != tt.logInfo {
				t.Errorf("info logged = %v, want %v", got, tt.logInfo)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID = %q, want req-1", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on empty context = %q", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "ctx-req")
	output := captureLogOutput(func() {
		LoggerFromContext(ctx).Info("with context")
	})
	if !strings.Contains(output, `"request_id":"ctx-req"`) {
		t.Errorf("Expected request_id in output: %s", output)
	}

	output = captureLogOutput(func() {
		LoggerFromContext(context.Background()).Info("without context")
	})
	if strings.Contains(output, "request_id") {
		t.Errorf("Unexpected request_id in output: %s", output)
	}
}

func TestLoggingFunctions(t *testing.T) {
	ctx := context.Background()
	output := captureLogOutput(func() {
		Debug("d1")
		Info("i1")
		Warn("w1")
		Error("e1")
		ErrorContext(ctx, "e2")
	})

	for _, msg := range []string{"d1", "i1", "w1", "e1", "e2"} {
		if !strings.Contains(output, `"msg":"`+msg+`"`) {
			t.Errorf("Expected %s in output", msg)
		}
	}
}

func TestRenderEvent(t *testing.T) {
	ctx := WithRequestID(context.Background(), "r-1")
	output := captureLogOutput(func() {
		RenderEvent(ctx, "abc123", "ok", 2, 12*time.Millisecond, "source", "api")
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(output), &entry); err != nil {
		t.Fatalf("output is not a single JSON record: %v\n%s", err, output)
	}
	want := map[string]any{
		"msg":         "render",
		"hash":        "abc123",
		"status":      "ok",
		"structures":  float64(2),
		"duration_ms": float64(12),
		"source":      "api",
		"request_id":  "r-1",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestRenderError(t *testing.T) {
	output := captureLogOutput(func() {
		RenderError(context.Background(), "h", errors.New("unexpected EOF"))
	})
	if !strings.Contains(output, `"level":"DEBUG"`) || !strings.Contains(output, "unexpected EOF") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestBlocksEvent(t *testing.T) {
	output := captureLogOutput(func() {
		BlocksEvent(context.Background(), 10, 4, time.Millisecond)
	})
	for _, want := range []string{`"msg":"blocks"`, `"lines":10`, `"records":4`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestJobEvent(t *testing.T) {
	output := captureLogOutput(func() {
		JobEvent("job-1", "completed", "structures", 1)
	})
	for _, want := range []string{"job_event", `"job_id":"job-1"`, `"state":"completed"`, `"structures":1`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestWebSocketEvent(t *testing.T) {
	output := captureLogOutput(func() {
		WebSocketEvent("client_connected", 5, "remote", "1.2.3.4")
	})
	for _, want := range []string{"websocket_event", "client_connected", `"client_count":5`, "remote"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestServerStartup(t *testing.T) {
	output := captureLogOutput(func() {
		ServerStartup("preview", "http", 8080)
	})
	for _, want := range []string{"server_startup", `"server_type":"preview"`, `"port":8080`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestSecurityEvent(t *testing.T) {
	output := captureLogOutput(func() {
		SecurityEvent("origin_rejected", "websocket", "origin", "https://evil.example")
	})
	if !strings.Contains(output, `"level":"WARN"`) || !strings.Contains(output, "origin_rejected") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	recorder := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError) // ignored

	if rw.statusCode != http.StatusNotFound || recorder.Code != http.StatusNotFound {
		t.Errorf("status = %d/%d, want 404", rw.statusCode, recorder.Code)
	}
}

func TestResponseWriter_Write(t *testing.T) {
	recorder := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}

	n, err := rw.Write([]byte("data"))
	if err != nil || n != 4 {
		t.Errorf("Write = %d, %v", n, err)
	}
	if !rw.written || rw.statusCode != http.StatusOK {
		t.Errorf("written=%v status=%d", rw.written, rw.statusCode)
	}
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestResponseWriter_Hijack(t *testing.T) {
	inner := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw := &responseWriter{ResponseWriter: inner, statusCode: http.StatusOK}

	if _, _, err := rw.Hijack(); err != nil {
		t.Fatalf("Hijack failed: %v", err)
	}
	if !inner.hijacked || rw.statusCode != http.StatusSwitchingProtocols {
		t.Errorf("hijacked=%v status=%d", inner.hijacked, rw.statusCode)
	}

	plain := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := plain.Hijack(); err == nil {
		t.Error("Hijack should fail when the writer cannot hijack")
	}
}

func TestResponseWriter_Flush(t *testing.T) {
	recorder := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: recorder}
	rw.Flush()
	if !recorder.Flushed {
		t.Error("Flush should reach the underlying writer")
	}
}

func TestGenerateRequestID(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateRequestID()
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("request ID %q is not a UUID: %v", id, err)
		}
		if ids[id] {
			t.Error("Generated duplicate request ID")
		}
		ids[id] = true
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generate new request ID", "", false},
		{"keep existing request ID", "existing-req-id-123", true},
		{"replace oversized request ID", strings.Repeat("x", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Errorf("header %q, context %q", got, seen)
			}
			if tt.keep && got != tt.header {
				t.Errorf("request ID = %q, want %q", got, tt.header)
			}
			if !tt.keep && got == tt.header {
				t.Error("request ID should have been generated")
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	output := captureLogOutput(func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/render", nil))
	})
	for _, want := range []string{"http_request", `"method":"POST"`, `"path":"/render"`, `"status_code":418`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestCombinedMiddleware(t *testing.T) {
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	output := captureLogOutput(func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	})

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("Expected X-Request-ID header")
	}
	if !strings.Contains(output, `"request_id":"`+id+`"`) {
		t.Errorf("log line lacks request ID %s: %s", id, output)
	}
}

func TestReplaceAttrTimestamp(t *testing.T) {
	output := captureLogOutputWithInit(LevelInfo, FormatJSON, func() {
		Info("timestamp test")
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(output), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	ts, _ := entry["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestTextFormat(t *testing.T) {
	output := captureLogOutputWithInit(LevelInfo, FormatText, func() {
		Info("text message", "key", "value")
	})
	if !strings.Contains(output, `msg="text message"`) || !strings.Contains(output, "key=value") {
		t.Errorf("unexpected text output: %s", output)
	}
}
