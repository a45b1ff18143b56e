package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/MarkdownViewer/core/blocks"
	"github.com/FocuswithJustin/MarkdownViewer/core/errors"
	"github.com/FocuswithJustin/MarkdownViewer/core/svg"
	"github.com/FocuswithJustin/MarkdownViewer/internal/validation"
)

const ethylene = `<page><fragment>
<n id="1" p="0 0"/><n id="2" p="12 0"/>
<b B="1" E="2" Order="2"/>
</fragment></page>`

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// captureOutput swaps the command output streams for buffers.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return &out, &errOut
}

func TestRenderCmd_Stdout(t *testing.T) {
	out, errOut := captureOutput(t)
	path := createTestFile(t, t.TempDir(), "ethylene.cdxml", ethylene)

	cmd := &RenderCmd{Paths: []string{path}}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.HasPrefix(out.String(), "<svg") {
		t.Errorf("expected SVG on stdout, got %q", out.String())
	}
	if n := strings.Count(out.String(), "<line"); n != 2 {
		t.Errorf("expected 2 lines, got %d", n)
	}
	if got := errOut.String(); got != "ethylene.cdxml: 1 structure(s)\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestRenderCmd_OutputFile(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	path := createTestFile(t, dir, "ethylene.xml", ethylene)
	outPath := filepath.Join(dir, "out.svg")

	cmd := &RenderCmd{Paths: []string{path}, Output: outPath}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") {
		t.Errorf("unexpected output file content: %q", data)
	}
	if out.Len() != 0 {
		t.Error("stdout should be empty when writing to a file")
	}
}

func TestRenderCmd_Batch(t *testing.T) {
	_, errOut := captureOutput(t)
	dir := t.TempDir()
	a := createTestFile(t, dir, "a.cdxml", ethylene)
	b := createTestFile(t, dir, "b.CDXML", ethylene)
	outDir := filepath.Join(dir, "svg")

	cmd := &RenderCmd{Paths: []string{a, b}, OutDir: outDir, Jobs: 2}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, name := range []string{"a.svg", "b.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if n := strings.Count(errOut.String(), "1 structure(s)"); n != 2 {
		t.Errorf("expected two count lines, got %q", errOut.String())
	}
}

func TestRenderCmd_Placeholder(t *testing.T) {
	out, errOut := captureOutput(t)
	path := createTestFile(t, t.TempDir(), "broken.cdxml", "<page><fragment>")

	cmd := &RenderCmd{Paths: []string{path}}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.String() != svg.ErrorPlaceholder() {
		t.Errorf("expected error placeholder, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "0 structure(s)") || !strings.Contains(errOut.String(), "error:") {
		t.Errorf("stderr = %q", errOut.String())
	}

	cmd.Strict = true
	if err := cmd.Run(); err == nil {
		t.Error("expected error in strict mode")
	}
}

func TestRenderCmd_Errors(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	drawing := createTestFile(t, dir, "a.cdxml", ethylene)
	other := createTestFile(t, dir, "b.cdxml", ethylene)
	text := createTestFile(t, dir, "notes.txt", ethylene)
	packed := createTestFile(t, dir, "packed.cdxml", "\x1f\x8b\x08\x00")

	tests := []struct {
		name   string
		cmd    RenderCmd
		target error
	}{
		{"wrong extension", RenderCmd{Paths: []string{text}}, errors.ErrUnsupported},
		{"compressed drawing", RenderCmd{Paths: []string{packed}}, validation.ErrNotText},
		{"batch without out-dir", RenderCmd{Paths: []string{drawing, other}}, errors.ErrInvalidInput},
		{"output with out-dir", RenderCmd{Paths: []string{drawing}, Output: "x.svg", OutDir: dir}, errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Run()
			if !errors.Is(err, tt.target) {
				t.Errorf("Run() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestRenderCmd_OutNameCollision(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	first := createTestFile(t, dir, filepath.Join("a", "x.cdxml"), ethylene)
	second := createTestFile(t, dir, filepath.Join("b", "x.cdxml"), ethylene)
	sameStem := createTestFile(t, dir, "x.XML", ethylene)
	outDir := filepath.Join(dir, "svg")

	for _, paths := range [][]string{{first, second}, {first, sameStem}} {
		cmd := &RenderCmd{Paths: paths, OutDir: outDir}
		if err := cmd.Run(); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("Run(%v) error = %v, want ErrInvalidInput", paths, err)
		}
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("nothing should be written when output names collide")
	}
}

func TestBlocksCmd(t *testing.T) {
	out, _ := captureOutput(t)
	path := createTestFile(t, t.TempDir(), "welcome.md", blocks.WelcomeDocument)

	cmd := &BlocksCmd{Path: path}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, want := out.String(), "1\th1\n3\tp\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestBlocksCmd_JSON(t *testing.T) {
	out, _ := captureOutput(t)
	path := createTestFile(t, t.TempDir(), "notes.markdown", "Hello\nworld\n\n- item")

	cmd := &BlocksCmd{Path: path, JSON: true}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var records []blocks.Record
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	want := []blocks.Record{{Line: 1, Type: blocks.Paragraph}, {Line: 4, Type: blocks.ListItem}}
	if len(records) != len(want) || records[0] != want[0] || records[1] != want[1] {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestBlocksCmd_WrongExtension(t *testing.T) {
	captureOutput(t)
	path := createTestFile(t, t.TempDir(), "notes.txt", "# h")

	cmd := &BlocksCmd{Path: path}
	if err := cmd.Run(); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Run() error = %v, want ErrUnsupported", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out, _ := captureOutput(t)
	if err := (&VersionCmd{}).Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "mdview version ") {
		t.Errorf("unexpected version output: %q", out.String())
	}
}

func TestServeCmd_Config(t *testing.T) {
	cmd := &ServeCmd{
		Port:      9000,
		Store:     "/tmp/renders.db",
		CacheSize: 10,
		MaxBody:   1024,
		JobTTL:    time.Minute,
		MaxJobs:   5,
		Origin:    []string{"http://localhost:3000"},
		TLSCert:   "cert.pem",
		TLSKey:    "key.pem",
	}
	cfg := cmd.config()

	if cfg.Port != 9000 || cfg.StorePath != "/tmp/renders.db" || cfg.CacheSize != 10 || cfg.MaxBodyBytes != 1024 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.JobRetention != time.Minute || cfg.MaxFinishedJobs != 5 {
		t.Errorf("job limits = %v, %d", cfg.JobRetention, cfg.MaxFinishedJobs)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if !cfg.TLS.Enabled || cfg.TLS.CertFile != "cert.pem" {
		t.Errorf("TLS = %+v", cfg.TLS)
	}

	if (&ServeCmd{}).config().TLS.Enabled {
		t.Error("TLS should be off without cert and key")
	}
}

func TestCLIParse(t *testing.T) {
	parser, err := kong.New(&CLI, kong.Name("mdview"), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}

	ctx, err := parser.Parse([]string{"--log-level", "debug", "serve", "--port", "9000", "--origin", "http://a", "--origin", "http://b"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ctx.Command() != "serve" {
		t.Errorf("command = %q, want serve", ctx.Command())
	}
	if CLI.LogLevel != "debug" || CLI.Serve.Port != 9000 || len(CLI.Serve.Origin) != 2 {
		t.Errorf("unexpected flags: level=%s port=%d origins=%v", CLI.LogLevel, CLI.Serve.Port, CLI.Serve.Origin)
	}
	if CLI.Serve.JobTTL != time.Hour || CLI.Serve.MaxJobs != 1000 {
		t.Errorf("unexpected job defaults: ttl=%v max=%d", CLI.Serve.JobTTL, CLI.Serve.MaxJobs)
	}
	if CLI.Serve.CacheSize != 256 || CLI.Serve.MaxBody != 10<<20 {
		t.Errorf("unexpected defaults: cache=%d max-body=%d", CLI.Serve.CacheSize, CLI.Serve.MaxBody)
	}

	if _, err := parser.Parse([]string{"--log-level", "loud", "version"}); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestInitLogging(t *testing.T) {
	captureOutput(t)

	if err := initLogging("info", "json"); err != nil {
		t.Fatalf("initLogging: %v", err)
	}
	if err := initLogging("loud", "json"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := initLogging("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
