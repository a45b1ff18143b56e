// Command mdview renders structure drawings to SVG, classifies Markdown
// lines, and serves both over HTTP for live preview.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/MarkdownViewer/core/blocks"
	"github.com/FocuswithJustin/MarkdownViewer/core/cache"
	"github.com/FocuswithJustin/MarkdownViewer/core/errors"
	"github.com/FocuswithJustin/MarkdownViewer/core/render"
	"github.com/FocuswithJustin/MarkdownViewer/internal/api"
	"github.com/FocuswithJustin/MarkdownViewer/internal/logging"
	"github.com/FocuswithJustin/MarkdownViewer/internal/validation"
	"github.com/FocuswithJustin/MarkdownViewer/internal/workerpool"
)

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// CLI defines the command-line interface for mdview.
var CLI struct {
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" enum:"text,json"`

	Render  RenderCmd  `cmd:"" help:"Render structure drawings to SVG"`
	Blocks  BlocksCmd  `cmd:"" help:"Classify the lines of a Markdown file"`
	Serve   ServeCmd   `cmd:"" help:"Start the preview API server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// RenderCmd renders one or more drawings.
type RenderCmd struct {
	Paths  []string `arg:"" help:"Drawing files (.cdxml, .xml)" type:"existingfile"`
	Output string   `short:"o" help:"Output file for a single drawing (default stdout)" type:"path"`
	OutDir string   `name:"out-dir" help:"Directory for batch output, one .svg per drawing" type:"path"`
	Strict bool     `help:"Fail when a drawing renders as a placeholder"`
	Jobs   int      `short:"j" help:"Drawings rendered in parallel (0 = one per CPU)" default:"0"`
}

type renderOutcome struct {
	res render.Result
	err error
}

func (c *RenderCmd) Run() error {
	if len(c.Paths) > 1 && c.OutDir == "" {
		return errors.NewValidation("out-dir", "required when rendering more than one drawing")
	}
	if c.Output != "" && c.OutDir != "" {
		return errors.NewValidation("output", "cannot be combined with --out-dir")
	}
	for _, path := range c.Paths {
		if err := validation.CheckExtension(path, validation.KindDrawing); err != nil {
			return err
		}
	}
	if c.OutDir != "" {
		if err := c.checkOutNames(); err != nil {
			return err
		}
		if err := os.MkdirAll(c.OutDir, 0755); err != nil {
			return errors.NewIO("mkdir", c.OutDir, err)
		}
	}

	// Identical drawings in a batch render once.
	rc := cache.NewRenderCache(0, 0)
	outcomes := workerpool.Map(c.Jobs, c.Paths, func(path string) renderOutcome {
		text, err := validation.ReadSource(path, validation.KindDrawing)
		if err != nil {
			return renderOutcome{err: err}
		}
		start := time.Now()
		res, hash, hit := rc.Render(text)
		logging.Debug("rendered drawing",
			"path", path,
			"hash", hash,
			"status", res.Status,
			"cached", hit,
			"duration_ms", time.Since(start).Milliseconds())
		return renderOutcome{res: res}
	})

	failed := 0
	for i, path := range c.Paths {
		out := outcomes[i]
		if out.err != nil {
			return out.err
		}
		if err := c.write(path, out.res.SVG); err != nil {
			return err
		}

		fmt.Fprintf(stderr, "%s: %d structure(s)\n", filepath.Base(path), out.res.Structures)
		if !out.res.OK() {
			failed++
			fmt.Fprintf(stderr, "%s: %s: %v\n", filepath.Base(path), out.res.Status, out.res.Err)
		}
	}

	if c.Strict && failed > 0 {
		return fmt.Errorf("%d of %d drawing(s) could not be rendered", failed, len(c.Paths))
	}
	return nil
}

// outName is the file a drawing renders to under --out-dir.
func outName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".svg"
}

// checkOutNames rejects batches where two drawings would write the same
// output file. Names are compared case-insensitively for case-folding
// file systems.
func (c *RenderCmd) checkOutNames() error {
	seen := make(map[string]string, len(c.Paths))
	for _, path := range c.Paths {
		key := strings.ToLower(outName(path))
		if prev, ok := seen[key]; ok {
			return errors.NewValidation("out-dir",
				fmt.Sprintf("%s and %s would both be written to %s", prev, path, outName(path)))
		}
		seen[key] = path
	}
	return nil
}

func (c *RenderCmd) write(path, svg string) error {
	out := c.Output
	if c.OutDir != "" {
		out = filepath.Join(c.OutDir, outName(path))
	}
	if out == "" {
		_, err := io.WriteString(stdout, svg)
		return err
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return errors.NewIO("write", out, err)
	}
	return nil
}

// BlocksCmd prints the block type of each rendered block of a Markdown file.
type BlocksCmd struct {
	Path string `arg:"" help:"Markdown file (.md, .markdown)" type:"existingfile"`
	JSON bool   `help:"Output as JSON"`
}

func (c *BlocksCmd) Run() error {
	text, err := validation.ReadSource(c.Path, validation.KindMarkdown)
	if err != nil {
		return err
	}

	records := blocks.Classify(text)
	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	for _, rec := range records {
		fmt.Fprintf(stdout, "%d\t%s\n", rec.Line, rec.Type)
	}
	return nil
}

// ServeCmd starts the preview API server.
type ServeCmd struct {
	Port       int           `help:"HTTP server port" default:"8081"`
	Store      string        `help:"SQLite file for rendered drawings (empty = memory only)" type:"path"`
	CacheSize  int           `name:"cache-size" help:"Render cache entries" default:"256"`
	CacheBytes int64         `name:"cache-bytes" help:"Render cache SVG bytes" default:"33554432"`
	MaxBody    int64         `name:"max-body" help:"Request body limit in bytes" default:"10485760"`
	JobTTL     time.Duration `name:"job-ttl" help:"How long finished render jobs stay queryable" default:"1h"`
	MaxJobs    int           `name:"max-jobs" help:"Finished render jobs kept for polling" default:"1000"`
	Origin     []string      `help:"Allowed CORS/WebSocket origin (repeatable; default all)"`
	TLSCert    string        `name:"tls-cert" help:"TLS certificate file" type:"path"`
	TLSKey     string        `name:"tls-key" help:"TLS private key file" type:"path"`
}

func (c *ServeCmd) Run() error {
	return api.Start(c.config())
}

func (c *ServeCmd) config() api.Config {
	return api.Config{
		Port:            c.Port,
		StorePath:       c.Store,
		CacheSize:       c.CacheSize,
		CacheBytes:      c.CacheBytes,
		MaxBodyBytes:    c.MaxBody,
		JobRetention:    c.JobTTL,
		MaxFinishedJobs: c.MaxJobs,
		AllowedOrigins:  c.Origin,
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" || c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "mdview version %s\n", api.Version)
	return nil
}

// initLogging routes logs to stderr so rendered output on stdout stays clean.
func initLogging(level, format string) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	f, err := logging.ParseFormat(format)
	if err != nil {
		return err
	}
	logging.InitLoggerTo(stderr, lvl, f)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mdview"),
		kong.Description("Markdown Viewer - structure drawing renderer and preview server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(initLogging(CLI.LogLevel, CLI.LogFormat))
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
