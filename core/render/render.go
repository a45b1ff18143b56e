// Package render runs the full diagram pipeline: parse, lay out, emit.
//
// Render never fails. Malformed drawings and drawings without atoms produce
// fixed placeholder SVGs and a structure count of zero; the underlying error
// is kept in the Result for logging.
package render

import (
	"fmt"

	"github.com/FocuswithJustin/MarkdownViewer/core/diagram"
	"github.com/FocuswithJustin/MarkdownViewer/core/errors"
	"github.com/FocuswithJustin/MarkdownViewer/core/layout"
	"github.com/FocuswithJustin/MarkdownViewer/core/svg"
)

// Status classifies a render outcome.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// Result is the output of one pipeline run.
type Result struct {
	SVG        string `json:"svg"`
	Structures int    `json:"structures"`
	Status     Status `json:"status"`

	// Err is the parse or layout error behind an empty or error result.
	Err error `json:"-"`
}

// Options tunes the pipeline. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	Defaults diagram.AttrDefaults
	Layout   layout.Params
}

// DefaultOptions returns the parser defaults and layout constants of the
// drawing format.
func DefaultOptions() Options {
	return Options{
		Defaults: diagram.DefaultAttrDefaults(),
		Layout:   layout.DefaultParams(),
	}
}

// Render runs the pipeline with DefaultOptions.
func Render(text string) Result {
	return RenderWithOptions(text, DefaultOptions())
}

// RenderWithOptions runs the pipeline with opts.
func RenderWithOptions(text string, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed(fmt.Errorf("%w: render panic: %v", errors.ErrInternal, r))
		}
	}()

	p := &diagram.Parser{Defaults: opts.Defaults}
	d, err := p.Parse(text)
	if err != nil {
		if errors.Is(err, errors.ErrEmpty) {
			return empty(err)
		}
		return failed(err)
	}

	l, err := layout.ComputeWithParams(d, opts.Layout)
	if err != nil {
		if errors.Is(err, errors.ErrEmpty) {
			return empty(err)
		}
		return failed(err)
	}

	return Result{
		SVG:        svg.Emit(l),
		Structures: d.Structures,
		Status:     StatusOK,
	}
}

func empty(err error) Result {
	return Result{SVG: svg.EmptyPlaceholder(), Status: StatusEmpty, Err: err}
}

func failed(err error) Result {
	return Result{SVG: svg.ErrorPlaceholder(), Status: StatusError, Err: err}
}

// OK reports whether the drawing was rendered.
func (r Result) OK() bool {
	return r.Status == StatusOK
}
