// Package layout computes the render-ready geometry of a parsed diagram:
// the viewport, the trimmed and offset bond segments, and the text extents
// of atom labels.
//
// All constants are calibrated to the page units of the drawing format,
// where a typical bond is about 14.4 units long and labels are set in a
// 10 unit font. They live in Params so callers can tune them, but the
// defaults are the values the emitted SVG is tested against.
package layout

import (
	"unicode/utf8"

	"github.com/FocuswithJustin/MarkdownViewer/core/diagram"
	"github.com/FocuswithJustin/MarkdownViewer/core/errors"
)

// ErrEmpty is returned for a nil diagram or one without atoms.
var ErrEmpty = errors.Wrap(errors.ErrEmpty, "nothing to lay out")

// Params holds the layout constants.
type Params struct {
	// Padding is added on every side of the bounding box.
	Padding float64
	// BottomExtra is added below the padding for caption baselines.
	BottomExtra float64
	// Scale converts page units into output pixels.
	Scale float64
	// TrimPerChar shortens a bond end by this much per label character.
	TrimPerChar float64
	// MinBondVisible is the centerline length kept when the label trims
	// would otherwise meet or cross on a short bond.
	MinBondVisible float64
	// DoubleOffset is the perpendicular distance of each double bond line.
	DoubleOffset float64
	// TripleOffset is the perpendicular distance of the outer triple bond lines.
	TripleOffset float64
	// FontSize of atom labels.
	FontSize float64
	// CharWidth is the estimated advance of one label character.
	CharWidth float64
	// MaskPadding surrounds the estimated label extent.
	MaskPadding float64
	// CaptionFontSize of structure captions.
	CaptionFontSize float64
}

// DefaultParams returns the format-specific defaults.
func DefaultParams() Params {
	return Params{
		Padding:         25,
		BottomExtra:     10,
		Scale:           4.0,
		TrimPerChar:     3.0,
		MinBondVisible:  2.0,
		DoubleOffset:    1.5,
		TripleOffset:    2.0,
		FontSize:        10,
		CharWidth:       6.0,
		MaskPadding:     1,
		CaptionFontSize: 10,
	}
}

// Segment is one straight line to draw for a bond.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`

	// Bond is the index into the diagram's bond list.
	Bond int `json:"bond"`
}

// AtomLabel is a drawn atom glyph with its masking rectangle.
type AtomLabel struct {
	// Atom is the index into the diagram's atom table.
	Atom    int     `json:"atom"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Text    string  `json:"text"`
	Element int     `json:"element"`
	Mask    Box     `json:"mask"`
}

// Layout is the laid-out diagram, ready for emission.
type Layout struct {
	// ViewBox is the padded bounding box in page units.
	ViewBox Box `json:"view_box"`

	// Width and Height are the output size in pixels.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Segments in bond order; a bond contributes zero to three segments.
	Segments []Segment `json:"segments"`

	// Labels of drawn atoms, in atom table order.
	Labels []AtomLabel `json:"labels"`

	// Captions copied from the diagram.
	Captions []diagram.Caption `json:"captions,omitempty"`

	// Structures copied from the diagram.
	Structures int `json:"structures"`

	Params Params `json:"-"`
}

// Compute lays out d with DefaultParams.
func Compute(d *diagram.Diagram) (*Layout, error) {
	return ComputeWithParams(d, DefaultParams())
}

// ComputeWithParams lays out d. It does not modify d.
func ComputeWithParams(d *diagram.Diagram, p Params) (*Layout, error) {
	if d == nil || d.Empty() {
		return nil, ErrEmpty
	}

	l := &Layout{
		Captions:   d.Captions,
		Structures: d.Structures,
		Params:     p,
	}

	l.ViewBox = bounds(d, p)
	l.Width = l.ViewBox.Width * p.Scale
	l.Height = l.ViewBox.Height * p.Scale

	for i, bond := range d.Bonds {
		l.Segments = append(l.Segments, bondSegments(d, i, bond, p)...)
	}

	for i, a := range d.Atoms {
		if !a.Drawn() {
			continue
		}
		l.Labels = append(l.Labels, AtomLabel{
			Atom:    i,
			X:       a.X,
			Y:       a.Y,
			Text:    a.Label,
			Element: a.Element,
			Mask:    LabelMask(a, p),
		})
	}

	return l, nil
}

// bounds returns the padded box around every atom and caption position.
func bounds(d *diagram.Diagram, p Params) Box {
	var e extent
	for _, a := range d.Atoms {
		e.add(a.X, a.Y)
	}
	for _, c := range d.Captions {
		e.add(c.X, c.Y)
	}
	return Box{
		X:      e.minX - p.Padding,
		Y:      e.minY - p.Padding,
		Width:  e.maxX - e.minX + 2*p.Padding,
		Height: e.maxY - e.minY + 2*p.Padding + p.BottomExtra,
	}
}

// LabelMask returns the estimated extent of an atom label, centered on the
// atom. Unlabeled atoms get a zero box at their position.
func LabelMask(a diagram.Atom, p Params) Box {
	n := utf8.RuneCountInString(a.Label)
	if n == 0 {
		return Box{X: a.X, Y: a.Y}
	}
	w := float64(n)*p.CharWidth + 2*p.MaskPadding
	h := p.FontSize + 2*p.MaskPadding
	return Box{X: a.X - w/2, Y: a.Y - h/2, Width: w, Height: h}
}

// Trim returns how far a bond end is pulled back from an atom so it stops
// outside the label.
func Trim(a diagram.Atom, p Params) float64 {
	return p.TrimPerChar * float64(utf8.RuneCountInString(a.Label))
}
