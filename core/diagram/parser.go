package diagram

import (
	"strconv"
	"strings"

	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/MarkdownViewer/core/encoding"
	"github.com/FocuswithJustin/MarkdownViewer/core/errors"
	"github.com/FocuswithJustin/MarkdownViewer/core/xml"
)

// FormatName is reported in parse errors.
const FormatName = "CDXML"

// ErrEmpty is returned, together with the parsed Diagram, when a well-formed
// drawing contains no atoms.
var ErrEmpty = errors.Wrap(errors.ErrEmpty, "no structures found")

// Element and attribute names of the drawing dialect.
const (
	elemFragment = "fragment"
	elemNode     = "n"
	elemBond     = "b"
	elemText     = "t"
	elemRun      = "s"

	attrID        = "id"
	attrPosition  = "p"
	attrElement   = "Element"
	attrHydrogens = "NumHydrogens"
	attrBegin     = "B"
	attrEnd       = "E"
	attrOrder     = "Order"
)

var (
	fragmentExpr = xpath.MustCompile("//fragment")
	// Caption holders: page and group elements that are not part of a structure.
	captionHolderExpr = xpath.MustCompile("//*[(name()='page' or name()='group') and not(ancestor::fragment)]")
)

// AttrDefaults holds the values used when an attribute is absent or
// unreadable.
type AttrDefaults struct {
	// Position of atoms and captions without a readable p attribute.
	Position Point

	// Element is the atomic number of atoms without an Element attribute.
	Element int

	// Order is the multiplicity of bonds without an Order attribute.
	Order int
}

// DefaultAttrDefaults returns the documented defaults: origin, carbon and a
// single bond.
func DefaultAttrDefaults() AttrDefaults {
	return AttrDefaults{
		Position: Point{X: 0, Y: 0},
		Element:  Carbon,
		Order:    Single,
	}
}

// Parser turns drawing markup into a Diagram. The zero value is not usable;
// create one with NewParser. A Parser has no mutable state and may be shared
// between goroutines.
type Parser struct {
	Defaults AttrDefaults
}

// NewParser returns a Parser using DefaultAttrDefaults.
func NewParser() *Parser {
	return &Parser{Defaults: DefaultAttrDefaults()}
}

var defaultParser = NewParser()

// Parse parses text with the default parser.
func Parse(text string) (*Diagram, error) {
	return defaultParser.Parse(text)
}

// rawBond is a bond before its atom ids are resolved.
type rawBond struct {
	begin, end string
	order      int
}

// Parse parses the drawing. Markup that is not well-formed returns a
// *errors.ParseError and no diagram. A drawing without atoms returns the
// (empty) diagram together with ErrEmpty.
func (p *Parser) Parse(text string) (*Diagram, error) {
	doc, err := xml.Parse([]byte(text))
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			return nil, &errors.ParseError{Format: FormatName, Line: pe.Line, Message: pe.Message}
		}
		return nil, errors.Wrap(err, "parse drawing")
	}

	d := newDiagram()
	var bonds []rawBond

	for _, frag := range doc.Select(fragmentExpr) {
		d.Structures++
		for _, child := range frag.Children() {
			switch child.Name() {
			case elemNode:
				d.putAtom(p.readAtom(child))
			case elemBond:
				bonds = append(bonds, p.readBond(child))
			}
		}
	}

	// Bonds may point at atoms from later fragments, so resolve them only
	// once every fragment has been read.
	for _, rb := range bonds {
		begin, ok := d.AtomIndex(rb.begin)
		if !ok {
			continue
		}
		end, ok := d.AtomIndex(rb.end)
		if !ok {
			continue
		}
		d.Bonds = append(d.Bonds, Bond{Begin: begin, End: end, Order: rb.order})
	}

	for _, holder := range doc.Select(captionHolderExpr) {
		for _, t := range holder.ChildrenNamed(elemText) {
			pos := p.readPosition(t)
			d.Captions = append(d.Captions, Caption{X: pos.X, Y: pos.Y, Text: labelText(t)})
		}
	}

	if d.Empty() {
		return d, ErrEmpty
	}
	return d, nil
}

func (p *Parser) readAtom(n *xml.Node) Atom {
	pos := p.readPosition(n)
	a := Atom{
		ID:      n.Attr(attrID),
		X:       pos.X,
		Y:       pos.Y,
		Element: readInt(n, attrElement, p.Defaults.Element),
	}

	if v, ok := n.LookupAttr(attrHydrogens); ok {
		if h, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			a.Hydrogens = h
			a.HasHydrogens = true
		}
	}

	var label strings.Builder
	for _, t := range n.ChildrenNamed(elemText) {
		label.WriteString(labelText(t))
	}
	a.Label = encoding.CleanText(label.String())

	if a.Label == "" && a.Element != Carbon {
		a.Label = SynthesizeLabel(a.Element, a.Hydrogens)
		a.Synthesized = true
	}
	return a
}

func (p *Parser) readBond(b *xml.Node) rawBond {
	return rawBond{
		begin: b.Attr(attrBegin),
		end:   b.Attr(attrEnd),
		order: readInt(b, attrOrder, p.Defaults.Order),
	}
}

func (p *Parser) readPosition(n *xml.Node) Point {
	v, ok := n.LookupAttr(attrPosition)
	if !ok {
		return p.Defaults.Position
	}
	pt, err := ParsePoint(v)
	if err != nil {
		return p.Defaults.Position
	}
	return pt
}

// labelText concatenates the s runs of a t element in order. A t without
// runs contributes its own text.
func labelText(t *xml.Node) string {
	runs := t.ChildrenNamed(elemRun)
	if len(runs) == 0 {
		return encoding.CleanText(t.Text())
	}
	var b strings.Builder
	for _, s := range runs {
		b.WriteString(s.Text())
	}
	return encoding.CleanText(b.String())
}

func readInt(n *xml.Node, name string, def int) int {
	v, ok := n.LookupAttr(name)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}
