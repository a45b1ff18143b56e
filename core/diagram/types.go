package diagram

import "fmt"

// Carbon is the atomic number assumed when an atom does not say otherwise.
const Carbon = 6

// Bond orders.
const (
	Single = 1
	Double = 2
	Triple = 3
)

// Point is a position in drawing-page units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Atom is a node of a structure.
type Atom struct {
	// ID is the source identifier, unique within a Diagram.
	ID string `json:"id"`

	// X and Y are page coordinates.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Element is the atomic number.
	Element int `json:"element"`

	// Label is the text drawn at the atom. Empty means an implicit carbon
	// that is never drawn with a glyph.
	Label string `json:"label,omitempty"`

	// Hydrogens is the explicit implicit-hydrogen count when HasHydrogens is set.
	Hydrogens    int  `json:"hydrogens,omitempty"`
	HasHydrogens bool `json:"has_hydrogens,omitempty"`

	// Synthesized reports whether Label was generated from Element and Hydrogens.
	Synthesized bool `json:"synthesized,omitempty"`
}

// Pos returns the atom position.
func (a Atom) Pos() Point {
	return Point{X: a.X, Y: a.Y}
}

// Drawn reports whether the atom gets a text glyph.
func (a Atom) Drawn() bool {
	return a.Label != ""
}

// Bond connects two atoms by index into Diagram.Atoms.
type Bond struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
	Order int `json:"order"`
}

// Caption is a free-text label placed on the page outside any fragment.
type Caption struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Diagram is the parsed drawing. It is built by a single Parse call and is
// read-only afterwards.
type Diagram struct {
	// Atoms in document order of first appearance of each id.
	Atoms []Atom `json:"atoms"`

	// Bonds in document order; every index is valid.
	Bonds []Bond `json:"bonds"`

	// Captions in document order.
	Captions []Caption `json:"captions,omitempty"`

	// Structures counts the fragment elements encountered, including empty ones.
	Structures int `json:"structures"`

	index map[string]int
}

func newDiagram() *Diagram {
	return &Diagram{index: make(map[string]int)}
}

// putAtom stores a, replacing an earlier atom with the same id in its slot.
func (d *Diagram) putAtom(a Atom) {
	if i, ok := d.index[a.ID]; ok {
		d.Atoms[i] = a
		return
	}
	d.index[a.ID] = len(d.Atoms)
	d.Atoms = append(d.Atoms, a)
}

// AtomIndex returns the slot of the atom with the given id.
func (d *Diagram) AtomIndex(id string) (int, bool) {
	i, ok := d.index[id]
	return i, ok
}

// Empty reports whether the diagram has no atoms.
func (d *Diagram) Empty() bool {
	return len(d.Atoms) == 0
}

// String summarizes the diagram for logs.
func (d *Diagram) String() string {
	return fmt.Sprintf("diagram{structures=%d atoms=%d bonds=%d captions=%d}",
		d.Structures, len(d.Atoms), len(d.Bonds), len(d.Captions))
}
