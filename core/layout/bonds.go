package layout

import "github.com/FocuswithJustin/MarkdownViewer/core/diagram"

// minBondLength is the length below which a bond is treated as degenerate.
const minBondLength = 1e-9

// bondSegments returns the lines drawn for one bond: the centerline trimmed
// at labeled ends, then doubled or tripled by perpendicular offsets.
// Degenerate bonds draw nothing. On a bond too short for both trims the
// trims shrink in proportion so MinBondVisible of the centerline remains.
func bondSegments(d *diagram.Diagram, index int, bond diagram.Bond, p Params) []Segment {
	a, b := d.Atoms[bond.Begin], d.Atoms[bond.End]
	from := Vec{X: a.X, Y: a.Y}
	to := Vec{X: b.X, Y: b.Y}

	dir := to.Sub(from)
	length := dir.Len()
	if length < minBondLength {
		return nil
	}
	unit := dir.Scale(1 / length)

	trimA, trimB := clampTrims(Trim(a, p), Trim(b, p), length, p.MinBondVisible)
	start := from.Add(unit.Scale(trimA))
	end := to.Sub(unit.Scale(trimB))

	var offsets []float64
	switch bond.Order {
	case diagram.Double:
		offsets = []float64{p.DoubleOffset, -p.DoubleOffset}
	case diagram.Triple:
		offsets = []float64{0, p.TripleOffset, -p.TripleOffset}
	default:
		offsets = []float64{0}
	}

	normal := unit.Perp()
	segs := make([]Segment, 0, len(offsets))
	for _, off := range offsets {
		shift := normal.Scale(off)
		s, e := start.Add(shift), end.Add(shift)
		segs = append(segs, Segment{X1: s.X, Y1: s.Y, X2: e.X, Y2: e.Y, Bond: index})
	}
	return segs
}

// clampTrims scales both trims down so at least keep of length (or all of
// it, for shorter bonds) stays visible.
func clampTrims(trimA, trimB, length, keep float64) (float64, float64) {
	room := length - min(max(keep, 0), length)
	total := trimA + trimB
	if total <= room {
		return trimA, trimB
	}
	k := room / total
	return trimA * k, trimB * k
}
