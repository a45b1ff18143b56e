package diagram

import "strconv"

// symbols maps atomic numbers to element symbols.
var symbols = map[int]string{
	1:  "H",
	3:  "Li",
	5:  "B",
	6:  "C",
	7:  "N",
	8:  "O",
	9:  "F",
	11: "Na",
	12: "Mg",
	14: "Si",
	15: "P",
	16: "S",
	17: "Cl",
	19: "K",
	20: "Ca",
	26: "Fe",
	29: "Cu",
	30: "Zn",
	34: "Se",
	35: "Br",
	50: "Sn",
	53: "I",
}

// UnknownSymbol is drawn for atomic numbers outside the symbol table.
const UnknownSymbol = "?"

// Symbol returns the element symbol for an atomic number, or UnknownSymbol.
func Symbol(element int) string {
	if s, ok := symbols[element]; ok {
		return s
	}
	return UnknownSymbol
}

// SynthesizeLabel builds the label for an unlabeled heteroatom: the element
// symbol followed by H and, for more than one hydrogen, the count.
// Carbon gets no label.
func SynthesizeLabel(element, hydrogens int) string {
	if element == Carbon {
		return ""
	}
	label := Symbol(element)
	if hydrogens > 0 {
		label += "H"
		if hydrogens > 1 {
			label += strconv.Itoa(hydrogens)
		}
	}
	return label
}
