package svg

import "fmt"

// DefaultColor is used for carbon and for elements without a table entry.
const DefaultColor = "#333333"

// Colors for atom labels, by atomic number.
var elementColors = map[int]string{
	7:  "#1f3fbf", // N, blue
	8:  "#d01010", // O, red
	9:  "#2e9a2e", // F, green
	15: "#e07b00", // P, orange
	16: "#8f8f00", // S, olive
	17: "#2e9a2e", // Cl, green
	35: "#800000", // Br, maroon
	53: "#6a1b9a", // I, purple
}

// ElementColor returns the label color for an atomic number.
func ElementColor(element int) string {
	if c, ok := elementColors[element]; ok {
		return c
	}
	return DefaultColor
}

const fontFamily = "Helvetica, Arial, sans-serif"

// stylesheet returns the inline stylesheet for a drawing. Sizes come from
// the layout parameters so the text extent estimate and the rendering agree.
func stylesheet(fontSize, captionSize float64) string {
	return fmt.Sprintf(`.bonds line{stroke:%s;stroke-width:1;stroke-linecap:round}`+
		`.masks rect{fill:#ffffff;stroke:none}`+
		`.atoms text{font-family:%s;font-size:%.1fpx;text-anchor:middle;dominant-baseline:central}`+
		`.captions text{font-family:%s;font-size:%.1fpx;text-anchor:start;dominant-baseline:hanging;fill:%s}`,
		DefaultColor, fontFamily, fontSize, fontFamily, captionSize, DefaultColor)
}
