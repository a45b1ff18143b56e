package svg

import (
	"fmt"

	"github.com/FocuswithJustin/MarkdownViewer/core/encoding"
)

// Placeholder messages.
const (
	EmptyMessage = "No structures found"
	ErrorMessage = "Could not parse structure drawing"
)

const (
	placeholderWidth  = 320
	placeholderHeight = 80
)

var (
	emptyPlaceholder = placeholder(EmptyMessage, "#666666")
	errorPlaceholder = placeholder(ErrorMessage, "#b00020")
)

// EmptyPlaceholder returns the fixed SVG shown for a well-formed drawing
// without atoms.
func EmptyPlaceholder() string {
	return emptyPlaceholder
}

// ErrorPlaceholder returns the fixed SVG shown when a drawing cannot be
// parsed.
func ErrorPlaceholder() string {
	return errorPlaceholder
}

func placeholder(message, color string) string {
	return fmt.Sprintf(`<svg xmlns="%s" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n"+
		`<rect width="%d" height="%d" fill="#f7f7f7" stroke="#cccccc"/>`+"\n"+
		`<text x="%d" y="%d" text-anchor="middle" dominant-baseline="central" font-family="%s" font-size="14" fill="%s">%s</text>`+"\n"+
		"</svg>\n",
		xmlns, placeholderWidth, placeholderHeight, placeholderWidth, placeholderHeight,
		placeholderWidth, placeholderHeight,
		placeholderWidth/2, placeholderHeight/2, fontFamily, color, encoding.EscapeXMLText(message))
}
