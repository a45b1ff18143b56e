// Package svg serializes a laid-out diagram into a self-contained SVG
// document.
//
// Output is deterministic: elements follow bond and atom table order, and
// every number is printed with fixed precision (two decimals for geometry,
// one for sizes), so identical input produces byte-identical markup.
package svg

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/MarkdownViewer/core/encoding"
	"github.com/FocuswithJustin/MarkdownViewer/core/layout"
)

// Group class names, in draw order.
const (
	GroupBonds    = "bonds"
	GroupMasks    = "masks"
	GroupAtoms    = "atoms"
	GroupCaptions = "captions"
)

const xmlns = "http://www.w3.org/2000/svg"

// Emit renders l. Draw order is bonds, label masks, atom labels, captions.
// Empty captions are not drawn.
func Emit(l *layout.Layout) string {
	var b strings.Builder
	p := l.Params

	fmt.Fprintf(&b, `<svg xmlns="%s" width="%.1f" height="%.1f" viewBox="%.2f %.2f %.2f %.2f">`,
		xmlns, l.Width, l.Height, l.ViewBox.X, l.ViewBox.Y, l.ViewBox.Width, l.ViewBox.Height)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "<style>%s</style>\n", stylesheet(p.FontSize, p.CaptionFontSize))

	openGroup(&b, GroupBonds)
	for _, s := range l.Segments {
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`, s.X1, s.Y1, s.X2, s.Y2)
		b.WriteByte('\n')
	}
	closeGroup(&b)

	openGroup(&b, GroupMasks)
	for _, lb := range l.Labels {
		m := lb.Mask
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.1f" height="%.1f" fill="#ffffff"/>`,
			m.X, m.Y, m.Width, m.Height)
		b.WriteByte('\n')
	}
	closeGroup(&b)

	openGroup(&b, GroupAtoms)
	for _, lb := range l.Labels {
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s">%s</text>`,
			lb.X, lb.Y, ElementColor(lb.Element), encoding.EscapeXMLText(lb.Text))
		b.WriteByte('\n')
	}
	closeGroup(&b)

	openGroup(&b, GroupCaptions)
	for _, c := range l.Captions {
		if c.Text == "" {
			continue
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f">%s</text>`, c.X, c.Y, encoding.EscapeXMLText(c.Text))
		b.WriteByte('\n')
	}
	closeGroup(&b)

	b.WriteString("</svg>\n")
	return b.String()
}

func openGroup(b *strings.Builder, class string) {
	fmt.Fprintf(b, "<g class=\"%s\">\n", class)
}

func closeGroup(b *strings.Builder) {
	b.WriteString("</g>\n")
}
