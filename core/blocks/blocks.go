// Package blocks classifies Markdown source lines by the rendered block they
// belong to.
//
// The output lines up a gutter or overlay with a separately rendered view of
// the same document, so it follows the renderer's block segmentation rather
// than the physical lines: soft-wrapped paragraph lines collapse into a
// single record, table separator rows and blank lines produce none.
package blocks

import "strings"

// BlockType is the kind of rendered block a line starts or belongs to.
type BlockType string

const (
	CodeFence BlockType = "code_fence"
	CodeLine  BlockType = "code_line"
	Rule      BlockType = "hr"
	H1        BlockType = "h1"
	H2        BlockType = "h2"
	H3        BlockType = "h3"
	H4        BlockType = "h4"
	H5        BlockType = "h5"
	H6        BlockType = "h6"
	ListItem  BlockType = "li"
	Quote     BlockType = "quote"
	TableRow  BlockType = "tr"
	Paragraph BlockType = "p"
)

var headings = [...]BlockType{H1, H2, H3, H4, H5, H6}

// Heading returns the block type for a heading level, or "" when level is
// outside 1..6.
func Heading(level int) BlockType {
	if level < 1 || level > len(headings) {
		return ""
	}
	return headings[level-1]
}

// Record maps a 1-based source line to its block type.
type Record struct {
	Line int       `json:"line"`
	Type BlockType `json:"type"`
}

// WelcomeDocument is shown before the user opens a folder.
const WelcomeDocument = "# Welcome to Markdown Viewer\n\nOpen a folder to get started."

// Classify returns one record per rendered block of text, in line order.
func Classify(text string) []Record {
	records := []Record{}
	var s Scanner
	for _, line := range strings.Split(text, "\n") {
		if t, ok := s.Scan(line); ok {
			records = append(records, Record{Line: s.Line(), Type: t})
		}
	}
	return records
}
