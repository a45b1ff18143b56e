package blocks

import "strings"

const fence = "```"

// Scanner classifies lines one at a time. The zero value is ready to use.
// A Scanner is not safe for concurrent use; Classify creates its own.
type Scanner struct {
	line        int
	inCode      bool
	inTable     bool
	inParagraph bool
}

// Line returns the 1-based number of the last scanned line.
func (s *Scanner) Line() int {
	return s.line
}

// Scan consumes the next line. It returns the line's block type and true
// when the line starts a rendered block, or false when it continues the
// current block or renders nothing.
func (s *Scanner) Scan(raw string) (BlockType, bool) {
	s.line++
	line := strings.TrimSpace(raw)

	if strings.HasPrefix(line, fence) {
		s.inCode = !s.inCode
		s.endBlock()
		return CodeFence, true
	}
	if s.inCode {
		return CodeLine, true
	}
	if line == "" {
		s.endBlock()
		return "", false
	}
	if isRule(line) {
		s.endBlock()
		return Rule, true
	}
	if level := headingLevel(line); level > 0 {
		s.endBlock()
		return Heading(level), true
	}
	if isBullet(line) || isOrdered(line) {
		return ListItem, true
	}
	if strings.HasPrefix(line, ">") {
		return Quote, true
	}
	if isTableRow(line) {
		s.inTable = true
		s.inParagraph = false
		if isTableSeparator(line) {
			return "", false
		}
		return TableRow, true
	}

	if s.inParagraph {
		return "", false
	}
	s.inParagraph = true
	s.inTable = false
	return Paragraph, true
}

func (s *Scanner) endBlock() {
	s.inTable = false
	s.inParagraph = false
}

// isRule matches three or more of the same -, * or _ with any spaces.
func isRule(line string) bool {
	marker := line[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	n := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case marker:
			n++
		case ' ', '\t':
		default:
			return false
		}
	}
	return n >= 3
}

// headingLevel returns 1..6 for an ATX heading, 0 otherwise. The hashes must
// be followed by a space or the end of the line.
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(line) && line[n] != ' ' && line[n] != '\t' {
		return 0
	}
	return n
}

func isBullet(line string) bool {
	switch line[0] {
	case '-', '*', '+':
		return len(line) == 1 || line[1] == ' ' || line[1] == '\t'
	}
	return false
}

// isOrdered matches a leading digit with ". " inside the first four bytes.
func isOrdered(line string) bool {
	if line[0] < '0' || line[0] > '9' {
		return false
	}
	head := line
	if len(head) > 4 {
		head = head[:4]
	}
	return strings.Contains(head, ". ")
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

// isTableSeparator matches rows such as |---|:--:| that only divide the
// header from the body.
func isTableSeparator(line string) bool {
	return strings.Map(dropSeparatorRune, line) == ""
}

func dropSeparatorRune(r rune) rune {
	switch r {
	case ' ', '-', '|', ':', '\t':
		return -1
	}
	return r
}
