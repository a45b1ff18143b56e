package diagram

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// pointGrammar is the participle grammar for position attributes.
// Examples: "100 120", "-3.5 1e2", "10 20 0" (a trailing z is ignored)
//
//nolint:govet // participle grammar tags are not standard struct tags
type pointGrammar struct {
	X     float64   `@Number`
	Y     float64   `@Number`
	Extra []float64 `@Number*`
}

var pointLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var pointParser = participle.MustBuild[pointGrammar](
	participle.Lexer(pointLexer),
	participle.Elide("Whitespace"),
)

// ParsePoint parses a whitespace-separated "x y" position.
func ParsePoint(s string) (Point, error) {
	parsed, err := pointParser.ParseString("", s)
	if err != nil {
		return Point{}, err
	}
	return Point{X: parsed.X, Y: parsed.Y}, nil
}
