package blocks

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Record
	}{
		{
			name: "soft wrapped paragraph then list",
			text: "para one\npara two\n\n- item",
			want: []Record{{1, Paragraph}, {4, ListItem}},
		},
		{
			name: "fenced code",
			text: "```\ncode\n```",
			want: []Record{{1, CodeFence}, {2, CodeLine}, {3, CodeFence}},
		},
		{
			name: "blank lines inside code are code lines",
			text: "```go\nfunc main() {\n\n}\n```\ntext",
			want: []Record{
				{1, CodeFence}, {2, CodeLine}, {3, CodeLine}, {4, CodeLine},
				{5, CodeFence}, {6, Paragraph},
			},
		},
		{
			name: "markdown inside code is not classified",
			text: "```\n# not a heading\n- not a list\n```",
			want: []Record{{1, CodeFence}, {2, CodeLine}, {3, CodeLine}, {4, CodeFence}},
		},
		{
			name: "unterminated fence runs to the end",
			text: "```\na\n\nb",
			want: []Record{{1, CodeFence}, {2, CodeLine}, {3, CodeLine}, {4, CodeLine}},
		},
		{
			name: "fence ends a paragraph",
			text: "text\n```\nx\n```\nmore text",
			want: []Record{
				{1, Paragraph}, {2, CodeFence}, {3, CodeLine}, {4, CodeFence}, {5, Paragraph},
			},
		},
		{
			name: "headings",
			text: "# one\n## two\n### three\n#### four\n##### five\n###### six",
			want: []Record{{1, H1}, {2, H2}, {3, H3}, {4, H4}, {5, H5}, {6, H6}},
		},
		{
			name: "heading interrupts paragraph",
			text: "intro\n# Title\nbody",
			want: []Record{{1, Paragraph}, {2, H1}, {3, Paragraph}},
		},
		{
			name: "not headings",
			text: "#hashtag\n\n####### seven",
			want: []Record{{1, Paragraph}, {3, Paragraph}},
		},
		{
			name: "bare heading marker",
			text: "##",
			want: []Record{{1, H2}},
		},
		{
			name: "horizontal rules",
			text: "---\n***\n___\n* * *\n- - -\n_ _ _ _",
			want: []Record{{1, Rule}, {2, Rule}, {3, Rule}, {4, Rule}, {5, Rule}, {6, Rule}},
		},
		{
			name: "mixed rule characters are not rules",
			text: "-*-",
			want: []Record{{1, Paragraph}},
		},
		{
			name: "rule ends paragraph",
			text: "a\n***\nb",
			want: []Record{{1, Paragraph}, {2, Rule}, {3, Paragraph}},
		},
		{
			name: "unordered lists",
			text: "- a\n* b\n+ c\n-\n*",
			want: []Record{{1, ListItem}, {2, ListItem}, {3, ListItem}, {4, ListItem}, {5, ListItem}},
		},
		{
			name: "emphasis is prose",
			text: "*emphasis*\n-dash",
			want: []Record{{1, Paragraph}},
		},
		{
			name: "ordered lists",
			text: "1. one\n2. two\n10. ten",
			want: []Record{{1, ListItem}, {2, ListItem}, {3, ListItem}},
		},
		{
			name: "ordered marker must be early",
			text: "1234. late\n\n2024 was a year. Then",
			want: []Record{{1, Paragraph}, {3, Paragraph}},
		},
		{
			name: "block quotes",
			text: "> quoted\n>more\n> ",
			want: []Record{{1, Quote}, {2, Quote}, {3, Quote}},
		},
		{
			name: "table with separator",
			text: "| a | b |\n|---|:-:|\n| 1 | 2 |\n| 3 | 4 |",
			want: []Record{{1, TableRow}, {3, TableRow}, {4, TableRow}},
		},
		{
			name: "prose after table starts paragraph",
			text: "| a |\n|---|\ntext\nmore",
			want: []Record{{1, TableRow}, {3, Paragraph}},
		},
		{
			name: "pipe without closing pipe is prose",
			text: "| not a row",
			want: []Record{{1, Paragraph}},
		},
		{
			name: "list item does not break running paragraph",
			text: "para\n- item\ncontinued",
			want: []Record{{1, Paragraph}, {2, ListItem}},
		},
		{
			name: "whitespace is stripped",
			text: "   # Title   \n\t- item\r\n  \t  \nplain\r",
			want: []Record{{1, H1}, {2, ListItem}, {4, Paragraph}},
		},
		{
			name: "empty document",
			text: "",
			want: []Record{},
		},
		{
			name: "only blank lines",
			text: "\n\n\n",
			want: []Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q)\n got  %v\n want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyWelcomeDocument(t *testing.T) {
	want := []Record{{1, H1}, {3, Paragraph}}
	if got := Classify(WelcomeDocument); !reflect.DeepEqual(got, want) {
		t.Errorf("Classify(WelcomeDocument) = %v, want %v", got, want)
	}
}

func TestClassifyLineNumbersAscend(t *testing.T) {
	text := strings.Join([]string{
		"# Notes", "", "Some text", "wrapped", "", "| h |", "|---|", "| r |",
		"", "```", "x := 1", "```", "", "> q", "1. a", "- b", "---",
	}, "\n")

	prev := 0
	n := strings.Count(text, "\n") + 1
	for _, r := range Classify(text) {
		if r.Line <= prev || r.Line > n {
			t.Fatalf("line %d out of order or range after %d", r.Line, prev)
		}
		prev = r.Line
	}
}

func TestRecordJSON(t *testing.T) {
	data, err := json.Marshal(Record{Line: 4, Type: ListItem})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"line":4,"type":"li"}` {
		t.Errorf("JSON = %s", data)
	}

	data, err = json.Marshal(Classify(""))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty result JSON = %s, want []", data)
	}
}

func TestHeading(t *testing.T) {
	for level, want := range map[int]BlockType{0: "", 1: H1, 3: H3, 6: H6, 7: ""} {
		if got := Heading(level); got != want {
			t.Errorf("Heading(%d) = %q, want %q", level, got, want)
		}
	}
}
