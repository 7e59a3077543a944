package edn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerTokenizesRuleSyntax(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "empty input",
			input: "",
			expected: []Token{
				{Type: TokenEOF, Line: 1, Col: 1},
			},
		},
		{
			name:  "single atom",
			input: "match-a",
			expected: []Token{
				{Type: TokenAtom, Value: "match-a", Line: 1, Col: 1},
				{Type: TokenEOF, Line: 1, Col: 8},
			},
		},
		{
			name:  "parens and brackets",
			input: "(rule p [?e] (match-a ?e ?v :color))",
			expected: []Token{
				{Type: TokenLeftParen, Line: 1, Col: 1},
				{Type: TokenAtom, Value: "rule", Line: 1, Col: 2},
				{Type: TokenAtom, Value: "p", Line: 1, Col: 7},
				{Type: TokenLeftBracket, Line: 1, Col: 9},
				{Type: TokenAtom, Value: "?e", Line: 1, Col: 10},
				{Type: TokenRightBracket, Line: 1, Col: 12},
				{Type: TokenLeftParen, Line: 1, Col: 14},
				{Type: TokenAtom, Value: "match-a", Line: 1, Col: 15},
				{Type: TokenAtom, Value: "?e", Line: 1, Col: 23},
				{Type: TokenAtom, Value: "?v", Line: 1, Col: 26},
				{Type: TokenAtom, Value: ":color", Line: 1, Col: 29},
				{Type: TokenRightParen, Line: 1, Col: 35},
				{Type: TokenRightParen, Line: 1, Col: 36},
				{Type: TokenEOF, Line: 1, Col: 37},
			},
		},
		{
			name:  "string literal with escapes",
			input: `"hello\nworld\t\"quoted\""`,
			expected: []Token{
				{Type: TokenString, Value: "hello\nworld\t\"quoted\"", Line: 1, Col: 1},
				{Type: TokenEOF, Line: 1, Col: 27},
			},
		},
		{
			name:  "comments",
			input: "foo ; this is a comment\nbar",
			expected: []Token{
				{Type: TokenAtom, Value: "foo", Line: 1, Col: 1},
				{Type: TokenAtom, Value: "bar", Line: 2, Col: 1},
				{Type: TokenEOF, Line: 2, Col: 4},
			},
		},
		{
			name:  "commas as whitespace",
			input: "?e, ?v, :attr",
			expected: []Token{
				{Type: TokenAtom, Value: "?e", Line: 1, Col: 1},
				{Type: TokenAtom, Value: "?v", Line: 1, Col: 5},
				{Type: TokenAtom, Value: ":attr", Line: 1, Col: 9},
				{Type: TokenEOF, Line: 1, Col: 14},
			},
		},
		{
			name:  "multiline",
			input: "foo\nbar\nbaz",
			expected: []Token{
				{Type: TokenAtom, Value: "foo", Line: 1, Col: 1},
				{Type: TokenAtom, Value: "bar", Line: 2, Col: 1},
				{Type: TokenAtom, Value: "baz", Line: 3, Col: 1},
				{Type: TokenEOF, Line: 3, Col: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			require.NoError(t, lexer.Lex())
			require.Equal(t, tt.expected, lexer.tokens)
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "unterminated string", input: `"hello`, want: "unterminated string"},
		{name: "invalid escape", input: `"hello\x"`, want: "invalid escape sequence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			err := lexer.Lex()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
