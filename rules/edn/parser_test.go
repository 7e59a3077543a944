package edn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) Node {
	t.Helper()
	lexer := NewLexer(src)
	require.NoError(t, lexer.Lex())
	parser := NewParser(lexer)
	nodes, err := parser.ParseAll()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	return nodes[0]
}

func TestParserAtoms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Node
	}{
		{name: "true", input: "true", expected: Node{Type: NodeBool, Value: "true", Line: 1, Col: 1}},
		{name: "false", input: "false", expected: Node{Type: NodeBool, Value: "false", Line: 1, Col: 1}},
		{name: "integer", input: "42", expected: Node{Type: NodeInt, Value: "42", Line: 1, Col: 1}},
		{name: "negative integer", input: "-42", expected: Node{Type: NodeInt, Value: "-42", Line: 1, Col: 1}},
		{name: "string", input: `"hello world"`, expected: Node{Type: NodeString, Value: "hello world", Line: 1, Col: 1}},
		{
			name:     "string with escapes",
			input:    `"line1\nline2"`,
			expected: Node{Type: NodeString, Value: "line1\nline2", Line: 1, Col: 1},
		},
		{name: "symbol", input: "foo-bar", expected: Node{Type: NodeSymbol, Value: "foo-bar", Line: 1, Col: 1}},
		{name: "variable symbol", input: "?x", expected: Node{Type: NodeSymbol, Value: "?x", Line: 1, Col: 1}},
		{name: "keyword", input: ":foo", expected: Node{Type: NodeKeyword, Value: ":foo", Line: 1, Col: 1}},
		{name: "namespaced keyword", input: ":foo/bar", expected: Node{Type: NodeKeyword, Value: ":foo/bar", Line: 1, Col: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, parseOne(t, tt.input))
		})
	}
}

func TestParserCollections(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Node
	}{
		{
			name:     "empty list",
			input:    "()",
			expected: Node{Type: NodeList, Line: 1, Col: 1},
		},
		{
			name:  "list with atoms",
			input: "(1 2 3)",
			expected: Node{
				Type: NodeList,
				Nodes: []Node{
					{Type: NodeInt, Value: "1", Line: 1, Col: 2},
					{Type: NodeInt, Value: "2", Line: 1, Col: 4},
					{Type: NodeInt, Value: "3", Line: 1, Col: 6},
				},
				Line: 1,
				Col:  1,
			},
		},
		{
			name:     "empty vector",
			input:    "[]",
			expected: Node{Type: NodeVector, Line: 1, Col: 1},
		},
		{
			name:  "vector with mixed types",
			input: `[1 :foo "bar"]`,
			expected: Node{
				Type: NodeVector,
				Nodes: []Node{
					{Type: NodeInt, Value: "1", Line: 1, Col: 2},
					{Type: NodeKeyword, Value: ":foo", Line: 1, Col: 4},
					{Type: NodeString, Value: "bar", Line: 1, Col: 9},
				},
				Line: 1,
				Col:  1,
			},
		},
		{
			name:  "nested list in vector",
			input: "[1 (2 3)]",
			expected: Node{
				Type: NodeVector,
				Nodes: []Node{
					{Type: NodeInt, Value: "1", Line: 1, Col: 2},
					{
						Type: NodeList,
						Nodes: []Node{
							{Type: NodeInt, Value: "2", Line: 1, Col: 5},
							{Type: NodeInt, Value: "3", Line: 1, Col: 7},
						},
						Line: 1,
						Col:  4,
					},
				},
				Line: 1,
				Col:  1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, parseOne(t, tt.input))
		})
	}
}

// TestParserRuleForm parses a realistic (rule ...) body end to end, the
// shape rules.parseRuleDecl/parseBody actually consume.
func TestParserRuleForm(t *testing.T) {
	input := `(rule person-name [?e ?n]
  (join [?e]
    (match-a ?e ?v :parent)
    (match-a ?e ?n :name)))`

	node := parseOne(t, input)
	require.Equal(t, NodeList, node.Type)
	require.Len(t, node.Nodes, 4)

	head, err := node.Nodes[0].AsSymbol()
	require.NoError(t, err)
	require.Equal(t, "rule", head)

	name, err := node.Nodes[1].AsSymbol()
	require.NoError(t, err)
	require.Equal(t, "person-name", name)

	require.Equal(t, NodeVector, node.Nodes[2].Type)
	require.Len(t, node.Nodes[2].Nodes, 2)

	body := node.Nodes[3]
	require.Equal(t, NodeList, body.Type)
	joinHead, err := body.Nodes[0].AsSymbol()
	require.NoError(t, err)
	require.Equal(t, "join", joinHead)
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "invalid keyword", input: ":123", want: "symbol cannot start with digit"},
		{name: "invalid symbol", input: "123abc", want: "symbol cannot start with digit"},
		{name: "unterminated list", input: "(1 2 3", want: "unterminated list"},
		{name: "unterminated vector", input: "[1 2 3", want: "unterminated vector"},
		{name: "empty keyword", input: ":", want: "empty keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			require.NoError(t, lexer.Lex())
			parser := NewParser(lexer)
			_, err := parser.ParseAll()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseAllReadsEveryTopLevelForm(t *testing.T) {
	input := `1 2 3
:foo
"bar"`

	lexer := NewLexer(input)
	require.NoError(t, lexer.Lex())
	parser := NewParser(lexer)
	nodes, err := parser.ParseAll()
	require.NoError(t, err)

	expected := []Node{
		{Type: NodeInt, Value: "1", Line: 1, Col: 1},
		{Type: NodeInt, Value: "2", Line: 1, Col: 3},
		{Type: NodeInt, Value: "3", Line: 1, Col: 5},
		{Type: NodeKeyword, Value: ":foo", Line: 2, Col: 1},
		{Type: NodeString, Value: "bar", Line: 3, Col: 1},
	}
	require.Equal(t, expected, nodes)
}
