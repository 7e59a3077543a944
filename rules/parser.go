// Package rules parses a small EDN-flavored rule file (via the rules/edn
// S-expression reader) into plan.Plan trees and a name -> Plan registry,
// the thing catalog.Context.Rule/IsUnderconstrained is backed by once a
// rule file has been loaded.
//
// A rule file is a sequence of top-level (rule <name> [<vars...>] <body>)
// forms. <body> is one of:
//
//	(match-a ?e ?v :attr)
//	(match-ea 7 :attr ?v)
//	(match-av ?x :attr <value>)
//	(name other-rule ?a ?b ...)
//	(join [?a ?b] <left> <right>)
//	(project [?a ?b] <child>)
//	(union <child>...)
//	(union-set <child>...)
//	(negate <child>)
//	(cardinality-one <child>)
package rules

import (
	"fmt"
	"strings"

	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/plan"
	"github.com/wbrown/diffplan/rules/edn"
	"github.com/wbrown/diffplan/value"
)

// ruleDecl is one parsed top-level rule, before underconstrained analysis.
type ruleDecl struct {
	name string
	vars []ident.Var
	body plan.Plan
}

// env threads the symbol -> variable mapping and the shared VarGen across
// one rule's body, so every occurrence of ?x within a single rule resolves
// to the same ident.Var.
type env struct {
	gen    *ident.VarGen
	interner *ident.Interner
	vars   map[string]ident.Var
}

func newEnv(gen *ident.VarGen, interner *ident.Interner) *env {
	return &env{gen: gen, interner: interner, vars: map[string]ident.Var{}}
}

func (e *env) resolve(sym string) (ident.Var, error) {
	if !strings.HasPrefix(sym, "?") {
		return 0, fmt.Errorf("rules: expected a variable symbol starting with '?', got %q", sym)
	}
	if v, ok := e.vars[sym]; ok {
		return v, nil
	}
	v := e.gen.FreshUser()
	e.vars[sym] = v
	return v, nil
}

// parseSource parses every top-level (rule ...) form in src.
func parseSource(src string, gen *ident.VarGen, interner *ident.Interner) ([]ruleDecl, error) {
	all, err := parseAllTopLevel(src)
	if err != nil {
		return nil, err
	}

	decls := make([]ruleDecl, 0, len(all))
	for _, n := range all {
		d, err := parseRuleDecl(n, gen, interner)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func parseAllTopLevel(src string) ([]edn.Node, error) {
	lexer := edn.NewLexer(src)
	if err := lexer.Lex(); err != nil {
		return nil, fmt.Errorf("rules: lex: %w", err)
	}
	parser := edn.NewParser(lexer)
	return parser.ParseAll()
}

func parseRuleDecl(n edn.Node, gen *ident.VarGen, interner *ident.Interner) (ruleDecl, error) {
	if n.Type != edn.NodeList || len(n.Nodes) < 4 {
		return ruleDecl{}, fmt.Errorf("rules: expected (rule <name> [<vars>] <body>), got %s", n.String())
	}
	head, err := n.Nodes[0].AsSymbol()
	if err != nil || head != "rule" {
		return ruleDecl{}, fmt.Errorf("rules: expected top-level form to start with 'rule', got %s", n.Nodes[0].String())
	}
	name, err := n.Nodes[1].AsSymbol()
	if err != nil {
		return ruleDecl{}, fmt.Errorf("rules: rule name must be a symbol: %w", err)
	}

	e := newEnv(gen, interner)
	varsNode := n.Nodes[2]
	if varsNode.Type != edn.NodeVector {
		return ruleDecl{}, fmt.Errorf("rules: rule %s: expected a [vars] vector, got %s", name, varsNode.String())
	}
	vars := make([]ident.Var, 0, len(varsNode.Nodes))
	for _, vn := range varsNode.Nodes {
		sym, err := vn.AsSymbol()
		if err != nil {
			return ruleDecl{}, fmt.Errorf("rules: rule %s: %w", name, err)
		}
		v, err := e.resolve(sym)
		if err != nil {
			return ruleDecl{}, fmt.Errorf("rules: rule %s: %w", name, err)
		}
		vars = append(vars, v)
	}

	if len(n.Nodes) != 4 {
		return ruleDecl{}, fmt.Errorf("rules: rule %s: expected exactly one body form, got %d", name, len(n.Nodes)-3)
	}
	body, err := parseBody(n.Nodes[3], e)
	if err != nil {
		return ruleDecl{}, fmt.Errorf("rules: rule %s: %w", name, err)
	}

	return ruleDecl{name: name, vars: vars, body: body}, nil
}

func parseBody(n edn.Node, e *env) (plan.Plan, error) {
	if n.Type != edn.NodeList || len(n.Nodes) == 0 {
		return nil, fmt.Errorf("rules: expected a form, got %s", n.String())
	}
	head, err := n.Nodes[0].AsSymbol()
	if err != nil {
		return nil, fmt.Errorf("rules: expected form head to be a symbol: %w", err)
	}
	args := n.Nodes[1:]

	switch head {
	case "match-a":
		return parseMatchA(args, e)
	case "match-ea":
		return parseMatchEA(args, e)
	case "match-av":
		return parseMatchAV(args, e)
	case "name":
		return parseNameExpr(args, e)
	case "join":
		return parseJoin(args, e)
	case "project":
		return parseProject(args, e)
	case "union":
		return parseUnion(args, e, false)
	case "union-set":
		return parseUnion(args, e, true)
	case "negate":
		return parseNegate(args, e)
	case "cardinality-one":
		return parseCardinalityOne(args, e)
	default:
		return nil, fmt.Errorf("rules: unknown form %q", head)
	}
}

func parseMatchA(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("match-a: expected (match-a ?e ?v :attr), got %d args", len(args))
	}
	entSym, err := args[0].AsSymbol()
	if err != nil {
		return nil, err
	}
	valSym, err := args[1].AsSymbol()
	if err != nil {
		return nil, err
	}
	attr, err := parseAttribute(args[2], e)
	if err != nil {
		return nil, err
	}
	ent, err := e.resolve(entSym)
	if err != nil {
		return nil, err
	}
	val, err := e.resolve(valSym)
	if err != nil {
		return nil, err
	}
	return plan.MatchA{Entity: ent, Value: val, Attribute: attr}, nil
}

func parseMatchEA(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("match-ea: expected (match-ea <eid> :attr ?v), got %d args", len(args))
	}
	eid, err := args[0].AsInt()
	if err != nil {
		return nil, fmt.Errorf("match-ea: entity must be an int literal: %w", err)
	}
	attr, err := parseAttribute(args[1], e)
	if err != nil {
		return nil, err
	}
	valSym, err := args[2].AsSymbol()
	if err != nil {
		return nil, err
	}
	val, err := e.resolve(valSym)
	if err != nil {
		return nil, err
	}
	return plan.MatchEA{Entity: ident.Eid(eid), Attribute: attr, Value: val}, nil
}

func parseMatchAV(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("match-av: expected (match-av ?x :attr <value>), got %d args", len(args))
	}
	sym, err := args[0].AsSymbol()
	if err != nil {
		return nil, err
	}
	attr, err := parseAttribute(args[1], e)
	if err != nil {
		return nil, err
	}
	v, err := parseLiteralValue(args[2])
	if err != nil {
		return nil, err
	}
	x, err := e.resolve(sym)
	if err != nil {
		return nil, err
	}
	return plan.MatchAV{Symbol: x, Attribute: attr, Value: v}, nil
}

func parseNameExpr(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("name: expected (name rule-name ?vars...), got no args")
	}
	rname, err := args[0].AsSymbol()
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	vars := make([]ident.Var, 0, len(args)-1)
	for _, vn := range args[1:] {
		sym, err := vn.AsSymbol()
		if err != nil {
			return nil, err
		}
		v, err := e.resolve(sym)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return plan.NameExpr{Vars: vars, Name: rname}, nil
}

func parseJoin(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("join: expected (join [target...] left right), got %d args", len(args))
	}
	target, err := parseVarVector(args[0], e)
	if err != nil {
		return nil, err
	}
	left, err := parseBody(args[1], e)
	if err != nil {
		return nil, err
	}
	right, err := parseBody(args[2], e)
	if err != nil {
		return nil, err
	}
	return plan.Join{Target: target, Left: left, Right: right}, nil
}

func parseProject(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("project: expected (project [target...] child), got %d args", len(args))
	}
	target, err := parseVarVector(args[0], e)
	if err != nil {
		return nil, err
	}
	child, err := parseBody(args[1], e)
	if err != nil {
		return nil, err
	}
	return plan.Project{Child: child, Target: target}, nil
}

func parseUnion(args []edn.Node, e *env, setSemantics bool) (plan.Plan, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("union: expected at least one child")
	}
	children := make([]plan.Plan, 0, len(args))
	for _, a := range args {
		c, err := parseBody(a, e)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return plan.Union{Children: children, SetSemantics: setSemantics}, nil
}

func parseNegate(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("negate: expected (negate child), got %d args", len(args))
	}
	child, err := parseBody(args[0], e)
	if err != nil {
		return nil, err
	}
	return plan.Negate{Child: child}, nil
}

func parseCardinalityOne(args []edn.Node, e *env) (plan.Plan, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("cardinality-one: expected (cardinality-one child), got %d args", len(args))
	}
	child, err := parseBody(args[0], e)
	if err != nil {
		return nil, err
	}
	return plan.CardinalityOne{Child: child}, nil
}

func parseVarVector(n edn.Node, e *env) ([]ident.Var, error) {
	if n.Type != edn.NodeVector {
		return nil, fmt.Errorf("expected a [vars] vector, got %s", n.String())
	}
	out := make([]ident.Var, 0, len(n.Nodes))
	for _, vn := range n.Nodes {
		sym, err := vn.AsSymbol()
		if err != nil {
			return nil, err
		}
		v, err := e.resolve(sym)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseAttribute(n edn.Node, e *env) (ident.Aid, error) {
	kw, err := n.AsKeyword()
	if err != nil {
		return "", fmt.Errorf("expected an :attribute keyword, got %s", n.String())
	}
	return e.interner.Intern(strings.TrimPrefix(kw, ":")), nil
}

// parseLiteralValue converts an EDN atom to the value.Value it denotes for
// a match-av constant: strings, ints, booleans, and keywords (read as
// value.Aid, the attribute-as-data variant).
func parseLiteralValue(n edn.Node) (value.Value, error) {
	switch n.Type {
	case edn.NodeString:
		s, err := n.AsString()
		if err != nil {
			return nil, err
		}
		return value.Str(s), nil
	case edn.NodeInt:
		i, err := n.AsInt()
		if err != nil {
			return nil, err
		}
		return value.Int(i), nil
	case edn.NodeBool:
		b, err := n.AsBool()
		if err != nil {
			return nil, err
		}
		return value.Bool(b), nil
	case edn.NodeKeyword:
		kw, err := n.AsKeyword()
		if err != nil {
			return nil, err
		}
		return value.Aid(strings.TrimPrefix(kw, ":")), nil
	default:
		return nil, fmt.Errorf("unsupported literal %s in match-av", n.String())
	}
}
