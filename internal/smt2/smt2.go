// Package smt2 reads the quantifier-free Boolean fragment of SMT-LIB2
// and compiles it into the same indicator-guarded clause groups
// pkg/cnfsolver consumes from internal/dimacs. original_source's
// Z3SubsetSolver.py never hand-parses SMT-LIB2 itself — it hands the
// whole file to Z3's own parser and only flattens a top-level And into
// separate constraints afterward — so there is no reference grammar
// to port here; the tokenizer, s-expression reader, and Tseitin
// encoder below are a direct, narrow reading of the SMT-LIB2 format
// restricted to the fragment spec.md scopes this module to: Bool-sorted
// nullary declarations and the boolean connectives.
package smt2

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/constraintlab/marco/pkg/cnfsolver"
)

// Expr is a node in a quantifier-free Boolean expression tree.
type Expr interface {
	isExpr()
}

// Var references a declared boolean constant by name.
type Var string

// Const is a literal true/false.
type Const bool

// Not negates X.
type Not struct{ X Expr }

// And is the conjunction of Xs.
type And struct{ Xs []Expr }

// Or is the disjunction of Xs.
type Or struct{ Xs []Expr }

// Implies is "A implies B".
type Implies struct{ A, B Expr }

// Eq is boolean equivalence, SMT-LIB2's "=" applied to two Bool terms.
type Eq struct{ A, B Expr }

// Xor is exclusive or.
type Xor struct{ A, B Expr }

func (Var) isExpr()     {}
func (Const) isExpr()   {}
func (Not) isExpr()     {}
func (And) isExpr()     {}
func (Or) isExpr()      {}
func (Implies) isExpr() {}
func (Eq) isExpr()      {}
func (Xor) isExpr()     {}

// Document is a parsed SMT-LIB2 script: its declared boolean constants,
// in declaration order, and one Expr per logical constraint — already
// flattened the way Z3SubsetSolver.py's read_smt2 flattens a top-level
// And across every (assert ...) in the file into separate constraints.
type Document struct {
	Vars       []string
	Assertions []Expr
}

// sexpr is a parsed but not yet interpreted S-expression: either an
// atom or a list of sub-expressions.
type sexpr struct {
	atom string
	list []sexpr
}

func (s sexpr) isAtom() bool { return s.list == nil }

// Parse reads an SMT-LIB2 script restricted to the quantifier-free
// Boolean fragment: declare-const/declare-fun over Bool, and assert.
// Every other top-level command (set-logic, set-info, check-sat, exit,
// push/pop, and so on) is accepted and ignored, since none of them
// bear on MUS/MCS enumeration over the asserted constraints.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read smt2 input")
	}
	toks := tokenize(string(data))
	forms, _, err := parseForms(toks, 0, -1)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	declared := make(map[string]bool)
	declare := func(name, sort string) error {
		if sort != "Bool" {
			return errors.Errorf("unsupported sort %q for %q: only Bool is supported", sort, name)
		}
		if !declared[name] {
			declared[name] = true
			doc.Vars = append(doc.Vars, name)
		}
		return nil
	}

	for _, f := range forms {
		if f.isAtom() || len(f.list) == 0 {
			continue
		}
		head := f.list[0].atom
		switch head {
		case "declare-const":
			if len(f.list) != 3 || f.list[2].list != nil {
				return nil, errors.New("malformed declare-const")
			}
			if err := declare(f.list[1].atom, f.list[2].atom); err != nil {
				return nil, err
			}
		case "declare-fun":
			if len(f.list) != 4 {
				return nil, errors.New("malformed declare-fun")
			}
			if len(f.list[2].list) != 0 {
				return nil, errors.Errorf("declare-fun %q: only nullary (constant) functions are supported", f.list[1].atom)
			}
			if err := declare(f.list[1].atom, f.list[3].atom); err != nil {
				return nil, err
			}
		case "assert":
			if len(f.list) != 2 {
				return nil, errors.New("malformed assert")
			}
			e, err := toExpr(f.list[1])
			if err != nil {
				return nil, err
			}
			doc.Assertions = append(doc.Assertions, flatten(e)...)
		default:
			// set-logic, set-info, check-sat, exit, push, pop, and any
			// other command carry no constraint content of their own.
		}
	}
	return doc, nil
}

func flatten(e Expr) []Expr {
	if and, ok := e.(And); ok {
		return and.Xs
	}
	return []Expr{e}
}

func tokenize(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ';':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n\r();", rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

// parseForms parses forms starting at pos until the end of toks or the
// first unmatched ")", which it leaves unconsumed. end is only compared
// against -1, the value every caller passes.
func parseForms(toks []string, pos int, end int) ([]sexpr, int, error) {
	var out []sexpr
	for pos < len(toks) {
		if end == -1 && toks[pos] == ")" {
			break
		}
		e, next, err := parseOne(toks, pos)
		if err != nil {
			return nil, pos, err
		}
		out = append(out, e)
		pos = next
	}
	return out, pos, nil
}

func parseOne(toks []string, pos int) (sexpr, int, error) {
	if pos >= len(toks) {
		return sexpr{}, pos, errors.New("unexpected end of smt2 input")
	}
	switch toks[pos] {
	case "(":
		items, next, err := parseForms(toks, pos+1, -1)
		if err != nil {
			return sexpr{}, pos, err
		}
		if next >= len(toks) || toks[next] != ")" {
			return sexpr{}, pos, errors.New("unterminated list")
		}
		return sexpr{list: items}, next + 1, nil
	case ")":
		return sexpr{}, pos, errors.New("unexpected )")
	default:
		return sexpr{atom: toks[pos]}, pos + 1, nil
	}
}

func toExpr(s sexpr) (Expr, error) {
	if s.isAtom() {
		switch s.atom {
		case "true":
			return Const(true), nil
		case "false":
			return Const(false), nil
		default:
			return Var(s.atom), nil
		}
	}
	if len(s.list) == 0 {
		return nil, errors.New("empty expression")
	}
	head := s.list[0].atom
	args := s.list[1:]
	switch head {
	case "not":
		if len(args) != 1 {
			return nil, errors.New("not takes exactly one argument")
		}
		x, err := toExpr(args[0])
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	case "and":
		xs, err := toExprs(args)
		if err != nil {
			return nil, err
		}
		return And{Xs: xs}, nil
	case "or":
		xs, err := toExprs(args)
		if err != nil {
			return nil, err
		}
		return Or{Xs: xs}, nil
	case "=>":
		a, b, err := toExprPair(args, "=>")
		if err != nil {
			return nil, err
		}
		return Implies{A: a, B: b}, nil
	case "=":
		a, b, err := toExprPair(args, "=")
		if err != nil {
			return nil, err
		}
		return Eq{A: a, B: b}, nil
	case "xor":
		a, b, err := toExprPair(args, "xor")
		if err != nil {
			return nil, err
		}
		return Xor{A: a, B: b}, nil
	case "ite":
		if len(args) != 3 {
			return nil, errors.New("ite takes exactly three arguments")
		}
		c, err := toExpr(args[0])
		if err != nil {
			return nil, err
		}
		t, err := toExpr(args[1])
		if err != nil {
			return nil, err
		}
		e, err := toExpr(args[2])
		if err != nil {
			return nil, err
		}
		return Or{Xs: []Expr{And{Xs: []Expr{c, t}}, And{Xs: []Expr{Not{X: c}, e}}}}, nil
	default:
		return nil, errors.Errorf("unsupported operator %q: only the quantifier-free Boolean fragment is supported", head)
	}
}

func toExprPair(args []sexpr, op string) (Expr, Expr, error) {
	if len(args) != 2 {
		return nil, nil, errors.Errorf("%s takes exactly two arguments", op)
	}
	a, err := toExpr(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := toExpr(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func toExprs(ss []sexpr) ([]Expr, error) {
	out := make([]Expr, len(ss))
	for i, s := range ss {
		e, err := toExpr(s)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// compiler Tseitin-encodes Expr trees into CNF, sharing one fresh
// auxiliary variable space across every assertion in a Document since
// all of it lands in one unconditional background theory.
type compiler struct {
	nextVar int
	hard    []cnfsolver.Clause
	trueVar int
}

func (c *compiler) fresh() int {
	v := c.nextVar
	c.nextVar++
	return v
}

func (c *compiler) trueLit() int {
	if c.trueVar == 0 {
		c.trueVar = c.fresh()
		c.hard = append(c.hard, cnfsolver.Clause{c.trueVar})
	}
	return c.trueVar
}

func (c *compiler) compile(e Expr, vars map[string]int) (int, error) {
	switch x := e.(type) {
	case Var:
		v, ok := vars[string(x)]
		if !ok {
			return 0, errors.Errorf("undeclared variable %q", string(x))
		}
		return v, nil
	case Const:
		t := c.trueLit()
		if bool(x) {
			return t, nil
		}
		return -t, nil
	case Not:
		v, err := c.compile(x.X, vars)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case And:
		lits, err := c.compileAll(x.Xs, vars)
		if err != nil {
			return 0, err
		}
		out := c.fresh()
		for _, l := range lits {
			c.hard = append(c.hard, cnfsolver.Clause{-out, l})
		}
		notAll := make(cnfsolver.Clause, 0, len(lits)+1)
		for _, l := range lits {
			notAll = append(notAll, -l)
		}
		notAll = append(notAll, out)
		c.hard = append(c.hard, notAll)
		return out, nil
	case Or:
		lits, err := c.compileAll(x.Xs, vars)
		if err != nil {
			return 0, err
		}
		out := c.fresh()
		cl := make(cnfsolver.Clause, 0, len(lits)+1)
		for _, l := range lits {
			c.hard = append(c.hard, cnfsolver.Clause{-l, out})
			cl = append(cl, l)
		}
		cl = append(cl, -out)
		c.hard = append(c.hard, cl)
		return out, nil
	case Implies:
		a, b, err := c.compilePair(x.A, x.B, vars)
		if err != nil {
			return 0, err
		}
		out := c.fresh()
		c.hard = append(c.hard,
			cnfsolver.Clause{-out, -a, b},
			cnfsolver.Clause{out, a},
			cnfsolver.Clause{out, -b},
		)
		return out, nil
	case Eq:
		a, b, err := c.compilePair(x.A, x.B, vars)
		if err != nil {
			return 0, err
		}
		out := c.fresh()
		c.hard = append(c.hard,
			cnfsolver.Clause{-out, -a, b},
			cnfsolver.Clause{-out, a, -b},
			cnfsolver.Clause{out, a, b},
			cnfsolver.Clause{out, -a, -b},
		)
		return out, nil
	case Xor:
		a, b, err := c.compilePair(x.A, x.B, vars)
		if err != nil {
			return 0, err
		}
		out := c.fresh()
		c.hard = append(c.hard,
			cnfsolver.Clause{-out, a, b},
			cnfsolver.Clause{-out, -a, -b},
			cnfsolver.Clause{out, -a, b},
			cnfsolver.Clause{out, a, -b},
		)
		return out, nil
	default:
		return 0, errors.Errorf("unhandled expression node %T", e)
	}
}

func (c *compiler) compilePair(a, b Expr, vars map[string]int) (int, int, error) {
	av, err := c.compile(a, vars)
	if err != nil {
		return 0, 0, err
	}
	bv, err := c.compile(b, vars)
	if err != nil {
		return 0, 0, err
	}
	return av, bv, nil
}

func (c *compiler) compileAll(xs []Expr, vars map[string]int) ([]int, error) {
	lits := make([]int, len(xs))
	for i, x := range xs {
		v, err := c.compile(x, vars)
		if err != nil {
			return nil, err
		}
		lits[i] = v
	}
	return lits, nil
}

// Groups compiles doc into the numVars/hard/groups shape pkg/cnfsolver
// consumes: one DIMACS variable per declared constant, a shared
// background theory of Tseitin definitional clauses (true regardless
// of which constraints are selected), and one single-clause Group per
// assertion, asserting only that the assertion's Tseitin output literal
// holds. Guarding that one clause by a group's indicator is exactly
// "ind(i) => assertion_i holds" — cnfsolver.New's own encoding does the
// rest.
func Groups(doc *Document) (numVars int, hard []cnfsolver.Clause, groups []cnfsolver.Group, err error) {
	vars := make(map[string]int, len(doc.Vars))
	for i, name := range doc.Vars {
		vars[name] = i + 1
	}

	c := &compiler{nextVar: len(doc.Vars) + 1}
	groups = make([]cnfsolver.Group, len(doc.Assertions))
	for i, a := range doc.Assertions {
		out, cerr := c.compile(a, vars)
		if cerr != nil {
			return 0, nil, nil, errors.Wrapf(cerr, "assertion %d", i)
		}
		groups[i] = cnfsolver.Group{{out}}
	}
	// c.nextVar is the high-water mark: declared vars plus every
	// Tseitin auxiliary allocated along the way. Returning
	// len(doc.Vars) here would undercount whenever any assertion uses
	// a boolean connective, since the aux variables those emit into
	// hard/groups would then exceed the solver's declared variable
	// count.
	return c.nextVar - 1, c.hard, groups, nil
}
