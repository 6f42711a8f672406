package smt2

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constraintlab/marco/pkg/cnfsolver"
	"github.com/constraintlab/marco/pkg/marco"
)

func TestParseDeclaresAndFlattensTopLevelAnd(t *testing.T) {
	const doc = `
(set-logic QF_UF)
(declare-const x Bool)
(declare-const y Bool)
(declare-const z Bool)
(assert (and x y))
(assert (or (not z) x))
(check-sat)
`
	d, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, d.Vars)
	// The first assert's top-level and flattens into two constraints;
	// the second assert is not itself an and, so it stays whole.
	require.Len(t, d.Assertions, 3)
	assert.Equal(t, Var("x"), d.Assertions[0])
	assert.Equal(t, Var("y"), d.Assertions[1])
	assert.Equal(t, Or{Xs: []Expr{Not{X: Var("z")}, Var("x")}}, d.Assertions[2])
}

func TestParseDeclareFunNullary(t *testing.T) {
	const doc = `
(declare-fun p () Bool)
(assert p)
`
	d, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, d.Vars)
	assert.Equal(t, []Expr{Var("p")}, d.Assertions)
}

func TestParseRejectsNonBoolSort(t *testing.T) {
	_, err := Parse(strings.NewReader("(declare-const x Int)\n"))
	assert.Error(t, err)
}

func TestParseRejectsQuantifiers(t *testing.T) {
	_, err := Parse(strings.NewReader("(assert (forall ((x Bool)) x))\n"))
	assert.Error(t, err)
}

func TestParseRejectsUndeclaredVariableAtCompileTime(t *testing.T) {
	d, err := Parse(strings.NewReader("(assert x)\n"))
	require.NoError(t, err)
	_, _, _, err = Groups(d)
	assert.Error(t, err)
}

func TestGroupsPlainVariableNeedsNoAuxiliaryClauses(t *testing.T) {
	d := &Document{Vars: []string{"x"}, Assertions: []Expr{Var("x")}}
	numVars, hard, groups, err := Groups(d)
	require.NoError(t, err)
	assert.Equal(t, 1, numVars)
	assert.Empty(t, hard)
	assert.Equal(t, []cnfsolver.Group{{{1}}}, groups)
}

func TestGroupsNegationNeedsNoAuxiliaryClauses(t *testing.T) {
	d := &Document{Vars: []string{"x"}, Assertions: []Expr{Not{X: Var("x")}}}
	numVars, hard, groups, err := Groups(d)
	require.NoError(t, err)
	assert.Equal(t, 1, numVars)
	assert.Empty(t, hard)
	assert.Equal(t, []cnfsolver.Group{{{-1}}}, groups)
}

// TestGroupsAndMatchesTruthTable checks the Tseitin encoding of (and x
// y) against its truth table directly: for every assignment of the two
// declared variables, the shared hard clauses plus the assertion's own
// (single-clause) group are satisfiable exactly when x && y actually
// holds, regardless of how the auxiliary variable is assigned.
func TestGroupsAndMatchesTruthTable(t *testing.T) {
	d := &Document{Vars: []string{"x", "y"}, Assertions: []Expr{And{Xs: []Expr{Var("x"), Var("y")}}}}
	numVars, hard, groups, err := Groups(d)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	all := append(append([]cnfsolver.Clause{}, hard...), groups[0]...)
	total := maxVar(all)
	require.Greater(t, numVars, len(d.Vars))

	for _, xv := range []bool{false, true} {
		for _, yv := range []bool{false, true} {
			want := xv && yv
			got := satisfiableWithFixed(total, all, map[int]bool{1: xv, 2: yv})
			assert.Equal(t, want, got, "x=%v y=%v", xv, yv)
		}
	}
}

func TestGroupsOrMatchesTruthTable(t *testing.T) {
	d := &Document{Vars: []string{"x", "y"}, Assertions: []Expr{Or{Xs: []Expr{Var("x"), Var("y")}}}}
	_, hard, groups, err := Groups(d)
	require.NoError(t, err)
	all := append(append([]cnfsolver.Clause{}, hard...), groups[0]...)
	total := maxVar(all)

	for _, xv := range []bool{false, true} {
		for _, yv := range []bool{false, true} {
			want := xv || yv
			got := satisfiableWithFixed(total, all, map[int]bool{1: xv, 2: yv})
			assert.Equal(t, want, got, "x=%v y=%v", xv, yv)
		}
	}
}

func TestGroupsImpliesMatchesTruthTable(t *testing.T) {
	d := &Document{Vars: []string{"x", "y"}, Assertions: []Expr{Implies{A: Var("x"), B: Var("y")}}}
	_, hard, groups, err := Groups(d)
	require.NoError(t, err)
	all := append(append([]cnfsolver.Clause{}, hard...), groups[0]...)
	total := maxVar(all)

	for _, xv := range []bool{false, true} {
		for _, yv := range []bool{false, true} {
			want := !xv || yv
			got := satisfiableWithFixed(total, all, map[int]bool{1: xv, 2: yv})
			assert.Equal(t, want, got, "x=%v y=%v", xv, yv)
		}
	}
}

func TestGroupsEqMatchesTruthTable(t *testing.T) {
	d := &Document{Vars: []string{"x", "y"}, Assertions: []Expr{Eq{A: Var("x"), B: Var("y")}}}
	_, hard, groups, err := Groups(d)
	require.NoError(t, err)
	all := append(append([]cnfsolver.Clause{}, hard...), groups[0]...)
	total := maxVar(all)

	for _, xv := range []bool{false, true} {
		for _, yv := range []bool{false, true} {
			want := xv == yv
			got := satisfiableWithFixed(total, all, map[int]bool{1: xv, 2: yv})
			assert.Equal(t, want, got, "x=%v y=%v", xv, yv)
		}
	}
}

func TestGroupsXorMatchesTruthTable(t *testing.T) {
	d := &Document{Vars: []string{"x", "y"}, Assertions: []Expr{Xor{A: Var("x"), B: Var("y")}}}
	_, hard, groups, err := Groups(d)
	require.NoError(t, err)
	all := append(append([]cnfsolver.Clause{}, hard...), groups[0]...)
	total := maxVar(all)

	for _, xv := range []bool{false, true} {
		for _, yv := range []bool{false, true} {
			want := xv != yv
			got := satisfiableWithFixed(total, all, map[int]bool{1: xv, 2: yv})
			assert.Equal(t, want, got, "x=%v y=%v", xv, yv)
		}
	}
}

func TestGroupsIteMatchesTruthTable(t *testing.T) {
	const doc = `
(declare-const c Bool)
(declare-const t Bool)
(declare-const e Bool)
(assert (ite c t e))
`
	d, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	_, hard, groups, err := Groups(d)
	require.NoError(t, err)
	all := append(append([]cnfsolver.Clause{}, hard...), groups[0]...)
	total := maxVar(all)

	for _, cv := range []bool{false, true} {
		for _, tv := range []bool{false, true} {
			for _, ev := range []bool{false, true} {
				want := (cv && tv) || (!cv && ev)
				got := satisfiableWithFixed(total, all, map[int]bool{1: cv, 2: tv, 3: ev})
				assert.Equal(t, want, got, "c=%v t=%v e=%v", cv, tv, ev)
			}
		}
	}
}

func TestGroupsConstTrueAndFalse(t *testing.T) {
	d := &Document{Assertions: []Expr{Const(true), Const(false)}}
	_, hard, groups, err := Groups(d)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	all := append(append([]cnfsolver.Clause{}, hard...), groups[0]...)
	assert.True(t, satisfiableWithFixed(maxVar(all), all, nil))

	allFalse := append(append([]cnfsolver.Clause{}, hard...), groups[1]...)
	assert.False(t, satisfiableWithFixed(maxVar(allFalse), allFalse, nil))
}

// TestGroupsNumVarsCoversEveryTseitinAuxiliary routes (and x y)'s
// compiled output through the real cnfsolver.Solver instead of the
// brute-force checker the other Groups tests use. cnfsolver.New sizes
// its gini instance to numVars and rejects any clause literal beyond
// it, so this fails immediately if numVars ever again undercounts the
// Tseitin auxiliary variables the compiler emits into hard/groups.
func TestGroupsNumVarsCoversEveryTseitinAuxiliary(t *testing.T) {
	d := &Document{Vars: []string{"x", "y"}, Assertions: []Expr{And{Xs: []Expr{Var("x"), Var("y")}}}}
	numVars, hard, groups, err := Groups(d)
	require.NoError(t, err)
	require.Greater(t, numVars, 2, "the and gate must allocate at least one auxiliary variable beyond x and y")

	solver, err := cnfsolver.New(numVars, groups)
	require.NoError(t, err)
	require.NoError(t, solver.AddHardClauses(hard))

	sat, _, err := solver.CheckSubset(marco.SubsetFromIndices(1, 0), false)
	require.NoError(t, err)
	assert.True(t, sat, "(and x y) must be satisfiable with x and y both free")
}

func maxVar(clauses []cnfsolver.Clause) int {
	m := 0
	for _, cl := range clauses {
		for _, lit := range cl {
			if lit < 0 {
				lit = -lit
			}
			if lit > m {
				m = lit
			}
		}
	}
	return m
}

func satisfiableWithFixed(total int, clauses []cnfsolver.Clause, fixed map[int]bool) bool {
	free := make([]int, 0, total)
	for v := 1; v <= total; v++ {
		if _, ok := fixed[v]; !ok {
			free = append(free, v)
		}
	}
	assign := make([]bool, total+1)
	for v, b := range fixed {
		assign[v] = b
	}
	n := len(free)
	for mask := 0; mask < (1 << uint(n)); mask++ {
		for i, v := range free {
			assign[v] = mask&(1<<uint(i)) != 0
		}
		if evalClauses(clauses, assign) {
			return true
		}
	}
	return n == 0 && evalClauses(clauses, assign)
}

func evalClauses(clauses []cnfsolver.Clause, assign []bool) bool {
	for _, cl := range clauses {
		ok := false
		for _, lit := range cl {
			v := lit
			neg := false
			if v < 0 {
				v = -v
				neg = true
			}
			val := assign[v]
			if neg {
				val = !val
			}
			if val {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
