package dimacs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constraintlab/marco/pkg/cnfsolver"
)

func TestParsePlainCNF(t *testing.T) {
	const doc = `c a comment
p cnf 2 3
1 0
-1 0
2 0
`
	inst, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, inst.NumVars)
	assert.Empty(t, inst.Hard)
	require.Len(t, inst.Groups, 3)
	assert.Equal(t, cnfsolver.Group{{1}}, inst.Groups[0])
	assert.Equal(t, cnfsolver.Group{{-1}}, inst.Groups[1])
	assert.Equal(t, cnfsolver.Group{{2}}, inst.Groups[2])
}

func TestParseGroupCNF(t *testing.T) {
	const doc = `p cnf 3 4
{0} 3 0
{1} 1 0
{2} -1 0
{2} 2 0
`
	inst, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, inst.NumVars)
	assert.Equal(t, []cnfsolver.Clause{{3}}, inst.Hard)
	require.Len(t, inst.Groups, 2)
	assert.Equal(t, cnfsolver.Group{{1}}, inst.Groups[0])
	assert.Equal(t, cnfsolver.Group{{-1}, {2}}, inst.Groups[1])
}

func TestParseGroupCNFOrdersByGroupNumberNotFileOrder(t *testing.T) {
	const doc = `p cnf 2 2
{2} 2 0
{1} 1 0
`
	inst, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, inst.Groups, 2)
	assert.Equal(t, cnfsolver.Group{{1}}, inst.Groups[0])
	assert.Equal(t, cnfsolver.Group{{2}}, inst.Groups[1])
}

func TestParseRejectsMalformedProblemLine(t *testing.T) {
	_, err := Parse(strings.NewReader("p cnf\n"))
	assert.Error(t, err)
}

func TestOpenMissingGzipPathFails(t *testing.T) {
	_, err := Open("/nonexistent/path/does/not/exist.cnf.gz")
	assert.Error(t, err)
}
