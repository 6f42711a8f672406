// Package dimacs parses DIMACS CNF and Group CNF into the clause
// groups pkg/cnfsolver indexes as MARCO constraints. No third-party
// parser for either format appears anywhere in the example pack this
// module was grounded on, so both the line grammar and the gzip
// transport (via the standard library's compress/gzip) are a direct,
// narrow reading of the formats themselves rather than an adaptation
// of existing Go code.
package dimacs

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/constraintlab/marco/pkg/cnfsolver"
)

// Instance is a parsed CNF or Group CNF document: a fixed number of
// boolean variables, an unconditional background theory (Group CNF's
// group 0; empty for plain CNF), and an ordered list of indexed
// constraint groups, one per MARCO subset-lattice index.
type Instance struct {
	NumVars int
	Hard    []cnfsolver.Clause
	Groups  []cnfsolver.Group
}

// Open returns a reader for path, transparently decompressing it if
// its name ends in .gz.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "open gzip input")
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

// Parse reads a DIMACS CNF or Group CNF document from r.
//
// A clause line tagged "{g} lit lit ... 0" is Group CNF: g == 0 marks
// the unconditional background theory, g >= 1 indexes a constraint
// group. Groups are numbered in ascending order of g, regardless of
// the order their clauses appear in the file. A document with no
// tagged clauses is plain CNF, where every clause is its own
// singleton constraint group, in file order.
func Parse(r io.Reader) (*Instance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	numVars := 0
	grouped := make(map[int][]cnfsolver.Clause)
	var groupOrder []int
	seenGroup := make(map[int]bool)
	var plain []cnfsolver.Clause
	sawTag := false

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p") {
			fields := strings.Fields(line)
			if len(fields) < 3 {
				return nil, errors.Errorf("line %d: malformed problem line %q", lineNo, line)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: problem line variable count", lineNo)
			}
			numVars = n
			continue
		}

		rest := line
		group := 0
		tagged := false
		if strings.HasPrefix(rest, "{") {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, errors.Errorf("line %d: unterminated group tag", lineNo)
			}
			g, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: group tag", lineNo)
			}
			group = g
			tagged = true
			sawTag = true
			rest = rest[end+1:]
		}

		fields := strings.Fields(rest)
		var clause cnfsolver.Clause
		for _, f := range fields {
			lit, err := strconv.Atoi(f)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: literal %q", lineNo, f)
			}
			if lit == 0 {
				break
			}
			clause = append(clause, lit)
		}

		if tagged {
			if !seenGroup[group] {
				seenGroup[group] = true
				groupOrder = append(groupOrder, group)
			}
			grouped[group] = append(grouped[group], clause)
		} else {
			plain = append(plain, clause)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading input")
	}

	inst := &Instance{NumVars: numVars}
	if !sawTag {
		inst.Groups = make([]cnfsolver.Group, len(plain))
		for i, cl := range plain {
			inst.Groups[i] = cnfsolver.Group{cl}
		}
		return inst, nil
	}

	sort.Ints(groupOrder)
	for _, g := range groupOrder {
		if g == 0 {
			inst.Hard = append(inst.Hard, grouped[g]...)
			continue
		}
		inst.Groups = append(inst.Groups, cnfsolver.Group(grouped[g]))
	}
	return inst, nil
}
