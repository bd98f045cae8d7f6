package dp

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

type cursorKind uint8

const (
	// lightCursor. rolling window of two rows and two columns, O(len0+len1) memory.
	lightCursor cursorKind = iota
	// matrixCursor. full lattice swept from (0,0) upward.
	matrixCursor
	// backMatrixCursor. full lattice swept from (len0+1, len1+1) down, keeps per-cell emissions.
	backMatrixCursor
)

func (k cursorKind) String() string {
	switch k {
	case lightCursor:
		return "light"
	case matrixCursor:
		return "matrix"
	case backMatrixCursor:
		return "back-matrix"
	}
	return "unknown"
}

// cursor. column access for one sweep of the lattice. the three kinds share the coordinate contract:
// a coordinate of -1 (and len+2 for the back matrix) is the constant -inf column.
type cursor struct {
	kind      cursorKind
	seqs      [2]hmm.SymbolList
	lens      [2]int
	pos       [2]int
	numStates int

	zeroCol  []float64
	zeroECol []float64

	// light. s1 buffers hold a row (fixed i = pos[0]) indexed by j,
	// s2 buffers a column (fixed j = pos[1]) indexed by i.
	s1cur, s1prev, s2cur, s2prev [][]float64

	storeBPs                             bool
	zeroBP                               []int32
	s1curBP, s1prevBP, s2curBP, s2prevBP [][]int32

	// cell (0,0) starts out shared by the row and the column buffers
	origin   []float64
	originBP []int32

	// matrix / back matrix
	mat      *Matrix
	eMatrix  [][]float64
	eBacking []float64
}

func newCursorBase(kind cursorKind, seqs [2]hmm.SymbolList, numStates int) *cursor {
	c := &cursor{
		kind:      kind,
		seqs:      seqs,
		lens:      [2]int{seqs[0].Len(), seqs[1].Len()},
		numStates: numStates,
		zeroCol:   negInfColumn(numStates),
	}
	return c
}

func newLightCursor(seqs [2]hmm.SymbolList, numStates int, storeBPs bool) *cursor {
	c := newCursorBase(lightCursor, seqs, numStates)
	c.s1cur = make([][]float64, c.lens[1]+2)
	c.s1prev = make([][]float64, c.lens[1]+2)
	c.s2cur = make([][]float64, c.lens[0]+2)
	c.s2prev = make([][]float64, c.lens[0]+2)

	c.origin = make([]float64, numStates)
	c.s1cur[0] = c.origin
	c.s2cur[0] = c.origin

	if storeBPs {
		c.storeBPs = true
		c.zeroBP = newBPColumn(numStates)
		c.s1curBP = make([][]int32, c.lens[1]+2)
		c.s1prevBP = make([][]int32, c.lens[1]+2)
		c.s2curBP = make([][]int32, c.lens[0]+2)
		c.s2prevBP = make([][]int32, c.lens[0]+2)

		c.originBP = newBPColumn(numStates)
		c.s1curBP[0] = c.originBP
		c.s2curBP[0] = c.originBP
	}
	return c
}

func newMatrixCursor(mat *Matrix) *cursor {
	c := newCursorBase(matrixCursor, mat.seqs, len(mat.states))
	c.mat = mat
	return c
}

func newBackMatrixCursor(mat *Matrix, numEmitting int) *cursor {
	c := newCursorBase(backMatrixCursor, mat.seqs, len(mat.states))
	c.zeroECol = negInfColumn(numEmitting)
	c.pos = [2]int{c.lens[0] + 1, c.lens[1] + 1}

	c.eBacking = make([]float64, len(mat.cells)*numEmitting)
	c.eMatrix = make([][]float64, len(mat.cells))
	tmp := c.eBacking
	for i := range c.eMatrix {
		c.eMatrix[i] = tmp[:numEmitting:numEmitting]
		tmp = tmp[numEmitting:]
	}
	c.mat = mat
	return c
}

func negInfColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.Inf(-1)
	}
	return col
}

func (c *cursor) position(dim int) int {
	return c.pos[dim]
}

func (c *cursor) canAdvance(dim int) bool {
	if c.kind == backMatrixCursor {
		return c.pos[dim] > 0
	}
	return c.pos[dim] <= c.lens[dim]
}

func (c *cursor) advance(dim int) {
	switch c.kind {
	case backMatrixCursor:
		c.pos[dim]--
	case matrixCursor:
		c.pos[dim]++
	case lightCursor:
		c.pos[dim]++
		c.roll(dim)
	}
}

// roll. swap current and previous buffers of dim and allocate the cells the new line needs.
// a recycled buffer never keeps the origin cell, the other dimension may still read (0,0) from it.
func (c *cursor) roll(dim int) {
	other := c.pos[1-dim]
	if dim == 0 {
		c.s1cur, c.s1prev = c.s1prev, c.s1cur
		fillScores(c.s1cur, other, c.origin, c.numStates)
		if c.storeBPs {
			c.s1curBP, c.s1prevBP = c.s1prevBP, c.s1curBP
			fillBPs(c.s1curBP, other, c.originBP, c.numStates)
		}
		return
	}

	c.s2cur, c.s2prev = c.s2prev, c.s2cur
	fillScores(c.s2cur, other, c.origin, c.numStates)
	if c.storeBPs {
		c.s2curBP, c.s2prevBP = c.s2prevBP, c.s2curBP
		fillBPs(c.s2curBP, other, c.originBP, c.numStates)
	}
}

func fillScores(buf [][]float64, upto int, origin []float64, n int) {
	if buf[0] != nil && &buf[0][0] == &origin[0] {
		buf[0] = nil
	}
	for k := 0; k <= upto; k++ {
		if buf[k] == nil {
			buf[k] = make([]float64, n)
		}
	}
}

func fillBPs(buf [][]int32, upto int, origin []int32, n int) {
	if buf[0] != nil && &buf[0][0] == &origin[0] {
		buf[0] = nil
	}
	for k := 0; k <= upto; k++ {
		if buf[k] == nil {
			buf[k] = newBPColumn(n)
		}
	}
}

// symbolAt. symbol of head dim at position p, Gap at the boundary positions 0 and len+1.
func (c *cursor) symbolAt(dim, p int) hmm.Symbol {
	if p <= 0 || p > c.lens[dim] {
		return hmm.Gap
	}
	return c.seqs[dim].SymbolAt(p)
}

func (c *cursor) outsideBack(i, j int) bool {
	return i == -1 || j == -1 || i == c.lens[0]+2 || j == c.lens[1]+2
}

// column. score vector of cell (i, j). writes to the returned slice update the cell.
func (c *cursor) column(i, j int) ([]float64, error) {
	switch c.kind {
	case matrixCursor:
		if i == -1 || j == -1 {
			return c.zeroCol, nil
		}
		if !c.mat.inside(i, j) {
			return nil, errors.AssertionFailedf("matrix cursor: cell (%d,%d) outside lattice %v", i, j, c.mat.dims)
		}
		return c.mat.cell(i, j), nil

	case backMatrixCursor:
		if c.outsideBack(i, j) {
			return c.zeroCol, nil
		}
		if !c.mat.inside(i, j) {
			return nil, errors.AssertionFailedf("back matrix cursor: cell (%d,%d) outside lattice %v", i, j, c.mat.dims)
		}
		return c.mat.cell(i, j), nil
	}

	if i == -1 || j == -1 {
		return c.zeroCol, nil
	}
	if col := lightLookup(c, i, j, c.s1cur, c.s2cur, c.s1prev, c.s2prev); col != nil {
		return col, nil
	}
	return nil, errors.AssertionFailedf("light cursor: cell (%d,%d) outside window at position (%d,%d)",
		i, j, c.pos[0], c.pos[1])
}

// backPointers. back pointer handles of cell (i, j), only for a light cursor storing them.
func (c *cursor) backPointers(i, j int) ([]int32, error) {
	if !c.storeBPs {
		return nil, errors.AssertionFailedf("%s cursor does not store back pointers", c.kind)
	}
	if i == -1 || j == -1 {
		return c.zeroBP, nil
	}
	if col := lightLookup(c, i, j, c.s1curBP, c.s2curBP, c.s1prevBP, c.s2prevBP); col != nil {
		return col, nil
	}
	return nil, errors.AssertionFailedf("light cursor: back pointers of (%d,%d) outside window at position (%d,%d)",
		i, j, c.pos[0], c.pos[1])
}

// emission. per-cell emission vector kept by the back matrix cursor, writable.
func (c *cursor) emission(i, j int) ([]float64, error) {
	if c.kind != backMatrixCursor {
		return nil, errors.AssertionFailedf("%s cursor does not keep emissions", c.kind)
	}
	if c.outsideBack(i, j) {
		return c.zeroECol, nil
	}
	if !c.mat.inside(i, j) {
		return nil, errors.AssertionFailedf("back matrix cursor: emission (%d,%d) outside lattice %v", i, j, c.mat.dims)
	}
	return c.eMatrix[i*c.mat.dims[1]+j], nil
}

// lightLookup. current row, current column, previous row, previous column, in that order.
func lightLookup[T any](c *cursor, i, j int, s1cur, s2cur, s1prev, s2prev [][]T) []T {
	switch {
	case i == c.pos[0] && j < len(s1cur) && s1cur[j] != nil:
		return s1cur[j]
	case j == c.pos[1] && i < len(s2cur) && s2cur[i] != nil:
		return s2cur[i]
	case i == c.pos[0]-1 && j < len(s1prev) && s1prev[j] != nil:
		return s1prev[j]
	case j == c.pos[1]-1 && i < len(s2prev):
		return s2prev[i]
	}
	return nil
}
