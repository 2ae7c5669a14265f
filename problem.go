package papilo

import "github.com/pkg/errors"

// RowFlag records boolean facts about a single row of the constraint
// matrix.
type RowFlag uint8

const (
	RowLhsInf RowFlag = 1 << iota
	RowRhsInf
	RowRedundant
)

// ColFlag records boolean facts about a single column (variable).
type ColFlag uint8

const (
	ColLbInf ColFlag = 1 << iota
	ColUbInf
	ColFixed
	ColImplInt
	ColIntegral
)

// sparseVec is a single sparse row or column: a sorted-by-nothing-in-
// particular list of (index, value) pairs, kept dense enough to scan
// linearly. changeMatrixEntry is the only operation that has to walk one of
// these, which is the O(row length) / O(col length) cost the write contract
// allows.
type sparseVec[R Scalar[R]] struct {
	idx []int
	val []R
}

func (v *sparseVec[R]) find(i int) int {
	for k, ix := range v.idx {
		if ix == i {
			return k
		}
	}
	return -1
}

func (v *sparseVec[R]) set(i int, val R, isZero func(R) bool) {
	k := v.find(i)
	if isZero(val) {
		if k >= 0 {
			v.idx = append(v.idx[:k], v.idx[k+1:]...)
			v.val = append(v.val[:k], v.val[k+1:]...)
		}
		return
	}
	if k >= 0 {
		v.val[k] = val
		return
	}
	v.idx = append(v.idx, i)
	v.val = append(v.val, val)
}

// RowView is the read-only view of a row handed to presolvers and to the
// applier's validity checks. Slices are the problem's own backing storage;
// callers must not retain them past the current round.
type RowView[R any] struct {
	Indices []int
	Values  []R
	Lhs, Rhs R
	Flags   RowFlag
}

// ColView is the read-only view of a column.
type ColView[R any] struct {
	Indices []int
	Values  []R
	Lb, Ub  R
	Flags   ColFlag
}

// Problem owns the sparse matrix, bounds, flags and objective of one
// presolve run. It exposes a read contract consumed by presolvers (frozen
// for the duration of a round) and a write contract consumed only by the
// Applier between rounds.
type Problem[R Scalar[R]] struct {
	num Num[R]

	obj []R

	rows []sparseVec[R] // row-major
	cols []sparseVec[R] // column-major

	lhs, rhs []R
	rowFlags []RowFlag

	lb, ub   []R
	colFlags []ColFlag

	rowVersion       []uint64
	colVersion       []uint64
	colBoundsVersion []uint64

	rowDeleted []bool
	colDeleted []bool
}

// NewProblem builds an empty problem of the given dimensions. Callers fill
// in the matrix, bounds and objective via the write contract before handing
// the problem to a Scheduler.
func NewProblem[R Scalar[R]](num Num[R], nrows, ncols int) *Problem[R] {
	p := &Problem[R]{
		num:              num,
		obj:              make([]R, ncols),
		rows:             make([]sparseVec[R], nrows),
		cols:             make([]sparseVec[R], ncols),
		lhs:              make([]R, nrows),
		rhs:              make([]R, nrows),
		rowFlags:         make([]RowFlag, nrows),
		lb:               make([]R, ncols),
		ub:               make([]R, ncols),
		colFlags:         make([]ColFlag, ncols),
		rowVersion:       make([]uint64, nrows),
		colVersion:       make([]uint64, ncols),
		colBoundsVersion: make([]uint64, ncols),
		rowDeleted:       make([]bool, nrows),
		colDeleted:       make([]bool, ncols),
	}
	return p
}

// NRows and NCols report the current (possibly post-compress) dimensions.
func (p *Problem[R]) NRows() int { return len(p.rows) }
func (p *Problem[R]) NCols() int { return len(p.cols) }

// Num returns the tolerance helper the problem was constructed with.
func (p *Problem[R]) Num() Num[R] { return p.num }

// Obj returns the objective coefficient vector. Read-only by convention.
func (p *Problem[R]) Obj() []R { return p.obj }

// Row returns the read-only view of row r.
func (p *Problem[R]) Row(r int) RowView[R] {
	v := &p.rows[r]
	return RowView[R]{Indices: v.idx, Values: v.val, Lhs: p.lhs[r], Rhs: p.rhs[r], Flags: p.rowFlags[r]}
}

// Col returns the read-only view of column c.
func (p *Problem[R]) Col(c int) ColView[R] {
	v := &p.cols[c]
	return ColView[R]{Indices: v.idx, Values: v.val, Lb: p.lb[c], Ub: p.ub[c], Flags: p.colFlags[c]}
}

// RowDeleted and ColDeleted report whether the entity has been marked
// removed by the applier and is only waiting on the next Compress.
func (p *Problem[R]) RowDeleted(r int) bool { return p.rowDeleted[r] }
func (p *Problem[R]) ColDeleted(c int) bool { return p.colDeleted[c] }

// RowVersion and ColVersion expose the per-entity monotonic counters the
// applier snapshots at the start of each round to detect "modified this
// round" conflicts, per the design note replacing the source's "locks must
// come first" assertion with version-counter conflict detection.
func (p *Problem[R]) RowVersion(r int) uint64       { return p.rowVersion[r] }
func (p *Problem[R]) ColVersion(c int) uint64       { return p.colVersion[c] }
func (p *Problem[R]) ColBoundsVersion(c int) uint64 { return p.colBoundsVersion[c] }

// --- write contract, applier-only ---

// SetRowLhs sets the row's left-hand side.
func (p *Problem[R]) SetRowLhs(r int, v R) {
	p.lhs[r] = v
	p.rowFlags[r] &^= RowLhsInf
	p.rowVersion[r]++
	p.checkRowRedundant(r)
}

// SetRowRhs sets the row's right-hand side.
func (p *Problem[R]) SetRowRhs(r int, v R) {
	p.rhs[r] = v
	p.rowFlags[r] &^= RowRhsInf
	p.rowVersion[r]++
	p.checkRowRedundant(r)
}

// MarkRowLhsInf marks the row's left-hand side as -infinity.
func (p *Problem[R]) MarkRowLhsInf(r int) {
	p.rowFlags[r] |= RowLhsInf
	p.rowVersion[r]++
	p.checkRowRedundant(r)
}

// MarkRowRhsInf marks the row's right-hand side as +infinity.
func (p *Problem[R]) MarkRowRhsInf(r int) {
	p.rowFlags[r] |= RowRhsInf
	p.rowVersion[r]++
	p.checkRowRedundant(r)
}

// MarkRowRedundant marks the row as no longer constraining.
func (p *Problem[R]) MarkRowRedundant(r int) {
	p.rowFlags[r] |= RowRedundant
	p.rowVersion[r]++
}

func (p *Problem[R]) checkRowRedundant(r int) {
	if p.rowFlags[r]&RowLhsInf != 0 && p.rowFlags[r]&RowRhsInf != 0 {
		p.rowFlags[r] |= RowRedundant
	}
}

// SetColLb sets the column's lower bound, fixing the column if it now
// equals the upper bound.
func (p *Problem[R]) SetColLb(c int, v R) {
	p.lb[c] = v
	p.colFlags[c] &^= ColLbInf
	p.colVersion[c]++
	p.colBoundsVersion[c]++
	p.checkColFixed(c)
}

// SetColUb sets the column's upper bound, fixing the column if it now
// equals the lower bound.
func (p *Problem[R]) SetColUb(c int, v R) {
	p.ub[c] = v
	p.colFlags[c] &^= ColUbInf
	p.colVersion[c]++
	p.colBoundsVersion[c]++
	p.checkColFixed(c)
}

// MarkColLbInf marks the column's lower bound as -infinity.
func (p *Problem[R]) MarkColLbInf(c int) {
	p.colFlags[c] |= ColLbInf
	p.colVersion[c]++
	p.colBoundsVersion[c]++
}

// MarkColUbInf marks the column's upper bound as +infinity.
func (p *Problem[R]) MarkColUbInf(c int) {
	p.colFlags[c] |= ColUbInf
	p.colVersion[c]++
	p.colBoundsVersion[c]++
}

func (p *Problem[R]) checkColFixed(c int) {
	if p.colFlags[c]&ColLbInf == 0 && p.colFlags[c]&ColUbInf == 0 && p.num.IsEq(p.lb[c], p.ub[c]) {
		p.colFlags[c] |= ColFixed
	}
}

// FixCol fixes the column to v, collapsing both bounds onto it.
func (p *Problem[R]) FixCol(c int, v R) {
	p.lb[c] = v
	p.ub[c] = v
	p.colFlags[c] &^= (ColLbInf | ColUbInf)
	p.colFlags[c] |= ColFixed
	p.colVersion[c]++
	p.colBoundsVersion[c]++
}

// MarkImplInt marks the column implied-integer.
func (p *Problem[R]) MarkImplInt(c int) {
	p.colFlags[c] |= ColImplInt
}

// ChangeMatrixEntry sets A[r][c] = v, deleting the entry from both
// orientations if v is zero. This is the one write-contract operation that
// is not constant-time amortised: it scans the row and the column to find
// or remove the entry.
func (p *Problem[R]) ChangeMatrixEntry(r, c int, v R) {
	isZero := p.num.IsZero
	p.rows[r].set(c, v, isZero)
	p.cols[c].set(r, v, isZero)
	p.rowVersion[r]++
	p.colVersion[c]++
}

// MarkRowDeleted and MarkColDeleted flag an entity for removal on the next
// Compress. They do not renumber anything by themselves.
func (p *Problem[R]) MarkRowDeleted(r int) { p.rowDeleted[r] = true }
func (p *Problem[R]) MarkColDeleted(c int) { p.colDeleted[c] = true }

// Compress physically removes every row/column marked deleted, renumbering
// the survivors into a contiguous [0, m') / [0, n') range. It returns the
// old-to-new index maps, using -1 for removed entities, so that the
// postsolve trace, certificate and any still-open reduction logs can
// rewrite their own stored indices identically.
func (p *Problem[R]) Compress() (rowMap, colMap []int) {
	rowMap = make([]int, len(p.rows))
	colMap = make([]int, len(p.cols))

	newRows := p.rows[:0:0]
	newLhs := p.lhs[:0:0]
	newRhs := p.rhs[:0:0]
	newRowFlags := p.rowFlags[:0:0]
	newRowVersion := p.rowVersion[:0:0]
	newRowDeleted := p.rowDeleted[:0:0]
	next := 0
	for r := range p.rows {
		if p.rowDeleted[r] {
			rowMap[r] = -1
			continue
		}
		rowMap[r] = next
		next++
		newRows = append(newRows, p.rows[r])
		newLhs = append(newLhs, p.lhs[r])
		newRhs = append(newRhs, p.rhs[r])
		newRowFlags = append(newRowFlags, p.rowFlags[r])
		newRowVersion = append(newRowVersion, p.rowVersion[r])
		newRowDeleted = append(newRowDeleted, false)
	}

	newCols := p.cols[:0:0]
	newObj := p.obj[:0:0]
	newLb := p.lb[:0:0]
	newUb := p.ub[:0:0]
	newColFlags := p.colFlags[:0:0]
	newColVersion := p.colVersion[:0:0]
	newColBoundsVersion := p.colBoundsVersion[:0:0]
	newColDeleted := p.colDeleted[:0:0]
	next = 0
	for c := range p.cols {
		if p.colDeleted[c] {
			colMap[c] = -1
			continue
		}
		colMap[c] = next
		next++
		newCols = append(newCols, p.cols[c])
		newObj = append(newObj, p.obj[c])
		newLb = append(newLb, p.lb[c])
		newUb = append(newUb, p.ub[c])
		newColFlags = append(newColFlags, p.colFlags[c])
		newColVersion = append(newColVersion, p.colVersion[c])
		newColBoundsVersion = append(newColBoundsVersion, p.colBoundsVersion[c])
		newColDeleted = append(newColDeleted, false)
	}

	for r := range newRows {
		remapVec(&newRows[r], colMap)
	}
	for c := range newCols {
		remapVec(&newCols[c], rowMap)
	}

	p.rows, p.lhs, p.rhs, p.rowFlags, p.rowVersion, p.rowDeleted =
		newRows, newLhs, newRhs, newRowFlags, newRowVersion, newRowDeleted
	p.cols, p.obj, p.lb, p.ub, p.colFlags, p.colVersion, p.colBoundsVersion, p.colDeleted =
		newCols, newObj, newLb, newUb, newColFlags, newColVersion, newColBoundsVersion, newColDeleted

	return rowMap, colMap
}

func remapVec[R Scalar[R]](v *sparseVec[R], m []int) {
	idx := v.idx[:0:0]
	val := v.val[:0:0]
	for k, old := range v.idx {
		if nw := m[old]; nw >= 0 {
			idx = append(idx, nw)
			val = append(val, v.val[k])
		}
	}
	v.idx, v.val = idx, val
}

// CheckInvariants validates the §3 problem invariants; it is used by tests
// and may be called defensively after a round by callers that want to fail
// fast rather than discover a broken invariant downstream.
func (p *Problem[R]) CheckInvariants() error {
	for r := range p.rows {
		if p.rowDeleted[r] {
			continue
		}
		lhsInf := p.rowFlags[r]&RowLhsInf != 0
		rhsInf := p.rowFlags[r]&RowRhsInf != 0
		if !lhsInf && !rhsInf && p.lhs[r].Cmp(p.rhs[r]) > 0 {
			return errors.Errorf("row %d violates lhs<=rhs invariant", r)
		}
	}
	for c := range p.cols {
		if p.colDeleted[c] {
			continue
		}
		lbInf := p.colFlags[c]&ColLbInf != 0
		ubInf := p.colFlags[c]&ColUbInf != 0
		if !lbInf && !ubInf && p.lb[c].Cmp(p.ub[c]) > 0 {
			return errors.Errorf("column %d violates lb<=ub invariant", c)
		}
		if p.colFlags[c]&ColFixed != 0 && !p.num.IsEq(p.lb[c], p.ub[c]) {
			return errors.Errorf("column %d marked fixed but lb != ub", c)
		}
	}
	return nil
}
