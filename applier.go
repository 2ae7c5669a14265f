package papilo

import (
	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
)

// TxState is the per-transaction state machine: Pending -> LocksChecked ->
// EntriesValidated -> Applied, or any stage -> Rejected.
type TxState int

const (
	TxPending TxState = iota
	TxLocksChecked
	TxEntriesValidated
	TxApplied
	TxRejected
)

// Applier validates presolver logs against the current problem, resolves
// lock conflicts, mutates the problem, and pushes postsolve and
// certificate entries. It is the single-threaded component invoked once
// per round, after the scheduler's barrier.
type Applier[R Scalar[R]] struct {
	problem *Problem[R]
	num     Num[R]
	cert    CertificateInterface[R]
	log     log.Logger

	certInitialised bool

	// round-start snapshots for version-counter conflict detection.
	rowVersion       []uint64
	colVersion       []uint64
	colBoundsVersion []uint64

	// forward reservations made by ColLockedStrong / row-strong locks
	// committed so far this round.
	strongRow map[int]bool
	strongCol map[int]bool

	// infeasible becomes true when a committed bound change would cross
	// the opposite bound beyond feasibility tolerance.
	infeasible bool
}

// NewApplier builds an Applier bound to problem, using num for tolerance
// decisions and cert for proof emission (never nil; pass NoopCertificate
// for no proof stream).
func NewApplier[R Scalar[R]](problem *Problem[R], num Num[R], cert CertificateInterface[R], lg log.Logger) *Applier[R] {
	if lg == nil {
		lg = log.NewStandard()
	}
	return &Applier[R]{problem: problem, num: num, cert: cert, log: lg}
}

// ApplyRound processes logs (already ordered by presolver identity) one
// presolver at a time, each in emission order, against a fresh round-start
// snapshot. It returns the number of accepted and rejected transactions.
func (a *Applier[R]) ApplyRound(names []string, logs []*Reductions[R], trace *PostsolveTrace[R]) (accepted, rejected int) {
	if !a.certInitialised {
		if err := a.cert.Init(a.problem); err != nil {
			a.log.Warnf("papilo: certificate init failed: %v", err)
		}
		a.certInitialised = true
	}

	a.snapshotVersions()
	a.strongRow = map[int]bool{}
	a.strongCol = map[int]bool{}

	for i, rl := range logs {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		for _, tx := range rl.Transactions() {
			entries := rl.Entries()[tx.Start:tx.End]
			if a.applyTransaction(name, entries, tx, trace) == TxApplied {
				accepted++
			} else {
				rejected++
			}
			if a.infeasible {
				return accepted, rejected
			}
		}
	}
	return accepted, rejected
}

// Infeasible reports whether any ApplyRound call on this Applier has
// detected a bound crossing beyond feasibility tolerance. The flag is never
// cleared once set.
func (a *Applier[R]) Infeasible() bool { return a.infeasible }

func (a *Applier[R]) snapshotVersions() {
	p := a.problem
	a.rowVersion = make([]uint64, p.NRows())
	a.colVersion = make([]uint64, p.NCols())
	a.colBoundsVersion = make([]uint64, p.NCols())
	for r := 0; r < p.NRows(); r++ {
		a.rowVersion[r] = p.RowVersion(r)
	}
	for c := 0; c < p.NCols(); c++ {
		a.colVersion[c] = p.ColVersion(c)
		a.colBoundsVersion[c] = p.ColBoundsVersion(c)
	}
}

// lockSet is what one transaction's lock prefix declared.
type lockSet struct {
	rows, rowsStrong     map[int]bool
	cols, colsStrong     map[int]bool
	colsBounds           map[int]bool
}

func newLockSet() lockSet {
	return lockSet{
		rows: map[int]bool{}, rowsStrong: map[int]bool{},
		cols: map[int]bool{}, colsStrong: map[int]bool{},
		colsBounds: map[int]bool{},
	}
}

// applyTransaction runs the lock conflict check, the semantic validity
// check, and -- if both pass -- the all-or-nothing commit, returning the
// transaction's terminal state (TxApplied or TxRejected).
func (a *Applier[R]) applyTransaction(presolver string, entries []Reduction[R], tx Transaction, trace *PostsolveTrace[R]) TxState {
	locks := newLockSet()

	for _, e := range entries[:tx.NLocks] {
		switch {
		case e.Col < 0 && e.Col == opRowLocked:
			locks.rows[e.Row] = true
		case e.Col < 0 && e.Col == opRowLockedStrong:
			locks.rows[e.Row] = true
			locks.rowsStrong[e.Row] = true
		case e.Row < 0 && e.Row == opColLocked:
			locks.cols[e.Col] = true
		case e.Row < 0 && e.Row == opColLockedStrong:
			locks.cols[e.Col] = true
			locks.colsStrong[e.Col] = true
		case e.Row < 0 && e.Row == opColBoundsLocked:
			locks.colsBounds[e.Col] = true
		}
	}

	touchedRows, touchedCols := a.touchedEntities(entries[tx.NLocks:])

	if !a.checkLockConflicts(locks, touchedRows, touchedCols) {
		return a.reject(presolver, "lock conflict")
	}

	ok, crossesInfeasible := a.checkSemanticValidity(entries[tx.NLocks:])
	if crossesInfeasible {
		a.infeasible = true
		return TxRejected
	}
	if !ok {
		return a.reject(presolver, "semantic validity")
	}

	a.commit(entries[tx.NLocks:], trace)

	for r := range locks.rowsStrong {
		a.strongRow[r] = true
	}
	for c := range locks.colsStrong {
		a.strongCol[c] = true
	}
	return TxApplied
}

func (a *Applier[R]) reject(presolver string, reason string) TxState {
	// Per the error handling design, lock-conflict rejections are silent
	// (no log line per rejection); other rejections are logged at debug
	// level for diagnosability.
	if reason != "lock conflict" {
		a.log.Debugf("papilo: rejected transaction from %q (%s)", presolver, reason)
	}
	return TxRejected
}

// touchedEntities reports which rows/cols a transaction's non-lock entries
// would modify, used for the strong-lock forward reservation check.
func (a *Applier[R]) touchedEntities(body []Reduction[R]) (rows, cols map[int]bool) {
	rows, cols = map[int]bool{}, map[int]bool{}
	for _, e := range body {
		switch {
		case e.IsMatrixEntry():
			rows[e.Row] = true
			cols[e.Col] = true
		case e.Col < 0:
			rows[e.Row] = true
		case e.Row < 0:
			cols[e.Col] = true
		}
	}
	return rows, cols
}

func (a *Applier[R]) checkLockConflicts(locks lockSet, touchedRows, touchedCols map[int]bool) bool {
	p := a.problem
	for r := range locks.rows {
		if p.RowVersion(r) != a.rowVersion[r] {
			return false
		}
	}
	for c := range locks.cols {
		if p.ColVersion(c) != a.colVersion[c] {
			return false
		}
	}
	for c := range locks.colsBounds {
		if p.ColBoundsVersion(c) != a.colBoundsVersion[c] {
			return false
		}
	}
	for r := range touchedRows {
		if a.strongRow[r] && !locks.rowsStrong[r] {
			return false
		}
	}
	for c := range touchedCols {
		if a.strongCol[c] && !locks.colsStrong[c] {
			return false
		}
	}
	return true
}

// checkSemanticValidity walks the non-lock entries and reports (ok,
// infeasible). infeasible takes precedence: if true, the whole run must
// terminate with status Infeasible regardless of ok.
func (a *Applier[R]) checkSemanticValidity(body []Reduction[R]) (ok bool, infeasible bool) {
	p := a.problem
	num := a.num
	for i := 0; i < len(body); i++ {
		e := body[i]
		switch {
		case e.IsMatrixEntry():
			// always valid; may delete or overwrite a coefficient.
		case e.Col == opRowRHS || e.Col == opRowLHS || e.Col == opRowRHSInf || e.Col == opRowLHSInf || e.Col == opRowRedundant || e.Col == opRowSparsify || e.Col == opRowSparsifyEntry:
			// row-level ops are accepted here without a crossing check;
			// only column bound changes are tested for crossing below,
			// while CheckInvariants also reports a row whose lhs exceeds
			// its rhs.
		case e.Row == opColFixed:
			c := e.Col
			if p.colFlags[c]&ColFixed != 0 {
				// fixing an already-fixed column, to the same value or a
				// different one, is a no-op rejection, not an error.
				return false, false
			}
		case e.Row == opColFixedInfinity:
			// always valid: the presolver is asserting unboundedness.
		case e.Row == opColLowerBound:
			c := e.Col
			if p.colFlags[c]&ColUbInf == 0 && e.NewVal.Cmp(p.ub[c]) > 0 {
				if e.NewVal.Sub(p.ub[c]).Cmp(num.FeasTol) > 0 {
					return false, true
				}
				// within tolerance: becomes Fixed at the average during commit.
			}
		case e.Row == opColUpperBound:
			c := e.Col
			if p.colFlags[c]&ColLbInf == 0 && e.NewVal.Cmp(p.lb[c]) < 0 {
				if p.lb[c].Sub(e.NewVal).Cmp(num.FeasTol) > 0 {
					return false, true
				}
				// within tolerance: becomes Fixed at the average during commit.
			}
		}
	}
	return true, false
}

func (a *Applier[R]) commit(body []Reduction[R], trace *PostsolveTrace[R]) {
	p := a.problem
	num := a.num

	for i := 0; i < len(body); i++ {
		e := body[i]
		switch {
		case e.IsMatrixEntry():
			a.commitMatrixEntry(e)

		case e.Col == opRowRHS:
			prior := p.rhs[e.Row]
			p.SetRowRhs(e.Row, e.NewVal)
			a.notifyCert(a.cert.ChangeRHS(e.Row, e.NewVal))
			trace.Push(PostsolveEntry[R]{Kind: PostsolveBoundTighten, Row: e.Row, Prior: prior, IsRowBound: true})

		case e.Col == opRowLHS:
			prior := p.lhs[e.Row]
			p.SetRowLhs(e.Row, e.NewVal)
			a.notifyCert(a.cert.ChangeLHS(e.Row, e.NewVal))
			trace.Push(PostsolveEntry[R]{Kind: PostsolveBoundTighten, Row: e.Row, Prior: prior, IsRowBound: true})

		case e.Col == opRowRHSInf:
			p.MarkRowRhsInf(e.Row)
			a.notifyCert(a.cert.ChangeRHSInf(e.Row))

		case e.Col == opRowLHSInf:
			p.MarkRowLhsInf(e.Row)
			a.notifyCert(a.cert.ChangeLHSInf(e.Row))

		case e.Col == opRowRedundant:
			snap := a.snapshotRow(e.Row)
			p.MarkRowRedundant(e.Row)
			a.notifyCert(a.cert.MarkRowRedundant(e.Row))
			trace.Push(PostsolveEntry[R]{Kind: PostsolveRedundantRow, Row: e.Row, RowSnapshot: snap})

		case e.Col == opRowSparsify:
			n := rToInt[R](e.NewVal)
			eqRow := e.Row
			for k := 1; k <= n; k++ {
				entry := body[i+k]
				a.applySparsifyEntry(eqRow, entry.Row, entry.NewVal)
			}
			i += n

		case e.Row == opColLowerBound:
			c := e.Col
			prior := p.lb[c]
			v := e.NewVal
			if p.colFlags[c]&ColUbInf == 0 && v.Cmp(p.ub[c]) > 0 {
				v = v.Add(p.ub[c]).Div(v.FromFloat64(2))
				p.FixCol(c, v)
				a.notifyCert(a.cert.FixedCol(c, v))
				trace.Push(PostsolveEntry[R]{Kind: PostsolveFixed, Col: c, Value: v, ColSnapshot: a.snapshotCol(c)})
				continue
			}
			p.SetColLb(c, v)
			trace.Push(PostsolveEntry[R]{Kind: PostsolveBoundTighten, Col: c, Prior: prior, IsLower: true})

		case e.Row == opColUpperBound:
			c := e.Col
			prior := p.ub[c]
			v := e.NewVal
			if p.colFlags[c]&ColLbInf == 0 && v.Cmp(p.lb[c]) < 0 {
				v = v.Add(p.lb[c]).Div(v.FromFloat64(2))
				p.FixCol(c, v)
				a.notifyCert(a.cert.FixedCol(c, v))
				trace.Push(PostsolveEntry[R]{Kind: PostsolveFixed, Col: c, Value: v, ColSnapshot: a.snapshotCol(c)})
				continue
			}
			p.SetColUb(c, v)
			trace.Push(PostsolveEntry[R]{Kind: PostsolveBoundTighten, Col: c, Prior: prior, IsLower: false})

		case e.Row == opColFixed:
			c := e.Col
			snap := a.snapshotCol(c)
			v := e.NewVal
			if num.IsIntegral(v) && (p.colFlags[c]&(ColIntegral|ColImplInt) != 0) {
				v = num.Round(v)
			}
			p.FixCol(c, v)
			a.notifyCert(a.cert.FixedCol(c, v))
			trace.Push(PostsolveEntry[R]{Kind: PostsolveFixed, Col: c, Value: v, ColSnapshot: snap})

		case e.Row == opColFixedInfinity:
			c := e.Col
			snap := a.snapshotCol(c)
			sign := rToInt[R](e.NewVal)
			var v R
			if sign < 0 {
				p.MarkColLbInf(c)
				v = v.FromFloat64(-1)
			} else {
				p.MarkColUbInf(c)
				v = v.FromFloat64(1)
			}
			p.colFlags[c] |= ColFixed
			a.notifyCert(a.cert.FixedCol(c, v))
			trace.Push(PostsolveEntry[R]{Kind: PostsolveFixed, Col: c, Value: v, ColSnapshot: snap})

		case e.Row == opColSubstitute, e.Row == opColSubstituteObj:
			c := e.Col
			eqRow := rToInt[R](e.NewVal)
			eqSnap := a.snapshotRow(eqRow)
			a.eliminateColumn(c, eqRow, e.Row == opColSubstituteObj)
			a.notifyCert(a.cert.Substitute(c, eqRow, p))
			trace.Push(PostsolveEntry[R]{Kind: PostsolveSubstitute, Col: c, Row: eqRow, RowSnapshot: eqSnap})
			p.MarkColDeleted(c)

		case e.Row == opColReplace:
			col1, factor := e.Col, e.NewVal
			aux := body[i+1]
			col2, offset := aux.Col, aux.NewVal
			snap := a.snapshotCol(col1)
			a.eliminateReplacedColumn(col1, col2, factor, offset)
			trace.Push(PostsolveEntry[R]{Kind: PostsolveParallelCols, Col: col1, Col2: col2, Factor: factor, Offset: offset, ColSnapshot: snap})
			i++

		case e.Row == opColParallel:
			col1 := e.Col
			col2 := rToInt[R](e.NewVal)
			snap := a.snapshotCol(col2)
			trace.Push(PostsolveEntry[R]{Kind: PostsolveParallelCols, Col: col1, Col2: col2, ColSnapshot: snap})
			p.MarkColDeleted(col2)

		case e.Row == opColImplInt:
			p.MarkImplInt(e.Col)
		}
	}
}

func (a *Applier[R]) commitMatrixEntry(e Reduction[R]) {
	a.problem.ChangeMatrixEntry(e.Row, e.Col, e.NewVal)
	a.notifyCert(a.cert.UpdateRow(e.Row, a.problem))
}

// applySparsifyEntry subtracts scale*eqRow from row. It first verifies the
// intended cancellation numerically -- at least one of eqRow's columns must
// land on zero in row after the subtraction -- and skips the entry (leaving
// row untouched) rather than rejecting the whole transaction when it does
// not, per §4.5.
func (a *Applier[R]) applySparsifyEntry(eqRow, row int, scale R) {
	p := a.problem
	num := a.num
	eq := p.Row(eqRow)

	newVals := make([]R, len(eq.Indices))
	cancelled := false
	for k, idx := range eq.Indices {
		cur := a.coeffAt(row, idx)
		nv := cur.Sub(scale.Mul(eq.Values[k]))
		newVals[k] = nv
		if num.IsZero(nv) {
			cancelled = true
		}
	}
	if !cancelled {
		return
	}

	for k, idx := range eq.Indices {
		p.ChangeMatrixEntry(row, idx, newVals[k])
	}
	rv := p.Row(row)
	if rv.Flags&RowRhsInf == 0 {
		p.SetRowRhs(row, rv.Rhs.Sub(scale.Mul(eq.Rhs)))
	}
	if rv.Flags&RowLhsInf == 0 {
		p.SetRowLhs(row, rv.Lhs.Sub(scale.Mul(eq.Lhs)))
	}
	a.notifyCert(a.cert.Sparsify(eqRow, row, scale, p))
}

// eliminateColumn removes col's coefficient from every row (other than
// eqRow) in its support by subtracting (coeff/pivot)*eqRow from each,
// mirroring applySparsifyEntry's row-rewrite but driven by a single named
// pivot column rather than a numerically-discovered one. When fromObj is
// set (SUBSTITUTE_OBJ), col is also eliminated from the objective.
func (a *Applier[R]) eliminateColumn(col, eqRow int, fromObj bool) {
	p := a.problem
	eq := p.Row(eqRow)
	pivot := a.coeffAt(eqRow, col)
	if a.num.IsZero(pivot) {
		return
	}

	support := p.Col(col)
	rows := append([]int(nil), support.Indices...)
	coeffs := append([]R(nil), support.Values...)
	for i, r := range rows {
		if r == eqRow {
			continue
		}
		factor := coeffs[i].Div(pivot)
		a.eliminateFromRow(r, factor, eq)
	}

	if fromObj {
		objCoeff := p.obj[col]
		if !a.num.IsZero(objCoeff) {
			factor := objCoeff.Div(pivot)
			for k, idx := range eq.Indices {
				p.obj[idx] = p.obj[idx].Sub(factor.Mul(eq.Values[k]))
			}
		}
	}
}

// eliminateFromRow subtracts factor*eq from row, including eq's RHS/LHS,
// the same algebra applySparsifyEntry applies, without the cancellation
// check since factor is derived exactly from the column being eliminated.
func (a *Applier[R]) eliminateFromRow(row int, factor R, eq RowView[R]) {
	p := a.problem
	for k, idx := range eq.Indices {
		cur := a.coeffAt(row, idx)
		p.ChangeMatrixEntry(row, idx, cur.Sub(factor.Mul(eq.Values[k])))
	}
	rv := p.Row(row)
	if rv.Flags&RowRhsInf == 0 {
		p.SetRowRhs(row, rv.Rhs.Sub(factor.Mul(eq.Rhs)))
	}
	if rv.Flags&RowLhsInf == 0 {
		p.SetRowLhs(row, rv.Lhs.Sub(factor.Mul(eq.Lhs)))
	}
}

// eliminateReplacedColumn folds col1 = factor*col2 + offset out of the
// matrix: every row holding col1 with coefficient a has a*factor added to
// its col2 coefficient, col1's own entry removed, and a*offset moved to the
// other side of its RHS/LHS. The same fold is applied to the objective.
func (a *Applier[R]) eliminateReplacedColumn(col1, col2 int, factor, offset R) {
	p := a.problem
	var zero R

	support := p.Col(col1)
	rows := append([]int(nil), support.Indices...)
	coeffs := append([]R(nil), support.Values...)
	for i, r := range rows {
		a1 := coeffs[i]
		cur2 := a.coeffAt(r, col2)
		p.ChangeMatrixEntry(r, col2, cur2.Add(a1.Mul(factor)))
		p.ChangeMatrixEntry(r, col1, zero)
		rv := p.Row(r)
		if rv.Flags&RowRhsInf == 0 {
			p.SetRowRhs(r, rv.Rhs.Sub(a1.Mul(offset)))
		}
		if rv.Flags&RowLhsInf == 0 {
			p.SetRowLhs(r, rv.Lhs.Sub(a1.Mul(offset)))
		}
	}

	if objCoeff := p.obj[col1]; !a.num.IsZero(objCoeff) {
		p.obj[col2] = p.obj[col2].Add(objCoeff.Mul(factor))
		p.obj[col1] = zero
	}

	p.MarkColDeleted(col1)
}

func (a *Applier[R]) coeffAt(row, col int) R {
	view := a.problem.Row(row)
	for i, idx := range view.Indices {
		if idx == col {
			return view.Values[i]
		}
	}
	var zero R
	return zero
}

func (a *Applier[R]) snapshotRow(r int) RowSnapshot[R] {
	v := a.problem.Row(r)
	idx := append([]int(nil), v.Indices...)
	val := append([]R(nil), v.Values...)
	return RowSnapshot[R]{Indices: idx, Values: val, Lhs: v.Lhs, Rhs: v.Rhs, Flags: v.Flags}
}

func (a *Applier[R]) snapshotCol(c int) ColSnapshot[R] {
	v := a.problem.Col(c)
	idx := append([]int(nil), v.Indices...)
	val := append([]R(nil), v.Values...)
	return ColSnapshot[R]{Indices: idx, Values: val}
}

func (a *Applier[R]) notifyCert(err error) {
	if err != nil {
		a.log.Warnf("papilo: certificate write failed: %v", errors.Cause(err))
	}
}
