package papilo

import "github.com/pkg/errors"

// Structural-misuse errors. These are programmer errors per the error
// handling design: they terminate the run fatally rather than being
// reported as a rejected transaction.
var (
	ErrNestedTransaction = errors.New("reductions: transaction already open")
	ErrEmptyTransaction   = errors.New("reductions: no entries appended before end")
	ErrLocksMustPrecede   = errors.New("reductions: lock emitted after a non-lock entry")
	ErrNoOpenTransaction  = errors.New("reductions: no transaction is open")
)

// row-level operation sentinels, carried in the Col field of a Reduction
// when Row >= 0.
const (
	opRowRHS           = -1
	opRowLHS           = -2
	opRowRHSInf        = -3
	opRowLHSInf        = -4
	opRowRedundant     = -5
	opRowLocked        = -6
	opRowLockedStrong  = -7
	opRowSparsify      = -8
	opRowSparsifyEntry = -9
)

// column-level operation sentinels, carried in the Row field of a Reduction
// when Col >= 0.
const (
	opColLowerBound    = -1
	opColUpperBound    = -2
	opColFixed         = -3
	opColFixedInfinity = -4
	opColLocked        = -5
	opColLockedStrong  = -6
	opColBoundsLocked  = -7
	opColSubstitute    = -8
	opColSubstituteObj = -9
	opColReplace       = -10
	opColReplaceAux    = -11
	opColParallel      = -12
	opColImplInt       = -13
)

// Reduction is one entry of a presolver's log: a new value together with a
// (row, col) pair whose signs/sentinels select the operation, per the wire
// grammar in §6.
type Reduction[R Scalar[R]] struct {
	NewVal R
	Row    int
	Col    int
}

// IsMatrixEntry reports whether this reduction is a plain coefficient
// change rather than a row- or column-level operation.
func (rd Reduction[R]) IsMatrixEntry() bool { return rd.Row >= 0 && rd.Col >= 0 }

// Transaction delimits a contiguous run of the log, plus the length of its
// leading lock prefix. The log never fills NAddCoeffs, since it does not
// know whether a coefficient write introduces a new nonzero, and the
// Applier does not read it.
type Transaction struct {
	Start, End int
	NLocks     int
	NAddCoeffs int
}

// Len reports how many entries, locks included, the transaction spans.
func (t Transaction) Len() int { return t.End - t.Start }

// Reductions is a per-presolver append-only log of typed reduction records
// grouped into transactions. A presolver owns exactly one Reductions value
// for the duration of its Execute call; it is never shared or read by
// another presolver in the same round.
type Reductions[R Scalar[R]] struct {
	entries      []Reduction[R]
	transactions []Transaction

	open         bool
	openStart    int
	openLocks    int
	sawNonLock   bool
}

// NewReductions returns an empty log.
func NewReductions[R Scalar[R]]() *Reductions[R] {
	return &Reductions[R]{}
}

// Len reports the number of entries appended so far.
func (rl *Reductions[R]) Len() int { return len(rl.entries) }

// Entries returns the full, read-only entry slice in emission order.
func (rl *Reductions[R]) Entries() []Reduction[R] { return rl.entries }

// Transactions returns the read-only list of transactions emitted so far,
// in emission order.
func (rl *Reductions[R]) Transactions() []Transaction { return rl.transactions }

// Clear empties the log, ready for reuse in the next round.
func (rl *Reductions[R]) Clear() {
	rl.entries = rl.entries[:0]
	rl.transactions = rl.transactions[:0]
	rl.open = false
	rl.openStart = 0
	rl.openLocks = 0
	rl.sawNonLock = false
}

// StartTransaction opens a new transaction. It fails with
// ErrNestedTransaction if one is already open.
func (rl *Reductions[R]) StartTransaction() error {
	if rl.open {
		return ErrNestedTransaction
	}
	rl.open = true
	rl.openStart = len(rl.entries)
	rl.openLocks = 0
	rl.sawNonLock = false
	return nil
}

// EndTransaction closes the open transaction. It fails with
// ErrEmptyTransaction if nothing was appended since StartTransaction.
func (rl *Reductions[R]) EndTransaction() error {
	if !rl.open {
		return ErrNoOpenTransaction
	}
	if len(rl.entries) == rl.openStart {
		return ErrEmptyTransaction
	}
	rl.transactions = append(rl.transactions, Transaction{
		Start:  rl.openStart,
		End:    len(rl.entries),
		NLocks: rl.openLocks,
	})
	rl.open = false
	return nil
}

// WithTransaction opens a transaction, runs fn, and closes the transaction
// on every exit path (including panics), mirroring the source's
// TransactionGuard RAII helper with Go's defer idiom.
func (rl *Reductions[R]) WithTransaction(fn func() error) (err error) {
	if err = rl.StartTransaction(); err != nil {
		return err
	}
	defer func() {
		if cerr := rl.EndTransaction(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn()
}

// appendLock appends a lock entry to the open transaction, auto-opening an
// implicit one-entry transaction if none is open. Locks may not follow a
// non-lock entry within the same transaction.
func (rl *Reductions[R]) appendLock(rd Reduction[R]) error {
	implicit := !rl.open
	if implicit {
		if err := rl.StartTransaction(); err != nil {
			return err
		}
	} else if rl.sawNonLock {
		return ErrLocksMustPrecede
	}
	rl.entries = append(rl.entries, rd)
	rl.openLocks++
	if implicit {
		return rl.EndTransaction()
	}
	return nil
}

// appendEntry appends a non-lock entry, auto-opening an implicit
// one-entry transaction if none is open.
func (rl *Reductions[R]) appendEntry(rd Reduction[R]) error {
	implicit := !rl.open
	if implicit {
		if err := rl.StartTransaction(); err != nil {
			return err
		}
	}
	rl.entries = append(rl.entries, rd)
	rl.sawNonLock = true
	if implicit {
		return rl.EndTransaction()
	}
	return nil
}

// --- row-level emitters ---

// RowRHS emits a new right-hand side for row.
func (rl *Reductions[R]) RowRHS(row int, newrhs R) error {
	return rl.appendEntry(Reduction[R]{Row: row, Col: opRowRHS, NewVal: newrhs})
}

// RowLHS emits a new left-hand side for row.
func (rl *Reductions[R]) RowLHS(row int, newlhs R) error {
	return rl.appendEntry(Reduction[R]{Row: row, Col: opRowLHS, NewVal: newlhs})
}

// RowRHSInf marks row's right-hand side as infinite.
func (rl *Reductions[R]) RowRHSInf(row int) error {
	var zero R
	return rl.appendEntry(Reduction[R]{Row: row, Col: opRowRHSInf, NewVal: zero})
}

// RowLHSInf marks row's left-hand side as infinite.
func (rl *Reductions[R]) RowLHSInf(row int) error {
	var zero R
	return rl.appendEntry(Reduction[R]{Row: row, Col: opRowLHSInf, NewVal: zero})
}

// RowRedundant marks row as no longer constraining.
func (rl *Reductions[R]) RowRedundant(row int) error {
	var zero R
	return rl.appendEntry(Reduction[R]{Row: row, Col: opRowRedundant, NewVal: zero})
}

// LockRow appends a normal row lock to the open transaction's prefix.
func (rl *Reductions[R]) LockRow(row int) error {
	var zero R
	return rl.appendLock(Reduction[R]{Row: row, Col: opRowLocked, NewVal: zero})
}

// LockRowStrong appends a strong row lock to the open transaction's prefix.
func (rl *Reductions[R]) LockRowStrong(row int) error {
	var zero R
	return rl.appendLock(Reduction[R]{Row: row, Col: opRowLockedStrong, NewVal: zero})
}

// SparsifyEntry is one (row, scale) pair of a Sparsify call: the applier
// subtracts scale*eqRow from row.
type SparsifyEntry[R Scalar[R]] struct {
	Row   int
	Scale R
}

// Sparsify emits a sparsify group: a header record naming the equality row
// and the number of following entries, then one record per entry. It is a
// multi-record operation and opens its own explicit transaction.
func (rl *Reductions[R]) Sparsify(eqRow int, entries []SparsifyEntry[R]) error {
	return rl.WithTransaction(func() error {
		if err := rl.appendEntry(Reduction[R]{Row: eqRow, Col: opRowSparsify, NewVal: intToR[R](len(entries))}); err != nil {
			return err
		}
		for _, e := range entries {
			if err := rl.appendEntry(Reduction[R]{Row: e.Row, Col: opRowSparsifyEntry, NewVal: e.Scale}); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- column-level emitters ---

// LowerBound emits a tightened lower bound for col.
func (rl *Reductions[R]) LowerBound(col int, v R) error {
	return rl.appendEntry(Reduction[R]{Row: opColLowerBound, Col: col, NewVal: v})
}

// UpperBound emits a tightened upper bound for col.
func (rl *Reductions[R]) UpperBound(col int, v R) error {
	return rl.appendEntry(Reduction[R]{Row: opColUpperBound, Col: col, NewVal: v})
}

// FixedCol emits a fixation of col to v.
func (rl *Reductions[R]) FixedCol(col int, v R) error {
	return rl.appendEntry(Reduction[R]{Row: opColFixed, Col: col, NewVal: v})
}

// FixedInfinity emits a fixation of col at +/-infinity (sign > 0 for +inf,
// sign < 0 for -inf), after first marking every row in incidentRows
// redundant in the same transaction and outside the lock prefix, per the
// fixed grammar rule: the redundancy records are transaction body entries,
// not locks.
func (rl *Reductions[R]) FixedInfinity(col int, sign int, incidentRows []int) error {
	return rl.WithTransaction(func() error {
		for _, r := range incidentRows {
			if err := rl.RowRedundant(r); err != nil {
				return err
			}
		}
		s := 1
		if sign < 0 {
			s = -1
		}
		return rl.appendEntry(Reduction[R]{Row: opColFixedInfinity, Col: col, NewVal: intToR[R](s)})
	})
}

// LockCol appends a normal column lock.
func (rl *Reductions[R]) LockCol(col int) error {
	var zero R
	return rl.appendLock(Reduction[R]{Row: opColLocked, Col: col, NewVal: zero})
}

// LockColStrong appends a strong column lock.
func (rl *Reductions[R]) LockColStrong(col int) error {
	var zero R
	return rl.appendLock(Reduction[R]{Row: opColLockedStrong, Col: col, NewVal: zero})
}

// LockColBounds appends a bounds-only column lock.
func (rl *Reductions[R]) LockColBounds(col int) error {
	var zero R
	return rl.appendLock(Reduction[R]{Row: opColBoundsLocked, Col: col, NewVal: zero})
}

// Substitute emits a free-column substitution using eqRow.
func (rl *Reductions[R]) Substitute(col, eqRow int) error {
	return rl.appendEntry(Reduction[R]{Row: opColSubstitute, Col: col, NewVal: intToR[R](eqRow)})
}

// SubstituteObj emits a substitution into the objective using eqRow.
func (rl *Reductions[R]) SubstituteObj(col, eqRow int) error {
	return rl.appendEntry(Reduction[R]{Row: opColSubstituteObj, Col: col, NewVal: intToR[R](eqRow)})
}

// Replace emits an affine replacement col1 = factor*col2 + offset as two
// records. When a transaction is already open (for instance one whose lock
// prefix holds the columns), both records join it; otherwise Replace opens
// and closes its own two-record transaction.
func (rl *Reductions[R]) Replace(col1, col2 int, factor, offset R) error {
	emit := func() error {
		if err := rl.appendEntry(Reduction[R]{Row: opColReplace, Col: col1, NewVal: factor}); err != nil {
			return err
		}
		return rl.appendEntry(Reduction[R]{Row: opColReplaceAux, Col: col2, NewVal: offset})
	}
	if rl.open {
		return emit()
	}
	return rl.WithTransaction(emit)
}

// ParallelCols emits a parallel-columns aggregation of col2 into col1.
func (rl *Reductions[R]) ParallelCols(col1, col2 int) error {
	return rl.appendEntry(Reduction[R]{Row: opColParallel, Col: col1, NewVal: intToR[R](col2)})
}

// ImplInt marks col implied-integer.
func (rl *Reductions[R]) ImplInt(col int) error {
	var zero R
	return rl.appendEntry(Reduction[R]{Row: opColImplInt, Col: col, NewVal: zero})
}

// MatrixEntry emits a plain coefficient change; v == 0 deletes it.
func (rl *Reductions[R]) MatrixEntry(row, col int, v R) error {
	return rl.appendEntry(Reduction[R]{Row: row, Col: col, NewVal: v})
}

// intToR packs a small integer index into an R value, the same way the
// source repurposes the templated REAL field to carry row/column ids for
// SUBSTITUTE, PARALLEL and the sparsify header.
func intToR[R Scalar[R]](i int) R {
	var zero R
	return zero.FromFloat64(float64(i))
}

// rToInt unpacks a value previously packed with intToR.
func rToInt[R Scalar[R]](v R) int {
	return int(v.Float64())
}
