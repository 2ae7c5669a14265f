package papilo

// This file ships a couple of illustrative Presolver implementations. They
// are deliberately simple stand-ins for the teacher's delEmptyRows /
// delFixedVars / delRowSingletons family in psf.go -- the full catalog of
// presolve algorithms is out of scope (spec.md §1); these exist so the
// Scheduler/Applier pipeline has something real to drive in cmd/papilorun
// and in the integration tests.

// EmptyRowPresolver marks every row with no nonzero coefficients as
// redundant. It never crosses a bound, so it has nothing to lock beyond the
// row itself.
type EmptyRowPresolver[R Scalar[R]] struct{}

func (EmptyRowPresolver[R]) Name() string          { return "empty-row" }
func (EmptyRowPresolver[R]) TimingClass() TimingClass { return Fast }
func (EmptyRowPresolver[R]) Scope() Scope          { return AllScope() }

func (p EmptyRowPresolver[R]) Execute(problem *Problem[R], update *ProblemUpdate[R], num Num[R], rl *Reductions[R]) (Status, error) {
	changed := false
	for r := 0; r < problem.NRows(); r++ {
		if update.Cancelled() {
			return Aborted, nil
		}
		if problem.RowDeleted(r) {
			continue
		}
		row := problem.Row(r)
		if row.Flags&RowRedundant != 0 {
			continue
		}
		if len(row.Indices) > 0 {
			continue
		}
		if err := rl.WithTransaction(func() error {
			if err := rl.LockRow(r); err != nil {
				return err
			}
			return rl.RowRedundant(r)
		}); err != nil {
			return Aborted, err
		}
		changed = true
	}
	if changed {
		return Reduced, nil
	}
	return Unchanged, nil
}

// FixedColPresolver fixes every column whose finite bounds are within
// epsilon of each other and that is not yet flagged ColFixed, collapsing the
// remaining gap onto the lower bound. SetColLb/SetColUb already flag such a
// column ColFixed as the bounds are written, so it finds work only for
// columns whose bounds were set without those setters.
// This mirrors the teacher's delFixedVars check (upper bound equals lower
// bound) generalized to an epsilon-tolerant comparison via Num.
type FixedColPresolver[R Scalar[R]] struct{}

func (FixedColPresolver[R]) Name() string            { return "fixed-col" }
func (FixedColPresolver[R]) TimingClass() TimingClass { return Fast }
func (FixedColPresolver[R]) Scope() Scope            { return AllScope() }

func (p FixedColPresolver[R]) Execute(problem *Problem[R], update *ProblemUpdate[R], num Num[R], rl *Reductions[R]) (Status, error) {
	changed := false
	for c := 0; c < problem.NCols(); c++ {
		if update.Cancelled() {
			return Aborted, nil
		}
		if problem.ColDeleted(c) {
			continue
		}
		col := problem.Col(c)
		if col.Flags&ColFixed != 0 || col.Flags&ColLbInf != 0 || col.Flags&ColUbInf != 0 {
			continue
		}
		if !num.IsEq(col.Lb, col.Ub) {
			continue
		}
		if err := rl.WithTransaction(func() error {
			if err := rl.LockColBounds(c); err != nil {
				return err
			}
			return rl.FixedCol(c, col.Lb)
		}); err != nil {
			return Aborted, err
		}
		changed = true
	}
	if changed {
		return Reduced, nil
	}
	return Unchanged, nil
}

// RowSingletonPresolver tightens a column's bound implied by a row that has
// exactly one nonzero entry, then marks the row redundant -- the teacher's
// delRowSingletons technique (psf.go), generalized to Scalar[R] and to the
// lock-then-write transaction shape the Applier requires.
type RowSingletonPresolver[R Scalar[R]] struct{}

func (RowSingletonPresolver[R]) Name() string            { return "row-singleton" }
func (RowSingletonPresolver[R]) TimingClass() TimingClass { return Medium }
func (RowSingletonPresolver[R]) Scope() Scope            { return AllScope() }

func (p RowSingletonPresolver[R]) Execute(problem *Problem[R], update *ProblemUpdate[R], num Num[R], rl *Reductions[R]) (Status, error) {
	changed := false
	for r := 0; r < problem.NRows(); r++ {
		if update.Cancelled() {
			return Aborted, nil
		}
		if problem.RowDeleted(r) {
			continue
		}
		row := problem.Row(r)
		if row.Flags&RowRedundant != 0 || len(row.Indices) != 1 {
			continue
		}
		col := row.Indices[0]
		coeff := row.Values[0]
		if num.IsZero(coeff) {
			continue
		}

		implied := func(side R) R { return side.Div(coeff) }
		var lo, hi R
		haveLo, haveHi := false, false
		if row.Flags&RowRhsInf == 0 {
			v := implied(row.Rhs)
			if coeff.Sign() > 0 {
				hi, haveHi = v, true
			} else {
				lo, haveLo = v, true
			}
		}
		if row.Flags&RowLhsInf == 0 {
			v := implied(row.Lhs)
			if coeff.Sign() > 0 {
				lo, haveLo = v, true
			} else {
				hi, haveHi = v, true
			}
		}
		if !haveLo && !haveHi {
			continue
		}
		cv := problem.Col(col)
		if haveHi && cv.Flags&ColUbInf == 0 && hi.Cmp(cv.Ub) >= 0 {
			haveHi = false
		}
		if haveLo && cv.Flags&ColLbInf == 0 && lo.Cmp(cv.Lb) <= 0 {
			haveLo = false
		}

		if err := rl.WithTransaction(func() error {
			if err := rl.LockRow(r); err != nil {
				return err
			}
			if err := rl.LockColBounds(col); err != nil {
				return err
			}
			if haveLo {
				if err := rl.LowerBound(col, lo); err != nil {
					return err
				}
			}
			if haveHi {
				if err := rl.UpperBound(col, hi); err != nil {
					return err
				}
			}
			return rl.RowRedundant(r)
		}); err != nil {
			return Aborted, err
		}
		changed = true
	}
	if changed {
		return Reduced, nil
	}
	return Unchanged, nil
}
