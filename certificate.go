package papilo

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// CertificateInterface is the capability the Applier invokes on accepted
// reductions: side changes, redundancy, coefficient changes, sparsify,
// substitution and fixings. Bound tightenings that do not fix a column,
// REPLACE, PARALLEL and IMPL_INT reductions are not reported to it, and
// Scheduler.Run calls neither Compress nor Close on it. All writes are
// serialised by virtue of being called only from the Applier's
// single-threaded section (§5); implementations need no internal locking.
type CertificateInterface[R Scalar[R]] interface {
	// Init is called once, before any row/column is touched, with the
	// starting problem, so the emitter can write its initial constraints.
	Init(problem *Problem[R]) error

	ChangeRHS(row int, newval R) error
	ChangeLHS(row int, newval R) error
	ChangeRHSInf(row int) error
	ChangeLHSInf(row int) error
	MarkRowRedundant(row int) error

	// UpdateRow is notified after row's coefficients change for reasons
	// other than Sparsify; the Applier calls it for plain coefficient
	// changes. Rows rewritten by a substitution are covered only by the
	// single Substitute notification.
	UpdateRow(row int, problem *Problem[R]) error

	// Sparsify is notified that row had scale*eqRow subtracted from it.
	Sparsify(eqRow, row int, scale R, problem *Problem[R]) error

	// Substitute is notified that col was eliminated using eqRow.
	Substitute(col, eqRow int, problem *Problem[R]) error

	FixedCol(col int, value R) error

	// Compress is notified after the problem's own Compress, so the
	// emitter can rewrite its per-row id maps identically.
	Compress(rowMap, colMap []int) error

	Close() error
}

// NoopCertificate discards every event. It is the default when the caller
// does not want a proof stream.
type NoopCertificate[R Scalar[R]] struct{}

func (NoopCertificate[R]) Init(*Problem[R]) error                              { return nil }
func (NoopCertificate[R]) ChangeRHS(int, R) error                              { return nil }
func (NoopCertificate[R]) ChangeLHS(int, R) error                              { return nil }
func (NoopCertificate[R]) ChangeRHSInf(int) error                              { return nil }
func (NoopCertificate[R]) ChangeLHSInf(int) error                              { return nil }
func (NoopCertificate[R]) MarkRowRedundant(int) error                          { return nil }
func (NoopCertificate[R]) UpdateRow(int, *Problem[R]) error                    { return nil }
func (NoopCertificate[R]) Sparsify(int, int, R, *Problem[R]) error             { return nil }
func (NoopCertificate[R]) Substitute(int, int, *Problem[R]) error              { return nil }
func (NoopCertificate[R]) FixedCol(int, R) error                              { return nil }
func (NoopCertificate[R]) Compress([]int, []int) error                        { return nil }
func (NoopCertificate[R]) Close() error                                       { return nil }

// rowIDPair holds the pseudo-Boolean constraint ids for the left- and
// right-hand side of one row, since the proof format supports only
// one-sided inequalities and a two-sided row maps to two constraints.
// An id of 0 means "absent" (that side is infinite).
type rowIDPair struct {
	lhsID, rhsID uint64
}

// VeriPBCertificate writes a pseudo-Boolean proof stream, grounded on
// _examples/original_source/src/papilo/verification/VeriPb.hpp. Unlike
// that source, it prints the variable name of the term actually being
// emitted rather than a fixed column's name in every branch (the bug
// flagged in the design notes is not replicated here).
type VeriPBCertificate[R Scalar[R]] struct {
	w         io.Writer
	names     []string
	rowIDs    []rowIDPair
	nextID    uint64
	precision int
}

// NewVeriPBCertificate returns a certificate writing to w, with one
// variable name per column (in column order).
func NewVeriPBCertificate[R Scalar[R]](w io.Writer, names []string) *VeriPBCertificate[R] {
	return &VeriPBCertificate[R]{w: w, names: names}
}

func (c *VeriPBCertificate[R]) varName(col int) string {
	if col >= 0 && col < len(c.names) {
		return c.names[col]
	}
	return fmt.Sprintf("x%d", col)
}

func (c *VeriPBCertificate[R]) alloc() uint64 {
	c.nextID++
	return c.nextID
}

func (c *VeriPBCertificate[R]) writeln(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(c.w, format+"\n", args...)
	return errors.Wrap(err, "veripb: write failed")
}

// Init writes the format header and one or two initial constraints per row
// (one per finite side).
func (c *VeriPBCertificate[R]) Init(problem *Problem[R]) error {
	c.rowIDs = make([]rowIDPair, problem.NRows())
	if err := c.writeln("pseudo-Boolean proof version 1.2"); err != nil {
		return err
	}
	if err := c.writeln("f %d", problem.NRows()); err != nil {
		return err
	}
	for r := 0; r < problem.NRows(); r++ {
		row := problem.Row(r)
		if row.Flags&RowRhsInf == 0 {
			id := c.alloc()
			c.rowIDs[r].rhsID = id
			if err := c.writeRowTerms(row, id, row.Rhs, "<="); err != nil {
				return err
			}
		}
		if row.Flags&RowLhsInf == 0 {
			id := c.alloc()
			c.rowIDs[r].lhsID = id
			if err := c.writeRowTerms(row, id, row.Lhs, ">="); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *VeriPBCertificate[R]) writeRowTerms(row RowView[R], id uint64, side R, rel string) error {
	terms := make([]string, len(row.Indices))
	for i, idx := range row.Indices {
		terms[i] = fmt.Sprintf("%s %s", formatScalar(row.Values[i]), c.varName(idx))
	}
	return c.writeln("o %d %s %s %s ; %d", id, join(terms), rel, formatScalar(side), id)
}

func formatScalar[R Scalar[R]](v R) string {
	if s, ok := any(v).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v.Float64())
}

func join(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

func (c *VeriPBCertificate[R]) ChangeRHS(row int, newval R) error {
	old := c.rowIDs[row].rhsID
	id := c.alloc()
	c.rowIDs[row].rhsID = id
	if err := c.writeln("rup %d ; %d", id, id); err != nil {
		return err
	}
	if old != 0 {
		return c.writeln("del id %d", old)
	}
	return nil
}

func (c *VeriPBCertificate[R]) ChangeLHS(row int, newval R) error {
	old := c.rowIDs[row].lhsID
	id := c.alloc()
	c.rowIDs[row].lhsID = id
	if err := c.writeln("rup %d ; %d", id, id); err != nil {
		return err
	}
	if old != 0 {
		return c.writeln("del id %d", old)
	}
	return nil
}

func (c *VeriPBCertificate[R]) ChangeRHSInf(row int) error {
	old := c.rowIDs[row].rhsID
	c.rowIDs[row].rhsID = 0
	if old != 0 {
		return c.writeln("del id %d", old)
	}
	return nil
}

func (c *VeriPBCertificate[R]) ChangeLHSInf(row int) error {
	old := c.rowIDs[row].lhsID
	c.rowIDs[row].lhsID = 0
	if old != 0 {
		return c.writeln("del id %d", old)
	}
	return nil
}

func (c *VeriPBCertificate[R]) MarkRowRedundant(row int) error {
	ids := c.rowIDs[row]
	c.rowIDs[row] = rowIDPair{}
	if ids.rhsID != 0 {
		if err := c.writeln("del id %d", ids.rhsID); err != nil {
			return err
		}
	}
	if ids.lhsID != 0 {
		return c.writeln("del id %d", ids.lhsID)
	}
	return nil
}

// UpdateRow re-derives row's constraint(s) from the current problem state
// after its coefficients changed, printing every term that is actually
// present in the row -- not a single fixed column's name repeated, which
// is the bug the source's update_row exhibits.
func (c *VeriPBCertificate[R]) UpdateRow(row int, problem *Problem[R]) error {
	view := problem.Row(row)
	if c.rowIDs[row].rhsID != 0 {
		old := c.rowIDs[row].rhsID
		id := c.alloc()
		c.rowIDs[row].rhsID = id
		if err := c.writeRowTerms(view, id, view.Rhs, "<="); err != nil {
			return err
		}
		if err := c.writeln("del id %d", old); err != nil {
			return err
		}
	}
	if c.rowIDs[row].lhsID != 0 {
		old := c.rowIDs[row].lhsID
		id := c.alloc()
		c.rowIDs[row].lhsID = id
		if err := c.writeRowTerms(view, id, view.Lhs, ">="); err != nil {
			return err
		}
		if err := c.writeln("del id %d", old); err != nil {
			return err
		}
	}
	return nil
}

// Sparsify emits a pol line combining eqRow's and row's ids (scaled by
// scale), then deletes row's prior id(s), matching scenario 4's expected
// shape.
func (c *VeriPBCertificate[R]) Sparsify(eqRow, row int, scale R, problem *Problem[R]) error {
	eq := c.rowIDs[eqRow]
	old := c.rowIDs[row]
	if old.rhsID != 0 && eq.rhsID != 0 {
		if err := c.writeln("pol %d %s %d", old.rhsID, formatScalar(scale), eq.rhsID); err != nil {
			return err
		}
	}
	if old.lhsID != 0 && eq.lhsID != 0 {
		if err := c.writeln("pol %d %s %d", old.lhsID, formatScalar(scale), eq.lhsID); err != nil {
			return err
		}
	}
	// UpdateRow re-derives row's constraint(s) from the problem's new,
	// already-sparsified coefficients and deletes the ids just referenced
	// above by the pol lines.
	return c.UpdateRow(row, problem)
}

func (c *VeriPBCertificate[R]) Substitute(col, eqRow int, problem *Problem[R]) error {
	eqView := problem.Row(eqRow)
	terms := make([]string, len(eqView.Indices))
	for i, idx := range eqView.Indices {
		terms[i] = fmt.Sprintf("%s %s", formatScalar(eqView.Values[i]), c.varName(idx))
	}
	return c.writeln("pol %s ; substitute %s", join(terms), c.varName(col))
}

func (c *VeriPBCertificate[R]) FixedCol(col int, value R) error {
	return c.writeln("red %s = %s ; fixed", c.varName(col), formatScalar(value))
}

func (c *VeriPBCertificate[R]) Compress(rowMap, colMap []int) error {
	newIDs := make([]rowIDPair, 0, len(rowMap))
	for r, nw := range rowMap {
		if nw < 0 {
			continue
		}
		newIDs = append(newIDs, c.rowIDs[r])
	}
	c.rowIDs = newIDs
	return nil
}

func (c *VeriPBCertificate[R]) Close() error {
	return c.writeln("c presolve complete")
}
