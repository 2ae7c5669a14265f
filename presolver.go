package papilo

import "context"

// TimingClass buckets presolvers by how expensive they are to run, so the
// Scheduler can run cheap presolvers to a fixed point before paying for
// more expensive ones.
type TimingClass int

const (
	Fast TimingClass = iota
	Medium
	Exhaustive
)

func (t TimingClass) String() string {
	switch t {
	case Fast:
		return "Fast"
	case Medium:
		return "Medium"
	case Exhaustive:
		return "Exhaustive"
	default:
		return "Unknown"
	}
}

// Status is the outcome a presolver (or, at the end of a run, the
// scheduler) reports.
type Status int

const (
	Unchanged Status = iota
	Reduced
	Infeasible
	Unbounded
	Aborted
)

func (s Status) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case Reduced:
		return "Reduced"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Scope optionally declares which rows/columns a presolver intends to read
// and potentially modify. A Scope with All set means "all". The Scheduler
// in this package does not read Scope; every presolver runs against the
// whole problem.
type Scope struct {
	Rows []int
	Cols []int
	All  bool
}

// AllScope is the sentinel scope meaning "no declared restriction".
func AllScope() Scope { return Scope{All: true} }

// ProblemUpdate is the handle a presolver uses to check cooperative
// cancellation and to query the round it is running in. Presolvers only
// ever see the frozen Problem snapshot (§5: "no writes happen during a
// round"); ProblemUpdate carries no mutation ability, only run metadata,
// so Execute's four-argument shape matches the source's contract without
// granting write access to the Problem itself.
type ProblemUpdate[R Scalar[R]] struct {
	round int
	ctx   context.Context
}

// Round reports the current round number, starting at 0.
func (u *ProblemUpdate[R]) Round() int { return u.round }

// Cancelled reports whether the scheduler has raised the cooperative
// cancellation flag for the current run (the round's context has been
// cancelled or its timeout elapsed), so long-running presolvers can check
// it at row/column boundaries and return Aborted promptly.
func (u *ProblemUpdate[R]) Cancelled() bool {
	return u.ctx != nil && u.ctx.Err() != nil
}

// Presolver is the capability every presolve method exposes to the
// scheduler. Execute must not mutate problem directly: it only reads the
// frozen snapshot and num, and writes into its private reductions log.
type Presolver[R Scalar[R]] interface {
	Name() string
	TimingClass() TimingClass
	Scope() Scope
	Execute(problem *Problem[R], update *ProblemUpdate[R], num Num[R], reductions *Reductions[R]) (Status, error)
}
