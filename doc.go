// 01   Aug.  3, 2026   Reworked from the lpo presolver into a standalone core

/*
Package papilo provides a parallel presolve engine for linear and
mixed-integer linear models. It is intended for two sets of users: (i)
researchers composing their own presolve algorithms against a small,
well-defined contract, and (ii) callers who just want to shrink a model
before handing it to a solver they already have.

The package is organized around six collaborators:

	- Problem       the sparse row/column matrix, bounds and flags (problem.go)
	- Reductions    the per-presolver log of typed reduction records (reductions.go)
	- Presolver     the interface a presolve algorithm implements (presolver.go)
	- Scheduler     the round loop that runs presolvers in parallel (scheduler.go)
	- Applier       the single-threaded component that validates and
	                commits a round's reductions (applier.go)
	- PostsolveTrace / CertificateInterface
	                the reverse-replay ledger and optional proof stream
	                (postsolve.go, certificate.go)

Unlike the package this one grew out of, papilo does not read model files
and does not drive an external solver -- it presolves whatever Problem the
caller builds and hands back a (possibly much smaller) Problem plus a trace
that can translate a solution on the reduced problem back onto the
original one. Solving the reduced problem, and the specific catalog of
presolve algorithms (singleton removal, dominated-column detection,
coefficient tightening, and so on), are left to the caller; this package
ships a small number of illustrative Presolver implementations
(presolvers.go) rather than a complete algorithm catalog.

Numeric representation

papilo is generic over the real number type via the Scalar interface: two
instantiations ship out of the box, F64 (plain float64) and Rat (exact
rational arithmetic over math/big.Rat). Num wraps a Scalar type with the
tolerance-aware predicates (IsZero, IsEq, IsIntegral, IsFeasLE, IsFeasGE)
every presolver and the Applier need.

Concurrency

A Scheduler dispatches a round's active presolvers (filtered by
TimingClass) across a bounded worker pool via RunOptions.Threads, then
hands their logs to a single Applier in presolver-identity order --
running with Threads=1 is guaranteed to produce the same result as running
with any Threads=k.

Running a presolve

	problem := papilo.NewProblem[papilo.F64](num, nrows, ncols)
	// ... fill in the matrix, bounds and objective via problem's write
	// contract ...

	sched := papilo.NewScheduler[papilo.F64](presolvers, papilo.RunOptions{
		Threads: 4,
	})
	result, err := sched.Run(context.Background(), problem, num, nil)

The returned RunResult carries the final Status, the postsolve trace to
replay a reduced-problem solution back onto the original indices, and the
old-to-new index maps produced by the final compress.

The executable in cmd/papilorun illustrates the above against a small
built-in demo problem.
*/
package papilo
