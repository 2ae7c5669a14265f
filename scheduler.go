package papilo

import (
	"context"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RunOptions controls a single Scheduler.Run call, in the spirit of the
// teacher's PsCtrl: plain fields the caller sets before the run rather than
// a config file format (out of scope).
type RunOptions struct {
	// Threads bounds the worker pool. 1 disables parallelism; Run with
	// Threads=1 must produce bit-identical results to Run with
	// Threads=k>1 on the same input.
	Threads int

	// MaxRounds is the round budget. 0 means unlimited.
	MaxRounds int

	// RoundTimeout bounds a single round's wall-clock time. 0 means
	// unlimited.
	RoundTimeout time.Duration

	// WallClockBudget bounds the whole run. 0 means unlimited.
	WallClockBudget time.Duration

	// Logger receives round-boundary and accept/reject log lines. A nil
	// Logger uses log.NewStandard().
	Logger log.Logger
}

func (o RunOptions) logger() log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.NewStandard()
}

func (o RunOptions) threads() int {
	if o.Threads <= 0 {
		return 1
	}
	return o.Threads
}

// Scheduler runs a fixed set of presolvers against a Problem in rounds,
// dispatching each round's presolvers in parallel and handing their logs
// to an Applier in deterministic, presolver-identity order.
type Scheduler[R Scalar[R]] struct {
	presolvers []Presolver[R]
	opts       RunOptions
}

// NewScheduler builds a Scheduler over the given presolver set.
func NewScheduler[R Scalar[R]](presolvers []Presolver[R], opts RunOptions) *Scheduler[R] {
	return &Scheduler[R]{presolvers: presolvers, opts: opts}
}

// RunResult is everything a caller needs after a Run: the final status,
// the number of rounds run, the postsolve trace to replay, and the
// old-to-new index maps produced by the final Compress. The problem itself
// is not part of the result; Run compresses the caller's Problem in place.
type RunResult[R Scalar[R]] struct {
	Status   Status
	Rounds   int
	Postsolve *PostsolveTrace[R]
	RowMap, ColMap []int
}

// Run drives the round loop described in §4.4 to completion, a round
// budget, a wall-clock budget, or a terminal status, whichever comes
// first. cert may be nil, in which case a no-op certificate is used.
func (s *Scheduler[R]) Run(ctx context.Context, problem *Problem[R], num Num[R], cert CertificateInterface[R]) (RunResult[R], error) {
	if cert == nil {
		cert = NoopCertificate[R]{}
	}
	lg := s.opts.logger()
	applier := NewApplier(problem, num, cert, lg)
	trace := NewPostsolveTrace[R]()

	deadline := time.Time{}
	if s.opts.WallClockBudget > 0 {
		deadline = time.Now().Add(s.opts.WallClockBudget)
	}

	activeClass := Fast
	round := 0
	for {
		if s.opts.MaxRounds > 0 && round >= s.opts.MaxRounds {
			lg.Infof("papilo: round budget %d exhausted, aborting", s.opts.MaxRounds)
			return s.finish(problem, trace, Aborted, round), nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			lg.Infof("papilo: wall-clock budget exhausted, aborting")
			return s.finish(problem, trace, Aborted, round), nil
		}

		roundCtx := ctx
		var cancel context.CancelFunc
		if s.opts.RoundTimeout > 0 {
			roundCtx, cancel = context.WithTimeout(ctx, s.opts.RoundTimeout)
		} else {
			roundCtx, cancel = context.WithCancel(ctx)
		}

		active := make([]Presolver[R], 0, len(s.presolvers))
		for _, p := range s.presolvers {
			if p.TimingClass() <= activeClass {
				active = append(active, p)
			}
		}

		logs := make([]*Reductions[R], len(active))
		statuses := make([]Status, len(active))
		errs := make([]error, len(active))

		g, gctx := errgroup.WithContext(roundCtx)
		g.SetLimit(s.opts.threads())
		for i, p := range active {
			i, p := i, p
			g.Go(func() error {
				rl := NewReductions[R]()
				update := &ProblemUpdate[R]{round: round, ctx: gctx}
				st, err := p.Execute(problem, update, num, rl)
				logs[i] = rl
				statuses[i] = st
				errs[i] = err
				return nil // presolver errors are carried per-slot, not failed group-wide
			})
		}
		_ = g.Wait()
		cancel()

		for i, p := range active {
			if errs[i] != nil {
				return RunResult[R]{}, errors.Wrapf(errs[i], "presolver %q failed", p.Name())
			}
			switch statuses[i] {
			case Infeasible, Unbounded:
				lg.Infof("papilo: presolver %q reported %s, terminating", p.Name(), statuses[i])
				return s.finish(problem, trace, statuses[i], round), nil
			}
		}

		names := make([]string, len(active))
		for i, p := range active {
			names[i] = p.Name()
		}
		accepted, rejected := applier.ApplyRound(names, logs, trace)
		lg.Debugf("papilo: round %d: %d transactions accepted, %d rejected", round, accepted, rejected)

		round++

		if applier.Infeasible() {
			lg.Infof("papilo: applier detected a bound crossing beyond tolerance, terminating")
			return s.finish(problem, trace, Infeasible, round), nil
		}

		if accepted == 0 {
			if activeClass == Exhaustive {
				return s.finish(problem, trace, Unchanged, round), nil
			}
			activeClass++
			continue
		}
		activeClass = Fast
	}
}

func (s *Scheduler[R]) finish(problem *Problem[R], trace *PostsolveTrace[R], status Status, rounds int) RunResult[R] {
	rowMap, colMap := problem.Compress()
	trace.Remap(rowMap, colMap)
	return RunResult[R]{Status: status, Rounds: rounds, Postsolve: trace, RowMap: rowMap, ColMap: colMap}
}
