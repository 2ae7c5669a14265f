// papilorun is a thin exerciser for the papilo package, in the spirit of
// the lpo package's lporun: it builds a small built-in problem, drives it
// through a Scheduler, and prints what changed. It does not read model
// files and does not invoke an external solver -- both are out of scope.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jamesjer/papilo"
)

var (
	threads    int
	maxRounds  int
	roundTmout time.Duration
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "papilorun",
		Short: "Exercise the papilo presolve core against a built-in demo problem",
	}
	root.AddCommand(runCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the papilorun version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("papilorun 0.1.0")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Presolve the built-in demo problem and print the outcome",
		RunE:  runE,
	}
	cmd.Flags().IntVar(&threads, "threads", 1, "worker pool size")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 20, "round budget, 0 for unlimited")
	cmd.Flags().DurationVar(&roundTmout, "round-timeout", 0, "per-round wall-clock timeout, 0 for unlimited")
	return cmd
}

func runE(cmd *cobra.Command, args []string) error {
	runID := uuid.New()
	lg := log.NewStandard()
	lg.Infof("papilorun: starting run %s", runID)

	num := papilo.NewNum[papilo.F64](papilo.F64(1e-9), papilo.F64(1e-6))
	problem := buildDemoProblem(num)

	presolvers := []papilo.Presolver[papilo.F64]{
		papilo.EmptyRowPresolver[papilo.F64]{},
		papilo.FixedColPresolver[papilo.F64]{},
		papilo.RowSingletonPresolver[papilo.F64]{},
	}

	sched := papilo.NewScheduler[papilo.F64](presolvers, papilo.RunOptions{
		Threads:      threads,
		MaxRounds:    maxRounds,
		RoundTimeout: roundTmout,
		Logger:       lg,
	})

	result, err := sched.Run(context.Background(), problem, num, nil)
	if err != nil {
		return errors.Wrapf(err, "run %s failed", runID)
	}

	fmt.Printf("run %s: status=%s rounds=%d rows=%d cols=%d postsolve-entries=%d\n",
		runID, result.Status, result.Rounds, problem.NRows(), problem.NCols(), result.Postsolve.Len())
	return nil
}

// buildDemoProblem builds a tiny two-row, three-column model with an empty
// row and a row singleton, so the empty-row and row-singleton presolvers
// have something to do. x2's bounds are set equal, so the problem flags it
// fixed as they are written and the fixed-column presolver skips it. The
// objective is left at zero:
//
//	min   0
//	s.t.  2 x0          <= 10      (row singleton, tightens x0's upper bound)
//	      0 x0 + 0 x1    <= 5       (empty row, gets marked redundant)
//	0 <= x0 <= 100, 0 <= x1 <= 100, 2 <= x2 <= 2 (fixed column)
func buildDemoProblem(num papilo.Num[papilo.F64]) *papilo.Problem[papilo.F64] {
	p := papilo.NewProblem[papilo.F64](num, 2, 3)

	p.ChangeMatrixEntry(0, 0, 2)
	p.SetRowRhs(0, 10)
	p.MarkRowLhsInf(0)

	p.SetRowRhs(1, 5)
	p.MarkRowLhsInf(1)

	p.SetColUb(0, 100)
	p.SetColUb(1, 100)
	p.SetColLb(2, 2)
	p.SetColUb(2, 2)

	return p
}
