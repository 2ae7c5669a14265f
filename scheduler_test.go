package papilo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSchedulerDemoProblem() (*Problem[F64], Num[F64]) {
	num := testNum()
	p := NewProblem[F64](num, 2, 3)
	p.ChangeMatrixEntry(0, 0, 2)
	p.SetRowRhs(0, 10)
	p.MarkRowLhsInf(0)
	p.SetRowRhs(1, 5)
	p.MarkRowLhsInf(1)
	p.SetColUb(0, 100)
	p.SetColUb(1, 100)
	p.SetColLb(2, 2)
	p.SetColUb(2, 2)
	return p, num
}

func demoPresolvers() []Presolver[F64] {
	return []Presolver[F64]{
		EmptyRowPresolver[F64]{},
		FixedColPresolver[F64]{},
		RowSingletonPresolver[F64]{},
	}
}

func TestSchedulerRunReachesUnchangedFixedPoint(t *testing.T) {
	p, num := buildSchedulerDemoProblem()
	sched := NewScheduler[F64](demoPresolvers(), RunOptions{Threads: 1})

	result, err := sched.Run(context.Background(), p, num, nil)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, result.Status)
	assert.Greater(t, result.Rounds, 0)
	assert.NotZero(t, p.Row(1).Flags&RowRedundant, "the empty row should have been marked redundant")
}

func TestSchedulerRunIsBitIdenticalAcrossThreadCounts(t *testing.T) {
	p1, num1 := buildSchedulerDemoProblem()
	p2, num2 := buildSchedulerDemoProblem()

	serial := NewScheduler[F64](demoPresolvers(), RunOptions{Threads: 1})
	parallel := NewScheduler[F64](demoPresolvers(), RunOptions{Threads: 4})

	r1, err1 := serial.Run(context.Background(), p1, num1, nil)
	require.NoError(t, err1)
	r2, err2 := parallel.Run(context.Background(), p2, num2, nil)
	require.NoError(t, err2)

	assert.Equal(t, r1.Status, r2.Status)
	assert.Equal(t, r1.Rounds, r2.Rounds)
	assert.Equal(t, p1.NRows(), p2.NRows())
	assert.Equal(t, p1.NCols(), p2.NCols())
	assert.Equal(t, r1.Postsolve.Len(), r2.Postsolve.Len())
}

func TestSchedulerRunAbortsOnRoundBudget(t *testing.T) {
	p, num := buildSchedulerDemoProblem()
	sched := NewScheduler[F64](demoPresolvers(), RunOptions{Threads: 1, MaxRounds: 1})

	result, err := sched.Run(context.Background(), p, num, nil)
	require.NoError(t, err)
	assert.Equal(t, Aborted, result.Status)
	assert.Equal(t, 1, result.Rounds)
}
