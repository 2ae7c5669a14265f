package papilo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyRowPresolverMarksEmptyRowsRedundant(t *testing.T) {
	num := testNum()
	p := NewProblem[F64](num, 2, 1)
	p.ChangeMatrixEntry(0, 0, 1)
	p.SetRowRhs(0, 10)
	p.MarkRowLhsInf(0)
	p.SetRowRhs(1, 5)
	p.MarkRowLhsInf(1)

	rl := NewReductions[F64]()
	status, err := EmptyRowPresolver[F64]{}.Execute(p, &ProblemUpdate[F64]{}, num, rl)
	require.NoError(t, err)
	assert.Equal(t, Reduced, status)
	require.Len(t, rl.Transactions(), 1)
}

func TestFixedColPresolverFixesColumnsWithNearEqualBounds(t *testing.T) {
	num := testNum()
	p := NewProblem[F64](num, 1, 1)
	p.ChangeMatrixEntry(0, 0, 1)
	p.SetRowRhs(0, 10)
	p.MarkRowLhsInf(0)
	// Written directly: SetColLb/SetColUb would already flag the column
	// ColFixed, and the presolver skips columns flagged that way.
	p.lb[0] = 3
	p.ub[0] = F64(3.0000000001)

	rl := NewReductions[F64]()
	status, err := FixedColPresolver[F64]{}.Execute(p, &ProblemUpdate[F64]{}, num, rl)
	require.NoError(t, err)
	assert.Equal(t, Reduced, status)
}

func TestRowSingletonPresolverTightensImpliedBound(t *testing.T) {
	num := testNum()
	p := NewProblem[F64](num, 1, 1)
	p.ChangeMatrixEntry(0, 0, 2)
	p.SetRowRhs(0, 10)
	p.MarkRowLhsInf(0)
	p.SetColUb(0, 100)

	rl := NewReductions[F64]()
	status, err := RowSingletonPresolver[F64]{}.Execute(p, &ProblemUpdate[F64]{}, num, rl)
	require.NoError(t, err)
	assert.Equal(t, Reduced, status)

	var sawUpperBound bool
	for _, e := range rl.Entries() {
		if e.Row == opColUpperBound && e.Col == 0 {
			sawUpperBound = true
			assert.Equal(t, F64(5), e.NewVal)
		}
	}
	assert.True(t, sawUpperBound)
}

func TestPresolverExecuteHonoursCancellation(t *testing.T) {
	num := testNum()
	p := NewProblem[F64](num, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	update := &ProblemUpdate[F64]{ctx: ctx}

	status, err := EmptyRowPresolver[F64]{}.Execute(p, update, num, NewReductions[F64]())
	require.NoError(t, err)
	assert.Equal(t, Aborted, status)
}
