package papilo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestProblem() *Problem[F64] {
	num := testNum()
	p := NewProblem[F64](num, 2, 3)
	p.ChangeMatrixEntry(0, 0, 1)
	p.ChangeMatrixEntry(0, 1, 2)
	p.ChangeMatrixEntry(1, 1, 3)
	p.ChangeMatrixEntry(1, 2, 4)
	p.SetRowRhs(0, 10)
	p.MarkRowLhsInf(0)
	p.SetRowRhs(1, 20)
	p.MarkRowLhsInf(1)
	p.SetColUb(0, 5)
	p.SetColUb(1, 5)
	p.SetColUb(2, 5)
	return p
}

func TestProblemRowAndColViewsAreConsistent(t *testing.T) {
	p := buildTestProblem()
	row0 := p.Row(0)
	require.Equal(t, []int{0, 1}, row0.Indices)
	require.Equal(t, []F64{1, 2}, row0.Values)

	col1 := p.Col(1)
	require.Equal(t, []int{0, 1}, col1.Indices)
	require.Equal(t, []F64{2, 3}, col1.Values)
}

func TestChangeMatrixEntryDeletesOnZero(t *testing.T) {
	p := buildTestProblem()
	p.ChangeMatrixEntry(0, 1, 0)
	row0 := p.Row(0)
	assert.Equal(t, []int{0}, row0.Indices)
	col1 := p.Col(1)
	assert.Equal(t, []int{1}, col1.Indices)
}

func TestSetColBoundsFixesColumnWithinEpsilon(t *testing.T) {
	p := buildTestProblem()
	p.SetColLb(0, 5)
	col0 := p.Col(0)
	assert.NotZero(t, col0.Flags&ColFixed)
}

func TestFixColCollapsesBothBounds(t *testing.T) {
	p := buildTestProblem()
	p.FixCol(2, 3)
	col2 := p.Col(2)
	assert.Equal(t, F64(3), col2.Lb)
	assert.Equal(t, F64(3), col2.Ub)
	assert.NotZero(t, col2.Flags&ColFixed)
}

func TestMarkRowRedundantWhenBothSidesInfinite(t *testing.T) {
	p := buildTestProblem()
	p.MarkRowRhsInf(0)
	row0 := p.Row(0)
	assert.NotZero(t, row0.Flags&RowRedundant)
}

func TestCompressRenumbersSurvivorsAndRemapsCoefficients(t *testing.T) {
	p := buildTestProblem()
	p.MarkRowDeleted(0)
	p.MarkColDeleted(0)

	rowMap, colMap := p.Compress()

	require.Equal(t, []int{-1, 0}, rowMap)
	require.Equal(t, []int{-1, 0, 1}, colMap)
	assert.Equal(t, 1, p.NRows())
	assert.Equal(t, 2, p.NCols())

	row0 := p.Row(0)
	require.Equal(t, []int{0, 1}, row0.Indices)
	require.Equal(t, []F64{3, 4}, row0.Values)
}

func TestCheckInvariantsCatchesBoundCrossing(t *testing.T) {
	p := buildTestProblem()
	require.NoError(t, p.CheckInvariants())

	p.lb[0] = 10
	p.ub[0] = 1
	assert.Error(t, p.CheckInvariants())
}
