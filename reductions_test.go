package papilo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendEntryOpensImplicitTransaction(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.RowRHS(0, 10))

	txs := rl.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, 0, txs[0].Start)
	assert.Equal(t, 1, txs[0].End)
	assert.Equal(t, 0, txs[0].NLocks)
}

func TestLocksMustPrecedeNonLockEntries(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.StartTransaction())
	require.NoError(t, rl.RowRHS(0, 10))
	err := rl.LockRow(0)
	assert.ErrorIs(t, err, ErrLocksMustPrecede)
	require.NoError(t, rl.EndTransaction())
}

func TestNestedTransactionRejected(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.StartTransaction())
	require.NoError(t, rl.RowRHS(0, 10))
	err := rl.StartTransaction()
	assert.ErrorIs(t, err, ErrNestedTransaction)
	require.NoError(t, rl.EndTransaction())
}

func TestEmptyTransactionRejected(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.StartTransaction())
	err := rl.EndTransaction()
	assert.ErrorIs(t, err, ErrEmptyTransaction)
}

func TestSparsifyEmitsHeaderThenEntries(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.Sparsify(0, []SparsifyEntry[F64]{
		{Row: 1, Scale: 2},
		{Row: 2, Scale: 3},
	}))

	entries := rl.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, opRowSparsify, entries[0].Col)
	assert.Equal(t, 0, entries[0].Row)
	assert.Equal(t, 2, rToInt[F64](entries[0].NewVal))
	assert.Equal(t, opRowSparsifyEntry, entries[1].Col)
	assert.Equal(t, 1, entries[1].Row)
	assert.Equal(t, F64(2), entries[1].NewVal)
	assert.Equal(t, 2, entries[2].Row)
	assert.Equal(t, F64(3), entries[2].NewVal)
}

func TestFixedInfinityEmitsRedundancyBeforeTheFixRecord(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.FixedInfinity(5, -1, []int{0, 1}))

	entries := rl.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, opRowRedundant, entries[0].Col)
	assert.Equal(t, 0, entries[0].Row)
	assert.Equal(t, opRowRedundant, entries[1].Col)
	assert.Equal(t, 1, entries[1].Row)
	assert.Equal(t, opColFixedInfinity, entries[2].Row)
	assert.Equal(t, 5, entries[2].Col)
	assert.Equal(t, -1, rToInt[F64](entries[2].NewVal))

	txs := rl.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, 0, txs[0].NLocks)
}

func TestReplaceEncodesSentinelInRowAndTargetInCol(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.Replace(3, 7, F64(2), F64(1)))

	entries := rl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, opColReplace, entries[0].Row)
	assert.Equal(t, 3, entries[0].Col)
	assert.Equal(t, F64(2), entries[0].NewVal)
	assert.Equal(t, opColReplaceAux, entries[1].Row)
	assert.Equal(t, 7, entries[1].Col)
	assert.Equal(t, F64(1), entries[1].NewVal)
}

func TestMatrixEntryIsRecognisedByIsMatrixEntry(t *testing.T) {
	rl := NewReductions[F64]()
	require.NoError(t, rl.MatrixEntry(0, 1, F64(4)))
	require.NoError(t, rl.LowerBound(2, F64(1)))

	entries := rl.Entries()
	assert.True(t, entries[0].IsMatrixEntry())
	assert.False(t, entries[1].IsMatrixEntry())
}

func TestIntToRRoundTripsThroughFloat64(t *testing.T) {
	assert.Equal(t, 42, rToInt[F64](intToR[F64](42)))
	assert.Equal(t, -7, rToInt[F64](intToR[F64](-7)))
}
