package papilo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostsolveTraceReplaysNewestToOldest(t *testing.T) {
	trace := NewPostsolveTrace[F64]()
	trace.Push(PostsolveEntry[F64]{Kind: PostsolveFixed, Col: 0})
	trace.Push(PostsolveEntry[F64]{Kind: PostsolveSubstitute, Col: 1})
	trace.Push(PostsolveEntry[F64]{Kind: PostsolveRedundantRow, Row: 2})

	var order []PostsolveKind
	require.NoError(t, trace.Replay(func(e PostsolveEntry[F64]) error {
		order = append(order, e.Kind)
		return nil
	}))

	assert.Equal(t, []PostsolveKind{PostsolveRedundantRow, PostsolveSubstitute, PostsolveFixed}, order)
}

func TestPostsolveTraceRemapRewritesStoredIndices(t *testing.T) {
	trace := NewPostsolveTrace[F64]()
	trace.Push(PostsolveEntry[F64]{Kind: PostsolveParallelCols, Col: 2, Col2: 3, Row: 1})

	rowMap := []int{-1, 0}
	colMap := []int{-1, -1, 0, 1}
	trace.Remap(rowMap, colMap)

	e := trace.Entries()[0]
	assert.Equal(t, 0, e.Col)
	assert.Equal(t, 1, e.Col2)
	assert.Equal(t, 0, e.Row)
}

func TestPostsolveTraceReplayStopsAtFirstError(t *testing.T) {
	trace := NewPostsolveTrace[F64]()
	trace.Push(PostsolveEntry[F64]{Kind: PostsolveFixed})
	trace.Push(PostsolveEntry[F64]{Kind: PostsolveFixed})

	calls := 0
	err := trace.Replay(func(e PostsolveEntry[F64]) error {
		calls++
		return assert.AnError
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
