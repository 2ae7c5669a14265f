package papilo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testNum() Num[F64] {
	return NewNum[F64](1e-9, 1e-6)
}

func TestNumIsZeroAndIsEq(t *testing.T) {
	n := testNum()
	assert.True(t, n.IsZero(0))
	assert.True(t, n.IsZero(1e-10))
	assert.False(t, n.IsZero(1e-3))
	assert.True(t, n.IsEq(F64(1.0), F64(1.0+1e-10)))
	assert.False(t, n.IsEq(F64(1.0), F64(1.1)))
}

func TestNumRoundAndIsIntegral(t *testing.T) {
	n := testNum()
	assert.Equal(t, F64(3), n.Round(F64(3.0000000001)))
	assert.True(t, n.IsIntegral(F64(3.0000000001)))
	assert.False(t, n.IsIntegral(F64(3.3)))
}

func TestNumFeasibilityComparisons(t *testing.T) {
	n := testNum()
	assert.True(t, n.IsFeasLE(F64(5), F64(5)))
	assert.True(t, n.IsFeasLE(F64(5.0000001), F64(5)))
	assert.False(t, n.IsFeasLE(F64(6), F64(5)))

	assert.True(t, n.IsFeasGE(F64(5), F64(5)))
	assert.True(t, n.IsFeasGE(F64(4.9999999), F64(5)))
	assert.False(t, n.IsFeasGE(F64(4), F64(5)))

	assert.True(t, n.IsFeasEq(F64(5), F64(5.0000001)))
	assert.False(t, n.IsFeasEq(F64(5), F64(5.1)))
}
