package papilo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestF64Arithmetic(t *testing.T) {
	a, b := F64(3), F64(2)
	assert.Equal(t, F64(5), a.Add(b))
	assert.Equal(t, F64(1), a.Sub(b))
	assert.Equal(t, F64(6), a.Mul(b))
	assert.Equal(t, F64(1.5), a.Div(b))
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
	assert.Equal(t, F64(3), F64(-3).Abs())
	assert.Equal(t, 1, a.Sign())
	assert.Equal(t, -1, F64(-1).Sign())
	assert.Equal(t, 0, F64(0).Sign())
	assert.Equal(t, F64(7), F64(0).FromFloat64(7))
}

func TestRatZeroValueIsUsable(t *testing.T) {
	var r Rat
	sum := r.Add(NewRat(1, 2))
	assert.Equal(t, "1/2", sum.String())
}

func TestRatArithmeticIsExact(t *testing.T) {
	a := NewRat(1, 3)
	b := NewRat(1, 6)
	require.Equal(t, "1/2", a.Add(b).String())
	require.Equal(t, "1/6", a.Sub(b).String())
	require.Equal(t, "1/18", a.Mul(b).String())
	require.Equal(t, "2/1", a.Div(b).String())
	assert.Equal(t, 0, a.Cmp(NewRat(2, 6)))
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, a.Abs().Cmp(NewRat(1, 2)))
	assert.Equal(t, 1, NewRat(5, 1).Sign())
	assert.Equal(t, -1, NewRat(-5, 1).Sign())
}

func TestRatFromFloat64RoundTrips(t *testing.T) {
	var zero Rat
	v := zero.FromFloat64(0.5)
	assert.InDelta(t, 0.5, v.Float64(), 1e-12)
}
