package papilo

import "math"

// Num wraps a Scalar type with the tolerance-aware predicates the presolve
// core needs: zero/equality/integrality tests and feasibility-tolerance
// comparisons. It is passed alongside the problem to every presolver and to
// the applier so that "close enough" decisions are made consistently in one
// place, the way the teacher inlines epsilon comparisons throughout psf.go
// but gathered here into a single reusable value.
type Num[R Scalar[R]] struct {
	Epsilon R // used for exact-ish equality/zero tests
	FeasTol R // used for feasibility-direction comparisons (bound crossings)
}

// NewNum builds a Num with the given tolerances.
func NewNum[R Scalar[R]](epsilon, feasTol R) Num[R] {
	return Num[R]{Epsilon: epsilon, FeasTol: feasTol}
}

// IsZero reports whether v is within epsilon of zero.
func (n Num[R]) IsZero(v R) bool {
	return v.Abs().Cmp(n.Epsilon) <= 0
}

// IsEq reports whether a and b are within epsilon of each other.
func (n Num[R]) IsEq(a, b R) bool {
	return n.IsZero(a.Sub(b))
}

// Round returns the nearest representable integer value to v, going through
// float64 since Scalar does not otherwise expose a rounding primitive.
func (n Num[R]) Round(v R) R {
	return v.FromFloat64(math.Round(v.Float64()))
}

// IsIntegral reports whether v is within epsilon of an integer.
func (n Num[R]) IsIntegral(v R) bool {
	return n.IsZero(v.Sub(n.Round(v)))
}

// IsFeasLE reports whether a <= b, allowing a to exceed b by up to FeasTol.
func (n Num[R]) IsFeasLE(a, b R) bool {
	return a.Sub(b).Cmp(n.FeasTol) <= 0
}

// IsFeasGE reports whether a >= b, allowing a to fall short of b by up to
// FeasTol.
func (n Num[R]) IsFeasGE(a, b R) bool {
	return b.Sub(a).Cmp(n.FeasTol) <= 0
}

// IsFeasEq reports whether a and b are equal within FeasTol, the looser of
// the two tolerances carried by Num.
func (n Num[R]) IsFeasEq(a, b R) bool {
	return a.Sub(b).Abs().Cmp(n.FeasTol) <= 0
}
