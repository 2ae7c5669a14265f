package papilo

import "math/big"

// Scalar is the minimal capability set the presolve core requires of a real
// number type: addition, subtraction, multiplication, division, ordering,
// absolute value, sign, and a lossy projection to float64 for logging and
// tolerance math that is inherently approximate anyway (integrality probing).
//
// Two instantiations ship with this package: F64 (plain float64) and Rat
// (exact rational arithmetic over math/big.Rat). Callers needing a different
// real representation implement Scalar themselves; nothing else in the
// package assumes float64 or big.Rat specifically.
type Scalar[R any] interface {
	Add(R) R
	Sub(R) R
	Mul(R) R
	Div(R) R
	Cmp(R) int
	Abs() R
	Sign() int
	Float64() float64
	FromFloat64(float64) R
}

// F64 is the float64 instantiation of Scalar.
type F64 float64

func (a F64) Add(b F64) F64 { return a + b }
func (a F64) Sub(b F64) F64 { return a - b }
func (a F64) Mul(b F64) F64 { return a * b }
func (a F64) Div(b F64) F64 { return a / b }

func (a F64) Cmp(b F64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (a F64) Abs() F64 {
	if a < 0 {
		return -a
	}
	return a
}

func (a F64) Sign() int {
	switch {
	case a < 0:
		return -1
	case a > 0:
		return 1
	default:
		return 0
	}
}

func (a F64) Float64() float64 { return float64(a) }

// FromFloat64 ignores the receiver; it exists so generic code can construct
// a fresh R without a separate factory argument.
func (F64) FromFloat64(f float64) F64 { return F64(f) }

// Rat is the exact-rational instantiation of Scalar, backed by math/big.Rat.
// The zero value is the rational number zero and is safe to use directly,
// matching Go's usual zero-value-is-useful convention even though *big.Rat
// itself does not offer that guarantee.
type Rat struct {
	v *big.Rat
}

// NewRat builds a Rat from a numerator and denominator, mirroring
// big.NewRat.
func NewRat(num, den int64) Rat {
	return Rat{big.NewRat(num, den)}
}

func (r Rat) ensure() *big.Rat {
	if r.v == nil {
		return new(big.Rat)
	}
	return r.v
}

func (r Rat) Add(o Rat) Rat { return Rat{new(big.Rat).Add(r.ensure(), o.ensure())} }
func (r Rat) Sub(o Rat) Rat { return Rat{new(big.Rat).Sub(r.ensure(), o.ensure())} }
func (r Rat) Mul(o Rat) Rat { return Rat{new(big.Rat).Mul(r.ensure(), o.ensure())} }

func (r Rat) Div(o Rat) Rat {
	return Rat{new(big.Rat).Quo(r.ensure(), o.ensure())}
}

func (r Rat) Cmp(o Rat) int { return r.ensure().Cmp(o.ensure()) }

func (r Rat) Abs() Rat { return Rat{new(big.Rat).Abs(r.ensure())} }

func (r Rat) Sign() int { return r.ensure().Sign() }

func (r Rat) Float64() float64 {
	f, _ := r.ensure().Float64()
	return f
}

func (Rat) FromFloat64(f float64) Rat {
	v := new(big.Rat)
	v.SetFloat64(f)
	return Rat{v}
}

// String renders the rational in "num/den" form, useful for certificate and
// log output.
func (r Rat) String() string { return r.ensure().String() }
