/***** File generated by ./internal/cmd/ops_generator, based on internal/optypes. Don't edit it directly. *****/

package ir

import "github.com/gomlx/fusion/internal/optypes"

// Abs adds an elementwise absolute value.
func Abs(x *Value) (*Value, error) {
	return unaryOp(optypes.Abs, x)
}

// Add adds an elementwise sum.
func Add(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.Add, lhs, rhs)
}

// Div adds an elementwise division.
func Div(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.Div, lhs, rhs)
}

// Exp adds an elementwise exponential.
func Exp(x *Value) (*Value, error) {
	return unaryOp(optypes.Exp, x)
}

// Log adds an elementwise natural logarithm.
func Log(x *Value) (*Value, error) {
	return unaryOp(optypes.Log, x)
}

// Logistic adds an elementwise sigmoid, 1/(1+exp(-x)).
func Logistic(x *Value) (*Value, error) {
	return unaryOp(optypes.Logistic, x)
}

// Max adds an elementwise maximum.
func Max(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.Max, lhs, rhs)
}

// Min adds an elementwise minimum.
func Min(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.Min, lhs, rhs)
}

// Mul adds an elementwise multiplication.
func Mul(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.Mul, lhs, rhs)
}

// Negate adds an elementwise negation.
func Negate(x *Value) (*Value, error) {
	return unaryOp(optypes.Negate, x)
}

// Pow adds an elementwise power.
func Pow(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.Pow, lhs, rhs)
}

// Rsqrt adds an elementwise reciprocal square root.
func Rsqrt(x *Value) (*Value, error) {
	return unaryOp(optypes.Rsqrt, x)
}

// Sqrt adds an elementwise square root.
func Sqrt(x *Value) (*Value, error) {
	return unaryOp(optypes.Sqrt, x)
}

// Sub adds an elementwise subtraction.
func Sub(lhs, rhs *Value) (*Value, error) {
	return binaryOp(optypes.Sub, lhs, rhs)
}

// Tanh adds an elementwise hyperbolic tangent.
func Tanh(x *Value) (*Value, error) {
	return unaryOp(optypes.Tanh, x)
}
