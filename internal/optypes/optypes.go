// Package optypes defines OpType and lists the supported operations.
package optypes

import (
	"github.com/gomlx/fusion/internal/utils"
)

// OpType is an enum of all operations the fusion IR can represent.
type OpType int

//go:generate go tool enumer -type=OpType optypes.go

const (
	Invalid OpType = iota

	// Yield is the terminal operation of a function: it consumes the function outputs.
	Yield

	Abs
	Add
	BroadcastInDim
	Div
	Exp
	Log
	Logistic
	Max
	Min
	Mul
	Negate
	Pow
	ReduceMax
	ReduceMin
	ReduceProduct
	ReduceSum
	Reshape
	Rsqrt
	Sqrt
	Sub
	Tanh
	Transpose

	// Last should always be kept the last, it is used as a counter/marker.
	Last
)

var (
	// UnaryElementwise operations map each element of one operand, preserving its shape.
	UnaryElementwise = utils.SetWith(Abs, Exp, Log, Logistic, Negate, Rsqrt, Sqrt, Tanh)

	// BinaryElementwise operations combine two operands of the same (or broadcastable size-1) shape.
	BinaryElementwise = utils.SetWith(Add, Div, Max, Min, Mul, Pow, Sub)

	// Reductions reduce their single operand along a set of axes.
	Reductions = utils.SetWith(ReduceMax, ReduceMin, ReduceProduct, ReduceSum)
)

// IsElementwise returns whether the operation is a unary or binary elementwise operation.
func (op OpType) IsElementwise() bool {
	return UnaryElementwise.Has(op) || BinaryElementwise.Has(op)
}

// IsReduce returns whether the operation is a reduction.
func (op OpType) IsReduce() bool {
	return Reductions.Has(op)
}

// IsShapeOnly returns whether the operation only moves or replicates data (broadcast, transpose, reshape).
func (op OpType) IsShapeOnly() bool {
	return op == BroadcastInDim || op == Transpose || op == Reshape
}

// SnakeName returns the operation name in snake case (e.g. "reduce_sum"), as used in text dumps.
func (op OpType) SnakeName() string {
	return utils.ToSnakeCase(op.String())
}
