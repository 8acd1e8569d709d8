package ir

//go:generate go run ../internal/cmd/ops_generator

import (
	"slices"

	"github.com/gomlx/fusion/internal/optypes"
	"github.com/gomlx/fusion/shapeinference"
	"github.com/gomlx/fusion/types/shapes"
	"github.com/pkg/errors"
)

// unaryOp adds a new elementwise unary operation to the function.
func unaryOp(opType optypes.OpType, operand *Value) (*Value, error) {
	if operand == nil {
		return nil, errors.Errorf("nil operand given to %s", opType)
	}
	fn := operand.fn
	if err := fn.checkOperands(opType, operand); err != nil {
		return nil, err
	}
	outputShape, err := shapeinference.UnaryOp(opType, operand.shape)
	if err != nil {
		return nil, err
	}
	return fn.addOp(opType, []shapes.Shape{outputShape}, operand).results[0], nil
}

// binaryOp adds a new elementwise binary operation to the function.
func binaryOp(opType optypes.OpType, lhs, rhs *Value) (*Value, error) {
	if lhs == nil {
		return nil, errors.Errorf("nil lhs operand given to %s", opType)
	}
	fn := lhs.fn
	if err := fn.checkOperands(opType, lhs, rhs); err != nil {
		return nil, err
	}
	outputShape, err := shapeinference.BinaryOp(opType, lhs.shape, rhs.shape)
	if err != nil {
		return nil, err
	}
	return fn.addOp(opType, []shapes.Shape{outputShape}, lhs, rhs).results[0], nil
}

// UnaryOp adds the elementwise unary operation opType. See Exp, Log, etc.
func UnaryOp(opType optypes.OpType, x *Value) (*Value, error) { return unaryOp(opType, x) }

// BinaryOp adds the elementwise binary operation opType. See Add, Mul, etc.
func BinaryOp(opType optypes.OpType, lhs, rhs *Value) (*Value, error) {
	return binaryOp(opType, lhs, rhs)
}

// BroadcastInDim broadcasts dimensions from the operand to the target shape.
// It can also transpose axes and add new ones.
//
// The axesMapping should have one value per operand axes. It maps the axes from the operand to
// the corresponding value on the target shape.
func BroadcastInDim(operand *Value, target shapes.Shape, axesMapping []int) (*Value, error) {
	opType := optypes.BroadcastInDim
	if operand == nil {
		return nil, errors.Errorf("nil operand given to %s", opType)
	}
	fn := operand.fn
	if err := fn.checkOperands(opType, operand); err != nil {
		return nil, err
	}
	axesMapping = slices.Clone(axesMapping)
	if err := shapeinference.BroadcastInDim(operand.shape, target, axesMapping); err != nil {
		return nil, err
	}
	op := fn.addOp(opType, []shapes.Shape{target.Clone()}, operand)
	op.Attributes = map[string]any{"broadcast_dimensions": axesMapping}
	return op.results[0], nil
}

// Transpose axes of x.
//
// There should be one value in permutation for each axis in x (len(permutation) == rank(x)).
//
// The output will have: output.Shape.Dimension[ii] = x.Shape.Dimension[permutations[i]].
func Transpose(x *Value, permutation ...int) (*Value, error) {
	opType := optypes.Transpose
	if x == nil {
		return nil, errors.Errorf("nil operand given to %s", opType)
	}
	fn := x.fn
	if err := fn.checkOperands(opType, x); err != nil {
		return nil, err
	}
	outputShape, err := shapeinference.Transpose(x.shape, permutation)
	if err != nil {
		return nil, err
	}
	op := fn.addOp(opType, []shapes.Shape{outputShape}, x)
	op.Attributes = map[string]any{"permutation": slices.Clone(permutation)}
	return op.results[0], nil
}

// Reshape the operand to the given shape.
// The total size of the new shape must match the original shape.
//
// This has no effect on the data, no transposition is performed.
func Reshape(operand *Value, shape shapes.Shape) (*Value, error) {
	opType := optypes.Reshape
	if operand == nil {
		return nil, errors.Errorf("nil operand given to %s", opType)
	}
	fn := operand.fn
	if err := fn.checkOperands(opType, operand); err != nil {
		return nil, err
	}
	if err := shapeinference.Reshape(operand.shape, shape); err != nil {
		return nil, err
	}
	return fn.addOp(opType, []shapes.Shape{shape.Clone()}, operand).results[0], nil
}

// Reduce x along the given axes with the reduction opType (ReduceSum, ReduceMax, ReduceMin or ReduceProduct).
// The reduced axes are removed from the output.
func Reduce(opType optypes.OpType, x *Value, axes ...int) (*Value, error) {
	if x == nil {
		return nil, errors.Errorf("nil operand given to %s", opType)
	}
	fn := x.fn
	if err := fn.checkOperands(opType, x); err != nil {
		return nil, err
	}
	axes = slices.Clone(axes)
	outputShape, err := shapeinference.Reduce(opType, x.shape, axes)
	if err != nil {
		return nil, err
	}
	op := fn.addOp(opType, []shapes.Shape{outputShape}, x)
	op.Attributes = map[string]any{AttrAxes: axes}
	return op.results[0], nil
}

// ReduceSum reduces x along the given axes with a sum.
func ReduceSum(x *Value, axes ...int) (*Value, error) { return Reduce(optypes.ReduceSum, x, axes...) }

// ReduceMax reduces x along the given axes with max.
func ReduceMax(x *Value, axes ...int) (*Value, error) { return Reduce(optypes.ReduceMax, x, axes...) }
