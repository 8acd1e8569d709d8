// Package shapeinference calculates the shape resulting from operations and validates its inputs.
//
// Dynamic axes are handled nominally: two dynamic axes are only considered the same size if they
// share the same name (see shapes.Shape.SameDim). Proving deeper equalities is the job of the
// shapeanalysis package, which works on the shapes produced here.
package shapeinference

import (
	"slices"

	"github.com/gomlx/fusion/internal/optypes"
	"github.com/gomlx/fusion/internal/utils"
	"github.com/gomlx/fusion/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

var (
	// FloatOperations operates only on float numbers.
	FloatOperations = utils.SetWith(
		optypes.Exp,
		optypes.Log,
		optypes.Logistic,
		optypes.Pow,
		optypes.Rsqrt,
		optypes.Sqrt,
		optypes.Tanh,
	)

	// SignedNumberOperations don't accept unsigned integers.
	SignedNumberOperations = utils.SetWith(
		optypes.Negate,
	)
)

// checkNumberDType validates the dtype of the operand of opType.
func checkNumberDType(opType optypes.OpType, shape shapes.Shape) error {
	dtype := shape.DType
	if dtype == dtypes.InvalidDType {
		return errors.Errorf("invalid shape %s for %s", shape, opType)
	}
	if !(dtype.IsInt() || dtype.IsFloat()) {
		return errors.Errorf("%s must have a number (Int32, Float32, ...) data type as input, got %s", opType, shape)
	}
	if FloatOperations.Has(opType) && !dtype.IsFloat() {
		return errors.Errorf("float operation %s must have a float (Float32, Float64, ...) data type as input, got %s",
			opType, shape)
	}
	if SignedNumberOperations.Has(opType) && dtype.IsUnsigned() {
		return errors.Errorf("signed operation %s must have a signed data type as input, got %s", opType, shape)
	}
	return nil
}

// UnaryOp checks the validity of the data type for elementwise unary operations and returns either an error or
// the output shape, which is the same as the operand.
func UnaryOp(opType optypes.OpType, operand shapes.Shape) (output shapes.Shape, err error) {
	if !optypes.UnaryElementwise.Has(opType) {
		err = errors.Errorf("operation %s is not an elementwise unary operation, cannot process it with UnaryOp", opType)
		return
	}
	if err = checkNumberDType(opType, operand); err != nil {
		return
	}
	output = operand.Clone()
	return
}

// BinaryOp returns the expected output shape for elementwise binary operations.
//
// Operands must have the same dtype and either the same rank, with each axis either of the same size
// or statically 1 (broadcast), or one of them must be a scalar.
func BinaryOp(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !optypes.BinaryElementwise.Has(opType) {
		err = errors.Errorf("operation %s is not an elementwise binary operation, cannot process it with BinaryOp", opType)
		return
	}
	if err = checkNumberDType(opType, lhsShape); err != nil {
		return
	}
	if lhsShape.DType != rhsShape.DType {
		err = errors.Errorf("data types (DType) for %s must match, got %s and %s", opType, lhsShape, rhsShape)
		return
	}

	// Trivial cases: if one of the sides is a scalar, return the other side shape.
	if lhsShape.IsScalar() {
		return rhsShape.Clone(), nil
	}
	if rhsShape.IsScalar() {
		return lhsShape.Clone(), nil
	}
	if lhsShape.Rank() != rhsShape.Rank() {
		err = errors.Errorf("if operands are not scalars, their rank must match for %s, got shapes %s and %s",
			opType, lhsShape, rhsShape)
		return
	}
	output = lhsShape.Clone()
	for axis := range output.Rank() {
		switch {
		case lhsShape.SameDim(axis, rhsShape, axis):
			// Keep lhs dimension.
		case lhsShape.Dimensions[axis] == 1:
			output = copyAxis(output, axis, rhsShape, axis)
		case rhsShape.Dimensions[axis] == 1:
			// Keep lhs dimension.
		default:
			err = errors.Errorf("dimension of axis #%d doesn't match and cannot be broadcast for %s, got shapes %s and %s",
				axis, opType, lhsShape, rhsShape)
			return
		}
	}
	return
}

// copyAxis sets output's axis to the dimension (and name) of src's srcAxis.
func copyAxis(output shapes.Shape, axis int, src shapes.Shape, srcAxis int) shapes.Shape {
	output.Dimensions[axis] = src.Dimensions[srcAxis]
	name := src.AxisName(srcAxis)
	if name != "" && output.AxisNames == nil {
		output.AxisNames = make([]string, output.Rank())
	}
	if output.AxisNames != nil {
		output.AxisNames[axis] = name
	}
	return output
}

// Transpose all axes of the operand.
// There must be one value in permutations for each axis in the operand.
// The output will have: output.Shape.Dimension[ii] = operand.Shape.Dimension[permutations[i]].
func Transpose(operand shapes.Shape, permutation []int) (output shapes.Shape, err error) {
	rank := operand.Rank()
	if len(permutation) != rank {
		err = errors.Errorf("Transpose() requires all axes permutation to be defined, operand has shape %s, but %d permutation were given",
			operand, len(permutation))
		return
	}
	if rank == 0 {
		return operand, nil
	}

	// Check permutation axes are within range and unique.
	axesSet := slices.Clone(permutation)
	slices.Sort(axesSet)
	for ii, srcAxis := range axesSet {
		if srcAxis < 0 || srcAxis >= rank {
			err = errors.Errorf("invalid permutation axis %d given to Transpose(%s), it must be within the range of its rank",
				srcAxis, operand)
			return
		}
		if ii > 0 && srcAxis == axesSet[ii-1] {
			err = errors.Errorf("invalid permutation given to Transpose(%s, %v), there cannot be any repeated axis, each must appear exactly once",
				operand, permutation)
			return
		}
	}

	output = operand.Clone()
	for axis := range output.Dimensions {
		output = copyAxis(output, axis, operand, permutation[axis])
	}
	return
}

// BroadcastInDim verifies that the arguments are valid.
// The output shape is already known, so nothing is returned.
//
// The axesMapping is changed in place, replacing negative axes with their positive equivalent.
func BroadcastInDim(operand, targetShape shapes.Shape, axesMapping []int) error {
	if operand.DType != targetShape.DType {
		return errors.Errorf("BroadcastInDim() requires the operand and the target shape to have the same data type, got operand=%s and targetShape=%s",
			operand, targetShape)
	}
	targetRank := targetShape.Rank()
	if targetRank < operand.Rank() {
		return errors.Errorf("BroadcastInDim() cannot be used to shrink the rank of the operand, got operand=%s and targetShape=%s",
			operand, targetShape)
	}
	if len(axesMapping) != operand.Rank() {
		return errors.Errorf("BroadcastInDim() requires all operand's axes mappings to be defined, operand has shape %s, but %d axes were given",
			operand, len(axesMapping))
	}
	usedAxis := utils.MakeSet[int](len(axesMapping))
	for operandAxis, mappedAxis := range axesMapping {
		targetAxis, err := AdjustAxisToRank(mappedAxis, targetRank)
		if err != nil {
			return errors.WithMessagef(err, "invalid axes mapping of operand axis %d to targetShape axis %d, targetShape is %s",
				operandAxis, mappedAxis, targetShape)
		}
		if usedAxis.Has(targetAxis) {
			return errors.Errorf("BroadcastInDim() requires all targetShape axes to be unique, got duplicate axis %d", targetAxis)
		}
		usedAxis.Insert(targetAxis)
		if operand.Dimensions[operandAxis] != 1 && !operand.SameDim(operandAxis, targetShape, targetAxis) {
			return errors.Errorf("BroadcastInDim() requires all operand axes to be broadcast to be of dimension 1, but got operand axis %d of %s and targetShape axis %d of %s",
				operandAxis, operand, targetAxis, targetShape)
		}
		axesMapping[operandAxis] = targetAxis
	}
	return nil
}

// Reshape verifies the operand can be reshaped to the target shape.
//
// For static shapes the sizes must match. For dynamic shapes the named dynamic axes must be the same
// (in any order) and the product of the static dimensions must match. Unnamed dynamic axes can't be
// reshaped, since nothing is known about their size.
func Reshape(operand, target shapes.Shape) error {
	if operand.DType != target.DType {
		return errors.Errorf("Reshape() requires the operand and the shape to have the same data type, got operand=%s and shape=%s",
			operand, target)
	}
	staticSize := func(s shapes.Shape) (size int, names []string, err error) {
		size = 1
		for axis, dim := range s.Dimensions {
			if dim != shapes.DimDynamic {
				size *= dim
				continue
			}
			name := s.AxisName(axis)
			if name == "" {
				return 0, nil, errors.Errorf("Reshape() doesn't support unnamed dynamic axes, got %s", s)
			}
			names = append(names, name)
		}
		slices.Sort(names)
		return
	}
	operandSize, operandNames, err := staticSize(operand)
	if err != nil {
		return err
	}
	targetSize, targetNames, err := staticSize(target)
	if err != nil {
		return err
	}
	if operandSize != targetSize || !slices.Equal(operandNames, targetNames) {
		return errors.Errorf("Reshape() requires the total size of the new shape to match the original shape, got operand=%s and shape=%s",
			operand, target)
	}
	return nil
}

// Reduce returns the output shape of a reduction of operand along the given axes.
// The axes are also normalized to positive in-place. The reduced axes disappear from the output.
func Reduce(opType optypes.OpType, operand shapes.Shape, axes []int) (output shapes.Shape, err error) {
	if !opType.IsReduce() {
		err = errors.Errorf("operation %s is not a reduction, cannot process it with Reduce", opType)
		return
	}
	if err = checkNumberDType(opType, operand); err != nil {
		return
	}
	rank := operand.Rank()
	if len(axes) == 0 || len(axes) > rank {
		err = errors.Errorf("input for %s has rank=%d, but %d axes for reduction were given", opType, rank, len(axes))
		return
	}
	axesSet := utils.MakeSet[int](len(axes))
	for i, axis := range axes {
		adjustedAxis, err := AdjustAxisToRank(axis, rank)
		if err != nil {
			return output, errors.WithMessagef(err, "invalid value for axes[%d]=%d for %s, operand.shape=%s",
				i, axis, opType, operand)
		}
		if axesSet.Has(adjustedAxis) {
			return output, errors.Errorf("duplicate value for axes[%d]=%d for %s, axes=%v", i, axis, opType, axes)
		}
		axesSet.Insert(adjustedAxis)
		axes[i] = adjustedAxis
	}

	// Build the output shape.
	keptAxes := make([]int, 0, rank-len(axes))
	for axis := range rank {
		if !axesSet.Has(axis) {
			keptAxes = append(keptAxes, axis)
		}
	}
	output = shapes.Shape{DType: operand.DType, Dimensions: make([]int, len(keptAxes))}
	for toAxis, fromAxis := range keptAxes {
		output = copyAxis(output, toAxis, operand, fromAxis)
	}
	return
}

// AdjustAxisToRank returns a positive axis, adjusting negative numbers to the correct rank.
func AdjustAxisToRank(axis, rank int) (int, error) {
	if axis < -rank || axis >= rank {
		return -1, errors.Errorf("axis %d is out of range for the rank %d", axis, rank)
	}
	if axis < 0 {
		axis += rank
	}
	return axis, nil
}
