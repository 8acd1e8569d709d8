package axes

import (
	"fmt"

	"github.com/gomlx/fusion/internal/optypes"
	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/types/shapes"
	"github.com/pkg/errors"
)

// inferrer propagates axis names through a function.
type inferrer struct {
	values map[*ir.Value]Info
	nextID int
	table  *Table
	fnName string
}

func (inf *inferrer) fresh() string {
	name := fmt.Sprintf("a%d", inf.nextID)
	inf.nextID++
	return name
}

func (inf *inferrer) freshInfo(rank int) Info {
	info := Info{AxisNames: make([]string, rank)}
	for axis := range rank {
		info.AxisNames[axis] = inf.fresh()
	}
	return info
}

// Infer computes the signature of every operation of fn.
//
// Function inputs get fresh axis names, and names propagate as follows:
//
//   - Elementwise operations: each output axis takes the name of the first operand axis
//     that is not being broadcast (a size-1 axis of a larger output). Scalars are ignored.
//   - BroadcastInDim: mapped axes keep their names, except size-1 axes being expanded, which
//     get fresh names, as do the new axes.
//   - Transpose permutes the names.
//   - Reductions drop the names of the reduced axes.
//   - Reshape outputs get fresh names.
//   - Yield has only inputs.
func Infer(fn *ir.Function) (*Table, error) {
	inf := &inferrer{
		values: make(map[*ir.Value]Info),
		table:  NewTable(),
		fnName: fn.Name,
	}
	for _, input := range fn.Inputs {
		inf.values[input] = inf.freshInfo(input.Shape().Rank())
	}
	for _, op := range fn.Operations {
		sig, err := inf.infer(op)
		if err != nil {
			return nil, err
		}
		for i, info := range sig.Outputs {
			inf.values[op.Result(i)] = info
		}
		inf.table.Set(op, sig)
	}
	return inf.table, nil
}

func (inf *inferrer) infer(op *ir.Operation) (sig Signature, err error) {
	for i, operand := range op.Operands() {
		info, found := inf.values[operand]
		if !found {
			return sig, errors.Errorf("operand #%d (%s) of %s has no axes information in function %q",
				i, operand, op.Type(), inf.fnName)
		}
		sig.Inputs = append(sig.Inputs, info)
	}
	opType := op.Type()
	var output Info
	switch {
	case opType == optypes.Yield:
		return sig, nil

	case opType.IsElementwise():
		output = inf.elementwise(op, sig.Inputs)

	case opType == optypes.BroadcastInDim:
		mapping, _ := op.Attributes["broadcast_dimensions"].([]int)
		operandShape, outputShape := op.Operand(0).Shape(), op.Result(0).Shape()
		output = Info{AxisNames: make([]string, outputShape.Rank())}
		for operandAxis, outputAxis := range mapping {
			if operandShape.Dim(operandAxis) == 1 && outputShape.Dim(outputAxis) != 1 {
				continue
			}
			output.AxisNames[outputAxis] = sig.Inputs[0].AxisNames[operandAxis]
		}
		for axis, name := range output.AxisNames {
			if name == "" {
				output.AxisNames[axis] = inf.fresh()
			}
		}

	case opType == optypes.Transpose:
		permutation, _ := op.Attributes["permutation"].([]int)
		output = Info{AxisNames: make([]string, len(permutation))}
		for axis, from := range permutation {
			output.AxisNames[axis] = sig.Inputs[0].AxisNames[from]
		}

	case opType.IsReduce():
		reduced := make(map[int]bool)
		for _, axis := range op.ReduceAxes() {
			reduced[axis] = true
		}
		for axis, name := range sig.Inputs[0].AxisNames {
			if !reduced[axis] {
				output = output.AddAxis(name)
			}
		}

	case opType == optypes.Reshape:
		output = inf.freshInfo(op.Result(0).Shape().Rank())

	default:
		return sig, errors.Errorf("axes inference not supported for operation %s in function %q", opType, inf.fnName)
	}
	sig.Outputs = []Info{output}
	if err = sig.Validate(op); err != nil {
		return sig, errors.WithMessagef(err, "while inferring axes in function %q", inf.fnName)
	}
	return sig, nil
}

// elementwise picks for each output axis the name of the first operand axis that isn't broadcast.
func (inf *inferrer) elementwise(op *ir.Operation, inputs []Info) Info {
	outputShape := op.Result(0).Shape()
	output := Info{AxisNames: make([]string, outputShape.Rank())}
	for axis := range output.AxisNames {
		for i, operand := range op.Operands() {
			if operand.Shape().Rank() != outputShape.Rank() || isBroadcast(operand.Shape(), outputShape, axis) {
				continue
			}
			output.AxisNames[axis] = inputs[i].AxisNames[axis]
			break
		}
		if output.AxisNames[axis] == "" {
			output.AxisNames[axis] = inf.fresh()
		}
	}
	return output
}

func isBroadcast(operand, output shapes.Shape, axis int) bool {
	return operand.Dim(axis) == 1 && output.Dim(axis) != 1
}
