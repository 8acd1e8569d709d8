// Package ir defines the operation graph the fusion engine reasons about: a Function holding
// an ordered list of Operations in SSA form, each consuming and producing Values.
//
// Values don't hold back-pointers to their consumers: use-edges are computed on demand from
// the function (see Function.Uses), which owns all operations.
package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gomlx/fusion/internal/optypes"
	"github.com/gomlx/fusion/internal/utils"
	"github.com/gomlx/fusion/types/shapes"
	"github.com/pkg/errors"
)

// Function represents a computation graph: inputs, operations and a final Yield.
type Function struct {
	// Name of the function.
	Name string

	// Inputs to the function.
	Inputs []*Value

	// Operations in the function body, in program order.
	Operations []*Operation

	// nextValueID is the next ID to be assigned to new values.
	nextValueID int

	// nextTmpID is the next ID used to name intermediary values.
	nextTmpID int

	// Returned indicates if the function has a Yield operation, so it can no longer be changed.
	Returned bool
}

// NewFunction creates a new empty function.
//
// Inputs are added with Function.Input or Function.NamedInput, and operations with the
// builders in this package (Exp, Add, Reduce, ...). It is finished with Function.Return.
func NewFunction(name string) *Function {
	return &Function{Name: utils.NormalizeIdentifier(name)}
}

// newValue creates a new value with the given shape and name.
func (fn *Function) newValue(shape shapes.Shape, name string) *Value {
	v := &Value{
		fn:    fn,
		id:    fn.nextValueID,
		shape: shape,
		name:  name,
	}
	fn.nextValueID++
	return v
}

// Input creates a new input parameter for the function, named "arg<n>".
func (fn *Function) Input(shape shapes.Shape) *Value {
	return fn.NamedInput(fmt.Sprintf("arg%d", len(fn.Inputs)), shape)
}

// NamedInput creates a new input parameter for a function with the given name.
//
// The name is passed through utils.NormalizeIdentifier, which converts any non-digit or ASCII letter to an underscore.
func (fn *Function) NamedInput(name string, shape shapes.Shape) *Value {
	value := fn.newValue(shape, utils.NormalizeIdentifier(name))
	fn.Inputs = append(fn.Inputs, value)
	return value
}

// addOp adds a new operation to the function, with one result per output shape.
func (fn *Function) addOp(opType optypes.OpType, outputShapes []shapes.Shape, operands ...*Value) *Operation {
	op := &Operation{
		fn:       fn,
		id:       len(fn.Operations),
		opType:   opType,
		operands: operands,
	}
	for i, shape := range outputShapes {
		v := fn.newValue(shape, strconv.Itoa(fn.nextTmpID))
		fn.nextTmpID++
		v.producer = op
		v.resultIndex = i
		op.results = append(op.results, v)
	}
	fn.Operations = append(fn.Operations, op)
	return op
}

// checkOperands returns an error if the function is already returned or if any operand is not owned by the function.
func (fn *Function) checkOperands(opType optypes.OpType, operands ...*Value) error {
	if fn.Returned {
		return errors.Errorf("cannot add operation %s after returning, in function %q", opType, fn.Name)
	}
	for i, operand := range operands {
		if operand == nil {
			return errors.Errorf("operand #%d of operation %s is nil, in function %q", i, opType, fn.Name)
		}
		if operand.fn != fn {
			return errors.Errorf("cannot add operation %s to function %q, because operand #%d is not part of the function",
				opType, fn.Name, i)
		}
	}
	return nil
}

// Return adds the terminal Yield operation to the function, consuming the given values.
// There must be at least one value.
//
// There can be only one Yield in a Function, and it must be the last operation.
func (fn *Function) Return(firstValue *Value, otherValues ...*Value) error {
	values := append([]*Value{firstValue}, otherValues...)
	if err := fn.checkOperands(optypes.Yield, values...); err != nil {
		return err
	}
	fn.addOp(optypes.Yield, nil, values...)
	fn.Returned = true
	return nil
}

// Outputs returns the values consumed by the Yield operation, or nil if the function hasn't returned yet.
func (fn *Function) Outputs() []*Value {
	if !fn.Returned {
		return nil
	}
	return fn.Operations[len(fn.Operations)-1].Operands()
}

// Use is one use-edge of a value: the operation consuming it and the operand slot.
type Use struct {
	Owner        *Operation
	OperandIndex int
}

// Uses returns all the use-edges of v, in program order. An operation that consumes v in
// more than one operand slot contributes one Use per slot.
func (fn *Function) Uses(v *Value) []Use {
	var uses []Use
	for _, op := range fn.Operations {
		for i, operand := range op.operands {
			if operand == v {
				uses = append(uses, Use{Owner: op, OperandIndex: i})
			}
		}
	}
	return uses
}

// UsageIndex returns the index, in Uses(v), of the first use-edge of v owned by op.
// It returns an error if op doesn't consume v.
func (fn *Function) UsageIndex(v *Value, op *Operation) (int, error) {
	for i, use := range fn.Uses(v) {
		if use.Owner == op {
			return i, nil
		}
	}
	return -1, errors.Errorf("operation %s doesn't consume value %s in function %q", op, v, fn.Name)
}

// Write the function in text format to the given writer.
func (fn *Function) Write(writer io.Writer) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}
	w("func.func @%s(", fn.Name)
	for i, input := range fn.Inputs {
		if i > 0 {
			w(", ")
		}
		w("%s: %s", input, input.shape.Text())
	}
	w(") {\n")
	for _, op := range fn.Operations {
		w("  ")
		if err == nil {
			err = op.Write(writer)
		}
		w("\n")
	}
	w("}\n")
	return err
}

// String implements fmt.Stringer, it returns the text format of the function.
func (fn *Function) String() string {
	var sb strings.Builder
	_ = fn.Write(&sb)
	return sb.String()
}
