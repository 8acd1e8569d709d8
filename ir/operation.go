package ir

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/gomlx/fusion/internal/optypes"
)

// AttrAxes is the attribute holding the axes of reductions.
const AttrAxes = "axes"

// Operation represents a single operation (a statement) in a function: it consumes
// operand values and produces result values.
//
// Operations are compared by identity (pointer equality).
type Operation struct {
	fn     *Function
	id     int
	opType optypes.OpType

	operands []*Value
	results  []*Value

	// Attributes of the operation.
	Attributes map[string]any
}

// ID returns the position of the operation in its function.
func (op *Operation) ID() int { return op.id }

// Type returns the type of the operation.
func (op *Operation) Type() optypes.OpType { return op.opType }

// Function returns the function that owns the operation.
func (op *Operation) Function() *Function { return op.fn }

// NumOperands returns the number of operands.
func (op *Operation) NumOperands() int { return len(op.operands) }

// Operand returns the i-th operand.
func (op *Operation) Operand(i int) *Value { return op.operands[i] }

// Operands returns a copy of the list of operands.
func (op *Operation) Operands() []*Value { return slices.Clone(op.operands) }

// NumResults returns the number of results. It is 0 for Yield.
func (op *Operation) NumResults() int { return len(op.results) }

// Result returns the i-th result.
func (op *Operation) Result(i int) *Value { return op.results[i] }

// Results returns a copy of the list of results.
func (op *Operation) Results() []*Value { return slices.Clone(op.results) }

// ReduceAxes returns the reduced axes of a reduction operation, or nil if op is not a reduction.
func (op *Operation) ReduceAxes() []int {
	if !op.opType.IsReduce() {
		return nil
	}
	axes, _ := op.Attributes[AttrAxes].([]int)
	return slices.Clone(axes)
}

// Write writes a string representation of the operation to the given writer.
func (op *Operation) Write(writer io.Writer) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}

	// Output values are written first:
	if len(op.results) > 0 {
		for i, result := range op.results {
			if i > 0 {
				w(", ")
			}
			w("%s", result)
		}
		w(" = ")
	}

	// Write op name and operands:
	w("%q(", op.opType.SnakeName())
	for i, operand := range op.operands {
		if i > 0 {
			w(", ")
		}
		w("%s", operand)
	}
	w(")")

	// Write attributes, sorted by key.
	if len(op.Attributes) > 0 {
		keys := make([]string, 0, len(op.Attributes))
		for key := range op.Attributes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		w("{")
		for i, key := range keys {
			if i > 0 {
				w(", ")
			}
			w("%s = %v", key, op.Attributes[key])
		}
		w("}")
	}

	// Write signature:
	w(" : (")
	for i, operand := range op.operands {
		if i > 0 {
			w(", ")
		}
		w("%s", operand.shape.Text())
	}
	w(") -> ")
	if len(op.results) == 0 {
		w("()")
	} else {
		// There are results: we use "(" and ")" only if there are more than one.
		if len(op.results) > 1 {
			w("(")
		}
		for i, result := range op.results {
			if i > 0 {
				w(", ")
			}
			w("%s", result.shape.Text())
		}
		if len(op.results) > 1 {
			w(")")
		}
	}
	return err
}

// String implements fmt.Stringer.
func (op *Operation) String() string {
	var sb strings.Builder
	_ = op.Write(&sb)
	return sb.String()
}

// OpsDebugString returns one line per operation, used for tracing.
func OpsDebugString(ops []*Operation) string {
	var sb strings.Builder
	for _, op := range ops {
		sb.WriteString("\n  ")
		_ = op.Write(&sb)
	}
	return sb.String()
}
