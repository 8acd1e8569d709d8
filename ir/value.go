package ir

import (
	"fmt"
	"io"

	"github.com/gomlx/fusion/types/shapes"
)

// Value represents a value in a function, like `%0` or `%x`: the result of an operation or an input of the
// function. Values are immutable once created.
type Value struct {
	fn    *Function
	id    int
	shape shapes.Shape
	name  string // Composed of letters, digits and underscore.

	// producer is the operation that created the value, nil for function inputs.
	producer    *Operation
	resultIndex int
}

// ID returns a unique id of the value within its function.
func (v *Value) ID() int {
	return v.id
}

// Shape returns the shape of the value.
func (v *Value) Shape() shapes.Shape {
	return v.shape
}

// Function returns the function that owns the value.
func (v *Value) Function() *Function {
	return v.fn
}

// Producer returns the operation that produced the value, or nil if it is an input of the function.
// See also ResultIndex.
func (v *Value) Producer() *Operation {
	return v.producer
}

// ResultIndex returns the index of the value in its producer's results. It is 0 for function inputs.
func (v *Value) ResultIndex() int {
	return v.resultIndex
}

// Name of the value, without the "%" prefix.
func (v *Value) Name() string {
	return v.name
}

// Write writes the value in text format to the given writer.
func (v *Value) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%%%s", v.name)
	return err
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	return "%" + v.name
}
