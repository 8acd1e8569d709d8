// Package shapes defines Shape, the dtype and dimensions of a value in the fusion IR.
//
// Dimensions can be static (a positive integer) or dynamic (DimDynamic). Dynamic axes
// may carry a name (e.g. "batch"), and two dynamic axes with the same name are assumed to
// have the same size. The symbolic reasoning over those names is done by the
// shapeanalysis package.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a value.
//   - Axis: the index of a dimension. Here "axis" refers to the index, and "dimension" to its size.
//   - Dimension: the size of a value along one of its axes.
//   - DType: the data type of the unit element. Enumeration defined in github.com/gomlx/gopjrt/dtypes.
//
// Example: `shapes.Make(dtypes.Float32, 4, 8).WithDynamicAxis(0, "N")` has shape `(Float32)[N 8]`.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/fusion/internal/utils"
	"github.com/gomlx/gopjrt/dtypes"
)

// DimDynamic is the dimension value of an axis whose size is only known symbolically.
const DimDynamic = -1

// Shape represents the shape of a value: its dtype and the dimensions of each axis.
//
// Use Make to create a new shape, and WithDynamicAxis to mark axes as dynamic.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int

	// AxisNames holds the name of each dynamic axis. It is nil if there are no named axes,
	// otherwise it has one entry per axis, empty for static or unnamed axes.
	AxisNames []string
}

// Make returns a Shape structure filled with the values given.
// All dimensions must be positive, use WithDynamicAxis to create dynamic axes.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{Dimensions: slices.Clone(dimensions), DType: dtype}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// MakeDynamic returns a Shape where axes with dimension DimDynamic take their name from axisNames.
// Static axes must have an empty name.
func MakeDynamic(dtype dtypes.DType, dimensions []int, axisNames []string) Shape {
	if len(dimensions) != len(axisNames) {
		exceptions.Panicf("shapes.MakeDynamic(%s, %v, %v): one axis name per dimension is required",
			dtype, dimensions, axisNames)
	}
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for axis, dim := range dimensions {
		name := axisNames[axis]
		switch {
		case dim == DimDynamic:
			if name != "" {
				s = s.WithDynamicAxis(axis, name)
			}
		case dim <= 0:
			exceptions.Panicf("shapes.MakeDynamic(%s, %v): invalid dimension %d for axis %d", dtype, dimensions, dim, axis)
		case name != "":
			exceptions.Panicf("shapes.MakeDynamic(%s, %v): static axis %d cannot be named %q", dtype, dimensions, axis, name)
		}
	}
	return s
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// WithDynamicAxis returns a copy of the shape with the given axis marked as dynamic, named axisName.
// An empty axisName makes an unnamed dynamic axis.
func (s Shape) WithDynamicAxis(axis int, axisName string) Shape {
	adjustedAxis := s.adjustAxis(axis)
	if axisName != utils.NormalizeIdentifier(axisName) {
		exceptions.Panicf("Shape.WithDynamicAxis(%d, %q): axis name must only contain letters, digits and underscores",
			axis, axisName)
	}
	s2 := s.Clone()
	s2.Dimensions[adjustedAxis] = DimDynamic
	if axisName != "" && s2.AxisNames == nil {
		s2.AxisNames = make([]string, s2.Rank())
	}
	if s2.AxisNames != nil {
		s2.AxisNames[adjustedAxis] = axisName
	}
	return s2
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just instantiating it with Shape{} will be invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar, that is there are no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

func (s Shape) adjustAxis(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("axis %d out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return adjustedAxis
}

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
//
// It returns DimDynamic for dynamic axes.
func (s Shape) Dim(axis int) int {
	return s.Dimensions[s.adjustAxis(axis)]
}

// IsDynamic returns whether the given axis has a symbolic (dynamic) size.
func (s Shape) IsDynamic(axis int) bool {
	return s.Dim(axis) == DimDynamic
}

// HasDynamicAxes returns whether any of the axes is dynamic.
func (s Shape) HasDynamicAxes() bool {
	return slices.Contains(s.Dimensions, DimDynamic)
}

// AxisName returns the name of a dynamic axis, or "" for static or unnamed axes.
func (s Shape) AxisName(axis int) string {
	adjustedAxis := s.adjustAxis(axis)
	if s.AxisNames == nil {
		return ""
	}
	return s.AxisNames[adjustedAxis]
}

// SameDim returns whether axis of s and axis2 of s2 are known to have the same size:
// either both static and equal, or both dynamic with the same non-empty name.
func (s Shape) SameDim(axis int, s2 Shape, axis2 int) bool {
	d1, d2 := s.Dim(axis), s2.Dim(axis2)
	if d1 != DimDynamic || d2 != DimDynamic {
		return d1 == d2
	}
	name := s.AxisName(axis)
	return name != "" && name == s2.AxisName(axis2)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{
		DType:      s.DType,
		Dimensions: slices.Clone(s.Dimensions),
		AxisNames:  slices.Clone(s.AxisNames),
	}
}

// Equal compares two shapes for equality: dtype, dimensions and dynamic axes names are compared.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType || s.Rank() != s2.Rank() {
		return false
	}
	for axis := range s.Dimensions {
		if s.Dimensions[axis] != s2.Dimensions[axis] || s.AxisName(axis) != s2.AxisName(axis) {
			return false
		}
	}
	return true
}

// Size returns the number of elements of the shape, the product of all dimensions.
// It returns DimDynamic if any of the axes is dynamic.
func (s Shape) Size() (size int) {
	if s.HasDynamicAxes() {
		return DimDynamic
	}
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

func (s Shape) dimString(axis int) string {
	if s.Dimensions[axis] != DimDynamic {
		return fmt.Sprintf("%d", s.Dimensions[axis])
	}
	if name := s.AxisName(axis); name != "" {
		return name
	}
	return "?"
}

// String implements stringer, pretty-prints the shape, e.g. `(Float32)[N 8]`.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, s.Rank())
	for axis := range s.Dimensions {
		parts[axis] = s.dimString(axis)
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Text returns the MLIR-like tensor type of the shape, e.g. `tensor<Nx8xf32>`, used in IR dumps.
func (s Shape) Text() string {
	var sb strings.Builder
	sb.WriteString("tensor<")
	for axis := range s.Dimensions {
		sb.WriteString(s.dimString(axis))
		sb.WriteString("x")
	}
	sb.WriteString(utils.DTypeShortName(s.DType))
	sb.WriteString(">")
	return sb.String()
}
