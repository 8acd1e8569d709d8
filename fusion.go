// Package fusion decides whether two adjacent statement patterns of a function can be fused
// without breaking the shape and iteration-space consistency of the fused kernel.
//
// The entry point is Policy.CanFuse, which takes an upstream and a downstream pattern.Node and
// returns a verdict. It only reads the operation graph (package ir), the axes signature table
// (package axes) and the shape oracle (package shapeanalysis): it never mutates them.
//
// Example:
//
//	analysis := shapeanalysis.New()
//	signatures := must.M1(axes.Infer(fn))
//	policy := fusion.NewPolicy(analysis, signatures)
//	ok, err := policy.CanFuse(upstream, downstream)
//	if err != nil {
//		// Inconsistent patterns: abort compilation.
//	}
//
// Errors and verdicts are separate channels: a "false" verdict is a normal outcome (the merge
// is simply not done), while a non-nil error always wraps ErrInvariantViolation and means an
// earlier stage built inconsistent patterns.
package fusion

import (
	"github.com/gomlx/fusion/axes"
	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/pattern"
	"github.com/gomlx/fusion/shapeanalysis"
	"github.com/pkg/errors"
)

// ErrInvariantViolation is wrapped by every error returned by the engine.
// Test for it with errors.Is.
var ErrInvariantViolation = errors.New("fusion invariant violation")

// invariantf returns an error wrapping ErrInvariantViolation with the given message.
func invariantf(format string, args ...any) error {
	return errors.Wrapf(ErrInvariantViolation, format, args...)
}

// ShapeAnalysis is the symbolic shape oracle used by the engine.
// It is implemented by *shapeanalysis.Analysis.
type ShapeAnalysis interface {
	// SymbolicDim returns the dimension expression of the axis of v.
	SymbolicDim(v *ir.Value, axis int) shapeanalysis.DimExpr

	// IsEqual returns whether lhs and rhs are proven equal.
	IsEqual(lhs, rhs shapeanalysis.DimExpr) bool

	// GetProductDimExpr returns the product of the dimensions of the given axes of v.
	GetProductDimExpr(v *ir.Value, axes []int) shapeanalysis.DimExpr
}

// SignatureTable returns the axes signature of operations. It is implemented by *axes.Table.
type SignatureTable interface {
	GetSignature(op *ir.Operation) (axes.Signature, error)
}

// Fuser is implemented by Policy and MemoizedPolicy.
type Fuser interface {
	CanFuse(upstream, downstream *pattern.Node) (bool, error)
}

var (
	_ ShapeAnalysis  = (*shapeanalysis.Analysis)(nil)
	_ SignatureTable = (*axes.Table)(nil)
	_ Fuser          = (*Policy)(nil)
	_ Fuser          = (*MemoizedPolicy)(nil)
)
