package fusion

import (
	"fmt"
	"strings"

	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/shapeanalysis"
)

// DimUsage is one axis of a value, as seen from one of its use-edges.
//
// UsageIdx is the index of the use-edge in Function.Uses(Value). Two DimUsage are the same
// dimension only if all three fields match (they are comparable with ==).
type DimUsage struct {
	Value    *ir.Value
	Idx      int
	UsageIdx int
}

// SymbolicDim returns the symbolic size of the dimension.
func (d DimUsage) SymbolicDim(analysis ShapeAnalysis) shapeanalysis.DimExpr {
	return analysis.SymbolicDim(d.Value, d.Idx)
}

// SymbolicEqualTo returns whether both dimensions have structurally the same symbolic size.
func (d DimUsage) SymbolicEqualTo(analysis ShapeAnalysis, other DimUsage) bool {
	return d.SymbolicDim(analysis) == other.SymbolicDim(analysis)
}

// IsRelated returns whether the sizes of the two dimensions are proven equal by the analysis.
func IsRelated(analysis ShapeAnalysis, lhs, rhs DimUsage) bool {
	return analysis.IsEqual(lhs.SymbolicDim(analysis), rhs.SymbolicDim(analysis))
}

// String implements fmt.Stringer, e.g. "%x[1]@0".
func (d DimUsage) String() string {
	return fmt.Sprintf("%s[%d]@%d", d.Value, d.Idx, d.UsageIdx)
}

// GetValueUsage returns one DimUsage per axis of v, all for the use-edge usageIdx.
func GetValueUsage(v *ir.Value, usageIdx int) []DimUsage {
	rank := v.Shape().Rank()
	dims := make([]DimUsage, rank)
	for axis := range rank {
		dims[axis] = DimUsage{Value: v, Idx: axis, UsageIdx: usageIdx}
	}
	return dims
}

// getUsageIdx returns the index of the first use-edge of v owned by op.
func getUsageIdx(v *ir.Value, op *ir.Operation) (int, error) {
	idx, err := v.Function().UsageIndex(v, op)
	if err != nil {
		return -1, invariantf("%v", err)
	}
	return idx, nil
}

// dimsDebugString lists the dimensions and their sizes, used for tracing.
// Sizes are omitted if analysis is nil.
func dimsDebugString(analysis ShapeAnalysis, dims []DimUsage) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		if analysis == nil {
			parts[i] = d.String()
			continue
		}
		parts[i] = fmt.Sprintf("%s=%s", d, d.SymbolicDim(analysis))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// gatherExcept returns the dims whose position is not in excluded.
func gatherExcept(dims []DimUsage, excluded []int) []DimUsage {
	skip := make(map[int]bool, len(excluded))
	for _, idx := range excluded {
		skip[idx] = true
	}
	result := make([]DimUsage, 0, len(dims))
	for i, d := range dims {
		if !skip[i] {
			result = append(result, d)
		}
	}
	return result
}
