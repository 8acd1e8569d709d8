package fusion

import (
	"github.com/gomlx/fusion/shapeanalysis"
	"k8s.io/klog/v2"
)

// ElementwiseEqual returns whether first and second have the same multiset of symbolic sizes:
// order and identity of the dimensions don't matter, only how many times each size appears.
//
// Each dimension and its size are traced at DefaultTraceLevel.
func ElementwiseEqual(analysis ShapeAnalysis, first, second []DimUsage) bool {
	return elementwiseEqual(analysis, first, second, DefaultTraceLevel)
}

func elementwiseEqual(analysis ShapeAnalysis, first, second []DimUsage, level klog.Level) bool {
	count := func(dims []DimUsage) map[shapeanalysis.DimExpr]int {
		counts := make(map[shapeanalysis.DimExpr]int, len(dims))
		for _, d := range dims {
			size := d.SymbolicDim(analysis)
			klog.V(level).Infof("ElementwiseEqual: dim %s has size %s", d, size)
			counts[size]++
		}
		return counts
	}
	firstCounts, secondCounts := count(first), count(second)
	if len(firstCounts) != len(secondCounts) {
		return false
	}
	for size, n := range firstCounts {
		if secondCounts[size] != n {
			return false
		}
	}
	return true
}

// GetProductDimExprForValueDims returns the product of the sizes of dims, which must all be axes
// of the same value. For an empty list it returns Const(0), a sentinel never used as a size.
func GetProductDimExprForValueDims(analysis ShapeAnalysis, dims []DimUsage) shapeanalysis.DimExpr {
	if len(dims) == 0 {
		return shapeanalysis.Const(0)
	}
	axes := make([]int, len(dims))
	for i, d := range dims {
		axes[i] = d.Idx
	}
	return analysis.GetProductDimExpr(dims[0].Value, axes)
}

// IsProductSmallerOrEqual returns whether the product of the sizes of first is at most the one of second.
//
// It is true for an empty first. If both products are static they are compared, otherwise they
// are only accepted if the analysis proves them equal.
func IsProductSmallerOrEqual(analysis ShapeAnalysis, first, second []DimUsage) bool {
	return isProductSmallerOrEqual(analysis, first, second, DefaultTraceLevel)
}

func isProductSmallerOrEqual(analysis ShapeAnalysis, first, second []DimUsage, level klog.Level) bool {
	if len(first) == 0 {
		return true
	}
	firstProduct := GetProductDimExprForValueDims(analysis, first)
	secondProduct := GetProductDimExprForValueDims(analysis, second)
	firstValue, firstStatic := firstProduct.Int64()
	secondValue, secondStatic := secondProduct.Int64()
	if firstStatic && secondStatic {
		klog.V(level).Infof("IsProductSmallerOrEqual: static shapes, left is %d, right is %d", firstValue, secondValue)
		return firstValue <= secondValue
	}
	return analysis.IsEqual(firstProduct, secondProduct)
}
