package fusion

import (
	"github.com/gomlx/fusion/axes"
	"github.com/gomlx/fusion/internal/utils"
	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/pattern"
	"k8s.io/klog/v2"
)

// SplitReduceDims partitions the axes of the first operand of op into the ones consumed by the
// operation (reduceDims, axis name missing from the first output of the signature) and the ones
// preserved (nonReduceDims). Both keep the axes order, and are tagged with the usage index of
// the operand's edge into op.
//
// The split is traced at DefaultTraceLevel.
func SplitReduceDims(sig axes.Signature, op *ir.Operation) (reduceDims, nonReduceDims []DimUsage, err error) {
	return splitReduceDims(sig, op, DefaultTraceLevel)
}

func splitReduceDims(sig axes.Signature, op *ir.Operation, level klog.Level) (reduceDims, nonReduceDims []DimUsage, err error) {
	if op.NumOperands() == 0 {
		return nil, nil, invariantf("SplitReduceDims: operation %s has no operands", op.Type())
	}
	if len(sig.Inputs) == 0 || len(sig.Outputs) == 0 {
		return nil, nil, invariantf("SplitReduceDims: signature %s of operation %s needs at least one input and one output",
			sig, op.Type())
	}
	v := op.Operand(0)
	if sig.Inputs[0].Rank() != v.Shape().Rank() {
		return nil, nil, invariantf("SplitReduceDims: signature input %s doesn't match operand shape %s of operation %s",
			sig.Inputs[0], v.Shape(), op.Type())
	}
	usageIdx, err := getUsageIdx(v, op)
	if err != nil {
		return nil, nil, err
	}
	outputNames := utils.SetWith(sig.Outputs[0].AxisNames...)
	for idx, name := range sig.Inputs[0].AxisNames {
		dim := DimUsage{Value: v, Idx: idx, UsageIdx: usageIdx}
		if outputNames.Has(name) {
			nonReduceDims = append(nonReduceDims, dim)
		} else {
			reduceDims = append(reduceDims, dim)
		}
	}
	if klog.V(level).Enabled() {
		klog.V(level).Infof("SplitReduceDims(%s): reduce dims %s, non-reduce dims %s",
			op.Type(), dimsDebugString(nil, reduceDims), dimsDebugString(nil, nonReduceDims))
	}
	return reduceDims, nonReduceDims, nil
}

// SplitFirstIfRelatedBySecond partitions targets into the dimensions related (see IsRelated)
// to any of relatedWith, and the others. Both keep the order of targets.
//
// The partition is traced at DefaultTraceLevel.
func SplitFirstIfRelatedBySecond(analysis ShapeAnalysis, targets, relatedWith []DimUsage) (related, nonRelated []DimUsage) {
	return splitFirstIfRelatedBySecond(analysis, targets, relatedWith, DefaultTraceLevel)
}

func splitFirstIfRelatedBySecond(analysis ShapeAnalysis, targets, relatedWith []DimUsage, level klog.Level) (
	related, nonRelated []DimUsage) {
	for _, target := range targets {
		isRelated := false
		for _, other := range relatedWith {
			if IsRelated(analysis, other, target) {
				isRelated = true
				break
			}
		}
		if isRelated {
			related = append(related, target)
		} else {
			nonRelated = append(nonRelated, target)
		}
	}
	if klog.V(level).Enabled() {
		klog.V(level).Infof("SplitFirstIfRelatedBySecond: related dims %s, non-related dims %s",
			dimsDebugString(analysis, related), dimsDebugString(analysis, nonRelated))
	}
	return
}

// FindUserOp returns the single operation of candidates that consumes v.
//
// Each use-edge counts: an operation consuming v twice counts as two users. Anything other
// than exactly one user is an invariant violation.
func FindUserOp(candidates []*ir.Operation, v *ir.Value) (*ir.Operation, error) {
	inCandidates := utils.SetWith(candidates...)
	var users []*ir.Operation
	for _, use := range v.Function().Uses(v) {
		if inCandidates.Has(use.Owner) {
			users = append(users, use.Owner)
		}
	}
	if len(users) != 1 {
		return nil, invariantf("zero or multiple user operations of %s found in candidates, expected exactly one but found %d",
			v, len(users))
	}
	return users[0], nil
}

// isDownstreamDependingOnReduceOp returns whether downstream consumes any result of reduceOp.
func isDownstreamDependingOnReduceOp(reduceOp *ir.Operation, downstream pattern.StmtPattern) bool {
	inputs := utils.SetWith(pattern.InputValues(downstream)...)
	for _, result := range reduceOp.Results() {
		if inputs.Has(result) {
			return true
		}
	}
	return false
}

// GetDownstreamFromCandidate returns the first candidate consuming a result of the reduction of
// upstream, or nil if there is none.
func GetDownstreamFromCandidate(upstream *pattern.Reduce, candidates []*pattern.Reduce) *pattern.Reduce {
	reduceOp := upstream.ReduceOp()
	for _, candidate := range candidates {
		if isDownstreamDependingOnReduceOp(reduceOp, candidate) {
			return candidate
		}
	}
	return nil
}
