package fusion

import (
	"github.com/gomlx/fusion/axes"
	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/pattern"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultTraceLevel is the klog verbosity at which the policy traces its decisions.
const DefaultTraceLevel klog.Level = 4

// Policy decides whether patterns can be fused, judging the relation between the dimensions of
// the upstream and downstream patterns.
//
// It holds read-only references to the shape analysis and the signature table, owned by the
// caller. Once configured, it is safe for concurrent use.
type Policy struct {
	analysis   ShapeAnalysis
	signatures SignatureTable
	traceLevel klog.Level
}

// NewPolicy creates a Policy using the given shape analysis and signatures.
func NewPolicy(analysis ShapeAnalysis, signatures SignatureTable) *Policy {
	return &Policy{
		analysis:   analysis,
		signatures: signatures,
		traceLevel: DefaultTraceLevel,
	}
}

// WithTraceLevel sets the klog verbosity level used to trace decisions, including the traces of
// the dimension splits and predicates. Default is DefaultTraceLevel.
//
// It modifies the policy in place and must be called before the policy is shared between
// goroutines. It returns the policy itself, so calls can be chained.
func (p *Policy) WithTraceLevel(level klog.Level) *Policy {
	p.traceLevel = level
	return p
}

// Analysis returns the shape analysis used by the policy.
func (p *Policy) Analysis() ShapeAnalysis { return p.analysis }

func (p *Policy) tracef(format string, args ...any) {
	klog.V(p.traceLevel).Infof(format, args...)
}

func (p *Policy) tracing() bool {
	return klog.V(p.traceLevel).Enabled()
}

// signature fetches the signature of op, a missing one is an invariant violation.
func (p *Policy) signature(op *ir.Operation) (axes.Signature, error) {
	sig, err := p.signatures.GetSignature(op)
	if err != nil {
		return sig, errors.Wrapf(ErrInvariantViolation, "%v", err)
	}
	return sig, nil
}

// checkKind returns an invariant violation if stmt is not one of the known patterns.
func checkKind(stmt pattern.StmtPattern) error {
	switch stmt.(type) {
	case *pattern.Trivial, *pattern.Reduce, *pattern.ReduceTree:
		return nil
	default:
		return invariantf("unknown statement pattern %T", stmt)
	}
}

// CanFuse returns whether upstream can be merged into downstream.
//
//   - A reduce tree followed by a trivial pattern: see ReducePlusTrivialCanMerge.
//   - A reduce tree followed by another reduce tree: see ReduceTreeGrownCanMerge.
//   - Any other combination can be fused.
//
// An error (wrapping ErrInvariantViolation) means the patterns are inconsistent.
func (p *Policy) CanFuse(upstream, downstream *pattern.Node) (bool, error) {
	if upstream == nil || downstream == nil || upstream.StmtPattern() == nil || downstream.StmtPattern() == nil {
		return false, invariantf("CanFuse called with a nil pattern")
	}
	if err := checkKind(upstream.StmtPattern()); err != nil {
		return false, err
	}
	if err := checkKind(downstream.StmtPattern()); err != nil {
		return false, err
	}
	if _, ok := upstream.StmtPattern().(*pattern.ReduceTree); ok {
		switch downstream.StmtPattern().(type) {
		case *pattern.Trivial:
			return p.ReducePlusTrivialCanMerge(upstream, downstream)
		case *pattern.ReduceTree:
			return p.ReduceTreeGrownCanMerge(upstream, downstream)
		}
	}
	return true, nil
}

// ReduceTreeGrownCanMerge returns whether the upstream reduce tree can be attached to the
// downstream reduce tree.
//
// The downstream reduce pattern consuming the upstream root reduction must not reduce any axis
// related to the upstream reduction output. If no downstream reduce pattern consumes it, they
// can't be merged.
func (p *Policy) ReduceTreeGrownCanMerge(upstream, downstream *pattern.Node) (bool, error) {
	upstreamTree, ok := upstream.StmtPattern().(*pattern.ReduceTree)
	if !ok {
		return false, invariantf("ReduceTreeGrownCanMerge: upstream must be a reduce tree, got %s", upstream)
	}
	downstreamTree, ok := downstream.StmtPattern().(*pattern.ReduceTree)
	if !ok {
		return false, invariantf("ReduceTreeGrownCanMerge: downstream must be a reduce tree, got %s", downstream)
	}
	if p.tracing() {
		p.tracef("upstream pattern:%s", ir.OpsDebugString(upstreamTree.Ops()))
		p.tracef("downstream pattern:%s", ir.OpsDebugString(downstreamTree.Ops()))
		for i, child := range downstreamTree.Children() {
			p.tracef("downstream child #%d:%s", i, ir.OpsDebugString(child.Ops()))
		}
	}

	candidate := GetDownstreamFromCandidate(upstreamTree.Root(), downstreamTree.FlattenReducePatterns())
	if candidate == nil {
		p.tracef("ReduceTreeGrownCanMerge: no downstream reduce pattern consumes the upstream reduction, can't fuse")
		return false, nil
	}
	reduceOut := upstreamTree.Root().ReduceOp().Result(0)
	connectOp, err := FindUserOp(downstreamTree.Ops(), reduceOut)
	if err != nil {
		return false, err
	}
	downstreamReduceOp := candidate.ReduceOp()
	sig, err := p.signature(downstreamReduceOp)
	if err != nil {
		return false, err
	}
	downstreamReduceDims, _, err := splitReduceDims(sig, downstreamReduceOp, p.traceLevel)
	if err != nil {
		return false, err
	}
	usageIdx, err := getUsageIdx(reduceOut, connectOp)
	if err != nil {
		return false, err
	}
	upstreamOutputDims := GetValueUsage(reduceOut, usageIdx)
	related, _ := splitFirstIfRelatedBySecond(p.analysis, downstreamReduceDims, upstreamOutputDims, p.traceLevel)
	if p.tracing() {
		p.tracef("ReduceTreeGrownCanMerge: downstream reduce dims %s, upstream output dims %s, related %s",
			dimsDebugString(p.analysis, downstreamReduceDims), dimsDebugString(p.analysis, upstreamOutputDims),
			dimsDebugString(p.analysis, related))
	}
	result := len(related) == 0
	p.tracef("ReduceTreeGrownCanMerge: %v", result)
	return result, nil
}

// ReducePlusTrivialCanMerge returns whether the trivial downstream pattern can be attached to
// the upstream reduce tree.
//
// It can if the downstream output axes unrelated to the upstream preserved axes match, as a
// multiset of sizes, the upstream reduced axes. Or if the downstream output, without its fake
// reduce axes (see GetFakeReduceIterIdx), isn't larger than the upstream preserved axes.
func (p *Policy) ReducePlusTrivialCanMerge(upstream, downstream *pattern.Node) (bool, error) {
	p.tracef("ReducePlusTrivialCanMerge: %s -> %s", upstream, downstream)
	upstreamReduceDims, upstreamNonReduceDims, err := p.splitSinkReduceDims(upstream)
	if err != nil {
		return false, err
	}
	downstreamOutputDims, err := downstreamOutputUsage(downstream)
	if err != nil {
		return false, err
	}
	_, nonRelatedDims := splitFirstIfRelatedBySecond(p.analysis, downstreamOutputDims, upstreamNonReduceDims, p.traceLevel)
	fakes, err := p.GetFakeReduceIterIdx(upstream, downstream)
	if err != nil {
		return false, err
	}
	downstreamFreeDims := gatherExcept(downstreamOutputDims, fakes)
	if p.tracing() {
		p.tracef("ReducePlusTrivialCanMerge: upstream reduce dims %s, upstream non-reduce dims %s",
			dimsDebugString(p.analysis, upstreamReduceDims), dimsDebugString(p.analysis, upstreamNonReduceDims))
		p.tracef("ReducePlusTrivialCanMerge: downstream non-related dims %s, downstream free dims %s",
			dimsDebugString(p.analysis, nonRelatedDims), dimsDebugString(p.analysis, downstreamFreeDims))
	}
	result := elementwiseEqual(p.analysis, nonRelatedDims, upstreamReduceDims, p.traceLevel) ||
		isProductSmallerOrEqual(p.analysis, downstreamFreeDims, upstreamNonReduceDims, p.traceLevel)
	p.tracef("ReducePlusTrivialCanMerge: %v", result)
	return result, nil
}

// GetFakeReduceIterIdx returns the positions of the downstream output axes that reproduce, by
// size, the axes reduced by the upstream sink. Only axes unrelated to the upstream preserved axes
// are considered, and each is matched at most once.
//
// It must be called with a reduce tree upstream or a trivial downstream, otherwise it is an
// invariant violation.
func (p *Policy) GetFakeReduceIterIdx(upstream, downstream *pattern.Node) ([]int, error) {
	_, upstreamIsTree := upstream.StmtPattern().(*pattern.ReduceTree)
	_, downstreamIsTrivial := downstream.StmtPattern().(*pattern.Trivial)
	if !upstreamIsTree && !downstreamIsTrivial {
		return nil, invariantf("illegal call to GetFakeReduceIterIdx(%s, %s)", upstream, downstream)
	}
	upstreamReduceDims, upstreamNonReduceDims, err := p.splitSinkReduceDims(upstream)
	if err != nil {
		return nil, err
	}
	downstreamOutputDims, err := downstreamOutputUsage(downstream)
	if err != nil {
		return nil, err
	}
	_, trivialReorderDims := splitFirstIfRelatedBySecond(p.analysis, downstreamOutputDims, upstreamNonReduceDims, p.traceLevel)

	visited := make(map[DimUsage]bool, len(trivialReorderDims))
	var result []int
	for _, reduceDim := range upstreamReduceDims {
		for _, trivialDim := range trivialReorderDims {
			if !visited[trivialDim] && trivialDim.SymbolicEqualTo(p.analysis, reduceDim) {
				visited[trivialDim] = true
				result = append(result, trivialDim.Idx)
				break
			}
		}
	}
	p.tracef("FakeReduceIterIdx: %v", result)
	return result, nil
}

// splitSinkReduceDims splits the input dimensions of the sink operation of the node.
func (p *Policy) splitSinkReduceDims(node *pattern.Node) (reduceDims, nonReduceDims []DimUsage, err error) {
	sink := node.SinkOp()
	if sink == nil {
		return nil, nil, invariantf("pattern %s has no sink operation", node)
	}
	sig, err := p.signature(sink)
	if err != nil {
		return nil, nil, err
	}
	return splitReduceDims(sig, sink, p.traceLevel)
}

// downstreamOutputUsage returns the dimensions of the output of the sink of the node.
//
// The usage index 0 always exists, since the output of a pattern is at least consumed by the
// function's Yield.
func downstreamOutputUsage(node *pattern.Node) ([]DimUsage, error) {
	sink := node.SinkOp()
	if sink == nil || sink.NumResults() == 0 {
		return nil, invariantf("sink of pattern %s has no output", node)
	}
	return GetValueUsage(sink.Result(0), 0), nil
}
