package fusion

import (
	"sync"
	"testing"

	"github.com/gomlx/fusion/axes"
	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/pattern"
	"github.com/gomlx/fusion/shapeanalysis"
	"github.com/gomlx/fusion/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func producers(values ...*ir.Value) []*ir.Operation {
	ops := make([]*ir.Operation, len(values))
	for i, v := range values {
		ops[i] = v.Producer()
	}
	return ops
}

// reduceTree returns a node with a reduce tree of one reduce pattern, made of the producers of values.
func reduceTree(values ...*ir.Value) *pattern.ReduceTree {
	return pattern.NewReduceTree(must.M1(pattern.NewReduce(producers(values...))))
}

// trivial returns a node with a trivial pattern made of the producers of values, the last one being the sink.
func trivial(values ...*ir.Value) *pattern.Node {
	ops := producers(values...)
	return pattern.NewNode(must.M1(pattern.NewTrivial(ops, ops[len(ops)-1])))
}

// newPolicy returns a policy with the signatures inferred from fn.
func newPolicy(t *testing.T, fn *ir.Function) (*Policy, *shapeanalysis.Analysis) {
	table, err := axes.Infer(fn)
	require.NoError(t, err)
	analysis := shapeanalysis.New()
	return NewPolicy(analysis, table), analysis
}

func TestReduceTreeGrownCanMerge(t *testing.T) {
	t.Run("downstream reduces the upstream output", func(t *testing.T) {
		fn := ir.NewFunction("main")
		x := fn.NamedInput("x", dyn("N", 8))
		r1 := must.M1(ir.ReduceSum(x, 1))
		e := must.M1(ir.Exp(r1))
		r2 := must.M1(ir.ReduceSum(e, 0))
		require.NoError(t, fn.Return(r2))
		policy, _ := newPolicy(t, fn)

		upstream := pattern.NewNode(reduceTree(r1))
		downstream := pattern.NewNode(reduceTree(e, r2))
		ok, err := policy.ReduceTreeGrownCanMerge(upstream, downstream)
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = policy.CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("downstream reduces another axis", func(t *testing.T) {
		fn := ir.NewFunction("main")
		x := fn.NamedInput("x", dyn("N", 8))
		y := fn.NamedInput("y", dyn("N", 4))
		r1 := must.M1(ir.ReduceSum(x, 1))
		b := must.M1(ir.BroadcastInDim(r1, y.Shape(), []int{0}))
		d := must.M1(ir.Mul(b, y))
		r2 := must.M1(ir.ReduceSum(d, 1))
		n := must.M1(ir.Negate(r2))
		r3 := must.M1(ir.ReduceMax(n, 0))
		require.NoError(t, fn.Return(r3))
		policy, analysis := newPolicy(t, fn)

		upstream := pattern.NewNode(reduceTree(r1))
		downstream := pattern.NewNode(reduceTree(b, d, r2))
		ok, err := policy.CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.True(t, ok)

		// The consuming reduce pattern is a child of the downstream tree.
		root := must.M1(pattern.NewReduce(producers(n, r3)))
		grown := pattern.NewNode(pattern.NewReduceTree(root, reduceTree(b, d, r2)))
		ok, err = policy.CanFuse(upstream, grown)
		require.NoError(t, err)
		assert.True(t, ok)

		// Once N is known to be 4, the reduced axis of size 4 is related to the upstream output.
		require.NoError(t, analysis.Bind("N", 4))
		ok, err = policy.CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no dependency", func(t *testing.T) {
		fn := ir.NewFunction("main")
		x := fn.NamedInput("x", dyn("N", 8))
		r1 := must.M1(ir.ReduceSum(x, 1))
		r2 := must.M1(ir.ReduceMax(x, 1))
		require.NoError(t, fn.Return(r1, r2))
		policy, _ := newPolicy(t, fn)
		ok, err := policy.CanFuse(pattern.NewNode(reduceTree(r1)), pattern.NewNode(reduceTree(r2)))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ambiguous consumer", func(t *testing.T) {
		fn := ir.NewFunction("main")
		x := fn.NamedInput("x", dyn("N", 8))
		r1 := must.M1(ir.ReduceSum(x, 1))
		e := must.M1(ir.Exp(r1))
		s := must.M1(ir.Add(e, r1))
		r2 := must.M1(ir.ReduceSum(s, 0))
		require.NoError(t, fn.Return(r2))
		policy, _ := newPolicy(t, fn)
		_, err := policy.CanFuse(pattern.NewNode(reduceTree(r1)), pattern.NewNode(reduceTree(e, s, r2)))
		requireInvariant(t, err)
	})

	t.Run("missing signature", func(t *testing.T) {
		fn := ir.NewFunction("main")
		x := fn.NamedInput("x", dyn("N", 8))
		r1 := must.M1(ir.ReduceSum(x, 1))
		r2 := must.M1(ir.ReduceSum(r1, 0))
		require.NoError(t, fn.Return(r2))
		policy := NewPolicy(shapeanalysis.New(), axes.NewTable())
		_, err := policy.CanFuse(pattern.NewNode(reduceTree(r1)), pattern.NewNode(reduceTree(r2)))
		requireInvariant(t, err)
	})

	t.Run("wrong kinds", func(t *testing.T) {
		fn := ir.NewFunction("main")
		x := fn.NamedInput("x", dyn("N", 8))
		e := must.M1(ir.Exp(x))
		r1 := must.M1(ir.ReduceSum(e, 1))
		require.NoError(t, fn.Return(r1))
		policy, _ := newPolicy(t, fn)
		_, err := policy.ReduceTreeGrownCanMerge(trivial(e), pattern.NewNode(reduceTree(r1)))
		requireInvariant(t, err)
		_, err = policy.ReduceTreeGrownCanMerge(pattern.NewNode(reduceTree(r1)), trivial(e))
		requireInvariant(t, err)
	})
}

// reducePlusTrivial builds x[M, N] -> reduce_sum(axis 1) -> broadcast to target -> exp.
func reducePlusTrivial(t *testing.T, xShape, target shapes.Shape) (policy *Policy, upstream, downstream *pattern.Node) {
	fn := ir.NewFunction("main")
	x := fn.NamedInput("x", xShape)
	r := must.M1(ir.ReduceSum(x, 1))
	b := must.M1(ir.BroadcastInDim(r, target, []int{0}))
	e := must.M1(ir.Exp(b))
	require.NoError(t, fn.Return(e))
	policy, _ = newPolicy(t, fn)
	return policy, pattern.NewNode(reduceTree(r)), trivial(b, e)
}

func TestReducePlusTrivialCanMerge(t *testing.T) {
	t.Run("reduced axes reappear", func(t *testing.T) {
		policy, upstream, downstream := reducePlusTrivial(t, dyn("M", "N"), dyn("M", "M", "N"))
		fakes, err := policy.GetFakeReduceIterIdx(upstream, downstream)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, fakes)

		// The product bound fails on its own: M*M is not proven equal to M.
		upstreamReduceDims, upstreamNonReduceDims, err := policy.splitSinkReduceDims(upstream)
		require.NoError(t, err)
		require.Len(t, upstreamReduceDims, 1)
		downstreamDims := must.M1(downstreamOutputUsage(downstream))
		assert.False(t, IsProductSmallerOrEqual(policy.Analysis(), gatherExcept(downstreamDims, fakes), upstreamNonReduceDims))

		ok, err := policy.ReducePlusTrivialCanMerge(upstream, downstream)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = policy.CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("output fits the preserved axes", func(t *testing.T) {
		policy, upstream, downstream := reducePlusTrivial(t,
			shapes.Make(dtypes.Float32, 4, 8), shapes.Make(dtypes.Float32, 4, 1))
		fakes, err := policy.GetFakeReduceIterIdx(upstream, downstream)
		require.NoError(t, err)
		assert.Empty(t, fakes)
		ok, err := policy.CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("output larger than the preserved axes", func(t *testing.T) {
		policy, upstream, downstream := reducePlusTrivial(t,
			shapes.Make(dtypes.Float32, 4, 8), shapes.Make(dtypes.Float32, 4, 2))
		ok, err := policy.CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("symbolic mismatch", func(t *testing.T) {
		policy, upstream, downstream := reducePlusTrivial(t, dyn("M", "N"), dyn("M", "K"))
		ok, err := policy.WithTraceLevel(0).CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// opaquePattern is a pattern unknown to the policy.
type opaquePattern struct {
	*pattern.Trivial
}

func TestCanFuse_Dispatch(t *testing.T) {
	fn := ir.NewFunction("main")
	x := fn.NamedInput("x", dyn("N", 8))
	e := must.M1(ir.Exp(x))
	r1 := must.M1(ir.ReduceSum(e, 1))
	n := must.M1(ir.Negate(r1))
	r2 := must.M1(ir.ReduceSum(n, 0))
	require.NoError(t, fn.Return(r2))
	// An empty signature table: rules that would need signatures fail, defaults don't.
	policy := NewPolicy(shapeanalysis.New(), axes.NewTable())

	triv := trivial(e)
	reduce := pattern.NewNode(must.M1(pattern.NewReduce(producers(e, r1))))
	tree := pattern.NewNode(reduceTree(n, r2))
	for _, pair := range [][2]*pattern.Node{
		{triv, triv}, {triv, reduce}, {triv, tree},
		{reduce, triv}, {reduce, reduce}, {reduce, tree},
		{tree, reduce},
	} {
		ok, err := policy.CanFuse(pair[0], pair[1])
		require.NoError(t, err, "CanFuse(%s, %s)", pair[0], pair[1])
		assert.True(t, ok, "CanFuse(%s, %s)", pair[0], pair[1])
	}

	// The two rules are dispatched, and they need signatures.
	_, err := policy.CanFuse(tree, triv)
	requireInvariant(t, err)

	t.Run("invalid patterns", func(t *testing.T) {
		_, err := policy.CanFuse(nil, triv)
		requireInvariant(t, err)
		_, err = policy.CanFuse(triv, pattern.NewNode(nil))
		requireInvariant(t, err)
		opaque := pattern.NewNode(opaquePattern{must.M1(pattern.NewTrivial(producers(e), e.Producer()))})
		_, err = policy.CanFuse(opaque, triv)
		requireInvariant(t, err)
		_, err = policy.CanFuse(tree, opaque)
		requireInvariant(t, err)
	})
}

func TestGetFakeReduceIterIdx_IllegalCall(t *testing.T) {
	fn := ir.NewFunction("main")
	x := fn.NamedInput("x", dyn("N", 8))
	e := must.M1(ir.Exp(x))
	r1 := must.M1(ir.ReduceSum(e, 1))
	require.NoError(t, fn.Return(r1))
	policy, _ := newPolicy(t, fn)

	reduce := pattern.NewNode(must.M1(pattern.NewReduce(producers(e, r1))))
	_, err := policy.GetFakeReduceIterIdx(trivial(e), reduce)
	requireInvariant(t, err)
	_, err = policy.GetFakeReduceIterIdx(reduce, reduce)
	requireInvariant(t, err)

	// A trivial downstream is enough.
	_, err = policy.GetFakeReduceIterIdx(reduce, trivial(e))
	require.NoError(t, err)
}

func TestMemoizedPolicy(t *testing.T) {
	policy, upstream, downstream := reducePlusTrivial(t, dyn("M", "N"), dyn("M", "M", "N"))
	memo := NewMemoizedPolicy(policy)
	for range 3 {
		ok, err := memo.CanFuse(upstream, downstream)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, memo.Len())
	assert.Equal(t, 2, memo.Hits())

	// Errors are not cached.
	_, err := memo.CanFuse(upstream, nil)
	requireInvariant(t, err)
	assert.Equal(t, 1, memo.Len())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := memo.CanFuse(downstream, upstream)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, memo.Len())

	// A policy configured before it is shared can be used concurrently on its own.
	shared := policy.WithTraceLevel(DefaultTraceLevel + 1)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := shared.CanFuse(upstream, downstream)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
