package pattern

import (
	"testing"

	"github.com/gomlx/fusion/ir"
	"github.com/gomlx/fusion/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	assert.Equal(t, "reduce_tree", KindReduceTree.String())
	assert.Equal(t, "trivial", KindTrivial.String())
	kind, err := KindString("reduce")
	require.NoError(t, err)
	assert.Equal(t, KindReduce, kind)
	_, err = KindString("tree")
	require.Error(t, err)
}

// twoReductions builds exp(x) -> reduce_sum -> negate -> reduce_max, all on [N, 8, 4].
func twoReductions(t *testing.T) (fn *ir.Function, x, e, r1, n, r2 *ir.Value) {
	fn = ir.NewFunction("main")
	x = fn.NamedInput("x", shapes.Make(dtypes.Float32, 4, 8, 4).WithDynamicAxis(0, "N"))
	e = must.M1(ir.Exp(x))
	r1 = must.M1(ir.ReduceSum(e, 2))
	n = must.M1(ir.Negate(r1))
	r2 = must.M1(ir.ReduceMax(n, 1))
	require.NoError(t, fn.Return(r2))
	return
}

func TestPatterns(t *testing.T) {
	fn, x, e, r1, n, r2 := twoReductions(t)
	yield := fn.Operations[len(fn.Operations)-1]

	t.Run("trivial", func(t *testing.T) {
		p, err := NewTrivial([]*ir.Operation{e.Producer()}, e.Producer())
		require.NoError(t, err)
		assert.Equal(t, KindTrivial, p.Kind())
		assert.Same(t, e.Producer(), p.SinkOp())
		assert.Equal(t, []*ir.Value{x}, InputValues(p))

		_, err = NewTrivial([]*ir.Operation{e.Producer()}, n.Producer())
		require.Error(t, err)
		_, err = NewTrivial([]*ir.Operation{r1.Producer()}, r1.Producer())
		require.Error(t, err)
		_, err = NewTrivial(nil, nil)
		require.Error(t, err)
		_, err = NewTrivial([]*ir.Operation{e.Producer(), yield}, e.Producer())
		require.ErrorContains(t, err, "cannot be part of a fusion pattern")
	})

	t.Run("reduce", func(t *testing.T) {
		p, err := NewReduce([]*ir.Operation{e.Producer(), r1.Producer()})
		require.NoError(t, err)
		assert.Equal(t, KindReduce, p.Kind())
		assert.Same(t, r1.Producer(), p.ReduceOp())
		assert.Same(t, r1.Producer(), p.SinkOp())
		assert.Equal(t, []*ir.Value{x}, InputValues(p))

		_, err = NewReduce([]*ir.Operation{e.Producer()})
		require.Error(t, err)
		_, err = NewReduce([]*ir.Operation{r1.Producer(), r2.Producer()})
		require.Error(t, err)
		_, err = NewReduce([]*ir.Operation{r1.Producer(), yield})
		require.ErrorContains(t, err, "cannot be part of a fusion pattern")
	})

	t.Run("reduce tree", func(t *testing.T) {
		inner := must.M1(NewReduce([]*ir.Operation{e.Producer(), r1.Producer()}))
		outer := must.M1(NewReduce([]*ir.Operation{n.Producer(), r2.Producer()}))
		leaf := NewReduceTree(inner)
		tree := NewReduceTree(outer, leaf)
		assert.Equal(t, KindReduceTree, tree.Kind())
		assert.Same(t, outer, tree.Root())
		assert.Same(t, r2.Producer(), tree.SinkOp())
		assert.Equal(t, []*ReduceTree{leaf}, tree.Children())
		assert.Equal(t, []*Reduce{outer, inner}, tree.FlattenReducePatterns())
		assert.Equal(t, []*ir.Operation{n.Producer(), r2.Producer(), e.Producer(), r1.Producer()}, tree.Ops())
		assert.Equal(t, []*ir.Value{r1}, InputValues(outer))
		assert.Equal(t, []*ir.Value{x}, InputValues(tree))

		node := NewNode(tree)
		assert.Same(t, r2.Producer(), node.SinkOp())
		assert.Equal(t, tree, node.StmtPattern())
		assert.Equal(t, "reduce_tree{Negate->%2, ReduceMax->%3, Exp->%0, ReduceSum->%1}", node.String())
	})
}
