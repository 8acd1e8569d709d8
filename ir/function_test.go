package ir

import (
	"fmt"
	"testing"

	"github.com/gomlx/fusion/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunction_Write(t *testing.T) {
	fn := NewFunction("softmax")
	x := fn.NamedInput("x", shapes.Make(dtypes.Float32, 4, 8).WithDynamicAxis(0, "N"))
	e := must.M1(Exp(x))
	sum := must.M1(ReduceSum(e, -1))
	b := must.M1(BroadcastInDim(sum, e.Shape(), []int{0}))
	y := must.M1(Div(e, b))
	require.NoError(t, fn.Return(y))
	text := fn.String()
	fmt.Printf("%s:\n%s", t.Name(), text)
	assert.Equal(t, `func.func @softmax(%x: tensor<Nx8xf32>) {
  %0 = "exp"(%x) : (tensor<Nx8xf32>) -> tensor<Nx8xf32>
  %1 = "reduce_sum"(%0){axes = [1]} : (tensor<Nx8xf32>) -> tensor<Nxf32>
  %2 = "broadcast_in_dim"(%1){broadcast_dimensions = [0]} : (tensor<Nxf32>) -> tensor<Nx8xf32>
  %3 = "div"(%0, %2) : (tensor<Nx8xf32>, tensor<Nx8xf32>) -> tensor<Nx8xf32>
  "yield"(%3) : (tensor<Nx8xf32>) -> ()
}
`, text)
	assert.Equal(t, []int{1}, sum.Producer().ReduceAxes())
	assert.Nil(t, e.Producer().ReduceAxes())
	assert.Equal(t, []*Value{y}, fn.Outputs())
}

func TestFunction_Uses(t *testing.T) {
	fn := NewFunction("uses")
	x := fn.Input(shapes.Make(dtypes.Float32, 3))
	sq := must.M1(Mul(x, x))
	n := must.M1(Negate(x))
	s := must.M1(Add(sq, n))
	require.NoError(t, fn.Return(s))

	uses := fn.Uses(x)
	require.Len(t, uses, 3)
	assert.Equal(t, Use{Owner: sq.Producer(), OperandIndex: 0}, uses[0])
	assert.Equal(t, Use{Owner: sq.Producer(), OperandIndex: 1}, uses[1])
	assert.Equal(t, Use{Owner: n.Producer(), OperandIndex: 0}, uses[2])

	idx, err := fn.UsageIndex(x, n.Producer())
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	idx, err = fn.UsageIndex(x, sq.Producer())
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	_, err = fn.UsageIndex(x, s.Producer())
	require.Error(t, err)

	// Result of the final op is used by the yield only.
	require.Len(t, fn.Uses(s), 1)
	assert.Equal(t, 0, fn.Uses(s)[0].Owner.NumResults())
}

func TestFunction_Errors(t *testing.T) {
	t.Run("after return", func(t *testing.T) {
		fn := NewFunction("main")
		x := fn.Input(shapes.Make(dtypes.Float32, 3))
		require.NoError(t, fn.Return(x))
		_, err := Exp(x)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after returning")
		require.Error(t, fn.Return(x))
	})
	t.Run("foreign operand", func(t *testing.T) {
		fn1 := NewFunction("fn1")
		fn2 := NewFunction("fn2")
		x := fn1.Input(shapes.Make(dtypes.Float32, 3))
		y := fn2.Input(shapes.Make(dtypes.Float32, 3))
		_, err := Add(x, y)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not part of the function")
	})
	t.Run("shape mismatch", func(t *testing.T) {
		fn := NewFunction("main")
		x := fn.Input(shapes.Make(dtypes.Float32, 3))
		y := fn.Input(shapes.Make(dtypes.Float32, 4))
		_, err := Add(x, y)
		require.Error(t, err)
		_, err = ReduceSum(x, 1)
		require.Error(t, err)
	})
}
