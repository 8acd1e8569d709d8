package optypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpTypeCategories(t *testing.T) {
	assert.True(t, Exp.IsElementwise())
	assert.True(t, Add.IsElementwise())
	assert.False(t, ReduceSum.IsElementwise())
	assert.True(t, ReduceSum.IsReduce())
	assert.True(t, ReduceMax.IsReduce())
	assert.False(t, Transpose.IsReduce())
	assert.True(t, BroadcastInDim.IsShapeOnly())
	assert.False(t, Yield.IsShapeOnly())
}

func TestOpTypeNames(t *testing.T) {
	assert.Equal(t, "reduce_sum", ReduceSum.SnakeName())
	assert.Equal(t, "broadcast_in_dim", BroadcastInDim.SnakeName())

	op, err := OpTypeString("ReduceSum")
	require.NoError(t, err)
	assert.Equal(t, ReduceSum, op)
	op, err = OpTypeString("exp")
	require.NoError(t, err)
	assert.Equal(t, Exp, op)
	_, err = OpTypeString("Convolution")
	require.Error(t, err)
}
