/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	assert.False(t, invalidShape.Ok())

	shape0 := Make(dtypes.Float64)
	assert.True(t, shape0.Ok())
	assert.True(t, shape0.IsScalar())
	assert.Equal(t, 0, shape0.Rank())
	assert.Equal(t, 1, shape0.Size())

	shape1 := Make(dtypes.Float32, 4, 3, 2)
	assert.False(t, shape1.IsScalar())
	assert.Equal(t, 3, shape1.Rank())
	assert.Equal(t, 4*3*2, shape1.Size())
	assert.False(t, shape1.HasDynamicAxes())
	assert.Equal(t, "(Float32)[4 3 2]", shape1.String())

	require.Panics(t, func() { _ = Make(dtypes.Float32, 4, 0) })
}

func TestDim(t *testing.T) {
	shape := Make(dtypes.Float32, 4, 3, 2)
	assert.Equal(t, 4, shape.Dim(0))
	assert.Equal(t, 3, shape.Dim(1))
	assert.Equal(t, 2, shape.Dim(2))
	assert.Equal(t, 4, shape.Dim(-3))
	assert.Equal(t, 2, shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestDynamicAxes(t *testing.T) {
	shape := Make(dtypes.Float32, 1, 8).WithDynamicAxis(0, "N")
	assert.True(t, shape.IsDynamic(0))
	assert.False(t, shape.IsDynamic(1))
	assert.True(t, shape.HasDynamicAxes())
	assert.Equal(t, []string{"N", ""}, shape.AxisNames)
	assert.Equal(t, "N", shape.AxisName(0))
	assert.Equal(t, "", shape.AxisName(1))
	assert.Equal(t, DimDynamic, shape.Size())
	assert.Equal(t, "(Float32)[N 8]", shape.String())
	assert.Equal(t, "tensor<Nx8xf32>", shape.Text())

	unnamed := Make(dtypes.Int32, 2).WithDynamicAxis(-1, "")
	assert.Nil(t, unnamed.AxisNames)
	assert.Equal(t, DimDynamic, unnamed.Size())
	assert.Equal(t, "(Int32)[?]", unnamed.String())

	require.Panics(t, func() { _ = shape.WithDynamicAxis(1, "not valid") })

	dyn := MakeDynamic(dtypes.Float32, []int{DimDynamic, 8}, []string{"N", ""})
	assert.True(t, dyn.Equal(shape))
	assert.False(t, dyn.Equal(Make(dtypes.Float32, 1, 8).WithDynamicAxis(0, "M")))
	require.Panics(t, func() { _ = MakeDynamic(dtypes.Float32, []int{4}, []string{"N"}) })
	require.Panics(t, func() { _ = MakeDynamic(dtypes.Float32, []int{4}, nil) })
}

func TestSameDim(t *testing.T) {
	a := MakeDynamic(dtypes.Float32, []int{DimDynamic, 8, DimDynamic}, []string{"N", "", ""})
	b := MakeDynamic(dtypes.Float32, []int{8, DimDynamic}, []string{"", "N"})
	assert.True(t, a.SameDim(0, b, 1))
	assert.True(t, a.SameDim(1, b, 0))
	assert.False(t, a.SameDim(0, b, 0))
	// Unnamed dynamic axes are never known to be the same.
	assert.False(t, a.SameDim(2, a, 2))
}

func TestText(t *testing.T) {
	assert.Equal(t, "tensor<1x10xf32>", Make(dtypes.Float32, 1, 10).Text())
	assert.Equal(t, "tensor<i32>", Make(dtypes.Int32).Text())
}
