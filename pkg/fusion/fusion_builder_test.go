// Copyright 2025 Ant Group Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fusion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSdpaFwd(t *testing.T) {
	r := require.New(t)
	b := NewFusionBuilder("attention")
	q := b.AddInput("q", DTypeHalf, 4)
	k := b.AddInput("k", DTypeHalf, 4)
	v := b.AddInput("v", DTypeHalf, 4)
	out, lse := b.SdpaFwd(q, k, v)
	b.MarkOutput(out)
	b.MarkOutput(lse)

	f, err := b.Build()
	r.NoError(err)
	r.NotEmpty(f.ID)
	r.Equal("attention", f.Name)
	r.Len(f.Exprs(), 1)
	r.Len(f.Inputs(), 3)
	r.Len(f.Outputs(), 2)
	r.False(f.IsResharding())

	e := f.Exprs()[0]
	r.Equal(OpSdpaFwd, e.Kind)
	r.Equal(OpNameSdpaFwd, e.Name)
	r.Same(e, out.Definition())
	r.Same(e, lse.Definition())
	r.Equal(DTypeFloat, lse.DType)
	r.Equal(3, lse.Rank)
	r.True(out.IsFusionOutput())
	r.True(q.IsFusionInput())
	r.Nil(q.Definition())
}

func TestBuildChain(t *testing.T) {
	r := require.New(t)
	b := NewFusionBuilder("chain")
	x := b.AddInput("x", DTypeFloat, 2)
	y := b.AddInput("y", DTypeHalf, 1)
	yb := b.Broadcast(y, 2)
	s := b.Binary(x, yb)
	c := b.Cast(s, DTypeHalf)
	red := b.Reduce(c, []int64{1})
	b.MarkOutput(red)

	f, err := b.Build()
	r.NoError(err)
	r.Len(f.Exprs(), 4)
	r.Equal(DTypeFloat, s.DType)
	r.Equal(2, s.Rank)
	r.Equal(DTypeHalf, c.DType)
	r.Equal(1, red.Rank)

	axes, err := red.Definition().GetAttrInts(AttrAxes)
	r.NoError(err)
	r.Equal([]int64{1}, axes)
	dt, err := c.Definition().GetAttrDType(AttrDType)
	r.NoError(err)
	r.Equal(DTypeHalf, dt)

	consumers := f.ConsumersOf(x)
	r.Len(consumers, 1)
	r.Equal(OpBinary, consumers[0].Kind)
	r.Equal(1, f.InputIndex(y))
	r.Equal(-1, f.InputIndex(s))
}

func TestBuildErrors(t *testing.T) {
	r := require.New(t)
	{
		b := NewFusionBuilder("no_output")
		x := b.AddInput("x", DTypeFloat, 2)
		b.Unary(x)
		_, err := b.Build()
		r.ErrorContains(err, "no outputs")
	}
	{
		b := NewFusionBuilder("bad_perm")
		x := b.AddInput("x", DTypeFloat, 3)
		b.MarkOutput(b.Permute(x, []int64{0, 0, 1}))
		_, err := b.Build()
		r.ErrorContains(err, "not a permutation")
	}
	{
		b := NewFusionBuilder("bad_axes")
		x := b.AddInput("x", DTypeFloat, 3)
		b.MarkOutput(b.Reduce(x, []int64{2, 2}))
		_, err := b.Build()
		r.ErrorContains(err, "invalid reduction axes")
	}
	{
		b := NewFusionBuilder("broadcast_down")
		x := b.AddInput("x", DTypeFloat, 3)
		r.Nil(b.Broadcast(x, 2))
		r.Error(b.Err())
		_, err := b.Build()
		r.Error(err)
	}
	{
		b := NewFusionBuilder("redefine")
		x := b.AddInput("x", DTypeFloat, 1)
		out := b.AddVal("out", DTypeFloat, 1)
		r.NotNil(b.AddExpr(OpUnary, "neg", []*Val{x}, []*Val{out}, nil))
		r.Nil(b.AddExpr(OpUnary, "abs", []*Val{x}, []*Val{out}, nil))
		r.ErrorContains(b.Err(), "already defined")
	}
	{
		// the first error wins
		b := NewFusionBuilder("nil_chain")
		r.Nil(b.Unary(nil))
		r.Nil(b.Matmul(nil, nil))
		r.ErrorContains(b.Err(), "Unary")
	}
	{
		b := NewFusionBuilder("missing_attr")
		x := b.AddInput("x", DTypeFloat, 2)
		out := b.AddVal("out", DTypeFloat, 2)
		b.AddExpr(OpPermute, "", []*Val{x}, []*Val{out}, nil)
		b.MarkOutput(out)
		_, err := b.Build()
		r.ErrorContains(err, "missing required attribute perm")
	}
	{
		b := NewFusionBuilder("bad_arity")
		x := b.AddInput("x", DTypeFloat, 2)
		out := b.AddVal("out", DTypeFloat, 2)
		b.AddExpr(OpMatmul, "", []*Val{x}, []*Val{out}, nil)
		b.MarkOutput(out)
		_, err := b.Build()
		r.ErrorContains(err, "MatmulOp expects 2 inputs, got 1")
	}
}

func TestBuildInputAsOutput(t *testing.T) {
	r := require.New(t)
	b := NewFusionBuilder("identity")
	x := b.AddInput("x", DTypeFloat, 2)
	b.MarkOutput(x)
	f, err := b.Build()
	r.NoError(err)
	r.Empty(f.Exprs())
	r.True(x.IsFusionInput())
	r.True(x.IsFusionOutput())
}
