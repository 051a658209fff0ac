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

package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secretflow/fuser/pkg/fusion"
)

func TestTransposeCompileTime(t *testing.T) {
	r := require.New(t)
	s := &TransposeScheduler{}
	r.Nil(s.CanScheduleCompileTime(buildSingleExpr(t, fusion.OpPermute, false), nil))

	rej := s.CanScheduleCompileTime(buildSingleExpr(t, fusion.OpBinary, false), nil)
	r.NotNil(rej)
	r.Equal("no permute found", rej.Reason)

	rej = s.CanScheduleCompileTime(buildSingleExpr(t, fusion.OpPermute, true), nil)
	r.NotNil(rej)
	r.Equal(reshardingReason, rej.Reason)

	b := fusion.NewFusionBuilder("permute_matmul")
	x := b.AddInput("x", fusion.DTypeFloat, 2)
	w := b.AddInput("w", fusion.DTypeFloat, 2)
	b.MarkOutput(b.Matmul(b.Permute(x, []int64{1, 0}), w))
	f, err := b.Build()
	r.NoError(err)
	rej = s.CanScheduleCompileTime(f, nil)
	r.NotNil(rej)
	r.Equal(UnsupportedOperation, rej.Kind)
}

func TestTransposeConfig(t *testing.T) {
	r := require.New(t)
	s := &TransposeScheduler{}
	f := buildSingleExpr(t, fusion.OpPermute, false)
	{
		args := contiguousArgs(f, []int64{64, 128})
		r.Nil(s.CanScheduleRuntime(f, args, nil))
		cfg, err := s.ComputeConfig(f, args)
		r.NoError(err)
		r.Equal(&TransposeConfig{
			TileSize1:        32,
			TileSize2:        32,
			VectorizeFactor1: 4,
			VectorizeFactor2: 4,
			GridX:            8,
		}, cfg)
	}
	{
		// tiles shrink to small extents
		cfg, err := s.ComputeConfig(f, contiguousArgs(f, []int64{3, 5}))
		r.NoError(err)
		r.Equal(&TransposeConfig{
			TileSize1:        4,
			TileSize2:        2,
			VectorizeFactor1: 1,
			VectorizeFactor2: 1,
			GridX:            4,
		}, cfg)
	}
}

func TestTransposeRuntime(t *testing.T) {
	r := require.New(t)
	s := &TransposeScheduler{}
	f := buildSingleExpr(t, fusion.OpPermute, false)
	rej := s.CanScheduleRuntime(f, contiguousArgs(f, []int64{0, 4}), nil)
	r.NotNil(rej)
	r.Equal(RuntimeMismatch, rej.Kind)

	rej = s.CanScheduleRuntime(f, contiguousArgs(f, []int64{16}), nil)
	r.NotNil(rej)
	r.Contains(rej.Reason, "expected rank 2")
}

func TestTransposeReferenceInput(t *testing.T) {
	r := require.New(t)
	s := &TransposeScheduler{}

	b := fusion.NewFusionBuilder("rank1")
	b.MarkOutput(b.Permute(b.AddInput("x", fusion.DTypeFloat, 1), []int64{0}))
	rank1, err := b.Build()
	r.NoError(err)
	rej := s.CanScheduleCompileTime(rank1, nil)
	r.NotNil(rej)
	r.Contains(rej.Reason, "at least 2 dims")

	b = fusion.NewFusionBuilder("broadcast_permute")
	b.MarkOutput(b.Permute(b.Broadcast(b.AddInput("x", fusion.DTypeFloat, 1), 2), []int64{1, 0}))
	broadcast, err := b.Build()
	r.NoError(err)
	rej = s.CanScheduleCompileTime(broadcast, nil)
	r.NotNil(rej)
	r.Equal(StructuralMismatch, rej.Kind)
	r.Contains(rej.Reason, "cannot be derived")
}

func TestRegistryTransposeThroughViews(t *testing.T) {
	r := require.New(t)
	for name, tc := range map[string]struct {
		build  func(b *fusion.FusionBuilder) *fusion.Val
		shapes [][]int64
	}{
		"constant_first": {
			build: func(b *fusion.FusionBuilder) *fusion.Val {
				x := b.AddInput("x", fusion.DTypeFloat, 2)
				return b.Permute(b.Binary(b.Full(fusion.DTypeFloat, 2, 1), x), []int64{1, 0})
			},
			shapes: [][]int64{{64, 128}},
		},
		"squeeze_operand": {
			build: func(b *fusion.FusionBuilder) *fusion.Val {
				y := b.AddInput("y", fusion.DTypeFloat, 3)
				x := b.AddInput("x", fusion.DTypeFloat, 2)
				return b.Permute(b.Binary(b.Squeeze(y, []int64{0}), x), []int64{1, 0})
			},
			shapes: [][]int64{{1, 64, 128}, {64, 128}},
		},
	} {
		b := fusion.NewFusionBuilder(name)
		b.MarkOutput(tc.build(b))
		f, err := b.Build()
		r.NoError(err, name)

		d, err := NewRegistry(nil, nil).Schedule(context.Background(), f, contiguousArgs(f, tc.shapes...))
		r.NoError(err, name)
		r.Equal(HeuristicTranspose, d.Heuristic, name)
		r.Empty(f.UnboundOutputs(), name)
		cfg := d.Config.(*TransposeConfig)
		r.Equal(32, cfg.TileSize1, name)
		r.Equal(32, cfg.TileSize2, name)
	}

	// a rank 1 permute is left to the pointwise kernel
	b := fusion.NewFusionBuilder("rank1")
	b.MarkOutput(b.Permute(b.AddInput("x", fusion.DTypeFloat, 1), []int64{0}))
	f, err := b.Build()
	r.NoError(err)
	d, err := NewRegistry(nil, nil).Schedule(context.Background(), f, contiguousArgs(f, []int64{16}))
	r.NoError(err)
	r.Equal(HeuristicPointWise, d.Heuristic)
	r.Empty(f.UnboundOutputs())
}

// the runtime winner is never replaced by a lower priority heuristic
func TestRegistryTransposeNoBacktracking(t *testing.T) {
	r := require.New(t)
	f := buildSingleExpr(t, fusion.OpPermute, false)

	reg := NewRegistry(nil, nil)
	d, err := reg.Schedule(context.Background(), f, contiguousArgs(f, []int64{0, 4}))
	r.Error(err)
	r.Equal(HeuristicTranspose, d.Heuristic)
	last := d.Rejections[len(d.Rejections)-1]
	r.Equal(HeuristicTranspose, last.Heuristic)
	r.Equal(RuntimeMismatch, last.Kind)
	// pointwise would have accepted this fusion
	r.Nil((&PointWiseScheduler{}).CanScheduleCompileTime(f, nil))
	r.Empty(f.KernelRegions())
}
