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

func buildBiasAdd(t *testing.T) *fusion.Fusion {
	b := fusion.NewFusionBuilder("bias_add")
	x := b.AddInput("x", fusion.DTypeFloat, 2)
	y := b.AddInput("y", fusion.DTypeFloat, 1)
	b.MarkOutput(b.Binary(x, b.Broadcast(y, 2)))
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

func TestPointwiseCompileTime(t *testing.T) {
	r := require.New(t)
	s := &PointWiseScheduler{}
	for _, kind := range []fusion.OpKind{fusion.OpUnary, fusion.OpBinary, fusion.OpCast, fusion.OpPermute, fusion.OpFull, fusion.OpSet} {
		r.Nil(s.CanScheduleCompileTime(buildSingleExpr(t, kind, false), nil), kind.String())
	}
	rej := s.CanScheduleCompileTime(buildIdentity(t), nil)
	r.NotNil(rej)
	r.Equal("no computation", rej.Reason)

	for _, kind := range []fusion.OpKind{fusion.OpReduction, fusion.OpMatmul, fusion.OpLinear, fusion.OpSdpaFwd, fusion.OpSdpaBwd} {
		rej := s.CanScheduleCompileTime(buildSingleExpr(t, kind, false), nil)
		r.NotNil(rej, kind.String())
		r.Equal(UnsupportedOperation, rej.Kind)
	}

	rej = s.CanScheduleCompileTime(buildSingleExpr(t, fusion.OpUnary, true), nil)
	r.NotNil(rej)
	r.Equal(reshardingReason, rej.Reason)
}

func TestPointwiseBroadcast(t *testing.T) {
	r := require.New(t)
	s := &PointWiseScheduler{}
	f := buildBiasAdd(t)

	args := contiguousArgs(f, []int64{8, 1024}, []int64{1024})
	r.Nil(s.CanScheduleRuntime(f, args, nil))
	cfg, err := s.ComputeConfig(f, args)
	r.NoError(err)
	r.Equal(&PointwiseConfig{
		Numel:           8192,
		VectorizeFactor: 4,
		UnrollFactor:    1,
		BlockX:          128,
		GridX:           16,
	}, cfg)

	rej := s.CanScheduleRuntime(f, contiguousArgs(f, []int64{8, 1024}, []int64{512}), nil)
	r.NotNil(rej)
	r.Equal(RuntimeMismatch, rej.Kind)
	r.Contains(rej.Reason, "does not broadcast")

	shape, err := broadcastShape(contiguousArgs(f, []int64{1, 3}, []int64{4, 1, 1}))
	r.NoError(err)
	r.Equal([]int64{4, 1, 3}, shape)
}

func TestPointwiseConfig(t *testing.T) {
	r := require.New(t)
	s := &PointWiseScheduler{}
	f := buildSingleExpr(t, fusion.OpBinary, false)
	{
		cfg, err := s.ComputeConfig(f, contiguousArgs(f, []int64{1024, 1024}, []int64{1024, 1024}))
		r.NoError(err)
		r.Equal(&PointwiseConfig{
			Numel:           1 << 20,
			VectorizeFactor: 4,
			UnrollFactor:    4,
			BlockX:          128,
			GridX:           512,
		}, cfg)
	}
	{
		// a strided input disables vectorization for all
		args := contiguousArgs(f, []int64{64, 64}, []int64{64, 64})
		args.Inputs[1].Strides = []int64{1, 64}
		cfg, err := s.ComputeConfig(f, args)
		r.NoError(err)
		r.Equal(1, cfg.(*PointwiseConfig).VectorizeFactor)
		r.Equal(int64(32), cfg.(*PointwiseConfig).GridX)
	}
	{
		cfg, err := s.ComputeConfig(f, contiguousArgs(f, []int64{0, 64}, []int64{0, 64}))
		r.NoError(err)
		r.Equal(int64(0), cfg.(*PointwiseConfig).Numel)
		r.Equal(int64(1), cfg.(*PointwiseConfig).GridX)
	}
}

func TestRegistryPointwise(t *testing.T) {
	r := require.New(t)
	f := buildBiasAdd(t)
	d, err := NewRegistry(nil, nil).Schedule(context.Background(), f, contiguousArgs(f, []int64{8, 1024}, []int64{1024}))
	r.NoError(err)
	r.Equal(HeuristicPointWise, d.Heuristic)
	r.Equal([]HeuristicType{HeuristicExprEval, HeuristicNoOp, HeuristicReduction, HeuristicTranspose}, rejectedBy(d.Rejections))
	r.Len(f.KernelRegions(), 1)
	r.Empty(f.UnboundOutputs())
}

func rejectedBy(rejections []Rejection) []HeuristicType {
	var types []HeuristicType
	for _, rej := range rejections {
		types = append(types, rej.Heuristic)
	}
	return types
}
