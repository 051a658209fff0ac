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

func TestNoOpCompileTime(t *testing.T) {
	r := require.New(t)
	s := &NoOpScheduler{}
	r.Nil(s.CanScheduleCompileTime(buildIdentity(t), nil))
	for _, kind := range []fusion.OpKind{fusion.OpSet, fusion.OpBroadcast, fusion.OpSqueeze, fusion.OpReshape} {
		r.Nil(s.CanScheduleCompileTime(buildSingleExpr(t, kind, false), nil), kind.String())
	}
	for _, kind := range []fusion.OpKind{fusion.OpUnary, fusion.OpPermute, fusion.OpReduction, fusion.OpMatmul, fusion.OpFull} {
		rej := s.CanScheduleCompileTime(buildSingleExpr(t, kind, false), nil)
		r.NotNil(rej, kind.String())
		r.Equal(UnsupportedOperation, rej.Kind)
	}
	rej := s.CanScheduleCompileTime(buildSingleExpr(t, fusion.OpReshape, true), nil)
	r.NotNil(rej)
	r.Equal(reshardingReason, rej.Reason)
}

func TestNoOpScheduleViews(t *testing.T) {
	r := require.New(t)
	b := fusion.NewFusionBuilder("views")
	x := b.AddInput("x", fusion.DTypeFloat, 1)
	y := b.AddInput("y", fusion.DTypeFloat, 2)
	viewed := b.Broadcast(b.Reshape(x, 1), 3)
	b.MarkOutput(viewed)
	b.MarkOutput(y)
	f, err := b.Build()
	r.NoError(err)

	s := &NoOpScheduler{}
	r.Nil(s.CanScheduleCompileTime(f, nil))
	r.NoError(s.Schedule(f, &NoOpConfig{}))

	alias, ok := f.GetOutputAlias(viewed)
	r.True(ok)
	r.Same(x, alias.Input)
	r.Equal(fusion.AllocationReuseBuffer, alias.Type)

	alias, ok = f.GetOutputAlias(y)
	r.True(ok)
	r.Same(y, alias.Input)
	r.Empty(f.UnboundOutputs())

	r.Error(s.Schedule(f, &ExprEvalConfig{}))
}

func TestNoOpScheduleRejectsComputedOutput(t *testing.T) {
	r := require.New(t)
	f := buildSingleExpr(t, fusion.OpUnary, false)
	// called without acceptance
	r.Error((&NoOpScheduler{}).Schedule(f, &NoOpConfig{}))
}

func TestRegistryIdentityFusion(t *testing.T) {
	r := require.New(t)
	f := buildIdentity(t)
	d, err := NewRegistry(nil, nil).Schedule(context.Background(), f, contiguousArgs(f, []int64{4, 4}))
	r.NoError(err)
	r.Equal(HeuristicNoOp, d.Heuristic)
	r.Len(d.Rejections, 1)
	r.Equal(HeuristicExprEval, d.Rejections[0].Heuristic)
}
