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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secretflow/fuser/pkg/fusion"
)

// buildSingleExpr builds a fusion made of one expression of kind.
func buildSingleExpr(t *testing.T, kind fusion.OpKind, resharding bool) *fusion.Fusion {
	b := fusion.NewFusionBuilder(kind.String())
	switch kind {
	case fusion.OpSdpaFwd:
		q := b.AddInput("q", fusion.DTypeHalf, 4)
		k := b.AddInput("k", fusion.DTypeHalf, 4)
		v := b.AddInput("v", fusion.DTypeHalf, 4)
		out, lse := b.SdpaFwd(q, k, v)
		b.MarkOutput(out)
		b.MarkOutput(lse)
	case fusion.OpSdpaBwd:
		g := b.AddInput("grad", fusion.DTypeHalf, 4)
		q := b.AddInput("q", fusion.DTypeHalf, 4)
		k := b.AddInput("k", fusion.DTypeHalf, 4)
		v := b.AddInput("v", fusion.DTypeHalf, 4)
		out := b.AddInput("out", fusion.DTypeHalf, 4)
		lse := b.AddInput("lse", fusion.DTypeFloat, 3)
		gq, gk, gv := b.SdpaBwd(g, q, k, v, out, lse)
		b.MarkOutput(gq)
		b.MarkOutput(gk)
		b.MarkOutput(gv)
	case fusion.OpMatmul:
		x := b.AddInput("x", fusion.DTypeFloat, 2)
		w := b.AddInput("w", fusion.DTypeFloat, 2)
		b.MarkOutput(b.Matmul(x, w))
	case fusion.OpLinear:
		x := b.AddInput("x", fusion.DTypeFloat, 2)
		w := b.AddInput("w", fusion.DTypeFloat, 2)
		bias := b.AddInput("bias", fusion.DTypeFloat, 1)
		b.MarkOutput(b.Linear(x, w, bias))
	case fusion.OpSet:
		b.MarkOutput(b.Set(b.AddInput("x", fusion.DTypeFloat, 2)))
	case fusion.OpUnary:
		b.MarkOutput(b.Unary(b.AddInput("x", fusion.DTypeFloat, 2)))
	case fusion.OpBinary:
		x := b.AddInput("x", fusion.DTypeFloat, 2)
		y := b.AddInput("y", fusion.DTypeFloat, 2)
		b.MarkOutput(b.Binary(x, y))
	case fusion.OpTernary:
		c := b.AddInput("c", fusion.DTypeBool, 2)
		x := b.AddInput("x", fusion.DTypeFloat, 2)
		y := b.AddInput("y", fusion.DTypeFloat, 2)
		b.MarkOutput(b.Ternary(c, x, y))
	case fusion.OpCast:
		b.MarkOutput(b.Cast(b.AddInput("x", fusion.DTypeFloat, 2), fusion.DTypeHalf))
	case fusion.OpBroadcast:
		b.MarkOutput(b.Broadcast(b.AddInput("x", fusion.DTypeFloat, 1), 2))
	case fusion.OpSqueeze:
		b.MarkOutput(b.Squeeze(b.AddInput("x", fusion.DTypeFloat, 2), []int64{0}))
	case fusion.OpReshape:
		b.MarkOutput(b.Reshape(b.AddInput("x", fusion.DTypeFloat, 2), 1))
	case fusion.OpPermute:
		b.MarkOutput(b.Permute(b.AddInput("x", fusion.DTypeFloat, 2), []int64{1, 0}))
	case fusion.OpReduction:
		b.MarkOutput(b.Reduce(b.AddInput("x", fusion.DTypeFloat, 2), []int64{1}))
	case fusion.OpFull:
		b.MarkOutput(b.Full(fusion.DTypeFloat, 2, 0))
	default:
		t.Fatalf("no single expr fusion for %s", kind)
	}
	b.SetResharding(resharding)
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

// buildMatmulAdd builds {matmul, add}.
func buildMatmulAdd(t *testing.T) *fusion.Fusion {
	b := fusion.NewFusionBuilder("matmul_add")
	x := b.AddInput("x", fusion.DTypeFloat, 2)
	w := b.AddInput("w", fusion.DTypeFloat, 2)
	bias := b.AddInput("bias", fusion.DTypeFloat, 2)
	b.MarkOutput(b.Binary(b.Matmul(x, w), bias))
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

// buildIdentity builds a fusion returning its input unchanged.
func buildIdentity(t *testing.T) *fusion.Fusion {
	b := fusion.NewFusionBuilder("identity")
	b.MarkOutput(b.AddInput("x", fusion.DTypeFloat, 2))
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

// contiguousArgs binds contiguous, 16-byte aligned tensors of the given
// shapes to the inputs of f.
func contiguousArgs(f *fusion.Fusion, shapes ...[]int64) *RuntimeArgs {
	args := &RuntimeArgs{}
	inputs := f.Inputs()
	for i, shape := range shapes {
		arg := TensorArg{
			Shape:     shape,
			Strides:   ContiguousStrides(shape),
			Alignment: DefaultAlignment,
		}
		if i < len(inputs) {
			arg.DType = inputs[i].DType
		}
		args.Inputs = append(args.Inputs, arg)
	}
	return args
}

type recordingReporter struct {
	mu      sync.Mutex
	records []Rejection
}

func (r *recordingReporter) RecordRejection(heuristic HeuristicType, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Rejection{Heuristic: heuristic, Reason: reason})
}

func (r *recordingReporter) heuristics() []HeuristicType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []HeuristicType
	for _, rec := range r.records {
		types = append(types, rec.Heuristic)
	}
	return types
}
