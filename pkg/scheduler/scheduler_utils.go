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
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/secretflow/fuser/pkg/fusion"
)

const (
	// bytes moved by one vectorized access
	maxVectorizeBytes  = 16
	maxThreadsPerBlock = 512
)

const reshardingReason = "Fusion is resharding."

func rejectResharding(h HeuristicType, f *fusion.Fusion) *Rejection {
	if f.IsResharding() {
		return reject(h, StructuralMismatch, reshardingReason)
	}
	return nil
}

// firstExprIn returns the first expr whose category is one of categories.
func firstExprIn(f *fusion.Fusion, categories ...fusion.OpCategory) *fusion.Expr {
	for _, e := range f.Exprs() {
		for _, c := range categories {
			if e.Category() == c {
				return e
			}
		}
	}
	return nil
}

func exprsOfKind(f *fusion.Fusion, kind fusion.OpKind) []*fusion.Expr {
	var exprs []*fusion.Expr
	for _, e := range f.Exprs() {
		if e.Kind == kind {
			exprs = append(exprs, e)
		}
	}
	return exprs
}

// referenceInputs returns the fusion inputs of v's rank that reach v only
// through pointwise exprs and copies, in operand order. Their extents
// broadcast to the extents of v.
func referenceInputs(v *fusion.Val) []*fusion.Val {
	var refs []*fusion.Val
	seen := make(map[*fusion.Val]bool)
	var walk func(cur *fusion.Val)
	walk = func(cur *fusion.Val) {
		if seen[cur] || cur.Rank != v.Rank {
			return
		}
		seen[cur] = true
		if cur.IsFusionInput() {
			refs = append(refs, cur)
			return
		}
		def := cur.Definition()
		if def == nil || (def.Category() != fusion.CategoryPointwise && def.Kind != fusion.OpSet) {
			return
		}
		for _, in := range def.Inputs {
			walk(in)
		}
	}
	walk(v)
	return refs
}

func rejectNoReference(h HeuristicType, v *fusion.Val) *Rejection {
	if len(referenceInputs(v)) == 0 {
		return reject(h, StructuralMismatch, "extents of %s cannot be derived from a fusion input of rank %d", v.ToBriefString(), v.Rank)
	}
	return nil
}

// referenceArg returns a runtime arg with the extents of v, combined from
// the args backing its reference inputs. The first arg spanning the full
// extents is returned as is; otherwise a contiguous arg is synthesized.
func referenceArg(f *fusion.Fusion, args *RuntimeArgs, v *fusion.Val) (*TensorArg, error) {
	refs := referenceInputs(v)
	if len(refs) == 0 {
		return nil, fmt.Errorf("extents of %s cannot be derived from a fusion input", v.ToBriefString())
	}
	candidates := make([]*TensorArg, 0, len(refs))
	for _, ref := range refs {
		idx := f.InputIndex(ref)
		if idx < 0 || args == nil || idx >= len(args.Inputs) {
			return nil, fmt.Errorf("no runtime arg for %s", ref.ToBriefString())
		}
		arg := &args.Inputs[idx]
		if arg.Rank() != v.Rank {
			return nil, fmt.Errorf("runtime arg for %s has shape %v, expected rank %d", ref.ToBriefString(), arg.Shape, v.Rank)
		}
		candidates = append(candidates, arg)
	}

	shape := make([]int64, v.Rank)
	for i := range shape {
		shape[i] = 1
	}
	for _, arg := range candidates {
		for i, d := range arg.Shape {
			switch {
			case d == shape[i] || d == 1:
			case shape[i] == 1:
				shape[i] = d
			default:
				return nil, fmt.Errorf("shape %v does not broadcast with %v for %s", arg.Shape, shape, v.ToBriefString())
			}
		}
	}
	for _, arg := range candidates {
		if slices.Equal(arg.Shape, shape) {
			return arg, nil
		}
	}
	return &TensorArg{
		Shape:     shape,
		Strides:   ContiguousStrides(shape),
		DType:     candidates[0].DType,
		Alignment: candidates[0].Alignment,
	}, nil
}

// vectorizeFactor returns the widest power-of-two vector of dtype elements
// fitting maxVectorizeBytes that divides extent and keeps aligned accesses.
func vectorizeFactor(dtype fusion.DType, extent int64, alignment int) int {
	size := dtype.Size()
	if size == 0 || extent <= 0 {
		return 1
	}
	factor := maxVectorizeBytes / size
	for factor > 1 {
		if extent%int64(factor) == 0 && alignment%(factor*size) == 0 {
			return factor
		}
		factor /= 2
	}
	return 1
}

func nextPow2(n int64) int64 {
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// prevPow2 returns the largest power of two not above n, 1 for n < 1.
func prevPow2(n int64) int64 {
	p := int64(1)
	for p*2 <= n {
		p <<= 1
	}
	return p
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func configTypeError(h HeuristicType, cfg Config) error {
	if cfg == nil {
		return fmt.Errorf("%s: nil config", h)
	}
	return fmt.Errorf("%s: cannot schedule with config of %s", h, cfg.HeuristicType())
}

// scheduleKernel covers the whole fusion with one generated kernel region.
func scheduleKernel(f *fusion.Fusion, h HeuristicType, cfg Config) error {
	region := &fusion.KernelRegion{
		Heuristic: h.String(),
		Exprs:     f.Exprs(),
		Outputs:   f.Outputs(),
		Params:    cfg,
	}
	return f.SetKernelRegions(region)
}
