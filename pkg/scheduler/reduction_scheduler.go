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

var _ Heuristic = &ReductionScheduler{}

const (
	// reductions longer than this are split across blocks
	crossGridThreshold   = 32768
	outerReductionBlockX = 32
)

// ReductionScheduler generates one kernel for fusions whose reductions all
// reduce the same axes, together with surrounding pointwise work.
type ReductionScheduler struct{}

func (s *ReductionScheduler) Type() HeuristicType {
	return HeuristicReduction
}

func (s *ReductionScheduler) CanScheduleCompileTime(f *fusion.Fusion, _ *Options) *Rejection {
	if r := rejectResharding(HeuristicReduction, f); r != nil {
		return r
	}
	if e := firstExprIn(f, fusion.CategoryNative, fusion.CategoryPermute); e != nil {
		return reject(HeuristicReduction, UnsupportedOperation, "%s cannot be fused into a reduction kernel", e.Name)
	}
	reductions := exprsOfKind(f, fusion.OpReduction)
	if len(reductions) == 0 {
		return reject(HeuristicReduction, StructuralMismatch, "no reduction found")
	}
	first, err := reductions[0].GetAttrInts(fusion.AttrAxes)
	if err != nil {
		return reject(HeuristicReduction, StructuralMismatch, "%v", err)
	}
	for _, e := range reductions[1:] {
		axes, err := e.GetAttrInts(fusion.AttrAxes)
		if err != nil {
			return reject(HeuristicReduction, StructuralMismatch, "%v", err)
		}
		if !slices.Equal(first, axes) || e.Inputs[0].Rank != reductions[0].Inputs[0].Rank {
			return reject(HeuristicReduction, StructuralMismatch, "reductions must share the same reduction axes")
		}
	}
	return rejectNoReference(HeuristicReduction, reductions[0].Inputs[0])
}

// reductionArgs returns the first reduction's axes and the arg backing it.
func reductionArgs(f *fusion.Fusion, args *RuntimeArgs) ([]int64, *TensorArg, error) {
	reductions := exprsOfKind(f, fusion.OpReduction)
	if len(reductions) == 0 {
		return nil, nil, fmt.Errorf("no reduction found")
	}
	axes, err := reductions[0].GetAttrInts(fusion.AttrAxes)
	if err != nil {
		return nil, nil, err
	}
	arg, err := referenceArg(f, args, reductions[0].Inputs[0])
	if err != nil {
		return nil, nil, err
	}
	return axes, arg, nil
}

func (s *ReductionScheduler) CanScheduleRuntime(f *fusion.Fusion, args *RuntimeArgs, _ *Options) *Rejection {
	axes, arg, err := reductionArgs(f, args)
	if err != nil {
		return reject(HeuristicReduction, RuntimeMismatch, "%v", err)
	}
	size := int64(1)
	for _, a := range axes {
		if int(a) >= arg.Rank() {
			return reject(HeuristicReduction, RuntimeMismatch, "reduction axis %d out of range for shape %v", a, arg.Shape)
		}
		size *= arg.Shape[a]
	}
	if size <= 0 {
		return reject(HeuristicReduction, RuntimeMismatch, "empty reduction over shape %v", arg.Shape)
	}
	return nil
}

func (s *ReductionScheduler) ComputeConfig(f *fusion.Fusion, args *RuntimeArgs) (Config, error) {
	axes, arg, err := reductionArgs(f, args)
	if err != nil {
		return nil, err
	}
	rank := arg.Rank()
	cfg := &ReductionConfig{ReductionSize: 1, VectorizeFactor: 1}
	for _, a := range axes {
		if int(a) >= rank {
			return nil, fmt.Errorf("reduction axis %d out of range for shape %v", a, arg.Shape)
		}
		cfg.ReductionSize *= arg.Shape[a]
		if int(a) == rank-1 {
			cfg.InnerReduction = true
		}
	}
	if cfg.ReductionSize <= 0 {
		return nil, fmt.Errorf("empty reduction over shape %v", arg.Shape)
	}
	cfg.IterationSize = arg.Numel() / cfg.ReductionSize

	// vectorize along the contiguous innermost dim, reduced or not
	if rank > 0 && arg.Strides[rank-1] == 1 {
		cfg.VectorizeFactor = vectorizeFactor(arg.DType, arg.Shape[rank-1], arg.Alignment)
	}

	vec := int64(cfg.VectorizeFactor)
	if cfg.InnerReduction {
		cfg.BlockX = int(min(nextPow2(ceilDiv(cfg.ReductionSize, vec)), maxThreadsPerBlock))
		cfg.BlockY = maxThreadsPerBlock / cfg.BlockX
		cfg.GridX = max(ceilDiv(cfg.IterationSize, int64(cfg.BlockY)), 1)
	} else {
		cfg.BlockX = outerReductionBlockX
		cfg.BlockY = maxThreadsPerBlock / cfg.BlockX
		cfg.GridX = max(ceilDiv(cfg.IterationSize, int64(cfg.BlockX)*vec), 1)
	}
	cfg.CrossGrid = cfg.ReductionSize > crossGridThreshold
	return cfg, nil
}

func (s *ReductionScheduler) Schedule(f *fusion.Fusion, cfg Config) error {
	c, ok := cfg.(*ReductionConfig)
	if !ok || c == nil {
		return configTypeError(HeuristicReduction, cfg)
	}
	return scheduleKernel(f, HeuristicReduction, c)
}
