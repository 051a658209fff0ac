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

	"github.com/secretflow/fuser/pkg/fusion"
)

var _ Heuristic = &PointWiseScheduler{}

const (
	pointwiseBlockX = 128
	// unroll once a kernel touches this many elements
	unrollThreshold = 1 << 20
	unrollFactor    = 4
)

// PointWiseScheduler is the fallback generating one elementwise kernel.
type PointWiseScheduler struct{}

func (s *PointWiseScheduler) Type() HeuristicType {
	return HeuristicPointWise
}

func (s *PointWiseScheduler) CanScheduleCompileTime(f *fusion.Fusion, _ *Options) *Rejection {
	if r := rejectResharding(HeuristicPointWise, f); r != nil {
		return r
	}
	if len(f.Exprs()) == 0 {
		return reject(HeuristicPointWise, StructuralMismatch, "no computation")
	}
	if e := firstExprIn(f, fusion.CategoryNative, fusion.CategoryReduction); e != nil {
		return reject(HeuristicPointWise, UnsupportedOperation, "%s cannot be fused into a pointwise kernel", e.Name)
	}
	return nil
}

// broadcastShape combines shapes with numpy broadcasting rules.
func broadcastShape(args *RuntimeArgs) ([]int64, error) {
	var ref []int64
	for i, arg := range args.Inputs {
		shape := arg.Shape
		if len(shape) > len(ref) {
			padded := make([]int64, len(shape))
			copy(padded[len(shape)-len(ref):], ref)
			for j := 0; j < len(shape)-len(ref); j++ {
				padded[j] = 1
			}
			ref = padded
		}
		offset := len(ref) - len(shape)
		for j, d := range shape {
			r := ref[offset+j]
			switch {
			case r == d || d == 1:
			case r == 1:
				ref[offset+j] = d
			default:
				return nil, fmt.Errorf("arg %d with shape %v does not broadcast to %v", i, shape, ref)
			}
		}
	}
	return ref, nil
}

func (s *PointWiseScheduler) CanScheduleRuntime(_ *fusion.Fusion, args *RuntimeArgs, _ *Options) *Rejection {
	if args == nil {
		return reject(HeuristicPointWise, RuntimeMismatch, "runtime args are missing")
	}
	if _, err := broadcastShape(args); err != nil {
		return reject(HeuristicPointWise, RuntimeMismatch, "%v", err)
	}
	return nil
}

func (s *PointWiseScheduler) ComputeConfig(_ *fusion.Fusion, args *RuntimeArgs) (Config, error) {
	if args == nil {
		return nil, fmt.Errorf("runtime args are missing")
	}
	ref, err := broadcastShape(args)
	if err != nil {
		return nil, err
	}
	cfg := &PointwiseConfig{
		Numel:           1,
		VectorizeFactor: 1,
		UnrollFactor:    1,
		BlockX:          pointwiseBlockX,
	}
	for _, d := range ref {
		cfg.Numel *= d
	}

	// only full-rank inputs are read along the innermost dim, and all of
	// them must agree on the vector width
	if len(ref) > 0 {
		inner := ref[len(ref)-1]
		vec := 0
		for i := range args.Inputs {
			arg := &args.Inputs[i]
			if arg.Rank() != len(ref) {
				continue
			}
			factor := 1
			if arg.IsContiguous() {
				factor = vectorizeFactor(arg.DType, inner, arg.Alignment)
			}
			if vec == 0 || factor < vec {
				vec = factor
			}
		}
		if vec > 0 {
			cfg.VectorizeFactor = vec
		}
	}
	if cfg.Numel >= unrollThreshold {
		cfg.UnrollFactor = unrollFactor
	}
	perBlock := int64(cfg.BlockX * cfg.VectorizeFactor * cfg.UnrollFactor)
	cfg.GridX = max(ceilDiv(cfg.Numel, perBlock), 1)
	return cfg, nil
}

func (s *PointWiseScheduler) Schedule(f *fusion.Fusion, cfg Config) error {
	c, ok := cfg.(*PointwiseConfig)
	if !ok || c == nil {
		return configTypeError(HeuristicPointWise, cfg)
	}
	return scheduleKernel(f, HeuristicPointWise, c)
}
