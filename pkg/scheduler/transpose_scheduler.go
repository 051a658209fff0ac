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

var _ Heuristic = &TransposeScheduler{}

const maxTileSize = 32

// TransposeScheduler generates a tiled kernel for fusions that permute
// dims, so that both reads and writes stay coalesced.
type TransposeScheduler struct{}

func (s *TransposeScheduler) Type() HeuristicType {
	return HeuristicTranspose
}

func (s *TransposeScheduler) CanScheduleCompileTime(f *fusion.Fusion, _ *Options) *Rejection {
	if r := rejectResharding(HeuristicTranspose, f); r != nil {
		return r
	}
	if e := firstExprIn(f, fusion.CategoryNative, fusion.CategoryReduction); e != nil {
		return reject(HeuristicTranspose, UnsupportedOperation, "%s cannot be fused into a transpose kernel", e.Name)
	}
	permutes := exprsOfKind(f, fusion.OpPermute)
	if len(permutes) == 0 {
		return reject(HeuristicTranspose, StructuralMismatch, "no permute found")
	}
	in := permutes[0].Inputs[0]
	if in.Rank < 2 {
		return reject(HeuristicTranspose, StructuralMismatch, "transpose needs at least 2 dims, got rank %d", in.Rank)
	}
	return rejectNoReference(HeuristicTranspose, in)
}

func transposeArg(f *fusion.Fusion, args *RuntimeArgs) (*fusion.Expr, *TensorArg, error) {
	permutes := exprsOfKind(f, fusion.OpPermute)
	if len(permutes) == 0 {
		return nil, nil, fmt.Errorf("no permute found")
	}
	arg, err := referenceArg(f, args, permutes[0].Inputs[0])
	if err != nil {
		return nil, nil, err
	}
	return permutes[0], arg, nil
}

func (s *TransposeScheduler) CanScheduleRuntime(f *fusion.Fusion, args *RuntimeArgs, _ *Options) *Rejection {
	_, arg, err := transposeArg(f, args)
	if err != nil {
		return reject(HeuristicTranspose, RuntimeMismatch, "%v", err)
	}
	rank := arg.Rank()
	if rank < 2 {
		return reject(HeuristicTranspose, RuntimeMismatch, "transpose needs at least 2 dims, got shape %v", arg.Shape)
	}
	if arg.Shape[rank-1] == 0 || arg.Shape[rank-2] == 0 {
		return reject(HeuristicTranspose, RuntimeMismatch, "empty inner dims in shape %v", arg.Shape)
	}
	return nil
}

func (s *TransposeScheduler) ComputeConfig(f *fusion.Fusion, args *RuntimeArgs) (Config, error) {
	permute, arg, err := transposeArg(f, args)
	if err != nil {
		return nil, err
	}
	rank := arg.Rank()
	if rank < 2 {
		return nil, fmt.Errorf("transpose needs at least 2 dims, got shape %v", arg.Shape)
	}
	inner1 := arg.Shape[rank-1]
	inner2 := arg.Shape[rank-2]
	cfg := &TransposeConfig{
		TileSize1:        int(min(prevPow2(inner1), maxTileSize)),
		TileSize2:        int(min(prevPow2(inner2), maxTileSize)),
		VectorizeFactor1: 1,
		VectorizeFactor2: 1,
	}
	if arg.Strides[rank-1] == 1 {
		cfg.VectorizeFactor1 = min(vectorizeFactor(arg.DType, inner1, arg.Alignment), cfg.TileSize1)
	}
	// the output's innermost dim is the input dim moved last by the permute
	perm, err := permute.GetAttrInts(fusion.AttrPerm)
	if err == nil && len(perm) == rank {
		cfg.VectorizeFactor2 = min(vectorizeFactor(arg.DType, arg.Shape[perm[rank-1]], arg.Alignment), cfg.TileSize2)
	}
	tiles := ceilDiv(inner1, int64(cfg.TileSize1)) * ceilDiv(inner2, int64(cfg.TileSize2))
	cfg.GridX = max(tiles*(arg.Numel()/max(inner1*inner2, 1)), 1)
	return cfg, nil
}

func (s *TransposeScheduler) Schedule(f *fusion.Fusion, cfg Config) error {
	c, ok := cfg.(*TransposeConfig)
	if !ok || c == nil {
		return configTypeError(HeuristicTranspose, cfg)
	}
	return scheduleKernel(f, HeuristicTranspose, c)
}
