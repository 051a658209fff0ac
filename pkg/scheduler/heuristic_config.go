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

import "fmt"

var (
	_ Config = &ExprEvalConfig{}
	_ Config = &NoOpConfig{}
	_ Config = &PointwiseConfig{}
	_ Config = &ReductionConfig{}
	_ Config = &TransposeConfig{}
)

// Config holds the parameters ComputeConfig derives for one fusion and
// Schedule consumes.
type Config interface {
	HeuristicType() HeuristicType
	String() string
}

// ExprEvalConfig is empty: native evaluation needs no tuning.
type ExprEvalConfig struct{}

func (c *ExprEvalConfig) HeuristicType() HeuristicType { return HeuristicExprEval }

func (c *ExprEvalConfig) String() string { return "ExprEvalConfig{}" }

type NoOpConfig struct{}

func (c *NoOpConfig) HeuristicType() HeuristicType { return HeuristicNoOp }

func (c *NoOpConfig) String() string { return "NoOpConfig{}" }

type PointwiseConfig struct {
	Numel           int64 `json:"numel"`
	VectorizeFactor int   `json:"vectorize_factor"`
	UnrollFactor    int   `json:"unroll_factor"`
	BlockX          int   `json:"block_x"`
	GridX           int64 `json:"grid_x"`
}

func (c *PointwiseConfig) HeuristicType() HeuristicType { return HeuristicPointWise }

func (c *PointwiseConfig) String() string {
	return fmt.Sprintf("PointwiseConfig{numel:%d,vectorize:%d,unroll:%d,block:%d,grid:%d}",
		c.Numel, c.VectorizeFactor, c.UnrollFactor, c.BlockX, c.GridX)
}

type ReductionConfig struct {
	// the innermost dim is reduced
	InnerReduction  bool  `json:"inner_reduction"`
	ReductionSize   int64 `json:"reduction_size"`
	IterationSize   int64 `json:"iteration_size"`
	VectorizeFactor int   `json:"vectorize_factor"`
	BlockX          int   `json:"block_x"`
	BlockY          int   `json:"block_y"`
	GridX           int64 `json:"grid_x"`
	// reduce across blocks with a second pass
	CrossGrid bool `json:"cross_grid"`
}

func (c *ReductionConfig) HeuristicType() HeuristicType { return HeuristicReduction }

func (c *ReductionConfig) String() string {
	return fmt.Sprintf("ReductionConfig{inner:%t,reduction:%d,iteration:%d,vectorize:%d,block:%dx%d,grid:%d,cross_grid:%t}",
		c.InnerReduction, c.ReductionSize, c.IterationSize, c.VectorizeFactor, c.BlockX, c.BlockY, c.GridX, c.CrossGrid)
}

type TransposeConfig struct {
	TileSize1        int   `json:"tile_size1"`
	TileSize2        int   `json:"tile_size2"`
	VectorizeFactor1 int   `json:"vectorize_factor1"`
	VectorizeFactor2 int   `json:"vectorize_factor2"`
	GridX            int64 `json:"grid_x"`
}

func (c *TransposeConfig) HeuristicType() HeuristicType { return HeuristicTranspose }

func (c *TransposeConfig) String() string {
	return fmt.Sprintf("TransposeConfig{tile:%dx%d,vectorize:%d/%d,grid:%d}",
		c.TileSize1, c.TileSize2, c.VectorizeFactor1, c.VectorizeFactor2, c.GridX)
}
