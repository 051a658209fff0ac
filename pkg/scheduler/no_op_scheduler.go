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

var _ Heuristic = &NoOpScheduler{}

// NoOpScheduler handles fusions without computation: every output is a
// fusion input or a view of one.
type NoOpScheduler struct{}

func (s *NoOpScheduler) Type() HeuristicType {
	return HeuristicNoOp
}

func (s *NoOpScheduler) CanScheduleCompileTime(f *fusion.Fusion, _ *Options) *Rejection {
	if r := rejectResharding(HeuristicNoOp, f); r != nil {
		return r
	}
	for _, e := range f.Exprs() {
		if e.Category() != fusion.CategoryView {
			return reject(HeuristicNoOp, UnsupportedOperation, "%s is not a view operation", e.Name)
		}
	}
	return nil
}

func (s *NoOpScheduler) CanScheduleRuntime(*fusion.Fusion, *RuntimeArgs, *Options) *Rejection {
	return nil
}

func (s *NoOpScheduler) ComputeConfig(*fusion.Fusion, *RuntimeArgs) (Config, error) {
	return &NoOpConfig{}, nil
}

// Schedule makes each output reuse the buffer of the input it views.
func (s *NoOpScheduler) Schedule(f *fusion.Fusion, cfg Config) error {
	if _, ok := cfg.(*NoOpConfig); !ok {
		return configTypeError(HeuristicNoOp, cfg)
	}
	for _, out := range f.Outputs() {
		src := viewSource(out)
		if src == nil {
			return fmt.Errorf("%s: %s is not a view of a fusion input", HeuristicNoOp, out.ToBriefString())
		}
		if err := f.AliasOutputToInput(out, src, fusion.AllocationReuseBuffer); err != nil {
			return err
		}
	}
	return nil
}

// viewSource walks view expressions back to the fusion input v aliases.
func viewSource(v *fusion.Val) *fusion.Val {
	for !v.IsFusionInput() {
		def := v.Definition()
		if def == nil || def.Category() != fusion.CategoryView || len(def.Inputs) == 0 {
			return nil
		}
		v = def.Inputs[0]
	}
	return v
}
