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
	"github.com/secretflow/fuser/pkg/fusion"
)

//go:generate mockgen -source heuristic.go -destination heuristic_mock.go -package scheduler

// Heuristic is a strategy for executing a fusion. Implementations hold no
// per-fusion state and may be shared by concurrent scheduling calls.
type Heuristic interface {
	Type() HeuristicType
	// CanScheduleCompileTime inspects static structure only and returns nil
	// to accept.
	CanScheduleCompileTime(f *fusion.Fusion, opts *Options) *Rejection
	// CanScheduleRuntime re-validates with concrete arguments. It may reject
	// a fusion accepted at compile time.
	CanScheduleRuntime(f *fusion.Fusion, args *RuntimeArgs, opts *Options) *Rejection
	ComputeConfig(f *fusion.Fusion, args *RuntimeArgs) (Config, error)
	// Schedule binds every output of f. It requires both predicates to have
	// accepted f and cfg to come from ComputeConfig of the same heuristic.
	Schedule(f *fusion.Fusion, cfg Config) error
}

// DefaultHeuristics returns the built-in heuristics in priority order.
func DefaultHeuristics() []Heuristic {
	return []Heuristic{
		&ExprEvalScheduler{},
		&NoOpScheduler{},
		&ReductionScheduler{},
		&TransposeScheduler{},
		&PointWiseScheduler{},
	}
}
