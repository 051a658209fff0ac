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
	"strings"

	"golang.org/x/exp/slices"

	"github.com/secretflow/fuser/pkg/fusion"
)

var _ Heuristic = &ExprEvalScheduler{}

const (
	singleExprReason     = "Fusion must contain only a single expression."
	matmulDisabledReason = "Matmul native evaluation was disabled by " + DisableEnv + "=" + string(DisableMatmulExprEval)
)

// exprEvalRule decides whether a kind found in exprEvalAcceptance is handed
// to native evaluation under opts.
type exprEvalRule func(opts *Options) *Rejection

// exprEvalAcceptance lists the kinds backed by a native primitive.
var exprEvalAcceptance = map[fusion.OpKind]exprEvalRule{
	fusion.OpSdpaFwd: acceptAlways,
	fusion.OpSdpaBwd: acceptAlways,
	fusion.OpMatmul:  acceptUnlessMatmulDisabled,
	fusion.OpLinear:  acceptUnlessMatmulDisabled,
}

func acceptAlways(*Options) *Rejection {
	return nil
}

func acceptUnlessMatmulDisabled(opts *Options) *Rejection {
	if opts.IsOptionDisabled(DisableMatmulExprEval) {
		return reject(HeuristicExprEval, PolicyDisabled, matmulDisabledReason)
	}
	return nil
}

// unsupportedKindReason names the accepted kinds in kind order.
func unsupportedKindReason() string {
	kinds := make([]fusion.OpKind, 0, len(exprEvalAcceptance))
	for k := range exprEvalAcceptance {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	return fmt.Sprintf("Fusion must contain only a single expression of type %s", strings.Join(names, "/"))
}

// ExprEvalScheduler hands a fusion made of a single natively implemented
// expression to direct evaluation instead of generating a kernel.
type ExprEvalScheduler struct{}

func (s *ExprEvalScheduler) Type() HeuristicType {
	return HeuristicExprEval
}

func (s *ExprEvalScheduler) CanScheduleCompileTime(f *fusion.Fusion, opts *Options) *Rejection {
	if r := rejectResharding(HeuristicExprEval, f); r != nil {
		return r
	}
	exprs := f.Exprs()
	if len(exprs) != 1 {
		return reject(HeuristicExprEval, StructuralMismatch, singleExprReason)
	}
	rule, ok := exprEvalAcceptance[exprs[0].Kind]
	if !ok {
		return reject(HeuristicExprEval, UnsupportedOperation, "%s", unsupportedKindReason())
	}
	return rule(opts)
}

func (s *ExprEvalScheduler) CanScheduleRuntime(*fusion.Fusion, *RuntimeArgs, *Options) *Rejection {
	return nil
}

func (s *ExprEvalScheduler) ComputeConfig(*fusion.Fusion, *RuntimeArgs) (Config, error) {
	return &ExprEvalConfig{}, nil
}

// Schedule binds every output to direct evaluation with no input override.
func (s *ExprEvalScheduler) Schedule(f *fusion.Fusion, cfg Config) error {
	if _, ok := cfg.(*ExprEvalConfig); !ok {
		return configTypeError(HeuristicExprEval, cfg)
	}
	for _, out := range f.Outputs() {
		if err := f.AliasOutputToInput(out, nil, fusion.AllocationEvaluate); err != nil {
			return err
		}
	}
	return nil
}
