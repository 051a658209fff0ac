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
)

// HeuristicType tags a scheduling strategy
type HeuristicType int

const (
	HeuristicNone HeuristicType = iota
	HeuristicNoOp
	HeuristicExprEval
	HeuristicPointWise
	HeuristicReduction
	HeuristicTranspose
)

var heuristicNames = map[HeuristicType]string{
	HeuristicNone:      "none",
	HeuristicNoOp:      "no_op",
	HeuristicExprEval:  "expr_eval",
	HeuristicPointWise: "pointwise",
	HeuristicReduction: "reduction",
	HeuristicTranspose: "transpose",
}

func (t HeuristicType) String() string {
	if name, ok := heuristicNames[t]; ok {
		return name
	}
	return fmt.Sprintf("heuristic(%d)", int(t))
}

// ParseHeuristicType accepts names as printed by String.
func ParseHeuristicType(s string) (HeuristicType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range heuristicNames {
		if n == name && t != HeuristicNone {
			return t, nil
		}
	}
	return HeuristicNone, fmt.Errorf("unknown heuristic %q", s)
}
