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

// RejectKind classifies why a heuristic declined a fusion
type RejectKind int

const (
	// topology or kinds do not fit the heuristic
	StructuralMismatch RejectKind = iota
	// a switch disabled an otherwise applicable heuristic
	PolicyDisabled
	// an expression kind is outside what the heuristic handles
	UnsupportedOperation
	// concrete shapes, strides or dtypes do not fit
	RuntimeMismatch
)

func (k RejectKind) String() string {
	switch k {
	case StructuralMismatch:
		return "StructuralMismatch"
	case PolicyDisabled:
		return "PolicyDisabled"
	case UnsupportedOperation:
		return "UnsupportedOperation"
	case RuntimeMismatch:
		return "RuntimeMismatch"
	default:
		return fmt.Sprintf("RejectKind(%d)", int(k))
	}
}

// Rejection is returned by a heuristic predicate that declines a fusion.
// A nil *Rejection means accept.
type Rejection struct {
	Heuristic HeuristicType
	Kind      RejectKind
	Reason    string
}

func (r *Rejection) String() string {
	return fmt.Sprintf("%s rejected (%s): %s", r.Heuristic, r.Kind, r.Reason)
}

func reject(h HeuristicType, kind RejectKind, format string, args ...interface{}) *Rejection {
	return &Rejection{
		Heuristic: h,
		Kind:      kind,
		Reason:    fmt.Sprintf(format, args...),
	}
}

//go:generate mockgen -source rejection.go -destination rejection_mock.go -package scheduler

// Reporter receives every rejection for diagnostics. Implementations must
// be safe for concurrent use and must not block scheduling.
type Reporter interface {
	RecordRejection(heuristic HeuristicType, reason string)
}

type NopReporter struct{}

func (NopReporter) RecordRejection(HeuristicType, string) {}
