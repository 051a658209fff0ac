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

package status

import "fmt"

// Code classifies scheduling failures
type Code int32

const (
	CodeOK Code = 0
	// runtime arguments do not match the fusion inputs
	CodeInvalidArgument Code = 100
	// every heuristic rejected the fusion at compile time
	CodeNoApplicableHeuristic Code = 200
	// the compile-time winner rejected the runtime arguments
	CodeRuntimeRejected Code = 201
	CodeInternal        Code = 300
)

var Code_name = map[int32]string{
	0:   "OK",
	100: "INVALID_ARGUMENT",
	200: "NO_APPLICABLE_HEURISTIC",
	201: "RUNTIME_REJECTED",
	300: "INTERNAL",
}

func (c Code) String() string {
	if name, ok := Code_name[int32(c)]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int32(c))
}
