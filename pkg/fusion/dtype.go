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

package fusion

import (
	"fmt"
	"strings"
)

type DType int32

const (
	DTypeUnknown DType = iota
	DTypeBool
	DTypeInt32
	DTypeInt64
	DTypeHalf
	DTypeBFloat16
	DTypeFloat
	DTypeDouble
)

var dtypeNames = map[DType]string{
	DTypeUnknown:  "unknown",
	DTypeBool:     "bool",
	DTypeInt32:    "int32",
	DTypeInt64:    "int64",
	DTypeHalf:     "half",
	DTypeBFloat16: "bfloat16",
	DTypeFloat:    "float",
	DTypeDouble:   "double",
}

var dtypeAliases = map[string]DType{
	"float16": DTypeHalf,
	"fp16":    DTypeHalf,
	"bf16":    DTypeBFloat16,
	"float32": DTypeFloat,
	"fp32":    DTypeFloat,
	"float64": DTypeDouble,
	"fp64":    DTypeDouble,
	"int":     DTypeInt64,
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dtype(%d)", int32(d))
}

// Size returns the element size in bytes, 0 for unknown types.
func (d DType) Size() int {
	switch d {
	case DTypeBool:
		return 1
	case DTypeHalf, DTypeBFloat16:
		return 2
	case DTypeInt32, DTypeFloat:
		return 4
	case DTypeInt64, DTypeDouble:
		return 8
	default:
		return 0
	}
}

func (d DType) IsFloatingPoint() bool {
	return d == DTypeHalf || d == DTypeBFloat16 || d == DTypeFloat || d == DTypeDouble
}

// ParseDType accepts canonical names and common aliases.
func ParseDType(s string) (DType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range dtypeNames {
		if n == name && d != DTypeUnknown {
			return d, nil
		}
	}
	if d, ok := dtypeAliases[name]; ok {
		return d, nil
	}
	return DTypeUnknown, fmt.Errorf("unknown dtype %q", s)
}

// DTypeNames returns canonical names of all known dtypes.
func DTypeNames() []string {
	names := make([]string, 0, len(dtypeNames))
	for d := DTypeBool; d <= DTypeDouble; d++ {
		names = append(names, dtypeNames[d])
	}
	return names
}

// promote returns the wider of two dtypes for binary arithmetic.
func promote(a, b DType) DType {
	if a == b {
		return a
	}
	if a.IsFloatingPoint() != b.IsFloatingPoint() {
		if a.IsFloatingPoint() {
			return a
		}
		return b
	}
	if a.Size() >= b.Size() {
		return a
	}
	return b
}
