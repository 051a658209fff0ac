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

// Val is a tensor value flowing between expressions. Only its rank is known
// at compile time; concrete extents arrive with the runtime arguments.
type Val struct {
	ID    int
	Name  string
	DType DType
	Rank  int

	definition     *Expr
	isFusionInput  bool
	isFusionOutput bool
}

// NewVal creates a val instance
func NewVal(id int, name string, dtype DType, rank int) *Val {
	return &Val{
		ID:    id,
		Name:  name,
		DType: dtype,
		Rank:  rank,
	}
}

// Definition returns the expression producing v, nil for fusion inputs.
func (v *Val) Definition() *Expr {
	return v.definition
}

func (v *Val) IsFusionInput() bool {
	return v.isFusionInput
}

func (v *Val) IsFusionOutput() bool {
	return v.isFusionOutput
}

func (v *Val) UniqueName() string {
	return fmt.Sprintf("%s.%d", v.Name, v.ID)
}

// ToString dumps a debug string of the val
func (v *Val) ToString() string {
	var builder strings.Builder
	fmt.Fprint(&builder, v.ToBriefString())
	if v.isFusionInput {
		fmt.Fprint(&builder, "[in]")
	}
	if v.isFusionOutput {
		fmt.Fprint(&builder, "[out]")
	}
	return builder.String()
}

// ToBriefString dumps a brief string of the val
func (v *Val) ToBriefString() string {
	return fmt.Sprintf("T%d_%s:%s:r%d", v.ID, shortName(v.Name), v.DType, v.Rank)
}

func shortName(name string) string {
	s := strings.Split(name, ".")
	return s[len(s)-1]
}
