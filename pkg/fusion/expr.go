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
	"sort"
	"strings"
)

// Expr is one typed operation of a fusion
type Expr struct {
	ID         int
	Name       string
	Kind       OpKind
	Inputs     []*Val
	Outputs    []*Val
	Attributes map[string]*Attribute
}

// IsOneOf reports whether the expression's kind is any of kinds.
func (e *Expr) IsOneOf(kinds ...OpKind) bool {
	return e.Kind.IsOneOf(kinds...)
}

func (e *Expr) Category() OpCategory {
	return e.Kind.Category()
}

func (e *Expr) GetAttrInts(name string) ([]int64, error) {
	if attr, ok := e.Attributes[name]; ok {
		return attr.GetInts()
	}
	return nil, fmt.Errorf("getAttrInts: attribute %s doesn't exist on %s", name, e.Name)
}

func (e *Expr) GetAttrDType(name string) (DType, error) {
	if attr, ok := e.Attributes[name]; ok {
		return attr.GetDType()
	}
	return DTypeUnknown, fmt.Errorf("getAttrDType: attribute %s doesn't exist on %s", name, e.Name)
}

// ToString dumps a debug string of the expression
func (e *Expr) ToString() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s:{", e.Name)

	fmt.Fprint(&builder, "in:[")
	for _, v := range e.Inputs {
		fmt.Fprintf(&builder, "T%d,", v.ID)
	}
	fmt.Fprint(&builder, "],")

	fmt.Fprint(&builder, "out:[")
	for _, v := range e.Outputs {
		fmt.Fprintf(&builder, "T%d,", v.ID)
	}
	fmt.Fprint(&builder, "],")

	fmt.Fprint(&builder, "attr:[")
	var keys []string
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&builder, "%s:%s,", k, e.Attributes[k].ToString())
	}
	fmt.Fprint(&builder, "]")
	fmt.Fprint(&builder, "}")
	return builder.String()
}

// ToBriefString dumps a brief string of the expression
func (e *Expr) ToBriefString() string {
	return fmt.Sprintf("%s_%d\\l%s", e.Name, e.ID, e.Kind)
}
