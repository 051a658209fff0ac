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

// Attribute holds a static parameter of an expression
type Attribute struct {
	Int64S   []int64
	DoubleS  []float64
	BooleanS []bool
	DType    DType
	// scalar attributes print without brackets
	scalar bool
}

// ToString dumps a debug string of the attribute
func (attr *Attribute) ToString() string {
	var builder strings.Builder
	fmt.Fprint(&builder, attr.GetAttrValue())
	return builder.String()
}

func (attr *Attribute) SetInts(v []int64) {
	dst := make([]int64, len(v))
	copy(dst, v)
	*attr = Attribute{Int64S: dst}
}

func (attr *Attribute) GetInts() ([]int64, error) {
	if attr.Int64S == nil || attr.scalar {
		return nil, fmt.Errorf("getInts: invalid attribute %v", attr.ToString())
	}
	return attr.Int64S, nil
}

func (attr *Attribute) SetInt64(v int64) {
	*attr = Attribute{Int64S: []int64{v}, scalar: true}
}

func (attr *Attribute) GetInt64() (int64, error) {
	if !attr.scalar || len(attr.Int64S) != 1 {
		return 0, fmt.Errorf("getInt64: invalid attribute %v", attr.ToString())
	}
	return attr.Int64S[0], nil
}

func (attr *Attribute) SetDouble(v float64) {
	*attr = Attribute{DoubleS: []float64{v}, scalar: true}
}

func (attr *Attribute) SetBool(v bool) {
	*attr = Attribute{BooleanS: []bool{v}, scalar: true}
}

func (attr *Attribute) GetBool() (bool, error) {
	if !attr.scalar || len(attr.BooleanS) != 1 {
		return false, fmt.Errorf("getBool: invalid attribute %v", attr.ToString())
	}
	return attr.BooleanS[0], nil
}

func (attr *Attribute) SetDType(v DType) {
	*attr = Attribute{DType: v, scalar: true}
}

func (attr *Attribute) GetDType() (DType, error) {
	if attr.DType == DTypeUnknown {
		return DTypeUnknown, fmt.Errorf("getDType: invalid attribute %v", attr.ToString())
	}
	return attr.DType, nil
}

// GetAttrValue returns attr value
func (attr *Attribute) GetAttrValue() interface{} {
	if attr.DType != DTypeUnknown {
		return attr.DType
	}
	if attr.BooleanS != nil {
		if attr.scalar {
			return attr.BooleanS[0]
		}
		return attr.BooleanS
	}
	if attr.Int64S != nil {
		if attr.scalar {
			return attr.Int64S[0]
		}
		return attr.Int64S
	}
	if attr.DoubleS != nil {
		if attr.scalar {
			return attr.DoubleS[0]
		}
		return attr.DoubleS
	}
	return nil
}

func NewIntsAttribute(v []int64) *Attribute {
	attr := &Attribute{}
	attr.SetInts(v)
	return attr
}

func NewDTypeAttribute(v DType) *Attribute {
	attr := &Attribute{}
	attr.SetDType(v)
	return attr
}

func NewDoubleAttribute(v float64) *Attribute {
	attr := &Attribute{}
	attr.SetDouble(v)
	return attr
}

func NewBoolAttribute(v bool) *Attribute {
	attr := &Attribute{}
	attr.SetBool(v)
	return attr
}
