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

// OpKind identifies the operation of an expression. The set is closed:
// adding a kind means bumping opKindVersion and registering an OpDef for it.
type OpKind int

const (
	OpUnknown OpKind = iota
	OpSet
	OpUnary
	OpBinary
	OpTernary
	OpCast
	OpBroadcast
	OpSqueeze
	OpReshape
	OpPermute
	OpReduction
	OpFull
	OpMatmul
	OpLinear
	OpSdpaFwd
	OpSdpaBwd
)

const opKindVersion = 1

const (
	OpNameSet       string = "SetOp"
	OpNameUnary     string = "UnaryOp"
	OpNameBinary    string = "BinaryOp"
	OpNameTernary   string = "TernaryOp"
	OpNameCast      string = "CastOp"
	OpNameBroadcast string = "BroadcastOp"
	OpNameSqueeze   string = "SqueezeOp"
	OpNameReshape   string = "ReshapeOp"
	OpNamePermute   string = "PermuteOp"
	OpNameReduction string = "ReductionOp"
	OpNameFull      string = "FullOp"
	OpNameMatmul    string = "MatmulOp"
	OpNameLinear    string = "LinearOp"
	OpNameSdpaFwd   string = "SdpaFwdOp"
	OpNameSdpaBwd   string = "SdpaBwdOp"
)

// attribute names
const (
	AttrAxes     string = "axes"
	AttrPerm     string = "perm"
	AttrDType    string = "dtype"
	AttrKeepDims string = "keep_dims"
	AttrValue    string = "value"
	AttrDims     string = "dims"
)

// OpCategory groups kinds the way schedulers reason about them.
type OpCategory int

const (
	CategoryUnknown OpCategory = iota
	// elementwise compute, including casts
	CategoryPointwise
	// metadata-only ops, no computation
	CategoryView
	CategoryReduction
	CategoryPermute
	// ops creating a tensor without reading inputs
	CategoryFactory
	// ops backed by a native library primitive
	CategoryNative
)

func (c OpCategory) String() string {
	switch c {
	case CategoryPointwise:
		return "pointwise"
	case CategoryView:
		return "view"
	case CategoryReduction:
		return "reduction"
	case CategoryPermute:
		return "permute"
	case CategoryFactory:
		return "factory"
	case CategoryNative:
		return "native"
	default:
		return "unknown"
	}
}

func (k OpKind) String() string {
	if def, ok := LookupOpDef(k); ok {
		return def.GetName()
	}
	return "UnknownOp"
}

// Category returns the category of the registered op def, CategoryUnknown
// for unregistered kinds.
func (k OpKind) Category() OpCategory {
	if def, ok := LookupOpDef(k); ok {
		return def.GetCategory()
	}
	return CategoryUnknown
}

// IsOneOf reports whether k equals any of kinds.
func (k OpKind) IsOneOf(kinds ...OpKind) bool {
	for _, kind := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// OpKindVersion returns the version of the closed kind set.
func OpKindVersion() int {
	return opKindVersion
}
