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

	"golang.org/x/exp/slices"
)

var (
	opDefsByKind = map[OpKind]*OpDef{}
	opDefsByName = map[string]*OpDef{}
)

func init() {
	registerAllOpDefs()
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func register(opDef *OpDef) {
	check(opDef.err)
	if _, ok := opDefsByKind[opDef.kind]; ok {
		panic(fmt.Errorf("op def for kind %d registered twice", opDef.kind))
	}
	opDefsByKind[opDef.kind] = opDef
	for _, name := range append([]string{opDef.name}, opDef.aliases...) {
		key := strings.ToLower(name)
		if _, ok := opDefsByName[key]; ok {
			panic(fmt.Errorf("op name %q registered twice", name))
		}
		opDefsByName[key] = opDef
	}
}

func registerAllOpDefs() {
	{
		opDef := &OpDef{}
		opDef.SetName(OpNameSet)
		opDef.SetKind(OpSet)
		opDef.AddAlias("set")
		opDef.SetCategory(CategoryView)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = In, a copy that may be elided")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameUnary)
		opDef.SetKind(OpUnary)
		opDef.AddAlias("unary")
		opDef.SetCategory(CategoryPointwise)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = f(In) elementwise")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameBinary)
		opDef.SetKind(OpBinary)
		opDef.AddAlias("binary")
		opDef.AddAlias("add")
		opDef.AddAlias("mul")
		opDef.SetCategory(CategoryPointwise)
		opDef.SetInputArity(2, 2)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = Left `op` Right elementwise with broadcasting")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameTernary)
		opDef.SetKind(OpTernary)
		opDef.AddAlias("ternary")
		opDef.AddAlias("where")
		opDef.SetCategory(CategoryPointwise)
		opDef.SetInputArity(3, 3)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = f(A, B, C) elementwise with broadcasting")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameCast)
		opDef.SetKind(OpCast)
		opDef.AddAlias("cast")
		opDef.SetCategory(CategoryPointwise)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.AddAttribute(AttrDType)
		opDef.SetDefinition("Definition: Out = cast(In, dtype)")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameBroadcast)
		opDef.SetKind(OpBroadcast)
		opDef.AddAlias("broadcast")
		opDef.SetCategory(CategoryView)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = In with new broadcast dimensions")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameSqueeze)
		opDef.SetKind(OpSqueeze)
		opDef.AddAlias("squeeze")
		opDef.SetCategory(CategoryView)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = In without the given size-1 dimensions")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameReshape)
		opDef.SetKind(OpReshape)
		opDef.AddAlias("reshape")
		opDef.AddAlias("view")
		opDef.SetCategory(CategoryView)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = In viewed with a new shape")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNamePermute)
		opDef.SetKind(OpPermute)
		opDef.AddAlias("permute")
		opDef.AddAlias("transpose")
		opDef.SetCategory(CategoryPermute)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.AddAttribute(AttrPerm)
		opDef.SetDefinition("Definition: Out[perm[i]] = In[i], materialized in the new layout")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameReduction)
		opDef.SetKind(OpReduction)
		opDef.AddAlias("reduction")
		opDef.AddAlias("sum")
		opDef.SetCategory(CategoryReduction)
		opDef.SetInputArity(1, 1)
		opDef.SetOutputArity(1, 1)
		opDef.AddAttribute(AttrAxes)
		opDef.SetDefinition("Definition: Out = reduce(In, axes)")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameFull)
		opDef.SetKind(OpFull)
		opDef.AddAlias("full")
		opDef.SetCategory(CategoryFactory)
		opDef.SetInputArity(0, 0)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = a tensor filled with a scalar value")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameMatmul)
		opDef.SetKind(OpMatmul)
		opDef.AddAlias("matmul")
		opDef.SetCategory(CategoryNative)
		opDef.SetInputArity(2, 2)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = A @ B")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameLinear)
		opDef.SetKind(OpLinear)
		opDef.AddAlias("linear")
		opDef.SetCategory(CategoryNative)
		opDef.SetInputArity(2, 3)
		opDef.SetOutputArity(1, 1)
		opDef.SetDefinition("Definition: Out = In @ Weight^T (+ Bias)")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameSdpaFwd)
		opDef.SetKind(OpSdpaFwd)
		opDef.AddAlias("sdpa_fwd")
		opDef.SetCategory(CategoryNative)
		opDef.SetInputArity(3, 4)
		opDef.SetOutputArity(1, 4)
		opDef.SetDefinition("Definition: Out, LogSumExp, Seed, Offset = scaled_dot_product_attention(Q, K, V [, Mask])")
		register(opDef)
	}

	{
		opDef := &OpDef{}
		opDef.SetName(OpNameSdpaBwd)
		opDef.SetKind(OpSdpaBwd)
		opDef.AddAlias("sdpa_bwd")
		opDef.SetCategory(CategoryNative)
		opDef.SetInputArity(6, 8)
		opDef.SetOutputArity(3, 3)
		opDef.SetDefinition("Definition: GradQ, GradK, GradV = scaled_dot_product_attention_backward(GradOut, Q, K, V, Out, LogSumExp [, Seed, Offset])")
		register(opDef)
	}
}

// LookupOpDef returns the registered def of kind.
func LookupOpDef(kind OpKind) (*OpDef, bool) {
	def, ok := opDefsByKind[kind]
	return def, ok
}

// OpKindFromName resolves a canonical op name or alias, case-insensitively.
func OpKindFromName(name string) (OpKind, error) {
	def, ok := opDefsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return OpUnknown, fmt.Errorf("unknown op %q", name)
	}
	return def.kind, nil
}

// AllOpDefs returns every registered def ordered by kind.
func AllOpDefs() []*OpDef {
	kinds := make([]OpKind, 0, len(opDefsByKind))
	for k := range opDefsByKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	defs := make([]*OpDef, 0, len(kinds))
	for _, k := range kinds {
		defs = append(defs, opDefsByKind[k])
	}
	return defs
}
