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

package desc

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/secretflow/fuser/pkg/fusion"
)

// hclFusionFile is the top-level structure of an HCL fusion description:
//
//	name = "matmul"
//	input "x" {
//	  dtype = dtype.float
//	  rank  = 2
//	}
//	expr "mm" {
//	  op      = "matmul"
//	  inputs  = ["x", "w"]
//	  outputs = ["y"]
//	}
//	outputs = ["y"]
type hclFusionFile struct {
	Name       string     `hcl:"name"`
	Resharding *bool      `hcl:"resharding,optional"`
	Inputs     []*hclVal  `hcl:"input,block"`
	Exprs      []*hclExpr `hcl:"expr,block"`
	Outputs    []string   `hcl:"outputs"`
}

type hclVal struct {
	Name  string `hcl:"name,label"`
	DType string `hcl:"dtype"`
	Rank  int    `hcl:"rank"`
}

type hclExpr struct {
	Name    string   `hcl:"name,label"`
	Op      string   `hcl:"op"`
	Inputs  []string `hcl:"inputs,optional"`
	Outputs []string `hcl:"outputs"`

	Axes  []int64  `hcl:"axes,optional"`
	Perm  []int64  `hcl:"perm,optional"`
	Dims  []int64  `hcl:"dims,optional"`
	DType *string  `hcl:"dtype,optional"`
	Rank  *int     `hcl:"rank,optional"`
	Value *float64 `hcl:"value,optional"`
}

// evalContext exposes dtype names as dtype.<name>
func evalContext() *hcl.EvalContext {
	dtypes := make(map[string]cty.Value)
	for _, name := range fusion.DTypeNames() {
		dtypes[name] = cty.StringVal(name)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"dtype": cty.ObjectVal(dtypes),
		},
	}
}

// ParseHCL decodes an HCL fusion description; filename is used in diagnostics.
func ParseHCL(content []byte, filename string) (*Desc, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclFusionFile
	diags = gohcl.DecodeBody(file.Body, evalContext(), &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	d := &Desc{
		Name:    parsed.Name,
		Outputs: parsed.Outputs,
	}
	if parsed.Resharding != nil {
		d.Resharding = *parsed.Resharding
	}
	for _, in := range parsed.Inputs {
		d.Inputs = append(d.Inputs, ValDesc{Name: in.Name, DType: in.DType, Rank: in.Rank})
	}
	for _, e := range parsed.Exprs {
		ed := ExprDesc{
			Op:      e.Op,
			Name:    e.Name,
			Inputs:  e.Inputs,
			Outputs: e.Outputs,
			Axes:    e.Axes,
			Perm:    e.Perm,
			Dims:    e.Dims,
			Rank:    e.Rank,
			Value:   e.Value,
		}
		if e.DType != nil {
			ed.DType = *e.DType
		}
		d.Exprs = append(d.Exprs, ed)
	}
	return d, nil
}
