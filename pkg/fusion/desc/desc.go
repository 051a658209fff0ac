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

// Package desc reads fusion descriptions and runtime arguments from files.
package desc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/secretflow/fuser/pkg/fusion"
)

// ValDesc describes a fusion input
type ValDesc struct {
	Name  string `yaml:"name" json:"name"`
	DType string `yaml:"dtype" json:"dtype"`
	Rank  int    `yaml:"rank" json:"rank"`
}

// ExprDesc describes one expression. Only the attributes its op needs are read.
type ExprDesc struct {
	Op      string   `yaml:"op" json:"op"`
	Name    string   `yaml:"name,omitempty" json:"name,omitempty"`
	Inputs  []string `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs []string `yaml:"outputs" json:"outputs"`

	Axes  []int64  `yaml:"axes,omitempty" json:"axes,omitempty"`
	Perm  []int64  `yaml:"perm,omitempty" json:"perm,omitempty"`
	Dims  []int64  `yaml:"dims,omitempty" json:"dims,omitempty"`
	DType string   `yaml:"dtype,omitempty" json:"dtype,omitempty"`
	Rank  *int     `yaml:"rank,omitempty" json:"rank,omitempty"`
	Value *float64 `yaml:"value,omitempty" json:"value,omitempty"`
}

// Desc is the file form of a fusion
type Desc struct {
	Name       string     `yaml:"name" json:"name"`
	Resharding bool       `yaml:"resharding,omitempty" json:"resharding,omitempty"`
	Inputs     []ValDesc  `yaml:"inputs" json:"inputs"`
	Exprs      []ExprDesc `yaml:"exprs" json:"exprs"`
	Outputs    []string   `yaml:"outputs" json:"outputs"`
}

// Load reads a fusion description, the format is chosen by file extension.
func Load(path string) (*Desc, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fusion description %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(content)
	case ".json":
		return ParseJSON(content)
	case ".hcl":
		return ParseHCL(content, path)
	default:
		return nil, fmt.Errorf("unsupported fusion description format %q", filepath.Ext(path))
	}
}

func ParseYAML(content []byte) (*Desc, error) {
	d := &Desc{}
	if err := yaml.Unmarshal(content, d); err != nil {
		return nil, errors.Wrap(err, "unmarshal yaml fusion description")
	}
	return d, nil
}

func ParseJSON(content []byte) (*Desc, error) {
	d := &Desc{}
	if err := json.Unmarshal(content, d); err != nil {
		return nil, errors.Wrap(err, "unmarshal json fusion description")
	}
	return d, nil
}

// Build constructs and checks the described fusion.
func (d *Desc) Build() (*fusion.Fusion, error) {
	b := fusion.NewFusionBuilder(d.Name)
	vals := make(map[string]*fusion.Val)
	define := func(name string, v *fusion.Val) error {
		if name == "" {
			return fmt.Errorf("empty val name")
		}
		if _, ok := vals[name]; ok {
			return fmt.Errorf("val %s defined twice", name)
		}
		v.Name = name
		vals[name] = v
		return nil
	}

	for _, in := range d.Inputs {
		dt, err := fusion.ParseDType(in.DType)
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", in.Name)
		}
		if err := define(in.Name, b.AddInput(in.Name, dt, in.Rank)); err != nil {
			return nil, err
		}
	}

	for i, e := range d.Exprs {
		inputs := make([]*fusion.Val, 0, len(e.Inputs))
		for _, name := range e.Inputs {
			v, ok := vals[name]
			if !ok {
				return nil, fmt.Errorf("expr %d (%s) reads undefined val %s", i, e.Op, name)
			}
			inputs = append(inputs, v)
		}
		outputs, err := addExpr(b, &e, inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "expr %d (%s)", i, e.Op)
		}
		if b.Err() != nil {
			return nil, errors.Wrapf(b.Err(), "expr %d (%s)", i, e.Op)
		}
		if len(outputs) != len(e.Outputs) {
			return nil, fmt.Errorf("expr %d (%s) produces %d outputs, %d names given", i, e.Op, len(outputs), len(e.Outputs))
		}
		for j, out := range outputs {
			if err := define(e.Outputs[j], out); err != nil {
				return nil, errors.Wrapf(err, "expr %d (%s)", i, e.Op)
			}
		}
		if e.Name != "" {
			outputs[0].Definition().Name = e.Name
		}
	}

	for _, name := range d.Outputs {
		v, ok := vals[name]
		if !ok {
			return nil, fmt.Errorf("output %s is not defined", name)
		}
		b.MarkOutput(v)
	}
	b.SetResharding(d.Resharding)
	return b.Build()
}

func addExpr(b *fusion.FusionBuilder, e *ExprDesc, in []*fusion.Val) ([]*fusion.Val, error) {
	kind, err := fusion.OpKindFromName(e.Op)
	if err != nil {
		return nil, err
	}
	def, _ := fusion.LookupOpDef(kind)
	if err := def.CheckArity(len(in), len(e.Outputs)); err != nil {
		return nil, err
	}
	rank := func() (int, error) {
		if e.Rank == nil {
			return 0, fmt.Errorf("%s needs a rank", def.GetName())
		}
		return *e.Rank, nil
	}
	dtype := func() (fusion.DType, error) {
		return fusion.ParseDType(e.DType)
	}
	switch kind {
	case fusion.OpSet:
		return []*fusion.Val{b.Set(in[0])}, nil
	case fusion.OpUnary:
		return []*fusion.Val{b.Unary(in[0])}, nil
	case fusion.OpBinary:
		return []*fusion.Val{b.Binary(in[0], in[1])}, nil
	case fusion.OpTernary:
		return []*fusion.Val{b.Ternary(in[0], in[1], in[2])}, nil
	case fusion.OpCast:
		dt, err := dtype()
		if err != nil {
			return nil, err
		}
		return []*fusion.Val{b.Cast(in[0], dt)}, nil
	case fusion.OpBroadcast:
		r, err := rank()
		if err != nil {
			return nil, err
		}
		return []*fusion.Val{b.Broadcast(in[0], r)}, nil
	case fusion.OpSqueeze:
		return []*fusion.Val{b.Squeeze(in[0], e.Dims)}, nil
	case fusion.OpReshape:
		r, err := rank()
		if err != nil {
			return nil, err
		}
		return []*fusion.Val{b.Reshape(in[0], r)}, nil
	case fusion.OpPermute:
		return []*fusion.Val{b.Permute(in[0], e.Perm)}, nil
	case fusion.OpReduction:
		return []*fusion.Val{b.Reduce(in[0], e.Axes)}, nil
	case fusion.OpFull:
		dt, err := dtype()
		if err != nil {
			return nil, err
		}
		r, err := rank()
		if err != nil {
			return nil, err
		}
		var value float64
		if e.Value != nil {
			value = *e.Value
		}
		return []*fusion.Val{b.Full(dt, r, value)}, nil
	case fusion.OpMatmul:
		return []*fusion.Val{b.Matmul(in[0], in[1])}, nil
	case fusion.OpLinear:
		var bias *fusion.Val
		if len(in) > 2 {
			bias = in[2]
		}
		return []*fusion.Val{b.Linear(in[0], in[1], bias)}, nil
	case fusion.OpSdpaFwd:
		if len(in) != 3 || len(e.Outputs) != 2 {
			return nil, fmt.Errorf("%s description takes q, k, v and names out, logsumexp", def.GetName())
		}
		out, lse := b.SdpaFwd(in[0], in[1], in[2])
		return []*fusion.Val{out, lse}, nil
	case fusion.OpSdpaBwd:
		if len(in) != 6 {
			return nil, fmt.Errorf("%s description takes grad_out, q, k, v, out, logsumexp", def.GetName())
		}
		gq, gk, gv := b.SdpaBwd(in[0], in[1], in[2], in[3], in[4], in[5])
		return []*fusion.Val{gq, gk, gv}, nil
	default:
		return nil, fmt.Errorf("op %s cannot be described", def.GetName())
	}
}
